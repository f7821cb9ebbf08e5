package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/services/tetris"
)

const frameInterval = 16 * time.Millisecond // ~60 FPS

// Driver は GameSession をローカルの端末で動かします。
type Driver struct {
	screen  tcell.Screen
	session *tetris.GameSession
	latch   tetris.InputLatch
	holder  *keyHolder
	message string
	now     func() time.Time
}

// NewDriver は Driver を作成します。screen は Init 済みである必要があります。
func NewDriver(screen tcell.Screen, session *tetris.GameSession, holdWindow time.Duration) *Driver {
	d := &Driver{
		screen:  screen,
		session: session,
		holder:  newKeyHolder(holdWindow),
		now:     time.Now,
	}
	session.Subscribe(tetris.ListenerFunc(d.handleEvent))
	return d
}

// handleEvent はパネルに表示するメッセージを更新します。
func (d *Driver) handleEvent(e tetris.Event) {
	switch e := e.(type) {
	case tetris.LinesClearedEvent:
		d.message = fmt.Sprintf("%d LINE(S)!", e.Count)
	case tetris.GameOverEvent:
		d.message = fmt.Sprintf("final score %d", e.FinalScore)
	case tetris.StateChangedEvent:
		if e.To == tetris.StatePlaying {
			d.message = ""
		}
	}
}

// handleKey はキー入力を処理します。終了するなら false を返します。
func (d *Driver) handleKey(ev *tcell.EventKey) bool {
	cmd, ok := mapKey(ev)
	if !ok {
		return true
	}
	if cmd.quit {
		return false
	}

	switch cmd.action {
	case tetris.ActionStart, tetris.ActionRestart:
		if cmd.action == tetris.ActionStart && d.session.State() == tetris.StatePlaying {
			return true
		}
		d.latch.Reset()
		d.holder.reset()
		d.session.Start()
	case tetris.ActionRotate, tetris.ActionHardDrop:
		// リピートごとに1回ずつ
		d.latch.Apply(cmd.action, false)
	default:
		if d.holder.press(cmd.action, d.now()) {
			d.latch.Apply(cmd.action, false)
		}
	}
	return true
}

// step は1フレーム分ゲームを進めます。
func (d *Driver) step(dt time.Duration) {
	for _, action := range d.holder.expire(d.now()) {
		d.latch.Apply(action, true)
	}
	d.session.Advance(dt, d.latch.Take())
}

func (d *Driver) draw() {
	d.screen.Clear()
	Render(d.screen, d.session.Snapshot(), d.message)
	d.screen.Show()
}

// Run は ctx がキャンセルされるか終了キーが押されるまでゲームループを回します。
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := d.screen.PollEvent()
			if ev == nil {
				return // Fini された
			}
			eventChan <- ev
		}
	}()

	last := d.now()
	d.draw()
	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !d.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				d.screen.Sync()
			}

		case <-ticker.C:
			now := d.now()
			d.step(now.Sub(last))
			last = now
			d.draw()
		}
	}
}
