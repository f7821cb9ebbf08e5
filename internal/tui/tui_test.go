package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/models/tetris"
	gamesvc "github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/services/tetris"
)

func TestMapKey(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want command
		ok   bool
	}{
		{"left arrow", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), command{action: gamesvc.ActionMoveLeft}, true},
		{"vim right", tcell.NewEventKey(tcell.KeyRune, 'l', tcell.ModNone), command{action: gamesvc.ActionMoveRight}, true},
		{"up rotates", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), command{action: gamesvc.ActionRotate}, true},
		{"down soft drops", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), command{action: gamesvc.ActionSoftDrop}, true},
		{"space hard drops", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), command{action: gamesvc.ActionHardDrop}, true},
		{"enter starts", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), command{action: gamesvc.ActionStart}, true},
		{"r restarts", tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), command{action: gamesvc.ActionRestart}, true},
		{"ctrl-c quits", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), command{quit: true}, true},
		{"q quits", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), command{quit: true}, true},
		{"unbound", tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), command{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := mapKey(tt.ev)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyHolder(t *testing.T) {
	k := newKeyHolder(100 * time.Millisecond)
	start := time.Unix(0, 0)

	assert.True(t, k.press("move_left", start))
	assert.False(t, k.press("move_left", start.Add(50*time.Millisecond)), "repeat extends the hold")
	assert.Empty(t, k.expire(start.Add(120*time.Millisecond)))
	assert.Equal(t, []string{"move_left"}, k.expire(start.Add(150*time.Millisecond)))
	assert.True(t, k.press("move_left", start.Add(200*time.Millisecond)))

	k.reset()
	assert.Empty(t, k.expire(start.Add(time.Hour)))
}

type zeroRandomizer struct{}

func (zeroRandomizer) Intn(int) int { return 0 }

func newTestDriver(t *testing.T) (*Driver, *time.Time) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 30)
	t.Cleanup(screen.Fini)

	session, err := gamesvc.NewGameSession(gamesvc.DefaultSettings(), zeroRandomizer{})
	require.NoError(t, err)

	d := NewDriver(screen, session, 100*time.Millisecond)
	clock := time.Unix(0, 0)
	d.now = func() time.Time { return clock }
	return d, &clock
}

func key(k tcell.Key, r rune) *tcell.EventKey {
	return tcell.NewEventKey(k, r, tcell.ModNone)
}

func TestDriver_StartMoveAndDrop(t *testing.T) {
	d, clock := newTestDriver(t)
	assert.True(t, d.handleKey(key(tcell.KeyEnter, 0)))
	require.Equal(t, gamesvc.StatePlaying, d.session.State())
	startX := d.session.Active().Anchor().X

	assert.True(t, d.handleKey(key(tcell.KeyLeft, 0)))
	d.step(frameInterval)
	assert.Equal(t, startX-1, d.session.Active().Anchor().X)

	// 押しっぱなしの間のリピートでは新しい押下にならない
	*clock = clock.Add(50 * time.Millisecond)
	d.handleKey(key(tcell.KeyLeft, 0))
	d.step(frameInterval)
	assert.Equal(t, startX-1, d.session.Active().Anchor().X)

	*clock = clock.Add(time.Second)
	d.step(frameInterval)
	assert.Empty(t, d.holder.deadline)

	assert.True(t, d.handleKey(key(tcell.KeyRune, ' ')))
	d.step(frameInterval)
	assert.Equal(t, 2, d.session.PiecesSpawned())

	assert.False(t, d.handleKey(key(tcell.KeyRune, 'q')))
}

func TestDriver_EnterWhilePlayingDoesNotRestart(t *testing.T) {
	d, _ := newTestDriver(t)
	d.handleKey(key(tcell.KeyEnter, 0))
	d.handleKey(key(tcell.KeyRune, ' '))
	d.step(frameInterval)
	require.Equal(t, 2, d.session.PiecesSpawned())

	d.handleKey(key(tcell.KeyEnter, 0))
	assert.Equal(t, 2, d.session.PiecesSpawned())

	d.handleKey(key(tcell.KeyRune, 'r'))
	assert.Equal(t, 1, d.session.PiecesSpawned())
}

func TestDriver_DrawDoesNotPanic(t *testing.T) {
	d, _ := newTestDriver(t)
	d.draw()
	d.handleKey(key(tcell.KeyEnter, 0))
	d.step(frameInterval)
	d.draw()
}

type fakeCanvas map[[2]int]rune

func (f fakeCanvas) SetContent(x, y int, primary rune, _ []rune, _ tcell.Style) {
	f[[2]int{x, y}] = primary
}

func (f fakeCanvas) row(y int) string {
	var b strings.Builder
	for x := 0; x < 120; x++ {
		if r, ok := f[[2]int{x, y}]; ok {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func TestRender(t *testing.T) {
	snap := gamesvc.Snapshot{
		State:  gamesvc.StateGameOver,
		Score:  7,
		Width:  4,
		Height: 3,
		Board: [][]tetris.BlockType{
			{tetris.BlockI, tetris.BlockEmpty, tetris.BlockEmpty, tetris.BlockEmpty},
			{tetris.BlockEmpty, tetris.BlockEmpty, tetris.BlockEmpty, tetris.BlockEmpty},
			{tetris.BlockEmpty, tetris.BlockEmpty, tetris.BlockEmpty, tetris.BlockEmpty},
		},
		Next: tetris.TypeO,
	}
	c := fakeCanvas{}
	Render(c, snap, "hello")

	// y=0 の行は画面では一番下
	bottomRow := boardTop + snap.Height - 1
	assert.Equal(t, blockRune, c[[2]int{boardLeft + 1, bottomRow}])
	assert.Equal(t, blockRune, c[[2]int{boardLeft + 2, bottomRow}])
	_, ok := c[[2]int{boardLeft + 1, boardTop}]
	assert.False(t, ok)

	var all strings.Builder
	for y := 0; y < 20; y++ {
		all.WriteString(c.row(y))
		all.WriteByte('\n')
	}
	assert.Contains(t, all.String(), "SCORE 7")
	assert.Contains(t, all.String(), "GAME OVER")
	assert.Contains(t, all.String(), "hello")
}
