// Package tui plays a local game session in the terminal with tcell.
package tui

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/services/tetris"
)

// DefaultHoldWindow はキーを押し続けているとみなす時間です。
// 端末はキーを離したイベントを送らないので、キーリピートが途切れたら離したことにします。
const DefaultHoldWindow = 120 * time.Millisecond

// command は1回のキー入力の解釈結果です。
type command struct {
	action string // tetris.Action* のいずれか
	quit   bool
}

// mapKey はキー入力をゲームの操作に変換します。割り当てが無ければ ok=false です。
func mapKey(ev *tcell.EventKey) (command, bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return command{quit: true}, true
	case tcell.KeyLeft:
		return command{action: tetris.ActionMoveLeft}, true
	case tcell.KeyRight:
		return command{action: tetris.ActionMoveRight}, true
	case tcell.KeyUp:
		return command{action: tetris.ActionRotate}, true
	case tcell.KeyDown:
		return command{action: tetris.ActionSoftDrop}, true
	case tcell.KeyEnter:
		return command{action: tetris.ActionStart}, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return command{quit: true}, true
		case 'a', 'h':
			return command{action: tetris.ActionMoveLeft}, true
		case 'd', 'l':
			return command{action: tetris.ActionMoveRight}, true
		case 'w', 'k', 'x':
			return command{action: tetris.ActionRotate}, true
		case 's', 'j':
			return command{action: tetris.ActionSoftDrop}, true
		case ' ':
			return command{action: tetris.ActionHardDrop}, true
		case 'r':
			return command{action: tetris.ActionRestart}, true
		}
	}
	return command{}, false
}

// keyHolder はキーリピートから押し続けている状態を推定します。
type keyHolder struct {
	window   time.Duration
	deadline map[string]time.Time
}

func newKeyHolder(window time.Duration) *keyHolder {
	if window <= 0 {
		window = DefaultHoldWindow
	}
	return &keyHolder{window: window, deadline: make(map[string]time.Time)}
}

// press はキー入力を記録し、押し始めなら true を返します。
func (k *keyHolder) press(action string, now time.Time) bool {
	_, held := k.deadline[action]
	k.deadline[action] = now.Add(k.window)
	return !held
}

// expire は期限切れのキーを離したことにして、その操作を返します。
func (k *keyHolder) expire(now time.Time) []string {
	var released []string
	for action, deadline := range k.deadline {
		if !now.Before(deadline) {
			released = append(released, action)
			delete(k.deadline, action)
		}
	}
	return released
}

func (k *keyHolder) reset() {
	clear(k.deadline)
}
