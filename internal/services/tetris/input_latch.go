package tetris

// クライアントから送られてくる操作の種類です。
const (
	ActionMoveLeft  = "move_left"
	ActionMoveRight = "move_right"
	ActionRotate    = "rotate"
	ActionSoftDrop  = "soft_drop"
	ActionHardDrop  = "hard_drop"
	ActionStart     = "start"
	ActionRestart   = "restart"
)

// PlayerInputEvent はクライアントからの操作入力を表す構造体です。
// WebSocketを通じてサーバーに送信されます。
// Released はキーを離したときに true になります。
type PlayerInputEvent struct {
	UserID   string `json:"user_id"`
	Action   string `json:"action"`
	Released bool   `json:"released"`
}

// InputLatch はティックの間に届いたキーの押下・解放をまとめて、1ティック分の Input にします。
// 押した瞬間のフラグは Take で取り出すと消え、押し続けている状態は解放まで残ります。
type InputLatch struct {
	edges     Input
	holdLeft  bool
	holdRight bool
	softDrop  bool
}

// Apply はキー操作を1つ記録します。知らない操作なら false を返します。
func (l *InputLatch) Apply(action string, released bool) bool {
	switch action {
	case ActionMoveLeft:
		if !released && !l.holdLeft {
			l.edges.MoveLeft = true
		}
		l.holdLeft = !released
	case ActionMoveRight:
		if !released && !l.holdRight {
			l.edges.MoveRight = true
		}
		l.holdRight = !released
	case ActionRotate:
		if !released {
			l.edges.Rotate = true
		}
	case ActionHardDrop:
		if !released {
			l.edges.HardDrop = true
		}
	case ActionSoftDrop:
		l.softDrop = !released
	default:
		return false
	}
	return true
}

// Take は今のティックの入力を返し、押した瞬間のフラグをリセットします。
func (l *InputLatch) Take() Input {
	in := l.edges
	in.HoldLeft = l.holdLeft
	in.HoldRight = l.holdRight
	in.SoftDrop = l.softDrop
	l.edges = Input{}
	return in
}

// Reset は全てのキーを離した状態に戻します。
func (l *InputLatch) Reset() {
	*l = InputLatch{}
}
