package tetris

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/models/tetris"
)

// ゲームの速度設定のデフォルト値です。
const (
	DefaultNormalFallInterval = 1 * time.Second        // 通常の自動落下間隔
	DefaultSoftDropInterval   = 50 * time.Millisecond  // ソフトドロップ中の落下間隔
	DefaultMoveRepeatDelay    = 150 * time.Millisecond // 左右キー長押しでリピートが始まるまでの時間
)

var ErrInvalidSettings = errors.New("invalid game settings")

// Settings はゲーム開始時に決まる設定です。ゲーム中は変わりません。
type Settings struct {
	BoardWidth         int           `json:"board_width"`
	BoardHeight        int           `json:"board_height"`
	CellSize           float64       `json:"cell_size"`
	NormalFallInterval time.Duration `json:"normal_fall_interval"`
	SoftDropInterval   time.Duration `json:"soft_drop_interval"`
	MoveRepeatDelay    time.Duration `json:"move_repeat_delay"`
	// Seed は0のとき現在時刻から決めます。
	Seed int64 `json:"seed"`
}

// DefaultSettings はデフォルトの設定を返します。
func DefaultSettings() Settings {
	return Settings{
		BoardWidth:         tetris.DefaultBoardWidth,
		BoardHeight:        tetris.DefaultBoardHeight,
		CellSize:           tetris.DefaultCellSize,
		NormalFallInterval: DefaultNormalFallInterval,
		SoftDropInterval:   DefaultSoftDropInterval,
		MoveRepeatDelay:    DefaultMoveRepeatDelay,
	}
}

// Validate は設定値が使えるかどうかを確認します。
func (s Settings) Validate() error {
	switch {
	case s.BoardWidth < tetris.MinBoardWidth || s.BoardHeight < 2:
		return fmt.Errorf("%w: board %dx%d", ErrInvalidSettings, s.BoardWidth, s.BoardHeight)
	case s.CellSize <= 0:
		return fmt.Errorf("%w: cell size %v", ErrInvalidSettings, s.CellSize)
	case s.NormalFallInterval <= 0 || s.SoftDropInterval <= 0:
		return fmt.Errorf("%w: fall intervals must be positive", ErrInvalidSettings)
	case s.MoveRepeatDelay < 0:
		return fmt.Errorf("%w: negative move repeat delay", ErrInvalidSettings)
	}
	return nil
}

// Input は1ティック分のプレイヤー入力です。
// MoveLeft/MoveRight/Rotate/HardDrop はそのティックでキーが押された瞬間だけ true になります。
// HoldLeft/HoldRight/SoftDrop はキーが押され続けている間 true です。
type Input struct {
	MoveLeft  bool `json:"move_left"`
	MoveRight bool `json:"move_right"`
	Rotate    bool `json:"rotate"`
	HardDrop  bool `json:"hard_drop"`
	HoldLeft  bool `json:"hold_left"`
	HoldRight bool `json:"hold_right"`
	SoftDrop  bool `json:"soft_drop"`
}

// IsZero は何の入力もないかどうかを返します。
func (in Input) IsZero() bool {
	return in == Input{}
}

// PieceState は操作中のテトリミノのライフサイクルです。
type PieceState int

const (
	PieceSpawned PieceState = iota // 生成直後
	PieceActive                    // 操作中
	PieceLocked                    // 固定済み（終端状態）
)

func (s PieceState) String() string {
	switch s {
	case PieceSpawned:
		return "spawned"
	case PieceActive:
		return "active"
	case PieceLocked:
		return "locked"
	default:
		return fmt.Sprintf("PieceState(%d)", int(s))
	}
}

// PieceReporter はテトリミノが固定されたときの結果を受け取ります。
// GameSession が実装します。
type PieceReporter interface {
	PieceLocked(piece tetris.PieceType, cells [tetris.CellsPerPiece]tetris.Point)
	LinesCleared(rows []int)
	AddScore(lines int)
	GameOver()
	RequestNextPiece()
}

// repeatTimer は左右キーの長押しリピートの状態です。
type repeatTimer struct {
	elapsed   time.Duration
	repeating bool
}

// PieceController は落下中のテトリミノ1つを操作します。
// 固定されると役目を終え、次のテトリミノには新しい PieceController を使います。
type PieceController struct {
	board    *tetris.Board
	reporter PieceReporter
	settings Settings

	pieceType tetris.PieceType
	rotation  int
	anchor    tetris.Point
	state     PieceState

	fallTimer   time.Duration
	leftRepeat  repeatTimer
	rightRepeat repeatTimer
}

// NewPieceController はボードの出現位置にテトリミノを生成します。
func NewPieceController(board *tetris.Board, reporter PieceReporter, pieceType tetris.PieceType, settings Settings) *PieceController {
	c := &PieceController{
		board:     board,
		reporter:  reporter,
		settings:  settings,
		pieceType: pieceType,
		state:     PieceSpawned,
	}
	if board == nil {
		log.Printf("[PieceController] board is nil, %s piece will not move", pieceType)
		return c
	}
	c.anchor = board.SpawnAnchor()
	return c
}

func (c *PieceController) Type() tetris.PieceType { return c.pieceType }
func (c *PieceController) Rotation() int          { return c.rotation }
func (c *PieceController) Anchor() tetris.Point   { return c.anchor }
func (c *PieceController) State() PieceState      { return c.state }

// Cells は現在の位置のブロック座標を返します。
func (c *PieceController) Cells() [tetris.CellsPerPiece]tetris.Point {
	return tetris.Cells(c.pieceType, c.rotation, c.anchor)
}

func (c *PieceController) canMove() bool {
	return c.board != nil && c.state != PieceLocked
}

func (c *PieceController) fits(rotation int, anchor tetris.Point) bool {
	cells := tetris.Cells(c.pieceType, rotation, anchor)
	return c.board.IsValidPlacement(cells[:])
}

// TryMove は dir だけ移動できれば移動して true を返します。
func (c *PieceController) TryMove(dir tetris.Point) bool {
	if !c.canMove() {
		return false
	}
	next := c.anchor.Add(dir)
	if !c.fits(c.rotation, next) {
		return false
	}
	c.anchor = next
	return true
}

// TryRotate は時計回りに回転します。
// その場で回転できなければ壁蹴りの候補を順に試し、最初に置ける位置を採用します。
// Oミノは回転しません。
func (c *PieceController) TryRotate() bool {
	if !c.canMove() || c.pieceType == tetris.TypeO {
		return false
	}
	next := tetris.NormalizeRotation(c.rotation + 1)
	if c.fits(next, c.anchor) {
		c.rotation = next
		return true
	}
	for _, kick := range tetris.WallKicks() {
		candidate := c.anchor.Add(kick)
		if c.fits(next, candidate) {
			c.rotation = next
			c.anchor = candidate
			return true
		}
	}
	return false
}

// HardDrop は落とせるところまで落として即座に固定します。
func (c *PieceController) HardDrop() {
	if !c.canMove() {
		return
	}
	for c.TryMove(tetris.Down) {
	}
	c.lock()
}

// GhostAnchor はハードドロップしたときの着地位置を返します。ボードには書き込みません。
func (c *PieceController) GhostAnchor() tetris.Point {
	if c.board == nil {
		return c.anchor
	}
	cells := c.Cells()
	return tetris.Point{X: c.anchor.X, Y: c.anchor.Y - c.board.DropDistance(cells[:])}
}

// GhostCells は着地位置のブロック座標を返します。
func (c *PieceController) GhostCells() [tetris.CellsPerPiece]tetris.Point {
	return tetris.Cells(c.pieceType, c.rotation, c.GhostAnchor())
}

// Advance は1ティック分の入力と経過時間を処理します。
// 処理順は 左, 右, 回転, ハードドロップ, 自動落下 です。
// ハードドロップした場合はそこでティックを終えます。
func (c *PieceController) Advance(dt time.Duration, in Input) {
	if !c.canMove() {
		return
	}
	c.state = PieceActive

	c.handleHorizontal(&c.leftRepeat, in.MoveLeft, in.HoldLeft, tetris.Left, dt)
	c.handleHorizontal(&c.rightRepeat, in.MoveRight, in.HoldRight, tetris.Right, dt)

	if in.Rotate {
		c.TryRotate()
	}
	if in.HardDrop {
		c.HardDrop()
		return
	}
	c.handleFall(dt, in.SoftDrop)
}

// handleHorizontal は左右移動のリピート処理です。
// 押した瞬間に1マス動かし、押し続けて MoveRepeatDelay が経過したら
// それ以降は毎ティック1マスずつ動かします。
func (c *PieceController) handleHorizontal(t *repeatTimer, pressed, held bool, dir tetris.Point, dt time.Duration) {
	switch {
	case pressed:
		c.TryMove(dir)
		*t = repeatTimer{}
	case held:
		if t.repeating {
			c.TryMove(dir)
			return
		}
		t.elapsed += dt
		if t.elapsed >= c.settings.MoveRepeatDelay {
			c.TryMove(dir)
			t.repeating = true
		}
	default:
		*t = repeatTimer{}
	}
}

// handleFall は自動落下のタイマーを進めます。
// 間隔に達したらタイマーを0に戻して1マス落とし、落とせなければ固定します。
func (c *PieceController) handleFall(dt time.Duration, softDrop bool) {
	interval := c.settings.NormalFallInterval
	if softDrop {
		interval = c.settings.SoftDropInterval
	}
	c.fallTimer += dt
	if c.fallTimer < interval {
		return
	}
	c.fallTimer = 0
	if !c.TryMove(tetris.Down) {
		c.lock()
	}
}

// lock はテトリミノをボードに固定し、ライン消去とゲームオーバー判定の結果を報告します。
func (c *PieceController) lock() {
	if c.state == PieceLocked {
		return
	}
	c.state = PieceLocked

	cells := c.Cells()
	if err := c.board.Commit(cells[:], c.pieceType.Block()); err != nil {
		// 置けない位置で固定されたのは出現位置が塞がれたのと同じ扱い
		log.Printf("[PieceController] failed to commit %s piece at %v: %v", c.pieceType, c.anchor, err)
		if c.reporter != nil {
			c.reporter.GameOver()
		}
		return
	}
	rows := c.board.ClearFullRows()
	if c.reporter == nil {
		log.Printf("[PieceController] no reporter for locked %s piece", c.pieceType)
		return
	}
	c.reporter.PieceLocked(c.pieceType, cells)
	if len(rows) > 0 {
		c.reporter.LinesCleared(rows)
		c.reporter.AddScore(len(rows))
	}

	if c.board.IsTopOccupied() {
		c.reporter.GameOver()
		return
	}
	c.reporter.RequestNextPiece()
}
