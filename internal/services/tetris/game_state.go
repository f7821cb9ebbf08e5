package tetris

import (
	"fmt"
	"log"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/models/tetris"
)

// SessionState はゲームセッションの状態です。
type SessionState int

const (
	StateIdle     SessionState = iota // 開始前
	StatePlaying                      // プレイ中
	StateGameOver                     // ゲームオーバー
)

var sessionStateNames = map[SessionState]string{
	StateIdle:     "idle",
	StatePlaying:  "playing",
	StateGameOver: "game_over",
}

func (s SessionState) String() string {
	if name, ok := sessionStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SessionState) UnmarshalText(text []byte) error {
	for state, name := range sessionStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown session state: %q", text)
}

// GameSession は1人用のゲーム全体（ボード、スコア、次のテトリミノ、操作中のテトリミノ）を管理します。
// ゴルーチンを持たず、Start/Restart/Advance の呼び出しの中で同期的に状態が変わります。
// 複数のゴルーチンから同時に呼び出してはいけません。
type GameSession struct {
	settings  Settings
	board     *tetris.Board
	sequencer *PieceSequencer
	active    *PieceController

	state         SessionState
	score         int
	linesCleared  int
	piecesSpawned int
	playTime      time.Duration

	listeners []Listener
}

// NewGameSession は Idle 状態のゲームセッションを作成します。
// rng が nil の場合は settings.Seed から乱数源を作ります。
func NewGameSession(settings Settings, rng Randomizer) (*GameSession, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	board, err := tetris.NewBoard(settings.BoardWidth, settings.BoardHeight, settings.CellSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	if rng == nil {
		rng = NewRandomizer(settings.Seed)
	}
	return &GameSession{
		settings:  settings,
		board:     board,
		sequencer: NewPieceSequencer(rng),
		state:     StateIdle,
	}, nil
}

// Subscribe はイベントの受け取り先を追加します。
func (gs *GameSession) Subscribe(l Listener) {
	if l == nil {
		return
	}
	gs.listeners = append(gs.listeners, l)
}

func (gs *GameSession) emit(e Event) {
	for _, l := range gs.listeners {
		l.HandleEvent(e)
	}
}

func (gs *GameSession) setState(next SessionState) {
	if gs.state == next {
		return
	}
	prev := gs.state
	gs.state = next
	gs.emit(StateChangedEvent{From: prev, To: next})
}

func (gs *GameSession) Settings() Settings        { return gs.settings }
func (gs *GameSession) Board() *tetris.Board      { return gs.board }
func (gs *GameSession) State() SessionState       { return gs.state }
func (gs *GameSession) Score() int                { return gs.score }
func (gs *GameSession) TotalLinesCleared() int    { return gs.linesCleared }
func (gs *GameSession) PiecesSpawned() int        { return gs.piecesSpawned }
func (gs *GameSession) PlayTime() time.Duration   { return gs.playTime }
func (gs *GameSession) Preview() tetris.PieceType { return gs.sequencer.Peek() }

// Active は操作中のテトリミノを返します。無い場合は nil です。
func (gs *GameSession) Active() *PieceController { return gs.active }

// Start はゲームを開始します。Idle 以外の状態から呼んだ場合は Restart と同じです。
func (gs *GameSession) Start() {
	if gs.state != StateIdle {
		gs.Restart()
		return
	}
	gs.begin()
}

// Restart はボード、スコア、次のテトリミノを初期化してゲームをやり直します。
func (gs *GameSession) Restart() {
	gs.sequencer.Reset()
	gs.begin()
}

func (gs *GameSession) begin() {
	gs.board.Clear()
	gs.active = nil
	gs.linesCleared = 0
	gs.piecesSpawned = 0
	gs.playTime = 0
	gs.score = 0
	gs.setState(StatePlaying)
	gs.RequestNextPiece()
}

// Advance は経過時間と入力を操作中のテトリミノに渡します。プレイ中以外は何もしません。
func (gs *GameSession) Advance(dt time.Duration, in Input) {
	if gs.state != StatePlaying {
		return
	}
	if gs.active == nil {
		log.Printf("[GameSession] playing without an active piece, requesting one")
		gs.RequestNextPiece()
		return
	}
	if dt < 0 {
		dt = 0
	}
	gs.playTime += dt
	gs.active.Advance(dt, in)
}

// AddScore は消したライン数をスコアに加算します。
func (gs *GameSession) AddScore(lines int) {
	if lines <= 0 {
		return
	}
	gs.score += lines
	gs.emit(ScoreChangedEvent{Delta: lines, Score: gs.score})
}

// GameOver はゲームオーバーにします。プレイ中以外は何もしません。
func (gs *GameSession) GameOver() {
	if gs.state != StatePlaying {
		return
	}
	gs.active = nil
	gs.setState(StateGameOver)
	gs.emit(GameOverEvent{FinalScore: gs.score})
}

// RequestNextPiece は次のテトリミノを出現させます。プレイ中以外は何もしません。
func (gs *GameSession) RequestNextPiece() {
	if gs.state != StatePlaying {
		return
	}
	if gs.board == nil || gs.sequencer == nil {
		log.Printf("[GameSession] cannot spawn a piece without a board and sequencer")
		return
	}
	spawn, preview := gs.sequencer.SpawnNext()
	gs.active = NewPieceController(gs.board, gs, spawn, gs.settings)
	gs.piecesSpawned++
	anchor := gs.active.Anchor()
	gs.emit(PieceSpawnedEvent{
		Piece:    spawn,
		Preview:  preview,
		Anchor:   anchor,
		Position: gs.board.GridToWorld(anchor),
	})
}

// PieceLocked は PieceReporter の実装です。
func (gs *GameSession) PieceLocked(piece tetris.PieceType, cells [tetris.CellsPerPiece]tetris.Point) {
	gs.emit(PieceLockedEvent{Piece: piece, Cells: cells})
}

// LinesCleared は PieceReporter の実装です。
func (gs *GameSession) LinesCleared(rows []int) {
	gs.linesCleared += len(rows)
	gs.emit(LinesClearedEvent{Count: len(rows), Rows: rows})
}
