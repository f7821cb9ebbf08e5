package tetris

import (
	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/models/tetris"
)

// EventType はクライアントに送るイベントの種類です。
type EventType string

const (
	EventPieceSpawned EventType = "piece_spawned"
	EventPieceLocked  EventType = "piece_locked"
	EventLinesCleared EventType = "lines_cleared"
	EventScoreChanged EventType = "score_changed"
	EventGameOver     EventType = "game_over"
	EventStateChanged EventType = "state_changed"
)

// Event は GameSession が Advance などの中で同期的に発行するイベントです。
type Event interface {
	Type() EventType
}

// PieceSpawnedEvent の Position は出現位置のワールド座標です。
type PieceSpawnedEvent struct {
	Piece    tetris.PieceType `json:"piece"`
	Preview  tetris.PieceType `json:"preview"`
	Anchor   tetris.Point     `json:"anchor"`
	Position tetris.Vec2      `json:"position"`
}

type PieceLockedEvent struct {
	Piece tetris.PieceType                   `json:"piece"`
	Cells [tetris.CellsPerPiece]tetris.Point `json:"cells"`
}

// LinesClearedEvent の Rows は消した順の行番号です。
type LinesClearedEvent struct {
	Count int   `json:"count"`
	Rows  []int `json:"rows"`
}

type ScoreChangedEvent struct {
	Delta int `json:"delta"`
	Score int `json:"score"`
}

type GameOverEvent struct {
	FinalScore int `json:"final_score"`
}

type StateChangedEvent struct {
	From SessionState `json:"from"`
	To   SessionState `json:"to"`
}

func (PieceSpawnedEvent) Type() EventType { return EventPieceSpawned }
func (PieceLockedEvent) Type() EventType  { return EventPieceLocked }
func (LinesClearedEvent) Type() EventType { return EventLinesCleared }
func (ScoreChangedEvent) Type() EventType { return EventScoreChanged }
func (GameOverEvent) Type() EventType     { return EventGameOver }
func (StateChangedEvent) Type() EventType { return EventStateChanged }

// Listener はイベントを受け取ります。
type Listener interface {
	HandleEvent(e Event)
}

// ListenerFunc は関数を Listener として使うためのアダプタです。
type ListenerFunc func(e Event)

func (f ListenerFunc) HandleEvent(e Event) { f(e) }

// EventMessage はWebSocketでクライアントに送るときの形式です。
type EventMessage struct {
	Type EventType `json:"type"`
	Data Event     `json:"data"`
}

// NewEventMessage はイベントを送信用の形式に包みます。
func NewEventMessage(e Event) EventMessage {
	return EventMessage{Type: e.Type(), Data: e}
}
