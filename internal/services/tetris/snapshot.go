package tetris

import (
	"time"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/models/tetris"
)

// Snapshot はWebSocket送信やHTTPレスポンス用の軽量なゲーム状態です。
// GameSession の内部構造ではなく、描画に必要な情報だけを含みます。
type Snapshot struct {
	State         SessionState         `json:"state"`
	Score         int                  `json:"score"`
	LinesCleared  int                  `json:"lines_cleared"`
	PiecesSpawned int                  `json:"pieces_spawned"`
	PlayTimeMs    int64                `json:"play_time_ms"`
	Width         int                  `json:"width"`
	Height        int                  `json:"height"`
	Board         [][]tetris.BlockType `json:"board"` // Board[y][x]、y=0 が最下段
	Active        *PieceSnapshot       `json:"active,omitempty"`
	Next          tetris.PieceType     `json:"next"`
}

// PieceSnapshot は操作中のテトリミノの状態です。
type PieceSnapshot struct {
	Type     tetris.PieceType                   `json:"type"`
	Rotation int                                `json:"rotation"`
	Anchor   tetris.Point                       `json:"anchor"`
	Cells    [tetris.CellsPerPiece]tetris.Point `json:"cells"`
	Ghost    [tetris.CellsPerPiece]tetris.Point `json:"ghost"`
}

// Snapshot は現在の状態を複製して返します。返り値を変更してもセッションには影響しません。
func (gs *GameSession) Snapshot() Snapshot {
	snap := Snapshot{
		State:         gs.state,
		Score:         gs.score,
		LinesCleared:  gs.linesCleared,
		PiecesSpawned: gs.piecesSpawned,
		PlayTimeMs:    gs.playTime.Milliseconds(),
		Width:         gs.board.Width(),
		Height:        gs.board.Height(),
		Board:         gs.board.Rows(),
		Next:          gs.sequencer.Peek(),
	}
	if gs.active != nil {
		snap.Active = &PieceSnapshot{
			Type:     gs.active.Type(),
			Rotation: gs.active.Rotation(),
			Anchor:   gs.active.Anchor(),
			Cells:    gs.active.Cells(),
			Ghost:    gs.active.GhostCells(),
		}
	}
	return snap
}

// PlayTime はスナップショット時点のプレイ時間です。
func (s Snapshot) PlayTime() time.Duration {
	return time.Duration(s.PlayTimeMs) * time.Millisecond
}
