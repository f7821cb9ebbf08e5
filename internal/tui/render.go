package tui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/models/tetris"
	gamesvc "github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/services/tetris"
)

const (
	cellWidth  = 2 // 1マスを2文字で描く
	panelGap   = 3
	boardLeft  = 1
	boardTop   = 1
	blockRune  = '█'
	ghostRune  = '░'
	borderRune = '│'
)

var (
	borderStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
	textStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	dimStyle    = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// canvas は描画先です。tcell.Screen が満たします。
type canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

// pieceStyle はテトリミノの色を tcell のスタイルにします。
func pieceStyle(t tetris.PieceType) tcell.Style {
	c := t.Color()
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
}

func drawText(c canvas, x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		c.SetContent(x+i, y, r, nil, style)
	}
}

// cellOrigin はボードの (x, y) を画面の座標に変換します。ボードは y が上向きなので上下を反転します。
func cellOrigin(snap gamesvc.Snapshot, x, y int) (int, int) {
	return boardLeft + 1 + x*cellWidth, boardTop + (snap.Height - 1 - y)
}

func drawCell(c canvas, snap gamesvc.Snapshot, p tetris.Point, r rune, style tcell.Style) {
	if p.X < 0 || p.X >= snap.Width || p.Y < 0 || p.Y >= snap.Height {
		return // 上にはみ出した部分は描かない
	}
	sx, sy := cellOrigin(snap, p.X, p.Y)
	for i := 0; i < cellWidth; i++ {
		c.SetContent(sx+i, sy, r, nil, style)
	}
}

// Render はスナップショットを1フレーム分描画します。画面のクリアと Show は呼び出し側で行います。
func Render(c canvas, snap gamesvc.Snapshot, message string) {
	// 枠
	right := boardLeft + 1 + snap.Width*cellWidth
	bottom := boardTop + snap.Height
	for y := boardTop; y < bottom; y++ {
		c.SetContent(boardLeft, y, borderRune, nil, borderStyle)
		c.SetContent(right, y, borderRune, nil, borderStyle)
	}
	for x := boardLeft; x <= right; x++ {
		c.SetContent(x, bottom, '─', nil, borderStyle)
	}
	c.SetContent(boardLeft, bottom, '└', nil, borderStyle)
	c.SetContent(right, bottom, '┘', nil, borderStyle)

	// 固定されたブロック
	for y := 0; y < snap.Height && y < len(snap.Board); y++ {
		for x, block := range snap.Board[y] {
			if t, ok := block.PieceType(); ok {
				drawCell(c, snap, tetris.Point{X: x, Y: y}, blockRune, pieceStyle(t))
			}
		}
	}

	// ゴーストを先に描いて、操作中のテトリミノで上書きする
	if active := snap.Active; active != nil {
		style := pieceStyle(active.Type)
		for _, p := range active.Ghost {
			drawCell(c, snap, p, ghostRune, style)
		}
		for _, p := range active.Cells {
			drawCell(c, snap, p, blockRune, style)
		}
	}

	// 右側のパネル
	px := right + panelGap
	drawText(c, px, boardTop, "NEXT", dimStyle)
	if snap.Next.Valid() {
		for _, p := range tetris.Offsets(snap.Next, 0) {
			sx := px + (p.X+1)*cellWidth
			sy := boardTop + 3 - p.Y
			for i := 0; i < cellWidth; i++ {
				c.SetContent(sx+i, sy, blockRune, nil, pieceStyle(snap.Next))
			}
		}
	}
	drawText(c, px, boardTop+6, fmt.Sprintf("SCORE %d", snap.Score), textStyle)
	drawText(c, px, boardTop+7, fmt.Sprintf("LINES %d", snap.LinesCleared), textStyle)
	drawText(c, px, boardTop+8, fmt.Sprintf("PIECES %d", snap.PiecesSpawned), textStyle)
	drawText(c, px, boardTop+9, fmt.Sprintf("TIME %s", snap.PlayTime().Truncate(time.Second)), textStyle)

	switch snap.State {
	case gamesvc.StateIdle:
		drawText(c, px, boardTop+11, "ENTER: start", textStyle)
	case gamesvc.StateGameOver:
		drawText(c, px, boardTop+11, "GAME OVER", tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true))
		drawText(c, px, boardTop+12, "R: restart", textStyle)
	}
	if message != "" {
		drawText(c, px, boardTop+14, message, textStyle)
	}
	drawText(c, px, bottom, "←→ move  ↑ rotate  ↓ soft  SPACE drop  Q quit", dimStyle)
}
