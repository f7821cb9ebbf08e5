package tetris

import (
	"errors"
	"fmt"
	"math"

	"github.com/kamstrup/intmap"
)

const (
	DefaultBoardWidth  = 10  // テトリスボードの幅
	DefaultBoardHeight = 20  // テトリスボードの高さ（表示部分）
	DefaultCellSize    = 1.0 // 1マスのワールド座標上の大きさ

	// MinBoardWidth は横向きの I テトリミノが出現位置 (width/2) に収まる最小の幅です。
	MinBoardWidth = 5
)

// BlockType はボード上のブロックの種類を表します。
// 各テトリミノの種類もブロックタイプとして扱います。
type BlockType int

const (
	BlockEmpty BlockType = iota // 0: 空のマス
	BlockI                      // 1: I-テトリミノ由来のブロック (PieceType 0 + 1)
	BlockO                      // 2: O-テトリミノ由来のブロック (PieceType 1 + 1)
	BlockT                      // 3: T-テトリミノ由来のブロック (PieceType 2 + 1)
	BlockS                      // 4: S-テトリミノ由来のブロック (PieceType 3 + 1)
	BlockZ                      // 5: Z-テトリミノ由来のブロック (PieceType 4 + 1)
	BlockJ                      // 6: J-テトリミノ由来のブロック (PieceType 5 + 1)
	BlockL                      // 7: L-テトリミノ由来のブロック (PieceType 6 + 1)
)

// PieceType は固定されたブロックの元になったテトリミノの種類を返します。
func (b BlockType) PieceType() (PieceType, bool) {
	if b < BlockI || b > BlockL {
		return 0, false
	}
	return PieceType(b - 1), true
}

// Vec2 はワールド座標です。描画側とのやり取りにだけ使います。
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

var (
	ErrInvalidBoardSize = errors.New("invalid board size")
	ErrCellOutOfBounds  = errors.New("cell out of bounds")
	ErrCellOccupied     = errors.New("cell already occupied")
)

// Board はテトリスのゲームボードです。
// (x, y) は x が 0..Width-1、y が 0 以上で、y=0 が最下段です。
// 表示領域 (y < Height) より上の行にもブロックを置けます（はみ出し行）。
// ブロックは y*Width+x をキーにした疎なマップで保持します。
type Board struct {
	width    int
	height   int
	cellSize float64
	origin   Vec2

	cells   *intmap.Map[int, BlockType]
	rowFill []int // 行ごとの埋まっているマス数。len は最上段の占有行+1 以上
}

// NewBoard は新しい空のボードを初期化して返します。
func NewBoard(width, height int, cellSize float64) (*Board, error) {
	if width < MinBoardWidth || height < 2 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBoardSize, width, height)
	}
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("%w: cell size %v", ErrInvalidBoardSize, cellSize)
	}
	return &Board{
		width:    width,
		height:   height,
		cellSize: cellSize,
		cells:    intmap.New[int, BlockType](width * height),
		rowFill:  make([]int, height),
	}, nil
}

func (b *Board) Width() int        { return b.width }
func (b *Board) Height() int       { return b.height }
func (b *Board) CellSize() float64 { return b.cellSize }
func (b *Board) Origin() Vec2      { return b.origin }

// SetOrigin はボード左下 (0,0) のマスに対応するワールド座標を設定します。
func (b *Board) SetOrigin(origin Vec2) {
	b.origin = origin
}

func (b *Board) key(x, y int) int {
	return y*b.width + x
}

// Block は (x, y) のブロックを返します。範囲外は BlockEmpty です。
func (b *Board) Block(x, y int) BlockType {
	if x < 0 || x >= b.width || y < 0 {
		return BlockEmpty
	}
	block, ok := b.cells.Get(b.key(x, y))
	if !ok {
		return BlockEmpty
	}
	return block
}

// IsOccupied は (x, y) にブロックがあるかどうかを返します。
func (b *Board) IsOccupied(x, y int) bool {
	return b.Block(x, y) != BlockEmpty
}

// IsValidPlacement は指定されたマスに置けるかどうかを判定します。
// 左右の壁と床の外は不可、表示領域より上は常に可、それ以外は空きマスなら可です。
func (b *Board) IsValidPlacement(cells []Point) bool {
	for _, c := range cells {
		if c.X < 0 || c.X >= b.width || c.Y < 0 {
			return false
		}
		if c.Y >= b.height {
			continue
		}
		if b.IsOccupied(c.X, c.Y) {
			return false
		}
	}
	return true
}

// Commit はテトリミノのブロックをボードに固定します。
// 1つでも置けないマスがあれば何も書き込まずにエラーを返します。
// はみ出し行 (y >= Height) のブロックもそのまま保持します。
func (b *Board) Commit(cells []Point, block BlockType) error {
	if block == BlockEmpty {
		return errors.New("cannot commit an empty block")
	}
	for i, c := range cells {
		if c.X < 0 || c.X >= b.width || c.Y < 0 {
			return fmt.Errorf("%w: (%d,%d)", ErrCellOutOfBounds, c.X, c.Y)
		}
		if b.IsOccupied(c.X, c.Y) {
			return fmt.Errorf("%w: (%d,%d)", ErrCellOccupied, c.X, c.Y)
		}
		for _, prev := range cells[:i] {
			if prev == c {
				return fmt.Errorf("%w: (%d,%d) appears twice", ErrCellOccupied, c.X, c.Y)
			}
		}
	}
	for _, c := range cells {
		b.cells.Put(b.key(c.X, c.Y), block)
		b.growRows(c.Y + 1)
		b.rowFill[c.Y]++
	}
	return nil
}

func (b *Board) growRows(rows int) {
	for len(b.rowFill) < rows {
		b.rowFill = append(b.rowFill, 0)
	}
}

// RowFull は y 行目が全て埋まっているかどうかを返します。
func (b *Board) RowFull(y int) bool {
	if y < 0 || y >= len(b.rowFill) {
		return false
	}
	return b.rowFill[y] == b.width
}

// ClearFullLines は揃ったラインを消して上のブロックを1段ずつ落とします。
// 消したライン数を返します。
func (b *Board) ClearFullLines() int {
	return len(b.ClearFullRows())
}

// ClearFullRows は ClearFullLines と同じ処理をして、消した行番号を消した順に返します。
// 行を消した後は同じ行番号をもう一度調べるので、連続した揃いも全て消えます。
func (b *Board) ClearFullRows() []int {
	var cleared []int
	for y := 0; y < len(b.rowFill); {
		if !b.RowFull(y) {
			y++
			continue
		}
		b.removeRow(y)
		cleared = append(cleared, y)
	}
	return cleared
}

// removeRow は y 行目を空にし、それより上の全ての行を1段下げます。
func (b *Board) removeRow(y int) {
	for x := 0; x < b.width; x++ {
		b.cells.Del(b.key(x, y))
	}
	top := len(b.rowFill)
	for row := y + 1; row < top; row++ {
		if b.rowFill[row] == 0 {
			continue
		}
		for x := 0; x < b.width; x++ {
			block, ok := b.cells.Get(b.key(x, row))
			if !ok {
				continue
			}
			b.cells.Del(b.key(x, row))
			b.cells.Put(b.key(x, row-1), block)
		}
	}
	copy(b.rowFill[y:], b.rowFill[y+1:])
	b.rowFill[top-1] = 0
}

// IsTopOccupied は最上段2行（またはそれより上のはみ出し行）にブロックがあるかを返します。
// ゲームオーバー判定に使います。
func (b *Board) IsTopOccupied() bool {
	for y := b.height - 2; y < len(b.rowFill); y++ {
		if y >= 0 && b.rowFill[y] > 0 {
			return true
		}
	}
	return false
}

// OccupiedCount はボード上のブロック数を返します。
func (b *Board) OccupiedCount() int {
	return b.cells.Len()
}

// Clear はボードを空にします。
func (b *Board) Clear() {
	b.cells.Clear()
	b.rowFill = make([]int, b.height)
}

// DropDistance は cells を何マス下まで落とせるかを返します。
func (b *Board) DropDistance(cells []Point) int {
	shifted := make([]Point, len(cells))
	distance := 0
	for {
		for i, c := range cells {
			shifted[i] = Point{X: c.X, Y: c.Y - distance - 1}
		}
		if !b.IsValidPlacement(shifted) {
			return distance
		}
		distance++
	}
}

// SpawnAnchor は新しいテトリミノの基準点 (Width/2, Height-1) を返します。
func (b *Board) SpawnAnchor() Point {
	return Point{X: b.width / 2, Y: b.height - 1}
}

// WorldToGrid はワールド座標を最も近いマスに変換します。
// ちょうど中間の値は偶数側に丸めます。
func (b *Board) WorldToGrid(world Vec2) Point {
	return Point{
		X: int(math.RoundToEven((world.X - b.origin.X) / b.cellSize)),
		Y: int(math.RoundToEven((world.Y - b.origin.Y) / b.cellSize)),
	}
}

// GridToWorld はマス座標をワールド座標に変換します。
func (b *Board) GridToWorld(p Point) Vec2 {
	return Vec2{
		X: b.origin.X + float64(p.X)*b.cellSize,
		Y: b.origin.Y + float64(p.Y)*b.cellSize,
	}
}

// Rows は表示領域のブロックを下の行から順に返します。Rows()[y][x] でアクセスします。
func (b *Board) Rows() [][]BlockType {
	rows := make([][]BlockType, b.height)
	for y := range rows {
		rows[y] = make([]BlockType, b.width)
		if y >= len(b.rowFill) || b.rowFill[y] == 0 {
			continue
		}
		for x := 0; x < b.width; x++ {
			rows[y][x] = b.Block(x, y)
		}
	}
	return rows
}
