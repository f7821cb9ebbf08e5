package tetris

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	b, err := NewBoard(DefaultBoardWidth, DefaultBoardHeight, DefaultCellSize)
	require.NoError(t, err)
	return b
}

// fillRow は y 行目の skip 以外の列を全て埋めます。
func fillRow(t *testing.T, b *Board, y int, skip ...int) {
	t.Helper()
	skipped := make(map[int]bool)
	for _, x := range skip {
		skipped[x] = true
	}
	for x := 0; x < b.Width(); x++ {
		if skipped[x] {
			continue
		}
		require.NoError(t, b.Commit([]Point{{x, y}}, BlockI))
	}
}

func TestNewBoard_Validation(t *testing.T) {
	_, err := NewBoard(0, 20, 1)
	assert.True(t, errors.Is(err, ErrInvalidBoardSize))
	_, err = NewBoard(MinBoardWidth-1, 20, 1)
	assert.True(t, errors.Is(err, ErrInvalidBoardSize))
	_, err = NewBoard(10, 1, 1)
	assert.True(t, errors.Is(err, ErrInvalidBoardSize))
	_, err = NewBoard(10, 20, 0)
	assert.True(t, errors.Is(err, ErrInvalidBoardSize))

	_, err = NewBoard(MinBoardWidth, 2, 1)
	assert.NoError(t, err)
}

func TestIsValidPlacement(t *testing.T) {
	b := newTestBoard(t)
	require.NoError(t, b.Commit([]Point{{3, 0}}, BlockT))

	tests := []struct {
		name  string
		cells []Point
		want  bool
	}{
		{"empty cells", []Point{{0, 0}, {9, 19}}, true},
		{"left wall", []Point{{-1, 5}}, false},
		{"right wall", []Point{{10, 5}}, false},
		{"below floor", []Point{{4, -1}}, false},
		{"occupied", []Point{{3, 0}}, false},
		{"above visible rows", []Point{{5, 20}, {5, 25}}, true},
		{"above rows but outside walls", []Point{{10, 21}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.IsValidPlacement(tt.cells))
		})
	}
}

func TestCommit(t *testing.T) {
	b := newTestBoard(t)
	cells := Cells(TypeO, 0, Point{X: 0, Y: 0})
	require.NoError(t, b.Commit(cells[:], BlockO))
	assert.Equal(t, 4, b.OccupiedCount())
	assert.Equal(t, BlockO, b.Block(1, 1))

	// 重なる場合は何も書き込まない
	err := b.Commit([]Point{{5, 5}, {1, 1}}, BlockT)
	assert.True(t, errors.Is(err, ErrCellOccupied))
	assert.False(t, b.IsOccupied(5, 5))

	err = b.Commit([]Point{{-1, 0}}, BlockT)
	assert.True(t, errors.Is(err, ErrCellOutOfBounds))

	err = b.Commit([]Point{{6, 6}, {6, 6}}, BlockT)
	assert.Error(t, err)
	assert.Equal(t, 4, b.OccupiedCount())

	// はみ出し行にも置ける
	require.NoError(t, b.Commit([]Point{{4, 21}}, BlockZ))
	assert.Equal(t, BlockZ, b.Block(4, 21))
}

func TestClearFullLines_SingleRow(t *testing.T) {
	b := newTestBoard(t)
	fillRow(t, b, 0)
	require.NoError(t, b.Commit([]Point{{2, 1}, {7, 3}}, BlockS))

	before := b.OccupiedCount()
	cleared := b.ClearFullLines()

	assert.Equal(t, 1, cleared)
	assert.Equal(t, before-b.Width(), b.OccupiedCount())
	assert.Equal(t, BlockS, b.Block(2, 0))
	assert.Equal(t, BlockS, b.Block(7, 2))
	assert.False(t, b.IsOccupied(7, 3))
}

func TestClearFullLines_AdjacentRows(t *testing.T) {
	b := newTestBoard(t)
	for y := 0; y < 4; y++ {
		fillRow(t, b, y)
	}
	require.NoError(t, b.Commit([]Point{{0, 4}}, BlockJ))

	rows := b.ClearFullRows()

	assert.Equal(t, []int{0, 0, 0, 0}, rows)
	assert.Equal(t, 1, b.OccupiedCount())
	assert.Equal(t, BlockJ, b.Block(0, 0))
}

func TestClearFullLines_NonAdjacentRows(t *testing.T) {
	b := newTestBoard(t)
	fillRow(t, b, 0)
	fillRow(t, b, 1, 4)
	fillRow(t, b, 2)
	require.NoError(t, b.Commit([]Point{{9, 3}}, BlockL))
	before := b.OccupiedCount()

	rows := b.ClearFullRows()

	assert.Equal(t, []int{0, 1}, rows)
	assert.Equal(t, before-2*b.Width(), b.OccupiedCount())
	// 穴のある行が最下段に落ちる
	assert.False(t, b.RowFull(0))
	assert.False(t, b.IsOccupied(4, 0))
	assert.True(t, b.IsOccupied(3, 0))
	assert.Equal(t, BlockL, b.Block(9, 1))
}

func TestClearFullLines_None(t *testing.T) {
	b := newTestBoard(t)
	fillRow(t, b, 0, 0)
	assert.Equal(t, 0, b.ClearFullLines())
	assert.Equal(t, b.Width()-1, b.OccupiedCount())
}

func TestClearFullLines_OverflowRowsShiftDown(t *testing.T) {
	b := newTestBoard(t)
	fillRow(t, b, 0)
	require.NoError(t, b.Commit([]Point{{5, 20}}, BlockI))

	assert.Equal(t, 1, b.ClearFullLines())
	assert.Equal(t, BlockI, b.Block(5, 19))
	assert.False(t, b.IsOccupied(5, 20))
}

func TestIsTopOccupied(t *testing.T) {
	b := newTestBoard(t)
	assert.False(t, b.IsTopOccupied())

	require.NoError(t, b.Commit([]Point{{0, 17}}, BlockT))
	assert.False(t, b.IsTopOccupied())

	require.NoError(t, b.Commit([]Point{{0, 18}}, BlockT))
	assert.True(t, b.IsTopOccupied())

	b.Clear()
	assert.False(t, b.IsTopOccupied())
	require.NoError(t, b.Commit([]Point{{0, 19}}, BlockT))
	assert.True(t, b.IsTopOccupied())

	b.Clear()
	require.NoError(t, b.Commit([]Point{{0, 23}}, BlockT))
	assert.True(t, b.IsTopOccupied())
}

func TestClear(t *testing.T) {
	b := newTestBoard(t)
	fillRow(t, b, 3, 1)
	b.Clear()
	assert.Equal(t, 0, b.OccupiedCount())
	assert.False(t, b.IsOccupied(0, 3))
}

func TestWorldGridTransforms(t *testing.T) {
	b, err := NewBoard(10, 20, 0.5)
	require.NoError(t, err)
	b.SetOrigin(Vec2{X: -2.5, Y: -5})

	assert.Equal(t, Vec2{X: -2.5, Y: -5}, b.GridToWorld(Point{}))
	assert.Equal(t, Vec2{X: -0.5, Y: 0}, b.GridToWorld(Point{X: 4, Y: 10}))

	for _, p := range []Point{{0, 0}, {4, 10}, {9, 19}, {3, 25}} {
		assert.Equal(t, p, b.WorldToGrid(b.GridToWorld(p)))
	}

	// 中間の値は偶数側に丸める
	assert.Equal(t, Point{X: 2, Y: 0}, b.WorldToGrid(Vec2{X: -1.25, Y: -5}))
	assert.Equal(t, Point{X: 4, Y: 0}, b.WorldToGrid(Vec2{X: -0.25, Y: -5}))
}

func TestSpawnAnchor(t *testing.T) {
	b := newTestBoard(t)
	assert.Equal(t, Point{X: 5, Y: 19}, b.SpawnAnchor())

	odd, err := NewBoard(7, 12, 1)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 3, Y: 11}, odd.SpawnAnchor())
}

func TestDropDistance(t *testing.T) {
	b := newTestBoard(t)
	fillRow(t, b, 0, 9)
	cells := Cells(TypeO, 0, Point{X: 4, Y: 10})
	assert.Equal(t, 9, b.DropDistance(cells[:]))
}

func TestRows(t *testing.T) {
	b := newTestBoard(t)
	require.NoError(t, b.Commit([]Point{{2, 0}, {3, 19}, {3, 20}}, BlockZ))

	rows := b.Rows()
	require.Len(t, rows, b.Height())
	assert.Len(t, rows[0], b.Width())
	assert.Equal(t, BlockZ, rows[0][2])
	assert.Equal(t, BlockZ, rows[19][3])
	assert.Equal(t, BlockEmpty, rows[19][2])
}
