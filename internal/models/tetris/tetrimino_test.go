package tetris

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOffsets_FourDistinctCells は全ての種類・回転状態が重複のない4マスであることを確認します。
func TestOffsets_FourDistinctCells(t *testing.T) {
	for _, pt := range AllPieceTypes() {
		for r := 0; r < RotationStates; r++ {
			shape := Offsets(pt, r)
			seen := make(map[Point]bool)
			for _, p := range shape {
				assert.False(t, seen[p], "%s rotation %d has duplicate cell %v", pt, r, p)
				seen[p] = true
			}
			assert.Len(t, seen, CellsPerPiece)
		}
	}
}

func TestOffsets_OSameInEveryRotation(t *testing.T) {
	base := Offsets(TypeO, 0)
	for r := 1; r < RotationStates; r++ {
		assert.Equal(t, base, Offsets(TypeO, r))
	}
}

func TestOffsets_RotationWraps(t *testing.T) {
	assert.Equal(t, Offsets(TypeT, 0), Offsets(TypeT, 4))
	assert.Equal(t, Offsets(TypeT, 3), Offsets(TypeT, -1))
	assert.Equal(t, Shape{}, Offsets(PieceType(42), 0))
}

func TestOffsets_KnownShapes(t *testing.T) {
	assert.Equal(t, Shape{{-1, 0}, {0, 0}, {1, 0}, {2, 0}}, Offsets(TypeI, 0))
	assert.Equal(t, Shape{{0, -1}, {0, 0}, {0, 1}, {0, 2}}, Offsets(TypeI, 1))
	assert.Equal(t, Shape{{-1, 0}, {0, 0}, {1, 0}, {0, 1}}, Offsets(TypeT, 0))
	assert.Equal(t, Shape{{-1, 1}, {-1, 0}, {0, 0}, {1, 0}}, Offsets(TypeJ, 0))
}

func TestWallKicks_Order(t *testing.T) {
	expected := []Point{{-1, 0}, {1, 0}, {0, 1}, {-2, 0}, {2, 0}}
	assert.Equal(t, expected, WallKicks())

	// 返り値を書き換えても内部のテーブルは変わらない
	kicks := WallKicks()
	kicks[0] = Point{X: 9, Y: 9}
	assert.Equal(t, expected, WallKicks())
}

func TestCells(t *testing.T) {
	cells := Cells(TypeO, 0, Point{X: 4, Y: 10})
	assert.Equal(t, [CellsPerPiece]Point{{4, 10}, {5, 10}, {4, 11}, {5, 11}}, cells)
}

func TestPieceType_StringAndParse(t *testing.T) {
	for _, pt := range AllPieceTypes() {
		parsed, err := ParsePieceType(pt.String())
		require.NoError(t, err)
		assert.Equal(t, pt, parsed)
	}
	_, err := ParsePieceType("X")
	assert.Error(t, err)
	assert.Equal(t, "PieceType(9)", PieceType(9).String())
}

func TestPieceType_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]PieceType{"next": TypeS})
	require.NoError(t, err)
	assert.JSONEq(t, `{"next":"S"}`, string(data))

	var decoded struct {
		Next PieceType `json:"next"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"next":"L"}`), &decoded))
	assert.Equal(t, TypeL, decoded.Next)
}

func TestPieceType_BlockAndColor(t *testing.T) {
	assert.Equal(t, BlockI, TypeI.Block())
	assert.Equal(t, BlockL, TypeL.Block())
	assert.Equal(t, BlockEmpty, PieceType(-1).Block())

	pt, ok := BlockT.PieceType()
	assert.True(t, ok)
	assert.Equal(t, TypeT, pt)
	_, ok = BlockEmpty.PieceType()
	assert.False(t, ok)

	assert.Equal(t, uint8(255), TypeI.Color().G)
	assert.Equal(t, uint8(255), TypeI.Color().B)
	assert.Equal(t, uint8(0), TypeI.Color().R)
}
