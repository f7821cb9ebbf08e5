package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/models/tetris"
)

// scriptedRandomizer は決められた順に値を返す Randomizer です。
type scriptedRandomizer struct {
	values []int
	pos    int
}

func (s *scriptedRandomizer) Intn(n int) int {
	v := s.values[s.pos%len(s.values)] % n
	s.pos++
	return v
}

func TestPieceSequencer_PreviewSlot(t *testing.T) {
	rng := &scriptedRandomizer{values: []int{2, 0, 6, 1}}
	s := NewPieceSequencer(rng)

	assert.Equal(t, tetris.TypeT, s.Peek())

	spawn, preview := s.SpawnNext()
	assert.Equal(t, tetris.TypeT, spawn)
	assert.Equal(t, tetris.TypeI, preview)
	assert.Equal(t, tetris.TypeI, s.Peek())

	spawn, preview = s.SpawnNext()
	assert.Equal(t, tetris.TypeI, spawn)
	assert.Equal(t, tetris.TypeL, preview)
}

func TestPieceSequencer_Reset(t *testing.T) {
	rng := &scriptedRandomizer{values: []int{0, 3}}
	s := NewPieceSequencer(rng)
	assert.Equal(t, tetris.TypeI, s.Peek())

	s.Reset()
	assert.Equal(t, tetris.TypeS, s.Peek())
	assert.Equal(t, 2, rng.pos)
}

func TestPieceSequencer_DrawsEveryType(t *testing.T) {
	s := NewPieceSequencer(NewRandomizer(42))
	counts := make(map[tetris.PieceType]int)
	const draws = 7000
	for i := 0; i < draws; i++ {
		pt := s.DrawNext()
		assert.True(t, pt.Valid())
		counts[pt]++
	}
	assert.Len(t, counts, tetris.PieceTypeCount)
	for pt, n := range counts {
		// 一様分布なら各1000回前後
		assert.InDelta(t, draws/tetris.PieceTypeCount, n, 200, "piece %s", pt)
	}
}

func TestPieceSequencer_SameSeedSameSequence(t *testing.T) {
	a := NewPieceSequencer(NewRandomizer(7))
	b := NewPieceSequencer(NewRandomizer(7))
	for i := 0; i < 50; i++ {
		sa, pa := a.SpawnNext()
		sb, pb := b.SpawnNext()
		assert.Equal(t, sa, sb)
		assert.Equal(t, pa, pb)
	}
}
