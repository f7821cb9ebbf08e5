package tetris

import (
	"math/rand"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/models/tetris"
)

// Randomizer は次のテトリミノを選ぶ乱数源です。*rand.Rand が満たします。
type Randomizer interface {
	Intn(n int) int
}

// NewRandomizer は seed から乱数源を作ります。seed が0なら現在時刻を使います。
func NewRandomizer(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// PieceSequencer は次に出すテトリミノを1つだけ先に決めておきます（プレビュー用）。
// 7種類から一様に選び、7-bag のような偏りの補正はしません。
type PieceSequencer struct {
	rng  Randomizer
	next tetris.PieceType
}

// NewPieceSequencer は最初の「次のテトリミノ」を決めた状態で返します。
func NewPieceSequencer(rng Randomizer) *PieceSequencer {
	s := &PieceSequencer{rng: rng}
	s.Reset()
	return s
}

// DrawNext は7種類から一様にランダムに1つ選びます。
func (s *PieceSequencer) DrawNext() tetris.PieceType {
	return tetris.PieceType(s.rng.Intn(tetris.PieceTypeCount))
}

// Peek は次に出るテトリミノを返します。
func (s *PieceSequencer) Peek() tetris.PieceType {
	return s.next
}

// SpawnNext は用意しておいたテトリミノを取り出し、すぐに次を選び直します。
// 取り出した種類と新しいプレビューの種類を返します。
func (s *PieceSequencer) SpawnNext() (spawn, preview tetris.PieceType) {
	spawn = s.next
	s.next = s.DrawNext()
	return spawn, s.next
}

// Reset はプレビューを選び直します。
func (s *PieceSequencer) Reset() {
	s.next = s.DrawNext()
}
