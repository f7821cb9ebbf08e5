package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/models"
)

// MemoryResultRepository はプロセス内に結果を保持する ResultRepository です。
// DATABASE_URL が無い開発環境とテストで使います。再起動すると消えます。
type MemoryResultRepository struct {
	mu      sync.RWMutex
	results []models.Result
	nextID  int64
	now     func() time.Time
}

// NewMemoryResultRepository は空のリポジトリを作成します。
func NewMemoryResultRepository() *MemoryResultRepository {
	return &MemoryResultRepository{nextID: 1, now: time.Now}
}

func (m *MemoryResultRepository) CreateResult(_ context.Context, userID string, score int) (*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := models.Result{
		ID:        m.nextID,
		UserID:    userID,
		Score:     score,
		CreatedAt: m.now().UTC(),
	}
	m.nextID++
	m.results = append(m.results, result)
	return &result, nil
}

// ranked はスコアの高い順（同点なら古い順）に並べた結果を返します。
func (m *MemoryResultRepository) ranked() []models.Result {
	sorted := make([]models.Result, len(m.results))
	copy(sorted, m.results)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

func (m *MemoryResultRepository) GetTopResults(_ context.Context, limit int) ([]models.ResultResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := m.ranked()
	if limit < len(sorted) {
		sorted = sorted[:max(limit, 0)]
	}
	responses := make([]models.ResultResponse, len(sorted))
	for i, r := range sorted {
		responses[i] = models.ResultResponse{Result: r, Rank: i + 1}
	}
	return responses, nil
}

func (m *MemoryResultRepository) GetUserBestScore(_ context.Context, userID string) (*models.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.ranked() {
		if r.UserID == userID {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *MemoryResultRepository) GetUserRanking(_ context.Context, userID string) (*models.ResultResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i, r := range m.ranked() {
		if r.UserID == userID {
			return &models.ResultResponse{Result: r, Rank: i + 1}, nil
		}
	}
	return nil, nil
}

var _ ResultRepository = (*MemoryResultRepository)(nil)
