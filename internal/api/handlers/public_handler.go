package handlers

import (
	"context"
	"log"
	"net/http"
	"time"
)

// Pinger はデータベースなど、疎通確認ができる依存先です。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RoomCounter は現在のルーム数を返します。
type RoomCounter interface {
	RoomCount() int
}

// PublicHandler handles public API endpoints
type PublicHandler struct {
	db      Pinger // nil ならインメモリで動作中
	rooms   RoomCounter
	started time.Time
}

// NewPublicHandler creates a new instance of PublicHandler
func NewPublicHandler(db Pinger, rooms RoomCounter) *PublicHandler {
	return &PublicHandler{db: db, rooms: rooms, started: time.Now()}
}

// HealthResponse は /api/health のレスポンスです。
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Rooms    int    `json:"rooms"`
	Uptime   string `json:"uptime"`
}

// Health はサーバーとデータベースの状態を返します。
// GET /api/health
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "memory",
		Uptime:   time.Since(h.started).Truncate(time.Second).String(),
	}
	if h.rooms != nil {
		resp.Rooms = h.rooms.RoomCount()
	}

	status := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			log.Printf("Health: database ping failed: %v", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	WriteJSONResponse(w, status, resp)
}
