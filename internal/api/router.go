// Package api wires the HTTP and WebSocket endpoints together.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/api/middleware"
)

// Handlers はルーターに登録するハンドラーの集まりです。
type Handlers struct {
	Game   *handlers.GameHandler
	Result *handlers.ResultHandler
	Public *handlers.PublicHandler
	Auth   *middleware.Authenticator
}

// NewRouter はルーティングを設定した http.Handler を返します。
func NewRouter(h Handlers, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()

	// 認証不要な公開エンドポイント
	r.HandleFunc("/api/health", h.Public.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/results", h.Result.GetTopResults).Methods(http.MethodGet)
	r.HandleFunc("/api/rooms/{roomID}", h.Game.GetRoomStatus).Methods(http.MethodGet)

	// WebSocketは接続後の最初のメッセージで認証する
	r.HandleFunc("/ws/rooms/{roomID}", h.Game.HandleWebSocketConnection).Methods(http.MethodGet)

	// 認証が必要なエンドポイント
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(h.Auth.Middleware)
	protected.HandleFunc("/rooms", h.Game.CreateRoom).Methods(http.MethodPost)
	protected.HandleFunc("/rooms/{roomID}/start", h.Game.StartGame).Methods(http.MethodPost)
	protected.HandleFunc("/results/me", h.Result.GetMyResult).Methods(http.MethodGet)

	return middleware.CORSHandler(allowedOrigins)(r)
}
