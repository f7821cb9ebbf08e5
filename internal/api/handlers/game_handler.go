package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket" // WebSocketライブラリ

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/services/tetris"
)

const authTimeout = 10 * time.Second

// GameHandler はゲーム関連のHTTPリクエスト（部屋作成、開始、WebSocket接続）を処理します。
type GameHandler struct {
	sessionManager *tetris.SessionManager // ゲームセッションの管理サービス
	auth           *middleware.Authenticator
	upgrader       websocket.Upgrader
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//
//	sm             : セッションマネージャーへのポインタ
//	auth           : WebSocketの認証メッセージを検証する Authenticator
//	allowedOrigins : WebSocket接続を許可するオリジン。空なら全て許可 (開発用)
func NewGameHandler(sm *tetris.SessionManager, auth *middleware.Authenticator, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		sessionManager: sm,
		auth:           auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker はHTTP接続をWebSocketにアップグレードしてよいオリジンか判定する関数を返します。
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}
		// 同一オリジンは常に許可
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// ExtractUserIDFromContext はリクエストのコンテキストからユーザーIDを抽出します。
func ExtractUserIDFromContext(r *http.Request) (string, error) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		return "", fmt.Errorf("ユーザーIDがコンテキストに見つかりません")
	}
	return userID, nil
}

// WriteErrorResponse はエラーレスポンスをJSON形式で書き込みます。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteJSONResponse(w, statusCode, map[string]string{"error": message})
}

// WriteJSONResponse はJSONレスポンスを書き込みます。
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("JSONエンコードエラー: %v", err)
	}
}

// writeRoomError はルーム操作のエラーをステータスコードに変換して書き込みます。
func writeRoomError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tetris.ErrRoomNotFound):
		WriteErrorResponse(w, http.StatusNotFound, "指定されたルームは見つかりませんでした")
	case errors.Is(err, tetris.ErrRoomClosed):
		WriteErrorResponse(w, http.StatusGone, "ルームは既に終了しています")
	case errors.Is(err, tetris.ErrInputDropped):
		WriteErrorResponse(w, http.StatusServiceUnavailable, "ルームが混雑しています。時間をおいて再試行してください")
	default:
		WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

// RoomResponse はルームの情報とゲーム状態です。
type RoomResponse struct {
	RoomID    string           `json:"room_id"`
	Name      string           `json:"name"`
	OwnerID   string           `json:"owner_id"`
	CreatedAt time.Time        `json:"created_at"`
	Snapshot  *tetris.Snapshot `json:"snapshot,omitempty"`
}

// CreateRoom は新しいゲームセッション（部屋）を作成するためのHTTPハンドラーです。
// POST /api/rooms
func (h *GameHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	room, err := h.sessionManager.CreateRoom(userID)
	if err != nil {
		log.Printf("[GameHandler] Failed to create room for user %s: %v", userID, err)
		WriteErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("ルームの作成に失敗しました: %v", err))
		return
	}

	WriteJSONResponse(w, http.StatusCreated, RoomResponse{
		RoomID:    room.ID,
		Name:      room.Name,
		OwnerID:   room.OwnerID,
		CreatedAt: room.CreatedAt,
	})
}

// GetRoomStatus は特定のルームの現在の状態を返すハンドラーです。
// GET /api/rooms/{roomID}
func (h *GameHandler) GetRoomStatus(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomID"]
	if roomID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "ルームIDが必要です")
		return
	}

	room, err := h.sessionManager.GetRoom(roomID)
	if err != nil {
		writeRoomError(w, err)
		return
	}
	snapshot, err := room.Snapshot(r.Context())
	if err != nil {
		writeRoomError(w, err)
		return
	}

	WriteJSONResponse(w, http.StatusOK, RoomResponse{
		RoomID:    room.ID,
		Name:      room.Name,
		OwnerID:   room.OwnerID,
		CreatedAt: room.CreatedAt,
		Snapshot:  &snapshot,
	})
}

// StartGame はルームのゲームを開始（ゲームオーバー後は再開）します。ルームの作成者のみ実行できます。
// POST /api/rooms/{roomID}/start
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}
	roomID := mux.Vars(r)["roomID"]

	room, err := h.sessionManager.GetRoom(roomID)
	if err != nil {
		writeRoomError(w, err)
		return
	}
	if room.OwnerID != userID {
		WriteErrorResponse(w, http.StatusForbidden, "ゲームを開始できるのはルームの作成者だけです")
		return
	}

	if err := room.Submit(tetris.PlayerInputEvent{UserID: userID, Action: tetris.ActionStart}); err != nil {
		log.Printf("[GameHandler] Failed to start game in room %s: %v", roomID, err)
		writeRoomError(w, err)
		return
	}

	WriteJSONResponse(w, http.StatusAccepted, map[string]string{"room_id": roomID, "message": "ゲームを開始しました"})
}

// authMessage はWebSocket接続後に最初に送られる認証メッセージです。
type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleWebSocketConnection はHTTP接続をWebSocketプロトコルにアップグレードし、
// 認証メッセージを受け取った後、接続をセッションマネージャーに引き渡します。
// GET /ws/rooms/{roomID}
func (h *GameHandler) HandleWebSocketConnection(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomID"]
	if _, err := h.sessionManager.GetRoom(roomID); err != nil {
		writeRoomError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[GameHandler] Failed to upgrade to websocket for room %s: %v", roomID, err)
		return // アップグレード失敗時は Upgrade がレスポンスを書いている
	}

	userID, err := h.authenticate(conn)
	if err != nil {
		log.Printf("[GameHandler] WebSocket auth failed for room %s: %v", roomID, err)
		conn.WriteJSON(map[string]string{"type": "auth_error", "error": err.Error()})
		conn.Close()
		return
	}
	conn.WriteJSON(map[string]string{"type": "auth_success", "user_id": userID})

	// 以降は SessionManager が readPump と writePump でコネクションを管理する
	if err := h.sessionManager.RegisterClient(roomID, userID, conn); err != nil {
		log.Printf("[GameHandler] Failed to register client %s to room %s: %v", userID, roomID, err)
		conn.WriteJSON(map[string]string{"type": "error", "error": err.Error()})
		conn.Close()
	}
}

// authenticate は最初のメッセージを認証メッセージとして読み、ユーザーIDを返します。
func (h *GameHandler) authenticate(conn *websocket.Conn) (string, error) {
	conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, message, err := conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("failed to read auth message: %w", err)
	}
	var msg authMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return "", fmt.Errorf("failed to parse auth message: %w", err)
	}
	if msg.Type != "auth" {
		return "", fmt.Errorf("expected auth message, got %q", msg.Type)
	}
	return h.auth.ParseToken(msg.Token)
}
