package tetris

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/models"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomClosed   = errors.New("room closed")
	ErrInputDropped = errors.New("input queue is full")
)

const (
	DefaultTickInterval     = time.Second / 60 // ゲームループの間隔 (60Hz)
	DefaultOwnerJoinTimeout = time.Minute      // ルーム作成から作成者の接続までの猶予

	writeWait      = 10 * time.Second
	pongWait       = 300 * time.Second
	pingPeriod     = 60 * time.Second
	maxMessageSize = 1024
	sendBufferSize = 256
)

// ResultRecorder はゲームオーバー時の最終スコアを保存します。
type ResultRecorder interface {
	CreateResult(ctx context.Context, userID string, score int) (*models.Result, error)
}

// Client はWebSocket接続を持つ単一のクライアントを表します。
type Client struct {
	UserID string          // このクライアントに紐づくユーザーのID
	Conn   *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send   chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	RoomID string          // このクライアントが参加しているルームのID
	closed bool            // チャネルが閉じられたかどうかのフラグ
	mu     sync.Mutex      // closedフラグ保護用
}

// NewClient は送信バッファ付きのクライアントを作成します。
func NewClient(userID, roomID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
		RoomID: roomID,
	}
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false // 既に閉じられている
	}

	select {
	case c.Send <- message:
		return true
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// SessionManager はルームとWebSocketクライアント接続の全体を管理します。
// 各ルームは自分のゴルーチンでゲームループを回し、SessionManager はルームの作成・検索・終了だけを行います。
type SessionManager struct {
	rooms        map[string]*Room // roomID -> Room
	mu           sync.RWMutex     // rooms マップへのアクセスを保護
	settings     Settings
	tickInterval time.Duration
	joinTimeout  time.Duration
	recorder     ResultRecorder
}

// NewSessionManager は新しい SessionManager インスタンスを作成します。
// recorder が nil の場合、結果は保存されません。
func NewSessionManager(settings Settings, tickInterval time.Duration, recorder ResultRecorder) *SessionManager {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	return &SessionManager{
		rooms:        make(map[string]*Room),
		settings:     settings,
		tickInterval: tickInterval,
		joinTimeout:  DefaultOwnerJoinTimeout,
		recorder:     recorder,
	}
}

// SetOwnerJoinTimeout は、これ以降に作るルームで作成者の接続を待つ時間を設定します。
// 0 以下なら作成者が接続するまで待ち続けます。
func (sm *SessionManager) SetOwnerJoinTimeout(d time.Duration) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.joinTimeout = d
}

// CreateRoom は ownerID のプレイヤー用に新しいルームを作成し、ゲームループを開始します。
func (sm *SessionManager) CreateRoom(ownerID string) (*Room, error) {
	roomID := uuid.New().String()
	session, err := NewGameSession(sm.settings, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create game session: %w", err)
	}

	room := newRoom(roomID, ownerID, session, sm.tickInterval, sm.recorder)
	room.onClose = sm.removeRoom

	sm.mu.Lock()
	room.joinTimeout = sm.joinTimeout
	sm.rooms[roomID] = room
	sm.mu.Unlock()

	go room.run()
	log.Printf("[SessionManager] Room %s created for user %s", roomID, ownerID)
	return room, nil
}

// GetRoom は指定されたルームIDのルームを取得します。
func (sm *SessionManager) GetRoom(roomID string) (*Room, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	room, ok := sm.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return room, nil
}

// RoomCount は現在のルーム数を返します。
func (sm *SessionManager) RoomCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.rooms)
}

func (sm *SessionManager) removeRoom(roomID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.rooms[roomID]; ok {
		delete(sm.rooms, roomID)
		log.Printf("[SessionManager] Removed room %s", roomID)
	}
}

// EndRoom はルームのゲームループを止め、接続中のクライアントを切断します。
func (sm *SessionManager) EndRoom(roomID string) error {
	room, err := sm.GetRoom(roomID)
	if err != nil {
		return err
	}
	room.Close()
	return nil
}

// RegisterClient はWebSocket接続をルームに参加させ、読み書き用のゴルーチンを開始します。
func (sm *SessionManager) RegisterClient(roomID, userID string, conn *websocket.Conn) error {
	room, err := sm.GetRoom(roomID)
	if err != nil {
		return err
	}

	client := NewClient(userID, roomID, conn)
	if err := room.Register(client); err != nil {
		return err
	}

	go client.writePump()
	go room.readPump(client)

	log.Printf("[SessionManager] Client %s registered for room %s", userID, roomID)
	return nil
}

// Shutdown は全てのルームを終了します。
func (sm *SessionManager) Shutdown() {
	log.Printf("[SessionManager] Shutting down...")

	sm.mu.RLock()
	rooms := make([]*Room, 0, len(sm.rooms))
	for _, room := range sm.rooms {
		rooms = append(rooms, room)
	}
	sm.mu.RUnlock()

	for _, room := range rooms {
		room.Close()
	}
	log.Printf("[SessionManager] Shutdown complete")
}

// readPump はクライアントからのWebSocketメッセージを読み込み、ルームの入力キューに送ります。
func (r *Room) readPump(client *Client) {
	defer func() {
		log.Printf("[SessionManager] Client %s disconnecting from room %s", client.UserID, client.RoomID)
		r.Unregister(client)
		if err := client.Conn.Close(); err != nil {
			log.Printf("[SessionManager] Error closing WebSocket connection for user %s: %v", client.UserID, err)
		}
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[SessionManager] WebSocket unexpected close error for user %s: %v", client.UserID, err)
			}
			return
		}
		if len(message) == 0 {
			continue
		}

		var inputEvent PlayerInputEvent
		if err := json.Unmarshal(message, &inputEvent); err != nil {
			log.Printf("[SessionManager] Failed to unmarshal input message from %s: %v, message: %s", client.UserID, err, message)
			continue
		}
		inputEvent.UserID = client.UserID // なりすまし防止のため接続のユーザーIDで上書き

		if err := r.Submit(inputEvent); err != nil {
			if errors.Is(err, ErrRoomClosed) {
				return
			}
			log.Printf("[SessionManager] Dropping input from user %s: %v", client.UserID, err)
		}
	}
}

// writePump は Client の Send チャネルからのメッセージをWebSocketコネクションに書き込みます。
// クライアントごとにこのゴルーチンが動作します。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			log.Printf("[Client] Error closing WebSocket connection for user %s: %v", c.UserID, err)
		}
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// ルームがチャネルを閉じた（登録解除やルーム終了）
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client] Error writing message for user %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[Client] Error sending ping for user %s: %v", c.UserID, err)
				return
			}
		}
	}
}
