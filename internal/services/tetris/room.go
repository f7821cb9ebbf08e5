package tetris

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/models/tetris"
)

const (
	inputQueueSize      = 128
	recordResultTimeout = 5 * time.Second
)

// MessageSnapshot はスナップショットを送るときのメッセージの type です。
const MessageSnapshot = "snapshot"

// SnapshotMessage はWebSocketで送るスナップショットの形式です。
type SnapshotMessage struct {
	Type   string   `json:"type"`
	RoomID string   `json:"room_id"`
	Data   Snapshot `json:"data"`
}

// Room は1つの GameSession と、それを見ているクライアントの集まりです。
// GameSession を触るのは run ゴルーチンだけです。
type Room struct {
	ID        string
	Name      string // 表示用の名前 (例: "clever-otter")
	OwnerID   string
	CreatedAt time.Time

	session      *GameSession
	latch        InputLatch
	pending      []Event
	clients      map[*Client]struct{}
	tickInterval time.Duration
	joinTimeout  time.Duration // 作成者がこの時間内に接続しなければ閉じる。0 なら無期限
	recorder     ResultRecorder
	onClose      func(roomID string)

	register   chan *Client
	unregister chan *Client
	inputs     chan PlayerInputEvent
	snapshots  chan chan Snapshot
	quit       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

func newRoom(id, ownerID string, session *GameSession, tickInterval time.Duration, recorder ResultRecorder) *Room {
	r := &Room{
		ID:           id,
		Name:         petname.Generate(2, "-"),
		OwnerID:      ownerID,
		CreatedAt:    time.Now(),
		session:      session,
		clients:      make(map[*Client]struct{}),
		tickInterval: tickInterval,
		recorder:     recorder,
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		inputs:       make(chan PlayerInputEvent, inputQueueSize),
		snapshots:    make(chan chan Snapshot),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	session.Subscribe(r)
	return r
}

// HandleEvent は GameSession からのイベントを次のブロードキャストまで溜めておきます。
func (r *Room) HandleEvent(e Event) {
	r.pending = append(r.pending, e)
	if over, ok := e.(GameOverEvent); ok {
		log.Printf("[Room %s] Game over for user %s, final score %d", r.ID, r.OwnerID, over.FinalScore)
		r.recordResult(over.FinalScore)
	}
}

// run はルームのメインループです。
// クライアントの登録/解除、入力、スナップショット要求、ティックを1つのゴルーチンで処理します。
func (r *Room) run() {
	defer close(r.done)
	defer func() {
		for client := range r.clients {
			client.SafeClose()
		}
		if r.onClose != nil {
			r.onClose(r.ID)
		}
	}()

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()
	last := time.Now()

	// 作成者が一度接続したら nil にして待たない
	var joinDeadline <-chan time.Time
	if r.joinTimeout > 0 {
		joinTimer := time.NewTimer(r.joinTimeout)
		defer joinTimer.Stop()
		joinDeadline = joinTimer.C
	}

	for {
		select {
		case client := <-r.register:
			r.clients[client] = struct{}{}
			if client.UserID == r.OwnerID {
				joinDeadline = nil
			}
			r.sendTo(client, r.snapshotMessage())

		case client := <-r.unregister:
			if _, ok := r.clients[client]; !ok {
				continue
			}
			delete(r.clients, client)
			client.SafeClose()
			if client.UserID == r.OwnerID && !r.ownerConnected() {
				log.Printf("[Room %s] Owner %s left, closing room", r.ID, r.OwnerID)
				return
			}

		case event := <-r.inputs:
			r.handleInput(event)

		case reply := <-r.snapshots:
			reply <- r.session.Snapshot()

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			r.tick(dt)

		case <-joinDeadline:
			log.Printf("[Room %s] Owner %s did not join within %s, closing room", r.ID, r.OwnerID, r.joinTimeout)
			return

		case <-r.quit:
			return
		}
	}
}

func (r *Room) ownerConnected() bool {
	for client := range r.clients {
		if client.UserID == r.OwnerID {
			return true
		}
	}
	return false
}

// handleInput はプレイヤーの入力を処理します。ルームの作成者以外の入力は無視します。
func (r *Room) handleInput(event PlayerInputEvent) {
	if event.UserID != r.OwnerID {
		log.Printf("[Room %s] Ignoring input from spectator %s", r.ID, event.UserID)
		return
	}
	switch event.Action {
	case ActionStart:
		r.latch.Reset()
		r.session.Start()
		r.flush(true)
	case ActionRestart:
		r.latch.Reset()
		r.session.Restart()
		r.flush(true)
	default:
		if !r.latch.Apply(event.Action, event.Released) {
			log.Printf("[Room %s] Unknown action %q from user %s", r.ID, event.Action, event.UserID)
		}
	}
}

type pieceKey struct {
	anchor   tetris.Point
	rotation int
	spawned  int
}

func (r *Room) currentPieceKey() pieceKey {
	key := pieceKey{spawned: r.session.PiecesSpawned()}
	if active := r.session.Active(); active != nil {
		key.anchor = active.Anchor()
		key.rotation = active.Rotation()
	}
	return key
}

// tick は溜まった入力を1ティック分の Input にまとめてゲームを進めます。
// テトリミノが動いたかイベントがあった場合だけスナップショットを送ります。
func (r *Room) tick(dt time.Duration) {
	before := r.currentPieceKey()
	r.session.Advance(dt, r.latch.Take())
	r.flush(r.currentPieceKey() != before)
}

// flush は溜まったイベントを送信し、必要ならスナップショットも送ります。
func (r *Room) flush(changed bool) {
	hadEvents := len(r.pending) > 0
	for _, e := range r.pending {
		msg, err := json.Marshal(NewEventMessage(e))
		if err != nil {
			log.Printf("[Room %s] Error marshaling %s event: %v", r.ID, e.Type(), err)
			continue
		}
		r.broadcast(msg)
	}
	r.pending = r.pending[:0]

	if changed || hadEvents {
		r.broadcast(r.snapshotMessage())
	}
}

func (r *Room) snapshotMessage() []byte {
	msg, err := json.Marshal(SnapshotMessage{Type: MessageSnapshot, RoomID: r.ID, Data: r.session.Snapshot()})
	if err != nil {
		log.Printf("[Room %s] Error marshaling snapshot: %v", r.ID, err)
		return nil
	}
	return msg
}

func (r *Room) broadcast(msg []byte) {
	for client := range r.clients {
		r.sendTo(client, msg)
	}
}

func (r *Room) sendTo(client *Client, msg []byte) {
	if msg == nil {
		return
	}
	if !client.SafeSend(msg) {
		log.Printf("[Room %s] Failed to send to client %s (channel closed or full)", r.ID, client.UserID)
	}
}

// recordResult は最終スコアを非同期で保存します。ゲームループは止めません。
func (r *Room) recordResult(score int) {
	if r.recorder == nil {
		return
	}
	userID := r.OwnerID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordResultTimeout)
		defer cancel()
		if _, err := r.recorder.CreateResult(ctx, userID, score); err != nil {
			log.Printf("[Room %s] Failed to record result for user %s: %v", r.ID, userID, err)
		}
	}()
}

// Register はクライアントをルームに参加させます。参加直後に現在のスナップショットを送ります。
func (r *Room) Register(client *Client) error {
	select {
	case r.register <- client:
		return nil
	case <-r.done:
		return ErrRoomClosed
	}
}

// Unregister はクライアントをルームから外します。
func (r *Room) Unregister(client *Client) {
	select {
	case r.unregister <- client:
	case <-r.done:
		client.SafeClose()
	}
}

// Submit は入力をキューに入れます。キューが一杯なら ErrInputDropped を返します。
func (r *Room) Submit(event PlayerInputEvent) error {
	select {
	case <-r.done:
		return ErrRoomClosed
	default:
	}
	select {
	case r.inputs <- event:
		return nil
	default:
		return ErrInputDropped
	}
}

// Snapshot はルームのゲーム状態を取得します。
func (r *Room) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case r.snapshots <- reply:
	case <-r.done:
		return Snapshot{}, ErrRoomClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Close はゲームループを止め、終了するまで待ちます。
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.quit) })
	<-r.done
}

// Done はルームが終了したときに閉じられるチャネルを返します。
func (r *Room) Done() <-chan struct{} {
	return r.done
}
