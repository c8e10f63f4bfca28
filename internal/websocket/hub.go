package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"teamchat/internal/domain/message"
	"teamchat/internal/events"
	teamchat_errors "teamchat/pkg/errors"
)

// Backfiller reads committed messages with sequence > after, up to the tail.
type Backfiller interface {
	ReadAfter(ctx context.Context, roomID uuid.UUID, after int64) ([]message.Message, error)
	TailSequence(ctx context.Context, roomID uuid.UUID) (int64, error)
}

// Authorizer decides whether a user may subscribe to a room.
type Authorizer interface {
	IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
}

type HubConfig struct {
	QueueSize int
	// MaxPending bounds the live events held per room while catching up.
	MaxPending int
	// BackfillTimeout bounds the wait for queue space during catch-up.
	// A connection whose writer stops draining is dropped after it.
	BackfillTimeout time.Duration
}

// Hub fans room events out to subscribed connections and drives catch-up.
//
// Per connection and room it keeps the last delivered message sequence.
// A subscription starts in catch-up: live events are held, the log is read
// from the cursor to the tail, and the held events are drained in order
// with duplicates skipped. A live message_new above cursor+1 sends the room
// back into catch-up.
type Hub struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*Connection
	users map[uuid.UUID]map[uuid.UUID]*Connection
	rooms map[uuid.UUID]map[uuid.UUID]*Connection

	backfill Backfiller
	authz    Authorizer
	cfg      HubConfig
	log      *WebSocketLogger
}

func NewHub(backfill Backfiller, authz Authorizer, cfg HubConfig, log *zap.Logger) *Hub {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = cfg.QueueSize
	}
	if cfg.BackfillTimeout <= 0 {
		cfg.BackfillTimeout = writeWait
	}
	return &Hub{
		conns:    make(map[uuid.UUID]*Connection),
		users:    make(map[uuid.UUID]map[uuid.UUID]*Connection),
		rooms:    make(map[uuid.UUID]map[uuid.UUID]*Connection),
		backfill: backfill,
		authz:    authz,
		cfg:      cfg,
		log:      NewWebSocketLogger(log),
	}
}

// Register creates a connection for an authenticated user.
func (h *Hub) Register(userID uuid.UUID) *Connection {
	conn := newConnection(userID, h.cfg.QueueSize)

	h.mu.Lock()
	h.conns[conn.ID] = conn
	if h.users[userID] == nil {
		h.users[userID] = make(map[uuid.UUID]*Connection)
	}
	h.users[userID][conn.ID] = conn
	h.mu.Unlock()

	h.log.ClientConnected(conn.ID.String(), userID.String())
	return conn
}

// Unregister releases the connection and discards its queue. It is safe to
// call more than once.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	_, registered := h.conns[conn.ID]
	h.removeLocked(conn, nil)
	h.mu.Unlock()
	if registered {
		h.log.ClientDisconnected(conn.ID.String(), conn.UserID.String(), "closed")
	}
}

// Subscribe attaches the connection to a room with its last received
// sequence (0 for a fresh join) and returns once catch-up has been queued.
// A cursor beyond the room tail is lowered to the tail.
func (h *Hub) Subscribe(ctx context.Context, conn *Connection, roomID uuid.UUID, lastSeq int64) error {
	if lastSeq < 0 {
		return teamchat_errors.ErrInvalidInput
	}
	if h.authz != nil {
		ok, err := h.authz.IsParticipant(ctx, roomID, conn.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return teamchat_errors.ErrForbidden
		}
	}
	tail, err := h.backfill.TailSequence(ctx, roomID)
	if err != nil {
		return fmt.Errorf("read room tail: %w", err)
	}
	if lastSeq > tail {
		h.log.Warn("cursor_ahead_of_log", conn.ID.String(), conn.UserID.String(),
			zap.String("room_id", roomID.String()),
			zap.Int64("cursor", lastSeq),
			zap.Int64("tail", tail))
		lastSeq = tail
	}

	cur := &roomCursor{lastSeq: lastSeq, catchingUp: true}
	h.mu.Lock()
	if _, ok := h.conns[conn.ID]; !ok {
		h.mu.Unlock()
		return teamchat_errors.ErrNotFound
	}
	conn.rooms[roomID] = cur
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[uuid.UUID]*Connection)
	}
	h.rooms[roomID][conn.ID] = conn
	h.mu.Unlock()

	h.log.Subscribed(conn.ID.String(), conn.UserID.String(), roomID.String(), lastSeq)
	return h.catchUp(ctx, conn, roomID, cur)
}

func (h *Hub) Unsubscribe(conn *Connection, roomID uuid.UUID) {
	h.mu.Lock()
	h.unsubscribeLocked(conn, roomID)
	h.mu.Unlock()
}

// Resume re-subscribes a reconnecting connection to several rooms. Rooms
// that fail are reported individually; the others stay subscribed.
func (h *Hub) Resume(ctx context.Context, conn *Connection, cursors map[uuid.UUID]int64) map[uuid.UUID]error {
	var failed map[uuid.UUID]error
	for roomID, lastSeq := range cursors {
		if err := h.Subscribe(ctx, conn, roomID, lastSeq); err != nil {
			if failed == nil {
				failed = make(map[uuid.UUID]error)
			}
			failed[roomID] = err
		}
	}
	return failed
}

// Publish implements events.Publisher. It never blocks on a connection.
func (h *Hub) Publish(_ context.Context, evt events.Event) {
	frame, err := json.Marshal(evt)
	if err != nil {
		h.log.Error("encode event", err)
		return
	}

	var target *uuid.UUID
	var removed bool
	if evt.Type == events.EventMembershipChanged && evt.TargetUserID != nil {
		target = evt.TargetUserID
		var payload events.MembershipPayload
		if err := json.Unmarshal(evt.Payload, &payload); err == nil {
			removed = payload.Action == events.MembershipRemoved
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conn := range h.rooms[evt.RoomID] {
		if target != nil && conn.UserID == *target {
			continue
		}
		cur := conn.rooms[evt.RoomID]
		if cur == nil {
			continue
		}
		h.deliverLocked(conn, evt.RoomID, cur, evt, frame)
	}

	if target == nil {
		return
	}
	for _, conn := range h.users[*target] {
		if !h.enqueueLocked(conn, frame) {
			continue
		}
		if removed {
			h.unsubscribeLocked(conn, evt.RoomID)
		}
	}
}

// SendFrame queues a transport-level frame (pong, error) for the connection.
func (h *Hub) SendFrame(conn *Connection, frame []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn.ID]; !ok {
		return false
	}
	return h.enqueueLocked(conn, frame)
}

type Stats struct {
	Connections int `json:"connections"`
	Users       int `json:"users"`
	Rooms       int `json:"rooms"`
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{Connections: len(h.conns), Users: len(h.users), Rooms: len(h.rooms)}
}

// Cursor returns the last sequence delivered to conn for roomID.
func (h *Hub) Cursor(conn *Connection, roomID uuid.UUID) (int64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cur, ok := conn.rooms[roomID]
	if !ok {
		return 0, false
	}
	return cur.lastSeq, true
}

// deliverLocked routes one live event through the room cursor.
func (h *Hub) deliverLocked(conn *Connection, roomID uuid.UUID, cur *roomCursor, evt events.Event, frame []byte) {
	if cur.catchingUp {
		if len(cur.pending) >= h.cfg.MaxPending {
			h.dropLocked(conn, teamchat_errors.ErrQueueOverflow)
			return
		}
		cur.pending = append(cur.pending, evt)
		return
	}
	if evt.Ordered() {
		if evt.Sequence <= cur.lastSeq {
			return
		}
		if evt.Sequence > cur.lastSeq+1 {
			cur.catchingUp = true
			cur.pending = append(cur.pending, evt)
			h.log.GapDetected(conn.ID.String(), roomID.String(), cur.lastSeq, evt.Sequence)
			go func() {
				err := h.catchUp(conn.Context(), conn, roomID, cur)
				if err == nil || errors.Is(err, context.Canceled) {
					return
				}
				h.mu.Lock()
				h.dropLocked(conn, err)
				h.mu.Unlock()
			}()
			return
		}
		cur.lastSeq = evt.Sequence
	}
	h.enqueueLocked(conn, frame)
}

// catchUp replays the log after the cursor, then drains held live events.
// It repeats while the held events still start above the cursor.
func (h *Hub) catchUp(ctx context.Context, conn *Connection, roomID uuid.UUID, cur *roomCursor) error {
	for {
		h.mu.Lock()
		if conn.rooms[roomID] != cur {
			h.mu.Unlock()
			return nil
		}
		after := cur.lastSeq
		h.mu.Unlock()

		msgs, err := h.backfill.ReadAfter(ctx, roomID, after)
		if err != nil {
			h.mu.Lock()
			if conn.rooms[roomID] == cur {
				h.unsubscribeLocked(conn, roomID)
			}
			h.mu.Unlock()
			return fmt.Errorf("catch-up read: %w", err)
		}

		for _, msg := range msgs {
			frame, err := json.Marshal(events.NewMessageEvent(events.EventMessageNew, msg))
			if err != nil {
				return err
			}
			if err := h.sendBackfill(ctx, conn, frame); err != nil {
				return err
			}
			h.mu.Lock()
			if conn.rooms[roomID] != cur {
				h.mu.Unlock()
				return nil
			}
			cur.lastSeq = msg.Sequence
			h.mu.Unlock()
		}

		done, err := h.drainLocked(conn, roomID, cur, after)
		if err != nil || done {
			return err
		}
	}
}

// sendBackfill waits for queue space, at most BackfillTimeout.
func (h *Hub) sendBackfill(ctx context.Context, conn *Connection, frame []byte) error {
	timer := time.NewTimer(h.cfg.BackfillTimeout)
	defer timer.Stop()
	select {
	case conn.send <- frame:
		return nil
	case <-conn.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		h.mu.Lock()
		h.dropLocked(conn, teamchat_errors.ErrQueueOverflow)
		h.mu.Unlock()
		return teamchat_errors.ErrQueueOverflow
	}
}

// drainLocked takes the hub lock and flushes held events in order. It
// reports false when a gap remains and another backfill pass is needed.
func (h *Hub) drainLocked(conn *Connection, roomID uuid.UUID, cur *roomCursor, before int64) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn.rooms[roomID] != cur {
		return true, nil
	}

	pending := cur.pending
	cur.pending = nil
	for i, evt := range pending {
		if evt.Ordered() {
			if evt.Sequence <= cur.lastSeq {
				continue
			}
			if evt.Sequence > cur.lastSeq+1 {
				cur.pending = append(cur.pending, pending[i:]...)
				if cur.lastSeq == before {
					// The log has nothing newer than the cursor yet the held
					// events skip ahead; the client has to reconnect.
					h.dropLocked(conn, teamchat_errors.ErrServiceUnavailable)
					return true, teamchat_errors.ErrServiceUnavailable
				}
				return false, nil
			}
			cur.lastSeq = evt.Sequence
		}
		frame, err := json.Marshal(evt)
		if err != nil {
			continue
		}
		if !h.enqueueLocked(conn, frame) {
			return true, teamchat_errors.ErrQueueOverflow
		}
	}
	cur.catchingUp = false
	return true, nil
}

func (h *Hub) enqueueLocked(conn *Connection, frame []byte) bool {
	select {
	case conn.send <- frame:
		return true
	default:
		h.dropLocked(conn, teamchat_errors.ErrQueueOverflow)
		return false
	}
}

func (h *Hub) dropLocked(conn *Connection, reason error) {
	if _, ok := h.conns[conn.ID]; !ok {
		return
	}
	h.removeLocked(conn, reason)
	h.log.ClientDropped(conn.ID.String(), conn.UserID.String(), reason)
}

func (h *Hub) removeLocked(conn *Connection, reason error) {
	for roomID := range conn.rooms {
		h.unsubscribeLocked(conn, roomID)
	}
	delete(h.conns, conn.ID)
	if userConns, ok := h.users[conn.UserID]; ok {
		delete(userConns, conn.ID)
		if len(userConns) == 0 {
			delete(h.users, conn.UserID)
		}
	}
	conn.close(reason)
}

func (h *Hub) unsubscribeLocked(conn *Connection, roomID uuid.UUID) {
	delete(conn.rooms, roomID)
	if subscribers, ok := h.rooms[roomID]; ok {
		delete(subscribers, conn.ID)
		if len(subscribers) == 0 {
			delete(h.rooms, roomID)
		}
	}
}
