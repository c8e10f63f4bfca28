package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"teamchat/internal/transport/httpdto"
	teamchat_errors "teamchat/pkg/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Client frame types.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameResume      = "resume"
	FrameTypingStart = "typing:start"
	FrameTypingStop  = "typing:stop"
	FrameRead        = "read"
	FramePing        = "ping"
)

// Rate limits per minute
type RateLimits struct {
	MaxSubscriptions int
	MaxTypingEvents  int
	MaxReadReceipts  int
	MaxPingMessages  int
}

var DefaultRateLimits = RateLimits{
	MaxSubscriptions: 120,
	MaxTypingEvents:  60,
	MaxReadReceipts:  120,
	MaxPingMessages:  60,
}

// ClientRateLimiter tracks rate limits per connection
type ClientRateLimiter struct {
	limits       RateLimits
	subTokens    int
	typingTokens int
	readTokens   int
	pingTokens   int
	lastRefill   time.Time
	now          func() time.Time
	mu           sync.Mutex
}

func NewClientRateLimiter(limits RateLimits) *ClientRateLimiter {
	rl := &ClientRateLimiter{limits: limits, now: time.Now}
	rl.refillTokens()
	rl.lastRefill = rl.now()
	return rl
}

func (rl *ClientRateLimiter) Allow(frameType string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastRefill) >= time.Minute {
		rl.refillTokens()
		rl.lastRefill = now
	}

	var tokens *int
	switch frameType {
	case FrameSubscribe, FrameUnsubscribe, FrameResume:
		tokens = &rl.subTokens
	case FrameTypingStart, FrameTypingStop:
		tokens = &rl.typingTokens
	case FrameRead:
		tokens = &rl.readTokens
	case FramePing:
		tokens = &rl.pingTokens
	default:
		return false
	}
	if *tokens <= 0 {
		return false
	}
	*tokens--
	return true
}

func (rl *ClientRateLimiter) refillTokens() {
	rl.subTokens = rl.limits.MaxSubscriptions
	rl.typingTokens = rl.limits.MaxTypingEvents
	rl.readTokens = rl.limits.MaxReadReceipts
	rl.pingTokens = rl.limits.MaxPingMessages
}

// TypingSetter is the part of the presence tracker driven by client frames.
type TypingSetter interface {
	SetTyping(ctx context.Context, roomID, userID uuid.UUID) error
	ClearTyping(ctx context.Context, roomID, userID uuid.UUID) error
}

// ReadMarker advances a participant's read cursor.
type ReadMarker interface {
	MarkRead(ctx context.Context, roomID, userID uuid.UUID, upto int64) (int64, error)
}

// ClientFrame is a frame sent by the client.
type ClientFrame struct {
	Type         string              `json:"type"`
	RoomID       uuid.UUID           `json:"room_id,omitempty"`
	LastSequence int64               `json:"last_sequence,omitempty"`
	Sequence     int64               `json:"sequence,omitempty"`
	Cursors      map[uuid.UUID]int64 `json:"cursors,omitempty"`
}

// ServerFrame is a transport-level frame: pong, acknowledgements and errors.
type ServerFrame struct {
	Type     string     `json:"type"`
	RoomID   *uuid.UUID `json:"room_id,omitempty"`
	Sequence int64      `json:"sequence,omitempty"`
	Code     string     `json:"code,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// Client pumps frames between one websocket and its hub connection.
type Client struct {
	hub         *Hub
	ws          *websocket.Conn
	conn        *Connection
	typing      TypingSetter
	reads       ReadMarker
	rateLimiter *ClientRateLimiter
	logger      *WebSocketLogger
}

func NewClient(hub *Hub, ws *websocket.Conn, conn *Connection, typing TypingSetter, reads ReadMarker) *Client {
	return &Client{
		hub:         hub,
		ws:          ws,
		conn:        conn,
		typing:      typing,
		reads:       reads,
		rateLimiter: NewClientRateLimiter(DefaultRateLimits),
		logger:      hub.log,
	}
}

// ReadPump reads client frames until the socket fails or the hub drops
// the connection.
func (c *Client) ReadPump() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("read_error", err)
			}
			return
		}
		data = bytes.TrimSpace(bytes.Replace(data, newline, space, -1))
		if len(data) == 0 {
			continue
		}
		c.handleFrame(data)
	}
}

func (c *Client) handleFrame(data []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.sendError(nil, teamchat_errors.ErrInvalidInput, "malformed frame")
		return
	}
	if !c.rateLimiter.Allow(frame.Type) {
		c.sendError(roomRef(frame.RoomID), teamchat_errors.ErrRateLimited, "rate limit exceeded for "+frame.Type)
		return
	}

	ctx := c.conn.Context()
	switch frame.Type {
	case FrameSubscribe:
		if err := c.hub.Subscribe(ctx, c.conn, frame.RoomID, frame.LastSequence); err != nil {
			c.sendError(roomRef(frame.RoomID), err, "")
		}
	case FrameUnsubscribe:
		c.hub.Unsubscribe(c.conn, frame.RoomID)
	case FrameResume:
		for roomID, err := range c.hub.Resume(ctx, c.conn, frame.Cursors) {
			c.sendError(roomRef(roomID), err, "")
		}
	case FrameTypingStart:
		if err := c.typing.SetTyping(ctx, frame.RoomID, c.conn.UserID); err != nil {
			c.sendError(roomRef(frame.RoomID), err, "")
		}
	case FrameTypingStop:
		if err := c.typing.ClearTyping(ctx, frame.RoomID, c.conn.UserID); err != nil {
			c.sendError(roomRef(frame.RoomID), err, "")
		}
	case FrameRead:
		seq, err := c.reads.MarkRead(ctx, frame.RoomID, c.conn.UserID, frame.Sequence)
		if err != nil {
			c.sendError(roomRef(frame.RoomID), err, "")
			return
		}
		c.send(ServerFrame{Type: "read", RoomID: roomRef(frame.RoomID), Sequence: seq})
	case FramePing:
		c.send(ServerFrame{Type: "pong"})
	}
}

// WritePump writes queued frames to the socket in queue order and pings
// the peer. It returns when the hub releases the connection or a write
// fails; either way the connection is released so nothing waits on its
// queue any more.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c.conn)
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame := <-c.conn.Send():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.conn.Done():
			code, text := websocket.CloseNormalClosure, ""
			if err := c.conn.Err(); err != nil {
				code, text = websocket.CloseTryAgainLater, err.Error()
			}
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
			return
		}
	}
}

func (c *Client) send(frame ServerFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	c.hub.SendFrame(c.conn, data)
}

func (c *Client) sendError(roomID *uuid.UUID, err error, message string) {
	if errors.Is(err, context.Canceled) {
		return
	}
	_, code := httpdto.ErrorStatus(err)
	if message == "" {
		message = err.Error()
	}
	c.send(ServerFrame{Type: "error", RoomID: roomID, Code: code, Message: message})
}

func roomRef(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
