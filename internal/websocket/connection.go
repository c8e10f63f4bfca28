package websocket

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"teamchat/internal/events"
)

// Connection is one push endpoint of a user. Frames queued for it are
// written by the transport in queue order; the hub never blocks on it for
// live events.
type Connection struct {
	ID     uuid.UUID
	UserID uuid.UUID

	send chan []byte
	done chan struct{}
	ctx  context.Context

	cancel    context.CancelFunc
	closeOnce sync.Once
	errMu     sync.Mutex
	err       error

	// rooms is guarded by the hub mutex.
	rooms map[uuid.UUID]*roomCursor
}

// roomCursor tracks delivery of one room to one connection.
type roomCursor struct {
	lastSeq    int64
	catchingUp bool
	// pending holds live events that arrived while the room was catching up.
	pending []events.Event
}

func newConnection(userID uuid.UUID, queueSize int) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		ID:     uuid.New(),
		UserID: userID,
		send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		rooms:  make(map[uuid.UUID]*roomCursor),
	}
}

// Send is the outbound frame queue.
func (c *Connection) Send() <-chan []byte {
	return c.send
}

// Done is closed once the hub has released the connection.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Context is cancelled together with Done.
func (c *Connection) Context() context.Context {
	return c.ctx
}

// Err reports why the hub released the connection, nil for a normal close.
func (c *Connection) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Connection) close(err error) {
	c.closeOnce.Do(func() {
		c.errMu.Lock()
		c.err = err
		c.errMu.Unlock()
		c.cancel()
		close(c.done)
	})
}
