package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"teamchat/internal/domain/room"
	"teamchat/internal/events"
	"teamchat/internal/proxy"
	"teamchat/internal/repository"
	"teamchat/pkg/database"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingPublisher) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingPublisher) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fixture struct {
	rooms    *RoomService
	messages *MessageService
	unread   *UnreadService
	pub      *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return newRelayFixture(t, nil)
}

// newRelayFixture also forwards every published event to relay.
func newRelayFixture(t *testing.T, relay events.Publisher) fixture {
	t.Helper()
	db, err := database.OpenBadger(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	roomRepo := repository.NewBadgerRoomRepository(db)
	messageRepo := repository.NewBadgerMessageRepository(db)
	access := proxy.NewAccessControl(roomRepo)
	pub := &recordingPublisher{}
	chain := events.MultiPublisher{pub, relay}

	return fixture{
		rooms:    NewRoomService(roomRepo, access, chain, nil),
		messages: NewMessageService(messageRepo, access, chain, 100, nil),
		unread:   NewUnreadService(roomRepo, messageRepo, access),
		pub:      pub,
	}
}

// groupRoom creates a group room owned by admin with the given members.
func (f fixture) groupRoom(t *testing.T, admin uuid.UUID, members ...uuid.UUID) room.Room {
	t.Helper()
	rm, err := f.rooms.CreateRoom(context.Background(), CreateRoomInput{
		Kind:         room.KindGroup,
		Name:         "team",
		CreatorID:    admin,
		Participants: members,
	})
	require.NoError(t, err)
	return rm
}

func (f fixture) send(t *testing.T, roomID, sender uuid.UUID, body string) int64 {
	t.Helper()
	msg, err := f.messages.Append(context.Background(), SendMessageInput{RoomID: roomID, SenderID: sender, Body: body})
	require.NoError(t, err)
	return msg.Sequence
}

// steppingClock returns a clock advancing one second per call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}
