package presence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"teamchat/internal/events"
	teamchat_errors "teamchat/pkg/errors"
)

// MembershipChecker reports whether a user currently belongs to a room.
type MembershipChecker interface {
	IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
}

// RoomLister lists the rooms a user belongs to; presence changes are
// broadcast to those rooms only.
type RoomLister interface {
	UserRoomIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type Config struct {
	TypingTimeout time.Duration
	OfflineGrace  time.Duration
}

type typingKey struct {
	roomID uuid.UUID
	userID uuid.UUID
}

type userState struct {
	conns    map[uuid.UUID]struct{}
	online   bool
	lastSeen time.Time
	// offlineAt is set while the user has no connections and the grace
	// period has not elapsed yet.
	offlineAt time.Time
}

// Status is a point-in-time view of one user.
type Status struct {
	UserID   uuid.UUID `json:"user_id"`
	State    string    `json:"state"`
	LastSeen time.Time `json:"last_seen"`
	Typing   bool      `json:"typing"`
}

// Tracker holds ephemeral presence and typing state. Nothing here is
// persisted; a restart begins with everyone offline and idle.
//
// Expiry is evaluated lazily on every read and eagerly by Sweep, which is
// the only place that emits the timed transitions (typing to idle, pending
// to offline).
type Tracker struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*userState
	typing map[typingKey]time.Time

	cfg       Config
	now       func() time.Time
	members   MembershipChecker
	rooms     RoomLister
	publisher events.Publisher
	log       *zap.Logger
}

func NewTracker(cfg Config, members MembershipChecker, rooms RoomLister, publisher events.Publisher, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.MultiPublisher{}
	}
	return &Tracker{
		users:     make(map[uuid.UUID]*userState),
		typing:    make(map[typingKey]time.Time),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		members:   members,
		rooms:     rooms,
		publisher: publisher,
		log:       log,
	}
}

// SetClock replaces the time source.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Connect registers an active connection. The first connection turns the
// user online; a reconnect inside the grace period cancels the pending
// offline transition without emitting anything.
func (t *Tracker) Connect(ctx context.Context, userID, connID uuid.UUID) {
	t.mu.Lock()
	now := t.now()
	st := t.user(userID)
	st.conns[connID] = struct{}{}
	st.offlineAt = time.Time{}
	st.lastSeen = now
	becameOnline := !st.online
	st.online = true
	t.mu.Unlock()

	if becameOnline {
		t.broadcastPresence(ctx, userID, events.StateOnline, now)
	}
}

// Disconnect removes a connection. When it was the user's last one the user
// goes offline after the grace period.
func (t *Tracker) Disconnect(ctx context.Context, userID, connID uuid.UUID) {
	t.mu.Lock()
	st, ok := t.users[userID]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(st.conns, connID)
	if len(st.conns) > 0 || !st.online {
		t.mu.Unlock()
		return
	}
	now := t.now()
	st.lastSeen = now
	if t.cfg.OfflineGrace > 0 {
		st.offlineAt = now.Add(t.cfg.OfflineGrace)
		t.mu.Unlock()
		return
	}
	cleared := t.goOffline(userID, st)
	t.mu.Unlock()

	t.emitIdle(ctx, cleared)
	t.broadcastPresence(ctx, userID, events.StateOffline, now)
}

// SetTyping marks the user as typing in the room and refreshes the idle
// timer. Only the idle to typing transition is broadcast.
func (t *Tracker) SetTyping(ctx context.Context, roomID, userID uuid.UUID) error {
	if err := t.ensureMember(ctx, roomID, userID); err != nil {
		return err
	}
	key := typingKey{roomID: roomID, userID: userID}

	t.mu.Lock()
	now := t.now()
	last, ok := t.typing[key]
	started := !ok || now.Sub(last) >= t.cfg.TypingTimeout
	t.typing[key] = now
	t.mu.Unlock()

	if started {
		t.publisher.Publish(ctx, events.NewTypingEvent(roomID, events.TypingPayload{UserID: userID, State: events.StateTyping}))
	}
	return nil
}

// ClearTyping returns the user to idle in the room.
func (t *Tracker) ClearTyping(ctx context.Context, roomID, userID uuid.UUID) error {
	if err := t.ensureMember(ctx, roomID, userID); err != nil {
		return err
	}
	key := typingKey{roomID: roomID, userID: userID}

	t.mu.Lock()
	_, ok := t.typing[key]
	delete(t.typing, key)
	t.mu.Unlock()

	if ok {
		t.publisher.Publish(ctx, events.NewTypingEvent(roomID, events.TypingPayload{UserID: userID, State: events.StateIdle}))
	}
	return nil
}

// TypingState reports typing or idle for (room, user).
func (t *Tracker) TypingState(roomID, userID uuid.UUID) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isTyping(typingKey{roomID: roomID, userID: userID}, t.now()) {
		return events.StateTyping
	}
	return events.StateIdle
}

// UserState reports online or offline and the last-seen time.
func (t *Tracker) UserState(userID uuid.UUID) (string, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.userStateLocked(userID, t.now())
}

// RoomStatus returns the presence of the given room members.
func (t *Tracker) RoomStatus(roomID uuid.UUID, userIDs []uuid.UUID) []Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	out := make([]Status, 0, len(userIDs))
	for _, userID := range userIDs {
		state, lastSeen := t.userStateLocked(userID, now)
		out = append(out, Status{
			UserID:   userID,
			State:    state,
			LastSeen: lastSeen,
			Typing:   t.isTyping(typingKey{roomID: roomID, userID: userID}, now),
		})
	}
	return out
}

// Sweep applies every elapsed timeout and broadcasts the resulting
// transitions.
func (t *Tracker) Sweep(ctx context.Context) {
	type offline struct {
		userID   uuid.UUID
		lastSeen time.Time
	}

	t.mu.Lock()
	now := t.now()
	var idle []typingKey
	for key, last := range t.typing {
		if now.Sub(last) >= t.cfg.TypingTimeout {
			idle = append(idle, key)
			delete(t.typing, key)
		}
	}
	var gone []offline
	for userID, st := range t.users {
		if st.online && len(st.conns) == 0 && !st.offlineAt.IsZero() && !now.Before(st.offlineAt) {
			idle = append(idle, t.goOffline(userID, st)...)
			gone = append(gone, offline{userID: userID, lastSeen: st.lastSeen})
		}
	}
	t.mu.Unlock()

	t.emitIdle(ctx, idle)
	for _, o := range gone {
		t.broadcastPresence(ctx, o.userID, events.StateOffline, o.lastSeen)
	}
}

// Run sweeps on every tick until ctx is done.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep(ctx)
		}
	}
}

func (t *Tracker) user(userID uuid.UUID) *userState {
	st, ok := t.users[userID]
	if !ok {
		st = &userState{conns: make(map[uuid.UUID]struct{})}
		t.users[userID] = st
	}
	return st
}

func (t *Tracker) isTyping(key typingKey, now time.Time) bool {
	last, ok := t.typing[key]
	return ok && now.Sub(last) < t.cfg.TypingTimeout
}

func (t *Tracker) userStateLocked(userID uuid.UUID, now time.Time) (string, time.Time) {
	st, ok := t.users[userID]
	if !ok || !st.online {
		if ok {
			return events.StateOffline, st.lastSeen
		}
		return events.StateOffline, time.Time{}
	}
	if len(st.conns) == 0 && !st.offlineAt.IsZero() && !now.Before(st.offlineAt) {
		return events.StateOffline, st.lastSeen
	}
	return events.StateOnline, st.lastSeen
}

// goOffline flips the user offline and drops their typing entries, which
// are returned so the caller can broadcast them. Caller holds t.mu.
func (t *Tracker) goOffline(userID uuid.UUID, st *userState) []typingKey {
	st.online = false
	st.offlineAt = time.Time{}
	var cleared []typingKey
	for key := range t.typing {
		if key.userID == userID {
			cleared = append(cleared, key)
			delete(t.typing, key)
		}
	}
	return cleared
}

func (t *Tracker) emitIdle(ctx context.Context, keys []typingKey) {
	for _, key := range keys {
		t.publisher.Publish(ctx, events.NewTypingEvent(key.roomID, events.TypingPayload{UserID: key.userID, State: events.StateIdle}))
	}
}

func (t *Tracker) ensureMember(ctx context.Context, roomID, userID uuid.UUID) error {
	if t.members == nil {
		return nil
	}
	ok, err := t.members.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return teamchat_errors.ErrForbidden
	}
	return nil
}

func (t *Tracker) broadcastPresence(ctx context.Context, userID uuid.UUID, state string, at time.Time) {
	if t.rooms == nil {
		return
	}
	roomIDs, err := t.rooms.UserRoomIDs(ctx, userID)
	if err != nil {
		t.log.Warn("presence broadcast skipped", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	payload := events.PresencePayload{UserID: userID, State: state, LastSeen: at}
	for _, roomID := range roomIDs {
		t.publisher.Publish(ctx, events.NewPresenceEvent(roomID, payload))
	}
}
