package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"teamchat/internal/domain/message"
	"teamchat/internal/domain/room"
	"teamchat/pkg/database"
	teamchat_errors "teamchat/pkg/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := database.OpenBadger(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedRoom(t *testing.T, rooms RoomRepository, kind room.Kind, members ...room.Participant) room.Room {
	t.Helper()
	rm := room.Room{
		ID:        uuid.New(),
		Kind:      kind,
		Name:      "general",
		CreatedBy: members[0].UserID,
		CreatedAt: time.Now().UTC(),
	}
	for i := range members {
		members[i].RoomID = rm.ID
	}
	require.NoError(t, rooms.CreateRoom(context.Background(), &rm, members))
	return rm
}

func participant(userID uuid.UUID, role room.Role, joinedAt time.Time) room.Participant {
	return room.Participant{UserID: userID, Role: role, JoinedAt: joinedAt}
}

func appendBody(t *testing.T, messages MessageRepository, roomID, sender uuid.UUID, body string) message.Message {
	t.Helper()
	m := message.Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		SenderID:  sender,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	created, err := messages.Append(context.Background(), &m)
	require.NoError(t, err)
	require.True(t, created)
	return m
}

func Test_Append_Assigns_Consecutive_Sequences(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	rooms, messages := NewBadgerRoomRepository(db), NewBadgerMessageRepository(db)
	alice := uuid.New()
	rm := seedRoom(t, rooms, room.KindGroup, participant(alice, room.RoleAdmin, time.Now()))

	for i := 1; i <= 5; i++ {
		m := appendBody(t, messages, rm.ID, alice, fmt.Sprintf("message %d", i))
		req.Equal(int64(i), m.Sequence)
	}

	tail, err := messages.LastSequence(context.Background(), rm.ID)
	req.NoError(err)
	req.Equal(int64(5), tail)

	stored, err := rooms.GetRoom(context.Background(), rm.ID)
	req.NoError(err)
	req.Equal(int64(5), stored.LastSequence)
	req.NotNil(stored.LastMessageAt)
}

func Test_Append_Unknown_Room(t *testing.T) {
	db := openTestDB(t)
	messages := NewBadgerMessageRepository(db)

	m := message.Message{ID: uuid.New(), RoomID: uuid.New(), SenderID: uuid.New(), Body: "hi"}
	_, err := messages.Append(context.Background(), &m)
	require.ErrorIs(t, err, teamchat_errors.ErrNotFound)
}

func Test_Append_Is_Idempotent_On_Client_Id(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	rooms, messages := NewBadgerRoomRepository(db), NewBadgerMessageRepository(db)
	alice := uuid.New()
	rm := seedRoom(t, rooms, room.KindGroup, participant(alice, room.RoleAdmin, time.Now()))

	first := message.Message{ID: uuid.New(), RoomID: rm.ID, SenderID: alice, ClientMsgID: "c-1", Body: "hi", CreatedAt: time.Now().UTC()}
	created, err := messages.Append(context.Background(), &first)
	req.NoError(err)
	req.True(created)

	retry := message.Message{ID: uuid.New(), RoomID: rm.ID, SenderID: alice, ClientMsgID: "c-1", Body: "hi", CreatedAt: time.Now().UTC()}
	created, err = messages.Append(context.Background(), &retry)
	req.NoError(err)
	req.False(created)
	req.Equal(first.ID, retry.ID)
	req.Equal(first.Sequence, retry.Sequence)

	tail, err := messages.LastSequence(context.Background(), rm.ID)
	req.NoError(err)
	req.Equal(int64(1), tail)
}

func Test_GetRange_Is_Exclusive_Inclusive(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	rooms, messages := NewBadgerRoomRepository(db), NewBadgerMessageRepository(db)
	alice := uuid.New()
	rm := seedRoom(t, rooms, room.KindGroup, participant(alice, room.RoleAdmin, time.Now()))
	other := seedRoom(t, rooms, room.KindGroup, participant(alice, room.RoleAdmin, time.Now()))
	for i := 0; i < 12; i++ {
		appendBody(t, messages, rm.ID, alice, "x")
	}
	appendBody(t, messages, other.ID, alice, "elsewhere")

	got, err := messages.GetRange(context.Background(), rm.ID, 3, 10)
	req.NoError(err)
	req.Len(got, 7)
	for i, m := range got {
		req.Equal(int64(4+i), m.Sequence)
		req.Equal(rm.ID, m.RoomID)
	}

	got, err = messages.GetRange(context.Background(), rm.ID, 10, 10)
	req.NoError(err)
	req.Empty(got)

	got, err = messages.GetRange(context.Background(), rm.ID, 0, 100)
	req.NoError(err)
	req.Len(got, 12)
}

func Test_Latest_Returns_Newest_Ascending(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	rooms, messages := NewBadgerRoomRepository(db), NewBadgerMessageRepository(db)
	alice := uuid.New()
	rm := seedRoom(t, rooms, room.KindGroup, participant(alice, room.RoleAdmin, time.Now()))
	for i := 0; i < 5; i++ {
		appendBody(t, messages, rm.ID, alice, "x")
	}

	got, err := messages.Latest(context.Background(), rm.ID, 3)
	req.NoError(err)
	req.Len(got, 3)
	req.Equal([]int64{3, 4, 5}, []int64{got[0].Sequence, got[1].Sequence, got[2].Sequence})

	got, err = messages.Latest(context.Background(), rm.ID, 50)
	req.NoError(err)
	req.Len(got, 5)
	req.Equal(int64(1), got[0].Sequence)
}

func Test_Update_Keeps_Sequence_And_Tombstones_Are_Not_Counted(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	rooms, messages := NewBadgerRoomRepository(db), NewBadgerMessageRepository(db)
	alice := uuid.New()
	rm := seedRoom(t, rooms, room.KindGroup, participant(alice, room.RoleAdmin, time.Now()))
	appendBody(t, messages, rm.ID, alice, "one")
	second := appendBody(t, messages, rm.ID, alice, "two")
	appendBody(t, messages, rm.ID, alice, "three")

	second.MarkDeleted()
	req.NoError(messages.Update(context.Background(), second))

	stored, err := messages.GetByID(context.Background(), rm.ID, second.ID)
	req.NoError(err)
	req.Equal(int64(2), stored.Sequence)
	req.True(stored.Deleted)
	req.Equal(message.Tombstone, stored.Body)

	count, err := messages.CountVisibleAfter(context.Background(), rm.ID, 0)
	req.NoError(err)
	req.Equal(int64(2), count)

	count, err = messages.CountVisibleAfter(context.Background(), rm.ID, 1)
	req.NoError(err)
	req.Equal(int64(1), count)

	_, err = messages.GetByID(context.Background(), rm.ID, uuid.New())
	req.ErrorIs(err, teamchat_errors.ErrNotFound)
}

func Test_Direct_Room_Pair_Is_Unique(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	rooms := NewBadgerRoomRepository(db)
	x, y := uuid.New(), uuid.New()
	rm := seedRoom(t, rooms, room.KindDirect, participant(x, room.RoleAdmin, time.Now()), participant(y, room.RoleMember, time.Now()))

	found, err := rooms.FindDirectRoom(context.Background(), y, x)
	req.NoError(err)
	req.Equal(rm.ID, found.ID)

	dup := room.Room{ID: uuid.New(), Kind: room.KindDirect, CreatedBy: y, CreatedAt: time.Now()}
	err = rooms.CreateRoom(context.Background(), &dup, []room.Participant{
		{RoomID: dup.ID, UserID: y, Role: room.RoleAdmin},
		{RoomID: dup.ID, UserID: x, Role: room.RoleMember},
	})
	req.ErrorIs(err, teamchat_errors.ErrAlreadyExists)

	_, err = rooms.FindDirectRoom(context.Background(), x, uuid.New())
	req.ErrorIs(err, teamchat_errors.ErrNotFound)
}

func Test_Membership_Lifecycle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openTestDB(t)
	rooms := NewBadgerRoomRepository(db)
	admin, bob := uuid.New(), uuid.New()
	rm := seedRoom(t, rooms, room.KindGroup, participant(admin, room.RoleAdmin, time.Now()))

	req.NoError(rooms.AddParticipant(ctx, &room.Participant{RoomID: rm.ID, UserID: bob, Role: room.RoleMember, JoinedAt: time.Now()}))
	req.ErrorIs(rooms.AddParticipant(ctx, &room.Participant{RoomID: rm.ID, UserID: bob, Role: room.RoleMember}), teamchat_errors.ErrAlreadyExists)
	req.ErrorIs(rooms.AddParticipant(ctx, &room.Participant{RoomID: uuid.New(), UserID: bob}), teamchat_errors.ErrNotFound)

	participants, err := rooms.GetParticipants(ctx, rm.ID)
	req.NoError(err)
	req.Len(participants, 2)

	bobRooms, err := rooms.ListUserRooms(ctx, bob)
	req.NoError(err)
	req.Len(bobRooms, 1)
	req.Equal(rm.ID, bobRooms[0].ID)

	_, err = rooms.RemoveParticipant(ctx, rm.ID, bob, false)
	req.NoError(err)
	_, err = rooms.GetParticipant(ctx, rm.ID, bob)
	req.ErrorIs(err, teamchat_errors.ErrNotFound)

	bobRooms, err = rooms.ListUserRooms(ctx, bob)
	req.NoError(err)
	req.Empty(bobRooms)
}

func Test_Remove_Last_Admin(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openTestDB(t)
	rooms := NewBadgerRoomRepository(db)
	now := time.Now().UTC()
	admin, early, late := uuid.New(), uuid.New(), uuid.New()
	rm := seedRoom(t, rooms, room.KindGroup,
		participant(admin, room.RoleAdmin, now),
		participant(late, room.RoleMember, now.Add(2*time.Minute)),
		participant(early, room.RoleMember, now.Add(time.Minute)),
	)

	_, err := rooms.RemoveParticipant(ctx, rm.ID, admin, false)
	req.ErrorIs(err, teamchat_errors.ErrLastAdmin)
	req.ErrorIs(rooms.UpdateParticipantRole(ctx, rm.ID, admin, room.RoleMember), teamchat_errors.ErrLastAdmin)

	promoted, err := rooms.RemoveParticipant(ctx, rm.ID, admin, true)
	req.NoError(err)
	req.NotNil(promoted)
	req.Equal(early, promoted.UserID)

	p, err := rooms.GetParticipant(ctx, rm.ID, early)
	req.NoError(err)
	req.Equal(room.RoleAdmin, p.Role)
}

func Test_Remove_Sole_Participant(t *testing.T) {
	db := openTestDB(t)
	rooms := NewBadgerRoomRepository(db)
	admin := uuid.New()
	rm := seedRoom(t, rooms, room.KindGroup, participant(admin, room.RoleAdmin, time.Now()))

	promoted, err := rooms.RemoveParticipant(context.Background(), rm.ID, admin, false)
	require.NoError(t, err)
	require.Nil(t, promoted)
}

func Test_AdvanceReadSequence_Never_Regresses(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openTestDB(t)
	rooms := NewBadgerRoomRepository(db)
	alice := uuid.New()
	rm := seedRoom(t, rooms, room.KindGroup, participant(alice, room.RoleAdmin, time.Now()))

	stored, err := rooms.AdvanceReadSequence(ctx, rm.ID, alice, 5)
	req.NoError(err)
	req.Equal(int64(5), stored)

	stored, err = rooms.AdvanceReadSequence(ctx, rm.ID, alice, 3)
	req.NoError(err)
	req.Equal(int64(5), stored)

	participations, err := rooms.ListUserParticipations(ctx, alice)
	req.NoError(err)
	req.Len(participations, 1)
	req.Equal(int64(5), participations[0].LastReadSequence)

	_, err = rooms.AdvanceReadSequence(ctx, rm.ID, uuid.New(), 1)
	req.ErrorIs(err, teamchat_errors.ErrNotFound)
}

func TestBadgerAppend_ActivityNeverMovesBackwards(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	rooms := NewBadgerRoomRepository(db)
	messages := NewBadgerMessageRepository(db)
	owner := uuid.New()
	rm := seedRoom(t, rooms, room.KindGroup, participant(owner, room.RoleAdmin, time.Now().UTC()))

	latest := time.Now().UTC().Truncate(time.Millisecond)
	skewed := latest.Add(-time.Hour)
	for _, at := range []time.Time{latest, skewed} {
		m := message.Message{ID: uuid.New(), RoomID: rm.ID, SenderID: owner, Body: "hi", CreatedAt: at}
		_, err := messages.Append(context.Background(), &m)
		req.NoError(err)
	}

	got, err := rooms.GetRoom(context.Background(), rm.ID)
	req.NoError(err)
	req.Equal(int64(2), got.LastSequence)
	req.NotNil(got.LastMessageAt)
	req.True(latest.Equal(*got.LastMessageAt))
}
