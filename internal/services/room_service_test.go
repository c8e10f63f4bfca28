package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"teamchat/internal/domain/room"
	"teamchat/internal/events"
	teamchat_errors "teamchat/pkg/errors"
)

func Test_CreateRoom_Assigns_Roles_And_Emits_Membership(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	admin, bob, carol := uuid.New(), uuid.New(), uuid.New()

	rm := f.groupRoom(t, admin, bob, carol, bob)

	participants, err := f.rooms.Participants(ctx, admin, rm.ID)
	req.NoError(err)
	req.Len(participants, 3)
	for _, p := range participants {
		if p.UserID == admin {
			req.Equal(room.RoleAdmin, p.Role)
		} else {
			req.Equal(room.RoleMember, p.Role)
		}
		req.Zero(p.LastReadSequence)
	}

	added := f.pub.ofType(events.EventMembershipChanged)
	req.Len(added, 3)
	for _, e := range added {
		req.Equal(rm.ID, e.RoomID)
		req.NotNil(e.TargetUserID)
	}
}

func Test_CreateRoom_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	x, y, z := uuid.New(), uuid.New(), uuid.New()
	project := "proj-42"

	tests := []struct {
		name string
		in   CreateRoomInput
		want error
	}{
		{"direct with three users", CreateRoomInput{Kind: room.KindDirect, CreatorID: x, Participants: []uuid.UUID{y, z}}, teamchat_errors.ErrInvalidMembership},
		{"direct alone", CreateRoomInput{Kind: room.KindDirect, CreatorID: x}, teamchat_errors.ErrInvalidMembership},
		{"project without project id", CreateRoomInput{Kind: room.KindProject, CreatorID: x}, teamchat_errors.ErrInvalidMembership},
		{"group with project id", CreateRoomInput{Kind: room.KindGroup, CreatorID: x, ProjectID: &project}, teamchat_errors.ErrInvalidInput},
		{"unknown kind", CreateRoomInput{Kind: "channel", CreatorID: x}, teamchat_errors.ErrInvalidInput},
		{"nil participant", CreateRoomInput{Kind: room.KindGroup, CreatorID: x, Participants: []uuid.UUID{uuid.Nil}}, teamchat_errors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.rooms.CreateRoom(ctx, tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}

	rm, err := f.rooms.CreateRoom(ctx, CreateRoomInput{Kind: room.KindProject, CreatorID: x, ProjectID: &project})
	require.NoError(t, err)
	require.Equal(t, project, *rm.ProjectID)
}

func Test_Direct_Room_Membership_Is_Immutable(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	x, y, z := uuid.New(), uuid.New(), uuid.New()

	rm, err := f.rooms.CreateRoom(ctx, CreateRoomInput{Kind: room.KindDirect, CreatorID: x, Participants: []uuid.UUID{x, y}})
	req.NoError(err)

	_, err = f.rooms.AddParticipant(ctx, x, rm.ID, z, room.RoleMember)
	req.ErrorIs(err, teamchat_errors.ErrImmutableMembership)
	_, err = f.rooms.RemoveParticipant(ctx, x, rm.ID, y, false)
	req.ErrorIs(err, teamchat_errors.ErrImmutableMembership)
	_, err = f.rooms.LeaveRoom(ctx, y, rm.ID, false)
	req.ErrorIs(err, teamchat_errors.ErrImmutableMembership)

	participants, err := f.rooms.Participants(ctx, y, rm.ID)
	req.NoError(err)
	req.Len(participants, 2)

	again, err := f.rooms.CreateRoom(ctx, CreateRoomInput{Kind: room.KindDirect, CreatorID: y, Participants: []uuid.UUID{x}})
	req.NoError(err)
	req.Equal(rm.ID, again.ID)
}

func Test_AddParticipant_Requires_Admin(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	admin, member, newcomer := uuid.New(), uuid.New(), uuid.New()
	rm := f.groupRoom(t, admin, member)

	_, err := f.rooms.AddParticipant(ctx, member, rm.ID, newcomer, room.RoleMember)
	req.ErrorIs(err, teamchat_errors.ErrForbidden)

	_, err = f.rooms.AddParticipant(ctx, newcomer, rm.ID, newcomer, room.RoleMember)
	req.ErrorIs(err, teamchat_errors.ErrForbidden)

	p, err := f.rooms.AddParticipant(ctx, admin, rm.ID, newcomer, "")
	req.NoError(err)
	req.Equal(room.RoleMember, p.Role)

	_, err = f.rooms.AddParticipant(ctx, admin, rm.ID, newcomer, room.RoleMember)
	req.ErrorIs(err, teamchat_errors.ErrAlreadyExists)

	_, err = f.rooms.AddParticipant(ctx, admin, uuid.New(), newcomer, room.RoleMember)
	req.ErrorIs(err, teamchat_errors.ErrNotFound)
}

func Test_Removing_Sole_Admin(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	admin, member := uuid.New(), uuid.New()
	rm := f.groupRoom(t, admin, member)

	_, err := f.rooms.LeaveRoom(ctx, admin, rm.ID, false)
	req.ErrorIs(err, teamchat_errors.ErrLastAdmin)

	req.ErrorIs(f.rooms.SetRole(ctx, member, rm.ID, member, room.RoleAdmin), teamchat_errors.ErrForbidden)
	req.NoError(f.rooms.SetRole(ctx, admin, rm.ID, member, room.RoleAdmin))

	_, err = f.rooms.LeaveRoom(ctx, admin, rm.ID, false)
	req.NoError(err)

	_, err = f.rooms.GetRoom(ctx, admin, rm.ID)
	req.ErrorIs(err, teamchat_errors.ErrForbidden)
}

func Test_Removing_Sole_Admin_With_Promotion(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.rooms.now = steppingClock(time.Now())
	admin, first, second := uuid.New(), uuid.New(), uuid.New()
	rm := f.groupRoom(t, admin)
	_, err := f.rooms.AddParticipant(ctx, admin, rm.ID, first, room.RoleMember)
	req.NoError(err)
	_, err = f.rooms.AddParticipant(ctx, admin, rm.ID, second, room.RoleMember)
	req.NoError(err)
	f.pub.reset()

	promoted, err := f.rooms.RemoveParticipant(ctx, admin, rm.ID, admin, true)
	req.NoError(err)
	req.NotNil(promoted)
	req.Equal(first, promoted.UserID)
	req.Equal(room.RoleAdmin, promoted.Role)

	changes := f.pub.ofType(events.EventMembershipChanged)
	req.Len(changes, 2)
	req.Equal(first, *changes[0].TargetUserID)
	req.Equal(admin, *changes[1].TargetUserID)
}

func Test_Demoting_Sole_Admin_Is_Rejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin, member := uuid.New(), uuid.New()
	rm := f.groupRoom(t, admin, member)

	err := f.rooms.SetRole(ctx, admin, rm.ID, admin, room.RoleMember)
	require.ErrorIs(t, err, teamchat_errors.ErrLastAdmin)
}

func Test_Member_Can_Leave_And_Admin_Can_Remove(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	admin, bob, carol := uuid.New(), uuid.New(), uuid.New()
	rm := f.groupRoom(t, admin, bob, carol)

	_, err := f.rooms.RemoveParticipant(ctx, bob, rm.ID, carol, false)
	req.ErrorIs(err, teamchat_errors.ErrForbidden)

	_, err = f.rooms.LeaveRoom(ctx, bob, rm.ID, false)
	req.NoError(err)
	_, err = f.rooms.RemoveParticipant(ctx, admin, rm.ID, carol, false)
	req.NoError(err)

	rooms, err := f.rooms.ListRooms(ctx, bob)
	req.NoError(err)
	req.Empty(rooms)
}

func Test_ListRooms_Orders_By_Activity(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	start := time.Now().UTC()
	f.rooms.now = steppingClock(start)
	f.messages.now = steppingClock(start.Add(time.Hour))
	alice := uuid.New()

	oldest := f.groupRoom(t, alice)
	middle := f.groupRoom(t, alice)
	newest := f.groupRoom(t, alice)
	f.send(t, middle.ID, alice, "first")
	f.send(t, oldest.ID, alice, "second")

	rooms, err := f.rooms.ListRooms(ctx, alice)
	req.NoError(err)
	req.Len(rooms, 3)
	req.Equal([]uuid.UUID{oldest.ID, middle.ID, newest.ID}, []uuid.UUID{rooms[0].ID, rooms[1].ID, rooms[2].ID})

	stranger, err := f.rooms.ListRooms(ctx, uuid.New())
	req.NoError(err)
	req.Empty(stranger)
}

func Test_GetRoom_Access(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := uuid.New()
	rm := f.groupRoom(t, admin)

	got, err := f.rooms.GetRoom(ctx, admin, rm.ID)
	require.NoError(t, err)
	require.Equal(t, rm.ID, got.ID)

	_, err = f.rooms.GetRoom(ctx, uuid.New(), rm.ID)
	require.ErrorIs(t, err, teamchat_errors.ErrForbidden)

	_, err = f.rooms.GetRoom(ctx, admin, uuid.New())
	require.ErrorIs(t, err, teamchat_errors.ErrNotFound)
}
