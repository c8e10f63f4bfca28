package proxy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"teamchat/internal/domain/room"
	"teamchat/mocks"
	teamchat_errors "teamchat/pkg/errors"
)

func TestRequireParticipant(t *testing.T) {
	ctx := context.Background()
	roomID, userID := uuid.New(), uuid.New()

	t.Run("member", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRoomRepository(ctrl)
		want := room.Participant{RoomID: roomID, UserID: userID, Role: room.RoleMember}
		repo.EXPECT().GetParticipant(gomock.Any(), roomID, userID).Return(want, nil)

		got, err := NewAccessControl(repo).RequireParticipant(ctx, userID, roomID)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("unknown room", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRoomRepository(ctrl)
		repo.EXPECT().GetParticipant(gomock.Any(), roomID, userID).Return(room.Participant{}, teamchat_errors.ErrNotFound)
		repo.EXPECT().GetRoom(gomock.Any(), roomID).Return(room.Room{}, teamchat_errors.ErrNotFound)

		_, err := NewAccessControl(repo).RequireParticipant(ctx, userID, roomID)
		require.ErrorIs(t, err, teamchat_errors.ErrNotFound)
	})

	t.Run("not a member", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRoomRepository(ctrl)
		repo.EXPECT().GetParticipant(gomock.Any(), roomID, userID).Return(room.Participant{}, teamchat_errors.ErrNotFound)
		repo.EXPECT().GetRoom(gomock.Any(), roomID).Return(room.Room{ID: roomID}, nil)

		_, err := NewAccessControl(repo).RequireParticipant(ctx, userID, roomID)
		require.ErrorIs(t, err, teamchat_errors.ErrForbidden)
	})

	t.Run("store failure is not masked", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRoomRepository(ctrl)
		repo.EXPECT().GetParticipant(gomock.Any(), roomID, userID).Return(room.Participant{}, teamchat_errors.ErrStoreUnavailable)

		_, err := NewAccessControl(repo).RequireParticipant(ctx, userID, roomID)
		require.ErrorIs(t, err, teamchat_errors.ErrStoreUnavailable)
	})
}

func TestRequireAdmin_RejectsMembers(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRoomRepository(ctrl)
	roomID, userID := uuid.New(), uuid.New()
	repo.EXPECT().GetParticipant(gomock.Any(), roomID, userID).
		Return(room.Participant{RoomID: roomID, UserID: userID, Role: room.RoleMember}, nil)

	_, err := NewAccessControl(repo).RequireAdmin(context.Background(), userID, roomID)
	require.ErrorIs(t, err, teamchat_errors.ErrForbidden)
}

func TestIsParticipant(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRoomRepository(ctrl)
	roomID, member, stranger := uuid.New(), uuid.New(), uuid.New()
	repo.EXPECT().GetParticipant(gomock.Any(), roomID, member).Return(room.Participant{UserID: member}, nil)
	repo.EXPECT().GetParticipant(gomock.Any(), roomID, stranger).Return(room.Participant{}, teamchat_errors.ErrNotFound)

	access := NewAccessControl(repo)
	ok, err := access.IsParticipant(context.Background(), roomID, member)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = access.IsParticipant(context.Background(), roomID, stranger)
	require.NoError(t, err)
	require.False(t, ok)
}
