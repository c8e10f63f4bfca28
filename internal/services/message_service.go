package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"teamchat/internal/domain/message"
	"teamchat/internal/events"
	"teamchat/internal/proxy"
	"teamchat/internal/repository"
	teamchat_errors "teamchat/pkg/errors"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// MessageService is the per-room ordered log. Every write to a room runs
// inside that room's exclusive section and publishes before releasing it,
// so subscribers observe events in sequence order.
type MessageService struct {
	messageRepo   repository.MessageRepository
	access        *proxy.AccessControl
	publisher     events.Publisher
	locks         *roomLocks
	maxBodyLength int
	log           *zap.Logger
	now           func() time.Time
}

func NewMessageService(messageRepo repository.MessageRepository, access *proxy.AccessControl, publisher events.Publisher, maxBodyLength int, log *zap.Logger) *MessageService {
	if log == nil {
		log = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.MultiPublisher{}
	}
	return &MessageService{
		messageRepo:   messageRepo,
		access:        access,
		publisher:     publisher,
		locks:         newRoomLocks(),
		maxBodyLength: maxBodyLength,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type SendMessageInput struct {
	RoomID      uuid.UUID
	SenderID    uuid.UUID
	Body        string
	ClientMsgID string
}

func (s *MessageService) validateBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", teamchat_errors.ErrInvalidInput
	}
	if s.maxBodyLength > 0 && utf8.RuneCountInString(body) > s.maxBodyLength {
		return "", teamchat_errors.ErrInvalidInput
	}
	return body, nil
}

// Append stores a message from a current participant with the room's next
// sequence. Retrying with the same ClientMsgID returns the stored message.
func (s *MessageService) Append(ctx context.Context, in SendMessageInput) (message.Message, error) {
	body, err := s.validateBody(in.Body)
	if err != nil {
		return message.Message{}, err
	}
	if len(in.ClientMsgID) > 128 {
		return message.Message{}, teamchat_errors.ErrInvalidInput
	}
	if err := s.access.CanSendMessage(ctx, in.SenderID, in.RoomID); err != nil {
		return message.Message{}, err
	}

	unlock := s.locks.lock(in.RoomID)
	defer unlock()

	msg := message.Message{
		ID:          uuid.New(),
		RoomID:      in.RoomID,
		SenderID:    in.SenderID,
		ClientMsgID: in.ClientMsgID,
		Body:        body,
		CreatedAt:   s.now(),
	}
	created, err := s.messageRepo.Append(ctx, &msg)
	if err != nil {
		s.log.Warn("append failed", zap.String("room_id", in.RoomID.String()), zap.Error(err))
		return message.Message{}, err
	}
	if created {
		s.publisher.Publish(ctx, events.NewMessageEvent(events.EventMessageNew, msg))
	}
	return msg, nil
}

// Edit replaces the body of the editor's own message. The sequence is kept.
func (s *MessageService) Edit(ctx context.Context, roomID, messageID, editorID uuid.UUID, newBody string) (message.Message, error) {
	body, err := s.validateBody(newBody)
	if err != nil {
		return message.Message{}, err
	}
	if _, err := s.access.RequireParticipant(ctx, editorID, roomID); err != nil {
		return message.Message{}, err
	}

	unlock := s.locks.lock(roomID)
	defer unlock()

	msg, err := s.messageRepo.GetByID(ctx, roomID, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if msg.Deleted {
		return message.Message{}, teamchat_errors.ErrNotFound
	}
	if msg.SenderID != editorID {
		return message.Message{}, teamchat_errors.ErrForbidden
	}

	msg.Body = body
	editedAt := s.now()
	msg.EditedAt = &editedAt
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return message.Message{}, err
	}
	s.publisher.Publish(ctx, events.NewMessageEvent(events.EventMessageEdited, msg))
	return msg, nil
}

// SoftDelete tombstones a message. Allowed for the sender and room admins.
// Deleting a tombstone again is a no-op.
func (s *MessageService) SoftDelete(ctx context.Context, roomID, messageID, actorID uuid.UUID) (message.Message, error) {
	actor, err := s.access.RequireParticipant(ctx, actorID, roomID)
	if err != nil {
		return message.Message{}, err
	}

	unlock := s.locks.lock(roomID)
	defer unlock()

	msg, err := s.messageRepo.GetByID(ctx, roomID, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if msg.SenderID != actorID && !actor.IsAdmin() {
		return message.Message{}, teamchat_errors.ErrForbidden
	}
	if msg.Deleted {
		return msg, nil
	}

	msg.MarkDeleted()
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return message.Message{}, err
	}
	s.publisher.Publish(ctx, events.NewMessageEvent(events.EventMessageDeleted, msg))
	return msg, nil
}

// ReadRange returns messages with after < sequence <= until in ascending
// order. A non-positive until means the current tail.
func (s *MessageService) ReadRange(ctx context.Context, userID, roomID uuid.UUID, after, until int64) ([]message.Message, error) {
	if after < 0 {
		return nil, teamchat_errors.ErrInvalidInput
	}
	if _, err := s.access.RequireParticipant(ctx, userID, roomID); err != nil {
		return nil, err
	}
	return s.rangeToTail(ctx, roomID, after, until)
}

// ReadAfter is the unchecked catch-up read used by the delivery hub, which
// authorizes subscriptions itself.
func (s *MessageService) ReadAfter(ctx context.Context, roomID uuid.UUID, after int64) ([]message.Message, error) {
	if after < 0 {
		after = 0
	}
	return s.rangeToTail(ctx, roomID, after, 0)
}

// TailSequence is the unchecked tail read used by the delivery hub.
func (s *MessageService) TailSequence(ctx context.Context, roomID uuid.UUID) (int64, error) {
	return s.messageRepo.LastSequence(ctx, roomID)
}

func (s *MessageService) rangeToTail(ctx context.Context, roomID uuid.UUID, after, until int64) ([]message.Message, error) {
	tail, err := s.messageRepo.LastSequence(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if until <= 0 || until > tail {
		until = tail
	}
	return s.messageRepo.GetRange(ctx, roomID, after, until)
}

func (s *MessageService) Latest(ctx context.Context, userID, roomID uuid.UUID, limit int) ([]message.Message, error) {
	if _, err := s.access.RequireParticipant(ctx, userID, roomID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.messageRepo.Latest(ctx, roomID, limit)
}

func (s *MessageService) Tail(ctx context.Context, userID, roomID uuid.UUID) (int64, error) {
	if _, err := s.access.RequireParticipant(ctx, userID, roomID); err != nil {
		return 0, err
	}
	return s.messageRepo.LastSequence(ctx, roomID)
}
