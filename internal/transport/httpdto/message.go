package httpdto

import (
	"time"

	"github.com/samber/lo"

	"teamchat/internal/domain/message"
)

// SendMessageRequest is used for POST /rooms/:id/messages
type SendMessageRequest struct {
	Body        string `json:"body" binding:"required"`
	ClientMsgID string `json:"client_msg_id" binding:"omitempty,max=128"`
}

// EditMessageRequest is used for PATCH /rooms/:id/messages/:messageId
type EditMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// ListMessagesRequest holds query parameters for reading a room's log
type ListMessagesRequest struct {
	After int64 `form:"after" binding:"min=0"`
	Until int64 `form:"until" binding:"min=0"`
	Limit int   `form:"limit" binding:"min=0"`
}

// MessageDTO represents a message in API responses
type MessageDTO struct {
	ID          string     `json:"id"`
	RoomID      string     `json:"room_id"`
	Sequence    int64      `json:"sequence"`
	SenderID    string     `json:"sender_id"`
	ClientMsgID string     `json:"client_msg_id,omitempty"`
	Body        string     `json:"body"`
	CreatedAt   time.Time  `json:"created_at"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
	Deleted     bool       `json:"deleted"`
}

type ListMessagesResponse struct {
	Messages     []MessageDTO `json:"messages"`
	LastSequence int64        `json:"last_sequence"`
}

func FromMessage(m message.Message) MessageDTO {
	return MessageDTO{
		ID:          m.ID.String(),
		RoomID:      m.RoomID.String(),
		Sequence:    m.Sequence,
		SenderID:    m.SenderID.String(),
		ClientMsgID: m.ClientMsgID,
		Body:        m.Body,
		CreatedAt:   m.CreatedAt,
		EditedAt:    m.EditedAt,
		Deleted:     m.Deleted,
	}
}

func FromMessageSlice(messages []message.Message) []MessageDTO {
	return lo.Map(messages, func(m message.Message, _ int) MessageDTO { return FromMessage(m) })
}
