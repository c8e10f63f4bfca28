package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"teamchat/internal/domain/room"
	"teamchat/internal/presence"
	"teamchat/internal/services"
	"teamchat/internal/transport/httpdto"
)

type PresenceHandler struct {
	tracker *presence.Tracker
	rooms   *services.RoomService
}

func NewPresenceHandler(tracker *presence.Tracker, rooms *services.RoomService) *PresenceHandler {
	return &PresenceHandler{tracker: tracker, rooms: rooms}
}

func (h *PresenceHandler) StartTyping(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.tracker.SetTyping(c.Request.Context(), roomID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PresenceHandler) StopTyping(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.tracker.ClearTyping(c.Request.Context(), roomID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RoomPresence lists presence and typing state for every participant.
func (h *PresenceHandler) RoomPresence(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	participants, err := h.rooms.Participants(c.Request.Context(), userID, roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	userIDs := lo.Map(participants, func(p room.Participant, _ int) uuid.UUID { return p.UserID })
	statuses := h.tracker.RoomStatus(roomID, userIDs)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.RoomPresenceResponse{
		Participants: lo.Map(statuses, func(s presence.Status, _ int) httpdto.PresenceDTO {
			return httpdto.PresenceDTO{
				UserID:   s.UserID.String(),
				State:    s.State,
				LastSeen: s.LastSeen,
				Typing:   s.Typing,
			}
		}),
	}))
}
