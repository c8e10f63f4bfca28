package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"teamchat/internal/domain/room"
	"teamchat/internal/services"
	"teamchat/internal/transport/httpdto"
)

type RoomHandler struct {
	service *services.RoomService
}

func NewRoomHandler(service *services.RoomService) *RoomHandler {
	return &RoomHandler{service: service}
}

func (h *RoomHandler) Create(c *gin.Context) {
	var req httpdto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	creatorID, ok := currentUser(c)
	if !ok {
		return
	}
	participants, err := httpdto.ParseUUIDs(req.Participants)
	if err != nil {
		badRequest(c, "invalid participant id")
		return
	}

	res, err := h.service.CreateRoom(c.Request.Context(), services.CreateRoomInput{
		Kind:         room.Kind(req.Kind),
		Name:         req.Name,
		CreatorID:    creatorID,
		Participants: participants,
		ProjectID:    lo.EmptyableToPtr(req.ProjectID),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromRoom(res)))
}

func (h *RoomHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rooms, err := h.service.ListRooms(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListRoomsResponse{
		Rooms: httpdto.FromRoomSlice(rooms),
	}))
}

func (h *RoomHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.GetRoom(c.Request.Context(), userID, roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromRoom(res)))
}

func (h *RoomHandler) Participants(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	participants, err := h.service.Participants(c.Request.Context(), userID, roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ParticipantsResponse{
		Participants: httpdto.FromParticipantSlice(participants),
	}))
}

func (h *RoomHandler) AddParticipant(c *gin.Context) {
	var req httpdto.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ids, err := httpdto.ParseUUIDs([]string{req.UserID})
	if err != nil {
		badRequest(c, "invalid user id")
		return
	}
	role := room.RoleMember
	if req.Role != "" {
		role = room.Role(req.Role)
	}

	p, err := h.service.AddParticipant(c.Request.Context(), actorID, roomID, ids[0], role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromParticipant(p)))
}

func (h *RoomHandler) RemoveParticipant(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	promoted, err := h.service.RemoveParticipant(c.Request.Context(), actorID, roomID, userID, c.Query("promote") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(removalResponse(promoted)))
}

func (h *RoomHandler) Leave(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	promoted, err := h.service.LeaveRoom(c.Request.Context(), userID, roomID, c.Query("promote") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(removalResponse(promoted)))
}

func (h *RoomHandler) SetRole(c *gin.Context) {
	var req httpdto.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.service.SetRole(c.Request.Context(), actorID, roomID, userID, room.Role(req.Role)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func removalResponse(promoted *room.Participant) httpdto.RemoveParticipantResponse {
	if promoted == nil {
		return httpdto.RemoveParticipantResponse{}
	}
	dto := httpdto.FromParticipant(*promoted)
	return httpdto.RemoveParticipantResponse{Promoted: &dto}
}
