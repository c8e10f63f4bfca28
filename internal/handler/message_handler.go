package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"teamchat/internal/services"
	"teamchat/internal/transport/httpdto"
)

type MessageHandler struct {
	messages *services.MessageService
	unread   *services.UnreadService
}

func NewMessageHandler(messages *services.MessageService, unread *services.UnreadService) *MessageHandler {
	return &MessageHandler{messages: messages, unread: unread}
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	senderID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	msg, err := h.messages.Append(c.Request.Context(), services.SendMessageInput{
		RoomID:      roomID,
		SenderID:    senderID,
		Body:        req.Body,
		ClientMsgID: req.ClientMsgID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromMessage(msg)))
}

// List returns the newest page when after is absent, otherwise up to limit
// messages following after, optionally bounded by until.
func (h *MessageHandler) List(c *gin.Context) {
	var req httpdto.ListMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query")
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = services.DefaultPageSize
	}
	if limit > services.MaxPageSize {
		limit = services.MaxPageSize
	}

	ctx := c.Request.Context()
	tail, err := h.messages.Tail(ctx, userID, roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	var res httpdto.ListMessagesResponse
	res.LastSequence = tail
	if _, hasAfter := c.GetQuery("after"); !hasAfter {
		msgs, err := h.messages.Latest(ctx, userID, roomID, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		res.Messages = httpdto.FromMessageSlice(msgs)
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(res))
		return
	}

	until := req.Until
	if until <= 0 || until > req.After+int64(limit) {
		until = req.After + int64(limit)
	}
	msgs, err := h.messages.ReadRange(ctx, userID, roomID, req.After, until)
	if err != nil {
		respondError(c, err)
		return
	}
	res.Messages = httpdto.FromMessageSlice(msgs)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(res))
}

func (h *MessageHandler) Edit(c *gin.Context) {
	var req httpdto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	editorID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "messageId")
	if !ok {
		return
	}

	msg, err := h.messages.Edit(c.Request.Context(), roomID, messageID, editorID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMessage(msg)))
}

func (h *MessageHandler) Delete(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "messageId")
	if !ok {
		return
	}

	msg, err := h.messages.SoftDelete(c.Request.Context(), roomID, messageID, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMessage(msg)))
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req httpdto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	seq, err := h.unread.MarkRead(c.Request.Context(), roomID, userID, req.Sequence)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.MarkReadResponse{LastReadSequence: seq}))
}

func (h *MessageHandler) Unread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	count, err := h.unread.UnreadCount(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UnreadCountResponse{
		RoomID: roomID.String(),
		Unread: count,
	}))
}

func (h *MessageHandler) UnreadSummary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	summary, err := h.unread.UnreadSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(summary))
}
