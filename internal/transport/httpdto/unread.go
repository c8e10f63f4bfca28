package httpdto

// MarkReadRequest is used for POST /rooms/:id/read
type MarkReadRequest struct {
	Sequence int64 `json:"sequence" binding:"min=0"`
}

type MarkReadResponse struct {
	LastReadSequence int64 `json:"last_read_sequence"`
}

type UnreadCountResponse struct {
	RoomID string `json:"room_id"`
	Unread int64  `json:"unread"`
}
