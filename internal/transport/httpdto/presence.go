package httpdto

import "time"

// PresenceDTO is the presence and typing state of one room participant
type PresenceDTO struct {
	UserID   string    `json:"user_id"`
	State    string    `json:"state"`
	LastSeen time.Time `json:"last_seen,omitempty"`
	Typing   bool      `json:"typing"`
}

type RoomPresenceResponse struct {
	Participants []PresenceDTO `json:"participants"`
}
