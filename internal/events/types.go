package events

// EventType is the event_type carried by every pushed event.
type EventType string

// Room events
const (
	EventMessageNew        EventType = "message_new"
	EventMessageEdited     EventType = "message_edited"
	EventMessageDeleted    EventType = "message_deleted"
	EventPresence          EventType = "presence"
	EventTyping            EventType = "typing"
	EventMembershipChanged EventType = "membership_changed"
)

// Membership actions carried in a membership_changed payload
const (
	MembershipAdded       = "added"
	MembershipRemoved     = "removed"
	MembershipRoleChanged = "role_changed"
)

// Presence and typing states
const (
	StateOnline  = "online"
	StateOffline = "offline"
	StateTyping  = "typing"
	StateIdle    = "idle"
)

// Relay channel/subject prefixes
const (
	ChannelPrefixRoom = "channel:room:"
	SubjectPrefixRoom = "teamchat.room."
)

func (t EventType) Valid() bool {
	switch t {
	case EventMessageNew, EventMessageEdited, EventMessageDeleted,
		EventPresence, EventTyping, EventMembershipChanged:
		return true
	}
	return false
}
