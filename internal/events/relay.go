package events

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// inbox hands events received from other instances to the local publisher.
type inbox struct {
	origin string
	local  Publisher
	log    *zap.Logger
}

func (in *inbox) seal(evt Event) ([]byte, error) {
	return json.Marshal(Envelope{Origin: in.origin, Event: evt})
}

// receive decodes a relayed envelope. Envelopes of this instance and
// unknown event types are ignored.
func (in *inbox) receive(ctx context.Context, data []byte) bool {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		in.log.Warn("relay_decode_failed", zap.Error(err))
		return false
	}
	if env.Origin == in.origin || !env.Event.Type.Valid() {
		return false
	}
	in.local.Publish(ctx, env.Event)
	return true
}
