package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captured []Event

func (c *captured) Publish(_ context.Context, evt Event) {
	*c = append(*c, evt)
}

func TestInbox_ForwardsEventsOfOtherInstances(t *testing.T) {
	req := require.New(t)
	var local captured
	sender := inbox{origin: "a", local: &captured{}, log: zap.NewNop()}
	receiver := inbox{origin: "b", local: &local, log: zap.NewNop()}

	evt := NewTypingEvent(uuid.New(), TypingPayload{UserID: uuid.New(), State: StateTyping})
	data, err := sender.seal(evt)
	req.NoError(err)

	req.True(receiver.receive(context.Background(), data))
	req.Len(local, 1)
	req.Equal(evt.RoomID, local[0].RoomID)
	req.Equal(EventTyping, local[0].Type)
	req.JSONEq(string(evt.Payload), string(local[0].Payload))
}

func TestInbox_IgnoresOwnOrigin(t *testing.T) {
	var local captured
	in := inbox{origin: "a", local: &local, log: zap.NewNop()}

	data, err := in.seal(NewTypingEvent(uuid.New(), TypingPayload{State: StateIdle}))
	require.NoError(t, err)

	require.False(t, in.receive(context.Background(), data))
	require.Empty(t, local)
}

func TestInbox_RejectsMalformedAndUnknownEvents(t *testing.T) {
	var local captured
	in := inbox{origin: "a", local: &local, log: zap.NewNop()}

	require.False(t, in.receive(context.Background(), []byte("{not json")))
	require.False(t, in.receive(context.Background(),
		[]byte(`{"origin":"b","event":{"room_id":"`+uuid.NewString()+`","event_type":"call_offer","payload":{}}}`)))
	require.Empty(t, local)
}

func TestMultiPublisher_PreservesOrder(t *testing.T) {
	var first, second captured
	var order []string
	multi := MultiPublisher{
		&first,
		PublisherFunc(func(ctx context.Context, evt Event) { order = append(order, "func") }),
		&second,
	}

	multi.Publish(context.Background(), NewTypingEvent(uuid.New(), TypingPayload{State: StateTyping}))

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	require.Equal(t, []string{"func"}, order)
}
