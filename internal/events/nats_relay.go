package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ConnectNATS dials the NATS server and keeps reconnecting forever.
func ConnectNATS(url, name string, log *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

// NATSRelay is the NATS counterpart of RedisRelay. Each room maps to the
// subject teamchat.room.<id>.
type NATSRelay struct {
	nc    *nats.Conn
	inbox inbox
	sub   *nats.Subscription
}

func NewNATSRelay(nc *nats.Conn, origin string, local Publisher, log *zap.Logger) *NATSRelay {
	return &NATSRelay{
		nc:    nc,
		inbox: inbox{origin: origin, local: local, log: log.With(zap.String("component", "nats_relay"))},
	}
}

func (r *NATSRelay) Start(_ context.Context) error {
	sub, err := r.nc.Subscribe(SubjectPrefixRoom+"*", func(msg *nats.Msg) {
		r.inbox.receive(context.Background(), msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe room subjects: %w", err)
	}
	r.sub = sub
	return r.nc.Flush()
}

// Stop drains the room subscription and pending publishes, then closes the
// connection.
func (r *NATSRelay) Stop() error {
	if r.nc.IsClosed() || r.nc.IsDraining() {
		return nil
	}
	return r.nc.Drain()
}

func (r *NATSRelay) Publish(_ context.Context, evt Event) {
	data, err := r.inbox.seal(evt)
	if err != nil {
		r.inbox.log.Error("relay_encode_failed", zap.Error(err))
		return
	}
	subject := SubjectPrefixRoom + evt.RoomID.String()
	if err := r.nc.Publish(subject, data); err != nil {
		r.inbox.log.Warn("relay_publish_failed", zap.String("subject", subject), zap.Error(err))
	}
}
