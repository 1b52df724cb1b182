// internal/queue/nats.go
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Connect dials NATS with the reconnect policy the workers rely on.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
}

// JetStreamQueue implements Queue on a JetStream pull consumer. The
// consumer's AckWait is the lease duration; extension resets it, ack
// deletes the message, and MaxDeliver bounds redeliveries before the
// message drops out of circulation.
type JetStreamQueue struct {
	js      nats.JetStreamContext
	sub     *nats.Subscription
	subject string
}

var _ Queue = (*JetStreamQueue)(nil)

type JetStreamConfig struct {
	Stream     string
	Subject    string
	Durable    string
	AckWait    time.Duration
	MaxDeliver int
}

func NewJetStreamQueue(nc *nats.Conn, cfg JetStreamConfig) (*JetStreamQueue, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject},
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return nil, fmt.Errorf("ensure stream %s: %w", cfg.Stream, err)
	}

	sub, err := js.PullSubscribe(cfg.Subject, cfg.Durable,
		nats.AckWait(cfg.AckWait),
		nats.MaxDeliver(cfg.MaxDeliver),
		nats.MaxAckPending(1),
	)
	if err != nil {
		return nil, fmt.Errorf("pull subscribe %s: %w", cfg.Subject, err)
	}

	return &JetStreamQueue{js: js, sub: sub, subject: cfg.Subject}, nil
}

func (q *JetStreamQueue) Enqueue(_ context.Context, body []byte) error {
	if _, err := q.js.Publish(q.subject, body); err != nil {
		return fmt.Errorf("publish %s: %w", q.subject, err)
	}
	return nil
}

func (q *JetStreamQueue) Receive(_ context.Context, wait time.Duration) (*Delivery, error) {
	msgs, err := q.sub.Fetch(1, nats.MaxWait(wait))
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &Delivery{Body: msgs[0].Data, Lease: &jetStreamLease{msg: msgs[0]}}, nil
}

type jetStreamLease struct {
	msg *nats.Msg
}

var _ Lease = (*jetStreamLease)(nil)

// Extend resets the consumer's AckWait clock; the extension amount is
// fixed by the consumer configuration, so d is advisory here.
func (l *jetStreamLease) Extend(_ context.Context, _ time.Duration) error {
	return l.msg.InProgress()
}

func (l *jetStreamLease) Delete(_ context.Context) error {
	return l.msg.Ack()
}
