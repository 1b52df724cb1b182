// internal/queue/queue.go
package queue

import (
	"context"
	"time"
)

// Lease is the exclusivity claim on one received message. Extend renews
// it while work is in flight; Delete removes the message from circulation
// and is only called after confirmed success. A lease that is neither
// extended nor deleted expires and the message becomes visible again.
type Lease interface {
	Extend(ctx context.Context, d time.Duration) error
	Delete(ctx context.Context) error
}

// Delivery is one received message plus its lease handle.
type Delivery struct {
	Body  []byte
	Lease Lease
}

// Queue delivers work at-least-once. Receive waits up to the given bound
// and returns nil when no message is available.
type Queue interface {
	Enqueue(ctx context.Context, body []byte) error
	Receive(ctx context.Context, wait time.Duration) (*Delivery, error)
}
