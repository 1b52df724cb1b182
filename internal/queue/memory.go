// internal/queue/memory.go
package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is an in-process Queue with real lease semantics: a received
// message is invisible until its lease expires, extension pushes the
// expiry out, and messages past the delivery limit drop out of
// circulation. Used by tests and single-process deployments.
type MemoryQueue struct {
	mu         sync.Mutex
	items      []*memoryItem
	lease      time.Duration
	maxDeliver int
}

type memoryItem struct {
	body       []byte
	visibleAt  time.Time
	deliveries int
	deleted    bool
}

var _ Queue = (*MemoryQueue)(nil)

func NewMemoryQueue(lease time.Duration, maxDeliver int) *MemoryQueue {
	return &MemoryQueue{lease: lease, maxDeliver: maxDeliver}
}

func (q *MemoryQueue) Enqueue(_ context.Context, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	stored := make([]byte, len(body))
	copy(stored, body)
	q.items = append(q.items, &memoryItem{body: stored, visibleAt: time.Now()})
	return nil
}

func (q *MemoryQueue) Receive(ctx context.Context, wait time.Duration) (*Delivery, error) {
	deadline := time.Now().Add(wait)
	for {
		if d := q.tryReceive(); d != nil {
			return d, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (q *MemoryQueue) tryReceive() *Delivery {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now()
	for _, item := range q.items {
		if item.deleted || item.visibleAt.After(now) || item.deliveries >= q.maxDeliver {
			continue
		}
		item.deliveries++
		item.visibleAt = now.Add(q.lease)
		return &Delivery{Body: item.body, Lease: &memoryLease{queue: q, item: item}}
	}
	return nil
}

type memoryLease struct {
	queue *MemoryQueue
	item  *memoryItem
}

var _ Lease = (*memoryLease)(nil)

func (l *memoryLease) Extend(_ context.Context, d time.Duration) error {
	l.queue.mu.Lock()
	defer l.queue.mu.Unlock()
	l.item.visibleAt = time.Now().Add(d)
	return nil
}

func (l *memoryLease) Delete(_ context.Context) error {
	l.queue.mu.Lock()
	defer l.queue.mu.Unlock()
	l.item.deleted = true
	return nil
}
