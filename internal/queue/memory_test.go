package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueReceiveLeasesMessage(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(time.Second, 3)
	require.NoError(t, q.Enqueue(ctx, []byte("one")))

	d, err := q.Receive(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, []byte("one"), d.Body)

	// leased message is invisible to a competing receive
	other, err := q.Receive(ctx, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestMemoryQueueEmptyReceive(t *testing.T) {
	q := NewMemoryQueue(time.Second, 3)
	d, err := q.Receive(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestMemoryQueueRedeliveryAfterLeaseExpiry(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(30*time.Millisecond, 3)
	require.NoError(t, q.Enqueue(ctx, []byte("redeliver")))

	first, err := q.Receive(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, first)

	// do not delete; the lease expires and the message comes back
	second, err := q.Receive(ctx, 200*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, []byte("redeliver"), second.Body)
}

func TestMemoryQueueDeleteStopsRedelivery(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(30*time.Millisecond, 3)
	require.NoError(t, q.Enqueue(ctx, []byte("done")))

	d, err := q.Receive(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.NoError(t, d.Lease.Delete(ctx))

	time.Sleep(60 * time.Millisecond)
	again, err := q.Receive(ctx, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestMemoryQueueExtendKeepsMessageInvisible(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(30*time.Millisecond, 5)
	require.NoError(t, q.Enqueue(ctx, []byte("held")))

	d, err := q.Receive(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.NoError(t, d.Lease.Extend(ctx, 500*time.Millisecond))

	time.Sleep(60 * time.Millisecond)
	other, err := q.Receive(ctx, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, other, "extended lease must keep the message invisible past the original expiry")
}

func TestMemoryQueueMaxDeliverDropsMessage(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(10*time.Millisecond, 2)
	require.NoError(t, q.Enqueue(ctx, []byte("poison")))

	for i := 0; i < 2; i++ {
		d, err := q.Receive(ctx, 100*time.Millisecond)
		require.NoError(t, err)
		require.NotNil(t, d, "delivery %d", i+1)
		time.Sleep(15 * time.Millisecond)
	}

	d, err := q.Receive(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, d, "message past the delivery limit must stay out of circulation")
}
