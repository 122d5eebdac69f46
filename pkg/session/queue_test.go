package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	q := newPacketQueue()
	for i := 0; i < scanBlockBufferingCount+5; i++ {
		q.push([]byte{byte(i)})
	}

	assert.Equal(t, scanBlockBufferingCount, q.len())
	assert.Equal(t, uint64(5), q.droppedCount())

	front, ok := q.waitAndPop(context.Background())
	require.True(t, ok)
	assert.Equal(t, byte(5), front[0], "the 5 oldest entries should have been dropped")
}

func TestQueueWaitAndPopBlocksUntilPush(t *testing.T) {
	q := newPacketQueue()

	resultCh := make(chan []byte, 1)
	go func() {
		packet, ok := q.waitAndPop(context.Background())
		if ok {
			resultCh <- packet
		} else {
			resultCh <- nil
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.push([]byte{42})

	select {
	case got := <-resultCh:
		require.NotNil(t, got)
		assert.Equal(t, byte(42), got[0])
	case <-time.After(time.Second):
		t.Fatal("waitAndPop did not unblock after push")
	}
}

func TestQueueWaitAndPopCanceledByContext(t *testing.T) {
	q := newPacketQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := q.waitAndPop(ctx)
	assert.False(t, ok)
}

func TestQueueClear(t *testing.T) {
	q := newPacketQueue()
	q.push([]byte{1})
	q.push([]byte{2})
	q.clear()
	assert.Equal(t, 0, q.len())
}
