package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/mediagate/internal/common"
	"github.com/dmitrijs2005/mediagate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_ConsumeOnce(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	exp := time.Now().Add(time.Minute)

	require.NoError(t, l.Consume(ctx, "t1", exp))
	assert.ErrorIs(t, l.Consume(ctx, "t1", exp), common.ErrTokenReused)
	assert.NoError(t, l.Consume(ctx, "t2", exp))
	assert.Equal(t, 2, l.Len())
}

func TestMemoryLedger_ConcurrentConsume(t *testing.T) {
	l := NewMemoryLedger()
	exp := time.Now().Add(time.Minute)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Consume(context.Background(), "same", exp) == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
}

func TestMemoryLedger_Prune(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	require.NoError(t, l.Consume(ctx, "old", now.Add(-time.Second)))
	require.NoError(t, l.Consume(ctx, "fresh", now.Add(time.Minute)))

	n, err := l.Prune(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, l.Len())

	assert.ErrorIs(t, l.Consume(ctx, "fresh", now.Add(time.Minute)), common.ErrTokenReused)
}

type countingLedger struct {
	MemoryLedger
	prunes atomic.Int32
}

func (c *countingLedger) Prune(ctx context.Context, now time.Time) (int64, error) {
	c.prunes.Add(1)
	return 0, nil
}

func TestRunPruner_StopsOnCancel(t *testing.T) {
	l := &countingLedger{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunPruner(ctx, l, 5*time.Millisecond, logging.Nop())
		close(done)
	}()

	require.Eventually(t, func() bool { return l.prunes.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop after cancel")
	}
}

func TestRunPruner_NonPositiveIntervalReturns(t *testing.T) {
	l := &countingLedger{}
	for _, d := range []time.Duration{0, -time.Second} {
		done := make(chan struct{})
		go func() {
			RunPruner(context.Background(), l, d, logging.Nop())
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("pruner with interval %s did not return", d)
		}
	}
	assert.Zero(t, l.prunes.Load())
}
