package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_ConcurrentCallersShareOneRun(t *testing.T) {
	c := newCoordinator()
	key := evalKey{meetingID: "m-1", scorecardID: "sc-1"}

	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	fn := func() (*ScorecardResult, error) {
		runs.Add(1)
		close(started)
		<-release
		return &ScorecardResult{ID: "res-1"}, nil
	}

	const callers = 10
	results := make([]*ScorecardResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = c.do(context.Background(), key, false, fn)
	}()
	<-started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.do(context.Background(), key, false, fn)
		}()
	}
	// Give the waiters time to attach before releasing the run.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, "res-1", results[i].ID)
	}
}

func TestCoordinator_CompletedResultIsCached(t *testing.T) {
	c := newCoordinator()
	key := evalKey{meetingID: "m-1", scorecardID: "sc-1"}

	var runs int
	fn := func() (*ScorecardResult, error) {
		runs++
		return &ScorecardResult{ID: "res-1"}, nil
	}

	first, err := c.do(context.Background(), key, false, fn)
	require.NoError(t, err)

	second, err := c.do(context.Background(), key, false, fn)
	require.NoError(t, err)

	assert.Equal(t, 1, runs)
	assert.Same(t, first, second)

	cached, ok := c.cached(key)
	require.True(t, ok)
	assert.Same(t, first, cached)
}

func TestCoordinator_ForceRefreshReRuns(t *testing.T) {
	c := newCoordinator()
	key := evalKey{meetingID: "m-1", scorecardID: "sc-1"}

	var runs int
	fn := func() (*ScorecardResult, error) {
		runs++
		return &ScorecardResult{ID: "res"}, nil
	}

	_, err := c.do(context.Background(), key, false, fn)
	require.NoError(t, err)

	_, err = c.do(context.Background(), key, true, fn)
	require.NoError(t, err)

	assert.Equal(t, 2, runs)
}

func TestCoordinator_FailureIsNotSticky(t *testing.T) {
	c := newCoordinator()
	key := evalKey{meetingID: "m-1", scorecardID: "sc-1"}

	boom := errors.New("judge unreachable")
	calls := 0
	fn := func() (*ScorecardResult, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return &ScorecardResult{ID: "res-2"}, nil
	}

	_, err := c.do(context.Background(), key, false, fn)
	require.ErrorIs(t, err, boom)

	_, ok := c.cached(key)
	assert.False(t, ok)

	res, err := c.do(context.Background(), key, false, fn)
	require.NoError(t, err)
	assert.Equal(t, "res-2", res.ID)
	assert.Equal(t, 2, calls)
}

func TestCoordinator_WaiterHonorsContext(t *testing.T) {
	c := newCoordinator()
	key := evalKey{meetingID: "m-1", scorecardID: "sc-1"}

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = c.do(context.Background(), key, false, func() (*ScorecardResult, error) {
			close(started)
			<-release
			return &ScorecardResult{}, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	waiterErr := make(chan error, 1)
	go func() {
		_, err := c.do(ctx, key, false, func() (*ScorecardResult, error) {
			t.Error("waiter must not start a second run")
			return nil, nil
		})
		waiterErr <- err
	}()

	cancel()
	select {
	case err := <-waiterErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("waiter did not return after context cancellation")
	}
	close(release)
}

func TestCoordinator_PanicIsContained(t *testing.T) {
	c := newCoordinator()
	key := evalKey{meetingID: "m-1", scorecardID: "sc-1"}

	_, err := c.do(context.Background(), key, false, func() (*ScorecardResult, error) {
		panic("boom")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// The entry is Failed, so the next call runs fresh.
	res, err := c.do(context.Background(), key, false, func() (*ScorecardResult, error) {
		return &ScorecardResult{ID: "after-panic"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "after-panic", res.ID)
}

func TestCoordinator_DistinctKeysRunIndependently(t *testing.T) {
	c := newCoordinator()

	blockRelease := make(chan struct{})
	blockStarted := make(chan struct{})
	go func() {
		_, _ = c.do(context.Background(), evalKey{meetingID: "m-1", scorecardID: "sc-1"}, false,
			func() (*ScorecardResult, error) {
				close(blockStarted)
				<-blockRelease
				return &ScorecardResult{}, nil
			})
	}()
	<-blockStarted

	// A different key must not queue behind the in-flight run.
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err := c.do(context.Background(), evalKey{meetingID: "m-2", scorecardID: "sc-1"}, false,
			func() (*ScorecardResult, error) { return &ScorecardResult{ID: "other"}, nil })
		if assert.NoError(t, err) {
			assert.Equal(t, "other", res.ID)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent key blocked behind unrelated run")
	}
	close(blockRelease)
}
