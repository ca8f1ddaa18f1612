package service

import (
	"context"
	"fmt"
	"sync"
)

// evalKey identifies one evaluation: a (meeting, scorecard) pair.
type evalKey struct {
	meetingID   string
	scorecardID string
}

func (k evalKey) String() string {
	return k.meetingID + ":" + k.scorecardID
}

type runState int

const (
	stateRunning runState = iota
	stateCompleted
	stateFailed
)

// evalRun is the per-key record in the coordinator's run table. result and
// err are written exactly once, before done is closed, so waiters may read
// them after <-done without holding the lock.
type evalRun struct {
	state  runState
	result *ScorecardResult
	err    error
	done   chan struct{}
}

// coordinator enforces at-most-one concurrent evaluation per key and caches
// completed results in memory. It is an explicit state machine
// (Running -> Completed | Failed) over an owned map, guarded by one mutex;
// callers arriving while a run is in flight attach to it and receive the same
// outcome. A Failed entry is not sticky: the next request starts fresh.
type coordinator struct {
	mu   sync.Mutex
	runs map[evalKey]*evalRun
}

func newCoordinator() *coordinator {
	return &coordinator{runs: make(map[evalKey]*evalRun)}
}

// do executes fn under the key's at-most-one guarantee. force invalidates a
// completed entry and re-runs. The waiting caller's ctx only bounds the wait,
// not the run itself.
func (c *coordinator) do(ctx context.Context, key evalKey, force bool, fn func() (*ScorecardResult, error)) (*ScorecardResult, error) {
	c.mu.Lock()
	if run, ok := c.runs[key]; ok {
		switch run.state {
		case stateRunning:
			c.mu.Unlock()
			select {
			case <-run.done:
				return run.result, run.err
			case <-ctx.Done():
				return nil, fmt.Errorf("waiting for evaluation %s: %w", key, ctx.Err())
			}
		case stateCompleted:
			if !force {
				res := run.result
				c.mu.Unlock()
				return res, nil
			}
			// force: fall through and replace the entry
		case stateFailed:
			// not sticky: retry from scratch
		}
	}

	run := &evalRun{state: stateRunning, done: make(chan struct{})}
	c.runs[key] = run
	c.mu.Unlock()

	// The transition out of Running happens on every exit path, panics
	// included, so no waiter can block forever on done.
	var result *ScorecardResult
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("evaluation %s panicked: %v", key, r)
			}
			c.finish(key, run, result, err)
		}()
		result, err = fn()
	}()

	return run.result, run.err
}

func (c *coordinator) finish(key evalKey, run *evalRun, result *ScorecardResult, err error) {
	c.mu.Lock()
	run.result, run.err = result, err
	if err != nil {
		run.state = stateFailed
	} else {
		run.state = stateCompleted
	}
	close(run.done)
	c.mu.Unlock()
}

// cached returns the in-memory completed result for a key, if any.
func (c *coordinator) cached(key evalKey) (*ScorecardResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if run, ok := c.runs[key]; ok && run.state == stateCompleted {
		return run.result, true
	}
	return nil, false
}
