package authtrail

import (
	"context"
	"fmt"
	"time"
)

// CounterValue returns the authenticated user's counter value. A user
// with no counter document reads as zero.
func (e *Engine) CounterValue(ctx context.Context) (int64, error) {
	userID, err := e.requireActor(ctx)
	if err != nil {
		return 0, err
	}
	counter, err := e.counters.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get counter: %w", err)
	}
	if counter == nil {
		return 0, nil
	}
	return counter.Value, nil
}

// IncrementCounter adds one to the authenticated user's counter,
// creating the document on first use.
func (e *Engine) IncrementCounter(ctx context.Context) (Counter, error) {
	return e.mutateCounter(ctx, func(value int64) int64 { return value + 1 })
}

// DecrementCounter subtracts one from the authenticated user's counter.
// The value never goes below zero.
func (e *Engine) DecrementCounter(ctx context.Context) (Counter, error) {
	return e.mutateCounter(ctx, func(value int64) int64 { return value - 1 })
}

// ResetCounter sets the authenticated user's counter back to zero.
func (e *Engine) ResetCounter(ctx context.Context) (Counter, error) {
	return e.mutateCounter(ctx, func(int64) int64 { return 0 })
}

func (e *Engine) mutateCounter(ctx context.Context, apply func(int64) int64) (Counter, error) {
	userID, err := e.requireActor(ctx)
	if err != nil {
		return Counter{}, err
	}
	existing, err := e.counters.Get(ctx, userID)
	if err != nil {
		return Counter{}, fmt.Errorf("get counter: %w", err)
	}
	now := time.Now().UnixMilli()
	counter := Counter{UserID: userID, CreatedAt: now}
	if existing != nil {
		counter = *existing
	}
	next := apply(counter.Value)
	if next < 0 {
		next = 0
	}
	counter.Value = next
	counter.UpdatedAt = now
	if err := e.counters.Put(ctx, counter); err != nil {
		return Counter{}, fmt.Errorf("put counter: %w", err)
	}
	e.metricInc(MetricCounterMutations)
	return counter, nil
}

func (e *Engine) requireActor(ctx context.Context) (string, error) {
	if e.counters == nil {
		return "", ErrEngineNotReady
	}
	actor, ok := ActorIDFromContext(ctx)
	if !ok || actor == "" {
		return "", ErrNotAuthenticated
	}
	return actor, nil
}
