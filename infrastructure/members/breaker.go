package members

import (
	"context"
	"errors"
	"time"

	"famorg/application/ports"
	pkgerrors "famorg/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig holds configuration for the member store circuit breaker
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the circuit breaker
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "member-attributes",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerStore guards a MemberAttributeStore with a circuit breaker.
// Only storage failures count; invalid ids and missing data do not trip it.
type BreakerStore struct {
	next ports.MemberAttributeStore
	cb   *gobreaker.CircuitBreaker
}

var _ ports.MemberAttributeStore = (*BreakerStore)(nil)

// NewBreakerStore wraps next with a circuit breaker
func NewBreakerStore(next ports.MemberAttributeStore, cfg BreakerConfig, logger *zap.Logger) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !pkgerrors.IsIO(err)
		},
	})
	return &BreakerStore{next: next, cb: cb}
}

// State exposes the breaker state for health reporting
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerStore) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, pkgerrors.NewUnavailableError("member attributes").WithCause(err)
	}
	return result, err
}

// Get implements ports.MemberAttributeStore
func (b *BreakerStore) Get(ctx context.Context, memberID, attrID string) (int, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.Get(ctx, memberID, attrID)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Set implements ports.MemberAttributeStore
func (b *BreakerStore) Set(ctx context.Context, memberID, attrID string, value any) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.next.Set(ctx, memberID, attrID, value)
	})
	return err
}

// Increment implements ports.MemberAttributeStore
func (b *BreakerStore) Increment(ctx context.Context, memberID, attrID string, delta int) (int, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.Increment(ctx, memberID, attrID, delta)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// All implements ports.MemberAttributeStore
func (b *BreakerStore) All(ctx context.Context) (map[string]map[string]any, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.All(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]map[string]any), nil
}
