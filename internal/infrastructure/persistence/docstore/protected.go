package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/pkg/circuitbreaker"
	"github.com/skillera/skillera-hub/pkg/logger"
	"github.com/skillera/skillera-hub/pkg/retry"
)

// ProtectedStore guards a remote backend with a circuit breaker and retries
// reads on transient failures. Writes are not retried here.
type ProtectedStore struct {
	next    Store
	breaker *circuitbreaker.CircuitBreaker
	reads   *retry.Retrier
}

// NewProtectedStore wraps next.
func NewProtectedStore(next Store, log *logger.Logger) *ProtectedStore {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("docstore").With(logger.Backend(next.Name()))

	breaker := circuitbreaker.StoreBreaker(next.Name(), isBackendFailure, func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})

	reads := retry.StorageRetrier().With(
		retry.WithRetryIf(func(err error) bool {
			return isBackendFailure(err) && !circuitbreaker.IsRejected(err)
		}),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Debug("retrying read", logger.Attempt(attempt), logger.Duration("delay", delay), logger.Err(err))
		}),
	)

	return &ProtectedStore{next: next, breaker: breaker, reads: reads}
}

func isBackendFailure(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, shared.ErrNotFound) &&
		!errors.Is(err, shared.ErrConcurrentModification) &&
		!errors.Is(err, context.Canceled)
}

func (p *ProtectedStore) Name() string { return p.next.Name() }

func (p *ProtectedStore) Get(ctx context.Context, key string) (Document, error) {
	doc, err := retry.DoWithData(ctx, p.reads, func(ctx context.Context) (Document, error) {
		return circuitbreaker.ExecuteWithData(ctx, p.breaker, func(ctx context.Context) (Document, error) {
			return p.next.Get(ctx, key)
		})
	})
	return doc, p.mapRejected("Get", err)
}

func (p *ProtectedStore) Put(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	v, err := circuitbreaker.ExecuteWithData(ctx, p.breaker, func(ctx context.Context) (int64, error) {
		return p.next.Put(ctx, key, data, expectedVersion)
	})
	return v, p.mapRejected("Put", err)
}

func (p *ProtectedStore) Delete(ctx context.Context, key string) error {
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.next.Delete(ctx, key)
	})
	return p.mapRejected("Delete", err)
}

func (p *ProtectedStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := retry.DoWithData(ctx, p.reads, func(ctx context.Context) ([]string, error) {
		return circuitbreaker.ExecuteWithData(ctx, p.breaker, func(ctx context.Context) ([]string, error) {
			return p.next.List(ctx, prefix)
		})
	})
	return keys, p.mapRejected("List", err)
}

// Ping forwards to the backend when it supports health checks.
func (p *ProtectedStore) Ping(ctx context.Context) error {
	if pinger, ok := p.next.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// State exposes the breaker state for health reporting.
func (p *ProtectedStore) State() circuitbreaker.State {
	return p.breaker.State()
}

// Counts exposes the breaker counters for health reporting.
func (p *ProtectedStore) Counts() circuitbreaker.Counts {
	return p.breaker.Counts()
}

func (p *ProtectedStore) mapRejected(op string, err error) error {
	if circuitbreaker.IsRejected(err) {
		return shared.WrapError("store", op, shared.ErrServiceUnavailable, "document store circuit is open", err)
	}
	return err
}
