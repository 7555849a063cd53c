package storage

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"ideahub/microservices/projects-service/logging"
)

// BreakerStore fails fast while the wrapped store keeps erroring.
type BreakerStore struct {
	next BlobStore
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerStore(next BlobStore, name string, timeout time.Duration) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
	return &BreakerStore{next: next, cb: cb}
}

func (b *BreakerStore) Upload(ctx context.Context, key string, data []byte) (string, error) {
	url, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Upload(ctx, key, data)
	})
	if err != nil {
		return "", err
	}
	return url.(string), nil
}

func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}
