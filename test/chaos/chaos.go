package chaos

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"rental/house"
)

var errRemoteDown = errors.New("chaos: system of record unavailable")

// FlakyPublisher stands in for the system of record. It accepts, rejects,
// fails or stalls at random.
type FlakyPublisher struct {
	mu       sync.Mutex
	rng      *rand.Rand
	accepted map[int64]struct{}
}

func NewFlakyPublisher(seed int64) *FlakyPublisher {
	return &FlakyPublisher{
		rng:      rand.New(rand.NewSource(seed)),
		accepted: make(map[int64]struct{}),
	}
}

func (p *FlakyPublisher) Publish(ctx context.Context, h house.House) (bool, error) {
	p.mu.Lock()
	roll := p.rng.Intn(10)
	p.mu.Unlock()

	switch {
	case roll < 6:
		p.mu.Lock()
		p.accepted[h.ID] = struct{}{}
		p.mu.Unlock()
		return true, nil
	case roll < 8:
		return false, nil
	case roll < 9:
		return false, errRemoteDown
	default:
		<-ctx.Done()
		return false, ctx.Err()
	}
}

// Accepted returns the ids the publisher took.
func (p *FlakyPublisher) Accepted() map[int64]struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[int64]struct{}, len(p.accepted))
	for id := range p.accepted {
		out[id] = struct{}{}
	}
	return out
}

// TerminateRandomBackend kills a random backend of the test database now and
// then so in-flight inserts and compensating deletes hit dropped connections.
func TerminateRandomBackend(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if rand.Intn(5) == 0 {
				_, _ = pool.Exec(ctx, `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = current_database() AND pid <> pg_backend_pid() ORDER BY random() LIMIT 1`)
			}
		}
	}
}
