package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"rental/house"
)

// Service is the part of house.Service the actors drive.
type Service interface {
	ListHouses(ctx context.Context, req house.PageRequest) (house.Page, error)
	GetHouse(ctx context.Context, id int64) (house.House, error)
	CreateHouse(ctx context.Context, req house.CreateRequest) (house.House, error)
}

// Ledger records what callers were told about each create.
type Ledger struct {
	mu        sync.Mutex
	created   map[int64]struct{}
	rejected  map[int64]struct{}
	leftovers map[int64]struct{}
	failures  int
}

func NewLedger() *Ledger {
	return &Ledger{
		created:   make(map[int64]struct{}),
		rejected:  make(map[int64]struct{}),
		leftovers: make(map[int64]struct{}),
	}
}

func (l *Ledger) recordCreated(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.created[id] = struct{}{}
}

func (l *Ledger) recordSyncError(se *house.SyncError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejected[se.HouseID] = struct{}{}
	if se.RollbackErr != nil {
		l.leftovers[se.HouseID] = struct{}{}
	}
}

func (l *Ledger) recordFailure() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures++
}

// Created returns a copy of the ids acknowledged to callers.
func (l *Ledger) Created() map[int64]struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[int64]struct{}, len(l.created))
	for id := range l.created {
		out[id] = struct{}{}
	}
	return out
}

// Leftovers returns ids whose compensating delete reported a failure.
func (l *Ledger) Leftovers() map[int64]struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[int64]struct{}, len(l.leftovers))
	for id := range l.leftovers {
		out[id] = struct{}{}
	}
	return out
}

// Counts reports acknowledged creates, sync failures and other failures.
func (l *Ledger) Counts() (created, rejected, failures int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.created), len(l.rejected), l.failures
}

// Creator keeps submitting listings until stopped. Storage failures are
// tolerated when tolerateStorage is set, which chaos runs need.
func Creator(ctx context.Context, svc Service, ledger *Ledger, seed int64, tolerateStorage bool, stop <-chan struct{}) error {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		h, err := svc.CreateHouse(ctx, randomRequest(rng, i))
		var syncErr *house.SyncError
		switch {
		case err == nil:
			ledger.recordCreated(h.ID)
		case errors.As(err, &syncErr):
			ledger.recordSyncError(syncErr)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return ctx.Err()
		case tolerateStorage && errors.Is(err, house.ErrStorage):
			ledger.recordFailure()
		default:
			return fmt.Errorf("creator create: %w", err)
		}
		time.Sleep(time.Duration(2+rng.Intn(8)) * time.Millisecond)
	}
}

// Reader pages through listings and looks up ids the ledger acknowledged.
// Every acknowledged id must stay readable.
func Reader(ctx context.Context, svc Service, ledger *Ledger, seed int64, tolerateStorage bool, stop <-chan struct{}) error {
	rng := rand.New(rand.NewSource(seed))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		_, err := svc.ListHouses(ctx, house.PageRequest{Page: rng.Intn(3), Size: 10 + rng.Intn(20)})
		if err != nil && !ignorable(ctx, err, tolerateStorage) {
			return fmt.Errorf("reader list: %w", err)
		}

		for id := range ledger.Created() {
			_, err := svc.GetHouse(ctx, id)
			if errors.Is(err, house.ErrNotFound) {
				return fmt.Errorf("reader: acknowledged house %d disappeared", id)
			}
			if err != nil && !ignorable(ctx, err, tolerateStorage) {
				return fmt.Errorf("reader get %d: %w", id, err)
			}
			break
		}
		time.Sleep(time.Duration(5+rng.Intn(15)) * time.Millisecond)
	}
}

func ignorable(ctx context.Context, err error, tolerateStorage bool) bool {
	if ctx.Err() != nil {
		return true
	}
	return tolerateStorage && errors.Is(err, house.ErrStorage)
}

var locations = []string{"chengdu", "beijing", "shanghai", "shenzhen", "hangzhou"}

func randomRequest(rng *rand.Rand, i int) house.CreateRequest {
	name := fmt.Sprintf("stress-%d-%d", i, rng.Intn(1_000_000))
	location := locations[rng.Intn(len(locations))]
	price := decimal.New(int64(1000+rng.Intn(9000)), 0)
	established := time.Date(1990+rng.Intn(30), time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
	req := house.CreateRequest{
		Name:            &name,
		Location:        &location,
		Price:           &price,
		EstablishedTime: &established,
	}
	if rng.Intn(3) == 0 {
		status := house.StatusActive
		req.Status = &status
	}
	return req
}
