package house

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSyncTimeout     = 5 * time.Second
	defaultRollbackTimeout = 5 * time.Second
)

// Store abstracts durable listing storage for the service.
type Store interface {
	List(ctx context.Context, req PageRequest) (Page, error)
	GetByID(ctx context.Context, id int64) (House, error)
	Insert(ctx context.Context, h House) (House, error)
	Delete(ctx context.Context, id int64) error
}

// Publisher pushes a stored listing to the external system of record.
// Returning false or an error means the remote side did not accept it.
type Publisher interface {
	Publish(ctx context.Context, h House) (bool, error)
}

// Recorder observes create outcomes.
type Recorder interface {
	Created()
	SyncFailed()
	Compensated(err error)
}

type nopRecorder struct{}

func (nopRecorder) Created()          {}
func (nopRecorder) SyncFailed()       {}
func (nopRecorder) Compensated(error) {}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	Mapper          Mapper
	Logger          *zap.Logger
	Recorder        Recorder
	SyncTimeout     time.Duration
	RollbackTimeout time.Duration
	Now             func() time.Time
}

// Service exposes business-level listing operations.
type Service struct {
	store           Store
	publisher       Publisher
	mapper          Mapper
	log             *zap.Logger
	recorder        Recorder
	syncTimeout     time.Duration
	rollbackTimeout time.Duration
	now             func() time.Time
}

// NewService builds a Service. A nil publisher accepts every listing, which
// is the variant without remote synchronization.
func NewService(store Store, publisher Publisher, opts Options) *Service {
	s := &Service{
		store:           store,
		publisher:       publisher,
		mapper:          opts.Mapper,
		log:             opts.Logger,
		recorder:        opts.Recorder,
		syncTimeout:     opts.SyncTimeout,
		rollbackTimeout: opts.RollbackTimeout,
		now:             opts.Now,
	}
	if s.publisher == nil {
		s.publisher = acceptAll{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.syncTimeout <= 0 {
		s.syncTimeout = defaultSyncTimeout
	}
	if s.rollbackTimeout <= 0 {
		s.rollbackTimeout = defaultRollbackTimeout
	}
	if s.now == nil {
		s.now = s.mapper.Now
	}
	return s
}

type acceptAll struct{}

func (acceptAll) Publish(context.Context, House) (bool, error) { return true, nil }

// ListHouses returns one page of listings.
func (s *Service) ListHouses(ctx context.Context, req PageRequest) (Page, error) {
	page, err := s.store.List(ctx, req.Normalize())
	if err != nil {
		if errors.Is(err, ErrInvalidSort) {
			return Page{}, err
		}
		return Page{}, fmt.Errorf("%w: list houses: %w", ErrStorage, err)
	}
	return page, nil
}

// GetHouse returns the listing with the given id or ErrNotFound.
func (s *Service) GetHouse(ctx context.Context, id int64) (House, error) {
	h, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return House{}, ErrNotFound
		}
		return House{}, fmt.Errorf("%w: get house %d: %w", ErrStorage, id, err)
	}
	return h, nil
}

// CreateHouse stores a new listing and publishes it to the system of record.
// When the publish does not succeed the stored row is deleted again before
// the error is returned, so callers never see an inserted but unsynced house.
func (s *Service) CreateHouse(ctx context.Context, req CreateRequest) (House, error) {
	if err := req.Validate(); err != nil {
		return House{}, err
	}

	saved, err := s.store.Insert(ctx, s.mapper.FromRequest(req, s.now()))
	if err != nil {
		return House{}, fmt.Errorf("%w: insert house: %w", ErrStorage, err)
	}

	ok, pubErr := s.publish(ctx, saved)
	if ok && pubErr == nil {
		s.recorder.Created()
		return saved, nil
	}

	s.recorder.SyncFailed()
	log := s.log.With(zap.Int64("house_id", saved.ID))
	if pubErr != nil {
		log.Warn("publish house failed, rolling back", zap.Error(pubErr))
	} else {
		log.Warn("publish house rejected, rolling back")
	}

	syncErr := &SyncError{HouseID: saved.ID, Err: pubErr}
	if err := s.rollback(ctx, saved.ID); err != nil {
		syncErr.RollbackErr = err
		log.Error("rollback of unsynced house failed, row left behind", zap.Error(err))
	}
	s.recorder.Compensated(syncErr.RollbackErr)

	return House{}, syncErr
}

func (s *Service) publish(ctx context.Context, h House) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	return s.publisher.Publish(ctx, h)
}

// rollback runs on a context detached from the caller so a cancelled request
// still removes the row.
func (s *Service) rollback(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.rollbackTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: delete house %d: %w", ErrStorage, id, err)
	}
	return nil
}
