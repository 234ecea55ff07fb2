// Package cache adds a Redis read-through layer in front of a house.Store.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rental/house"
)

const (
	keyPrefix           = "house:"
	defaultTombstoneTTL = 10 * time.Minute
)

// tombstone marks a deleted listing. It never decodes as an entry.
var tombstone = []byte("\x00deleted")

// Client is the subset of go-redis commands the cache needs. *redis.Client
// satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Store caches single listing lookups. Any Redis failure is logged and the
// call falls through to the wrapped store.
type Store struct {
	inner house.Store
	rdb   Client
	ttl   time.Duration
	log   *zap.Logger
}

var _ house.Store = (*Store)(nil)

// NewStore wraps inner. Entries live for ttl.
func NewStore(inner house.Store, rdb Client, ttl time.Duration, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{inner: inner, rdb: rdb, ttl: ttl, log: log.Named("house_cache")}
}

func (s *Store) List(ctx context.Context, req house.PageRequest) (house.Page, error) {
	return s.inner.List(ctx, req)
}

func (s *Store) Insert(ctx context.Context, h house.House) (house.House, error) {
	return s.inner.Insert(ctx, h)
}

// GetByID serves from Redis when possible and fills the entry on a miss.
// Not-found results are never cached. A tombstone left by Delete counts as a
// miss that is answered by the inner store and not refilled.
func (s *Store) GetByID(ctx context.Context, id int64) (house.House, error) {
	key := cacheKey(id)

	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil && bytes.Equal(data, tombstone):
		return s.inner.GetByID(ctx, id)
	case err == nil:
		h, decErr := decode(data)
		if decErr == nil {
			return h, nil
		}
		s.log.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(decErr))
		s.evict(ctx, key)
	case !errors.Is(err, redis.Nil):
		s.log.Warn("redis get failed", zap.String("key", key), zap.Error(err))
	}

	h, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return house.House{}, err
	}
	s.fill(ctx, key, h)
	return h, nil
}

// fill stores h only when the key is still empty, so a fill that raced with
// Delete cannot replace its tombstone.
func (s *Store) fill(ctx context.Context, key string, h house.House) {
	data, err := encode(h)
	if err != nil {
		s.log.Warn("encode cache entry", zap.Int64("house_id", h.ID), zap.Error(err))
		return
	}
	stored, err := s.rdb.SetNX(ctx, key, data, s.ttl).Result()
	if err != nil {
		s.log.Warn("redis set failed", zap.String("key", key), zap.Error(err))
		return
	}
	if !stored {
		s.log.Debug("cache fill skipped, key already set", zap.String("key", key))
	}
}

// Delete replaces the entry with a tombstone before the inner delete. The
// tombstone outlives any lookup that read the row before it was removed.
func (s *Store) Delete(ctx context.Context, id int64) error {
	key := cacheKey(id)
	if err := s.rdb.Set(ctx, key, tombstone, s.tombstoneTTL()).Err(); err != nil {
		s.log.Warn("redis tombstone failed", zap.String("key", key), zap.Error(err))
	}
	return s.inner.Delete(ctx, id)
}

func (s *Store) tombstoneTTL() time.Duration {
	if s.ttl > 0 {
		return s.ttl
	}
	return defaultTombstoneTTL
}

func (s *Store) evict(ctx context.Context, key string) {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn("redis del failed", zap.String("key", key), zap.Error(err))
	}
}

func cacheKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

// entry is the cached form of a listing. Times keep their zone offset.
type entry struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name,omitempty"`
	Location        string          `json:"location"`
	Price           decimal.Decimal `json:"price"`
	Status          house.Status    `json:"status"`
	EstablishedTime *time.Time      `json:"establishedTime,omitempty"`
	CreatedTime     time.Time       `json:"createdTime"`
	UpdatedTime     time.Time       `json:"updatedTime"`
}

func encode(h house.House) ([]byte, error) {
	e := entry{
		ID:          h.ID,
		Name:        h.Name,
		Location:    h.Location,
		Price:       h.Price,
		Status:      h.Status,
		CreatedTime: h.CreatedTime,
		UpdatedTime: h.UpdatedTime,
	}
	if !h.EstablishedTime.IsZero() {
		t := h.EstablishedTime
		e.EstablishedTime = &t
	}
	return json.Marshal(e)
}

func decode(data []byte) (house.House, error) {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return house.House{}, err
	}
	h := house.House{
		ID:          e.ID,
		Name:        e.Name,
		Location:    e.Location,
		Price:       e.Price,
		Status:      e.Status,
		CreatedTime: e.CreatedTime,
		UpdatedTime: e.UpdatedTime,
	}
	if e.EstablishedTime != nil {
		h.EstablishedTime = *e.EstablishedTime
	}
	return h, nil
}
