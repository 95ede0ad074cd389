// Package session keeps small per-visitor state in Redis, keyed by an
// opaque id carried in a cookie.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "atelier:session:"

var ErrInvalidSessionID = errors.New("invalid session id")

// Session is not safe for concurrent use; the middleware serializes
// requests that share one.
type Session struct {
	id       string
	values   map[string]json.RawMessage
	modified bool
}

// New starts an empty session with a fresh id.
func New() *Session {
	return newWithID(uuid.NewString())
}

func newWithID(id string) *Session {
	return &Session{id: id, values: make(map[string]json.RawMessage)}
}

func (s *Session) ID() string {
	return s.id
}

// Modified reports whether the session changed since it was loaded.
func (s *Session) Modified() bool {
	return s.modified
}

// Get decodes the value under key into dest. found is false when the key
// is absent.
func (s *Session) Get(key string, dest interface{}) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, fmt.Errorf("decode session key %q: %w", key, err)
	}
	return true, nil
}

func (s *Session) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session key %q: %w", key, err)
	}
	s.values[key] = raw
	s.modified = true
	return nil
}

func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.modified = true
	}
}

type Store interface {
	// Load returns the stored session, or an empty one bound to id when
	// nothing is stored under it.
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

type redisStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisStore(rdb redis.UniversalClient, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, ttl: ttl}
}

func (r *redisStore) Load(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidSessionID
	}

	data, err := r.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return newWithID(id), nil
	}
	if err != nil {
		return nil, err
	}

	s := newWithID(id)
	if err := json.Unmarshal(data, &s.values); err != nil {
		// unreadable payloads start over
		return newWithID(id), nil
	}
	return s, nil
}

func (r *redisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s.values)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, keyPrefix+s.id, data, r.ttl).Err(); err != nil {
		return err
	}
	s.modified = false
	return nil
}
