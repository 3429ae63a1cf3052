package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	sessionTTL       = 24 * time.Hour
)

var ErrInvalidUserID = errors.New("session: user id must be positive")

// Session is the server side of the session cookie.
type Session struct {
	ID        string `redis:"-"`
	UserID    int64  `redis:"user_id"`
	CreatedAt int64  `redis:"created_at"`
	ExpiresAt int64  `redis:"expires_at"`
}

// Expires returns the expiry as time.Time.
func (s Session) Expires() time.Time { return time.Unix(s.ExpiresAt, 0) }

// Store manages sessions in Redis. Each session is a hash expiring with its TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewStore returns a new session store.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = sessionTTL
	}
	return &Store{rdb: rdb, ttl: ttl, now: time.Now}
}

// TTL is the lifetime of new sessions; cookies use the same value.
func (s *Store) TTL() time.Duration { return s.ttl }

// Create stores a new session for userID and returns its ID.
func (s *Store) Create(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", ErrInvalidUserID
	}
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	now := s.now()
	key := sessionKeyPrefix + id
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, map[string]any{
			"user_id":    userID,
			"created_at": now.Unix(),
			"expires_at": now.Add(s.ttl).Unix(),
		})
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	return id, nil
}

// Get loads a session. ok is false when the session does not exist or has expired.
func (s *Store) Get(ctx context.Context, id string) (Session, bool, error) {
	if id == "" {
		return Session{}, false, nil
	}
	cmd := s.rdb.HGetAll(ctx, sessionKeyPrefix+id)
	if err := cmd.Err(); err != nil {
		return Session{}, false, fmt.Errorf("session get: %w", err)
	}
	if len(cmd.Val()) == 0 {
		return Session{}, false, nil
	}
	var sess Session
	if err := cmd.Scan(&sess); err != nil {
		return Session{}, false, fmt.Errorf("session decode: %w", err)
	}
	sess.ID = id
	return sess, true, nil
}

// Delete removes a session by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}
