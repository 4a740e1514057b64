package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodstore/pkg/config"
	"github.com/angelmondragon/foodstore/pkg/enums"
	redisclient "github.com/angelmondragon/foodstore/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when the session id has no live record.
var ErrSessionNotFound = errors.New("session not found")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
}

// Session is the server-side record behind a browser sign-in.
// BackendToken is the bearer the upstream API issued at login and never leaves the BFF.
type Session struct {
	ID           string     `json:"id"`
	UserID       int64      `json:"user_id"`
	Username     string     `json:"username"`
	Role         enums.Role `json:"role"`
	BackendToken string     `json:"backend_token"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Manager stores sessions in Redis keyed by session id.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
	now   func() time.Time
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl < accessTTL {
		return nil, fmt.Errorf("session ttl (%s) must not be shorter than access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: client, keyer: client, ttl: ttl, now: time.Now}, nil
}

// Begin persists a new session and returns it with a fresh id.
func (m *Manager) Begin(ctx context.Context, userID int64, username string, role enums.Role, backendToken string) (*Session, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("user id is required")
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if strings.TrimSpace(backendToken) == "" {
		return nil, fmt.Errorf("backend token is required")
	}
	sess := &Session{
		ID:           NewID(),
		UserID:       userID,
		Username:     username,
		Role:         role,
		BackendToken: backendToken,
		CreatedAt:    m.now().UTC(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	if err := m.store.Set(ctx, m.keyer.SessionKey(sess.ID), string(payload), m.ttl); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load fetches the session for the id or ErrSessionNotFound.
func (m *Manager) Load(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionNotFound
	}
	raw, err := m.store.Get(ctx, m.keyer.SessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &sess, nil
}

// HasSession reports whether the id still maps to a live session.
func (m *Manager) HasSession(ctx context.Context, sessionID string) (bool, error) {
	if _, err := m.Load(ctx, sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// End deletes the session record.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return m.store.Del(ctx, m.keyer.SessionKey(sessionID))
}

// TTL reports how long sessions live.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// NewID produces the identifier used as the JWT jti and Redis key.
func NewID() string {
	return uuid.NewString()
}
