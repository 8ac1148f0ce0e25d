package session // package session implements the server-side session store backed by Redis

import (
    "context"
    "encoding/json"
    "errors"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/reschevie/reschevie-api/internal/utils"
)

// CookieName is the name of the HTTP cookie carrying the opaque session token.
const CookieName = "reschevie_session"

// Role is the closed set of authorization levels a session can carry.
type Role string

const (
    RoleUser  Role = "user"
    RoleAdmin Role = "admin"
)

// Identity is the payload stored for an authenticated session.  It mirrors
// what handlers need to render responses and authorize operations without
// another database round trip.
type Identity struct {
    ID    uint64 `json:"id"`
    Fname string `json:"fname"`
    Lname string `json:"lname"`
    Email string `json:"email"`
    Role  Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// ErrNotFound is returned by Get when no session exists for a token, either
// because it never existed, expired, or was destroyed on logout.
var ErrNotFound = errors.New("session not found")

// Store issues and resolves opaque session tokens.  The token itself carries
// no information; the identity lives in Redis under sess:<token> with a TTL,
// so destroying the key is an immediate server-side invalidation.
type Store struct {
    rdb *redis.Client
    ttl time.Duration
}

// NewStore returns a session store with the given time-to-live.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
    return &Store{rdb: rdb, ttl: ttl}
}

// TTL exposes the configured session lifetime for cookie Max-Age values.
func (s *Store) TTL() time.Duration { return s.ttl }

func key(token string) string { return "sess:" + token }

// Create stores the identity under a fresh random token and returns the
// token.  Callers performing a login must Destroy any token the client
// presented beforehand so a pre-auth token can never be promoted (session
// fixation).
func (s *Store) Create(ctx context.Context, ident Identity) (string, error) {
    token, err := utils.RandomHex(32) // 32 bytes -> 64 hex chars
    if err != nil {
        return "", err
    }
    payload, err := json.Marshal(ident)
    if err != nil {
        return "", err
    }
    if err := s.rdb.Set(ctx, key(token), payload, s.ttl).Err(); err != nil {
        return "", err
    }
    return token, nil
}

// Get resolves a token to its identity.  ErrNotFound is returned for
// missing, expired or destroyed sessions.
func (s *Store) Get(ctx context.Context, token string) (Identity, error) {
    var ident Identity
    raw, err := s.rdb.Get(ctx, key(token)).Bytes()
    if err != nil {
        if errors.Is(err, redis.Nil) {
            return ident, ErrNotFound
        }
        return ident, err
    }
    if err := json.Unmarshal(raw, &ident); err != nil {
        return ident, err
    }
    return ident, nil
}

// Destroy invalidates a token immediately.  Destroying a token that does not
// exist is not an error.
func (s *Store) Destroy(ctx context.Context, token string) error {
    return s.rdb.Del(ctx, key(token)).Err()
}
