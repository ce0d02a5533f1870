// Package session resolves a bearer token into the caller's identity using the
// identity platform, optionally through a cache.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/justsurfingit/job-board/internal/access"
	"github.com/justsurfingit/job-board/internal/cache"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"go.uber.org/zap"
)

// Session is what the identity platform knows about a token.
type Session struct {
	AuthID   string        `json:"roqUserId"`
	TenantID string        `json:"tenantId"`
	Roles    []access.Role `json:"roles"`
}

type Resolver interface {
	Resolve(ctx context.Context, token string) (*Session, error)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// PlatformResolver asks the identity platform's session endpoint.
type PlatformResolver struct {
	baseURL    string
	httpClient *http.Client
}

func NewPlatformResolver(baseURL string, timeout time.Duration) *PlatformResolver {
	return &PlatformResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (r *PlatformResolver) Resolve(ctx context.Context, token string) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/v1/session", nil)
	if err != nil {
		return nil, apperrors.Internal("building session request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Unavailable("identity platform unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.Unauthenticated("session is not valid", nil)
	case resp.StatusCode >= 400:
		return nil, apperrors.Unavailable(fmt.Sprintf("identity platform HTTP %d", resp.StatusCode), nil)
	}

	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, apperrors.Unavailable("decoding session", err)
	}
	if s.AuthID == "" || s.TenantID == "" {
		return nil, apperrors.Unauthenticated("session has no user", nil)
	}
	return &s, nil
}

// CachedResolver remembers resolved sessions for a short TTL. Rejected
// tokens are never cached.
type CachedResolver struct {
	next   Resolver
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedResolver(next Resolver, store cache.Store, ttl time.Duration, logger *zap.Logger) *CachedResolver {
	return &CachedResolver{next: next, store: store, ttl: ttl, logger: logger}
}

func (r *CachedResolver) Resolve(ctx context.Context, token string) (*Session, error) {
	key := cacheKey(token)

	if s, ok := r.lookup(ctx, key); ok {
		return s, nil
	}

	s, err := r.next.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, apperrors.Internal("encoding session", err)
	}
	if err := r.store.Put(ctx, key, data, r.ttl); err != nil {
		r.logger.Warn("session cache write failed", zap.Error(err))
	}
	return s, nil
}

// lookup treats unreadable entries as misses; the next write replaces them.
func (r *CachedResolver) lookup(ctx context.Context, key string) (*Session, bool) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			r.logger.Warn("session cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil || s.AuthID == "" {
		r.logger.Warn("discarding unreadable cached session", zap.Error(err))
		return nil, false
	}
	return &s, true
}

// Tokens never reach the cache in clear text.
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}
