// Package session provides the opaque session-token store backing both
// the HTTP auth middleware and the WebSocket handshake. Tokens are
// random identifiers mapped to a user id in Redis with a sliding TTL;
// issuing them is the job of the account subsystem, validating them is
// all this core needs.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
)

// ErrInvalidToken indicates the token is unknown or expired.
var ErrInvalidToken = errors.New("invalid or expired session token")

const tokenLength = 32

// TokenStore issues and validates opaque session tokens.
type TokenStore struct {
	client   *redis.Client
	prefix   string
	ttl      time.Duration
	newToken func() string
}

// NewTokenStore creates a token store over the given Redis client.
func NewTokenStore(client *redis.Client, prefix string, ttl time.Duration) (*TokenStore, error) {
	gen, err := nanoid.Standard(tokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to build token generator: %w", err)
	}
	return &TokenStore{
		client:   client,
		prefix:   prefix,
		ttl:      ttl,
		newToken: gen,
	}, nil
}

// Issue creates a new session token for a user.
func (s *TokenStore) Issue(ctx context.Context, userID string) (string, error) {
	token := s.newToken()
	if err := s.client.Set(ctx, s.prefix+token, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Validate resolves a token to its user id and slides the TTL forward.
func (s *TokenStore) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	userID, err := s.client.GetEx(ctx, s.prefix+token, s.ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to validate session: %w", err)
	}
	return userID, nil
}

// Revoke removes a session token. Revoking an unknown token is not an
// error.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.prefix+token).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
