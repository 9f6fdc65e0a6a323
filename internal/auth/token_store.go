package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cims/internal/cache"
)

const refreshTokenKeyPrefix = "cims:refresh_token:"

// ErrTokenNotFound is returned when a refresh token is unknown, expired or revoked.
var ErrTokenNotFound = errors.New("refresh token not found")

// TokenStoreInterface defines the interface for refresh token storage.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, memberID uint, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (memberID uint, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
}

// TokenStore keeps refresh token IDs in Redis.
type TokenStore struct {
	cache *cache.Client
}

var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

type refreshTokenRecord struct {
	MemberID uint      `json:"member_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// StoreRefreshToken stores a refresh token ID with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, memberID uint, ttl time.Duration) error {
	payload, err := json.Marshal(refreshTokenRecord{MemberID: memberID, IssuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// GetRefreshToken returns the member a stored refresh token belongs to.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, error) {
	data, err := s.cache.Get(ctx, refreshTokenKeyPrefix+tokenID)
	if err != nil || data == nil {
		return 0, ErrTokenNotFound
	}

	var record refreshTokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return 0, fmt.Errorf("unmarshal token data: %w", err)
	}
	return record.MemberID, nil
}

// DeleteRefreshToken revokes a refresh token.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshTokenKeyPrefix+tokenID)
}
