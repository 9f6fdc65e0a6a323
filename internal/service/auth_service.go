package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"cims/internal/auth"
	"cims/internal/db"
	apperrors "cims/internal/errors"
	"cims/internal/model"
	"cims/internal/repository"
)

const bcryptCost = 10

// ErrInvalidRefreshToken is returned when a refresh token is invalid, expired or revoked.
var ErrInvalidRefreshToken = apperrors.New(apperrors.KindUnauthorized, "invalid or expired refresh token")

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	MemberID     uint   `json:"member_id"`
	Role         string `json:"role"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Login(ctx context.Context, memberID uint, password string) (*TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	members    repository.MemberRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(members repository.MemberRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		members:    members,
		jwtService: jwtService,
		tokenStore: tokenStore,
	}
}

// Login verifies the member's password and issues access and refresh tokens.
func (s *authService) Login(ctx context.Context, memberID uint, password string) (*TokenPair, error) {
	credential, err := s.credential(ctx, memberID)
	if repository.IsNotFound(err) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password)); err != nil {
		slog.InfoContext(ctx, "login rejected", "member_id", memberID)
		return nil, apperrors.ErrInvalidCredentials
	}

	accessToken, err := s.jwtService.GenerateAccessToken(memberID, credential.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(memberID, credential.Role)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, memberID, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		MemberID:     memberID,
		Role:         credential.Role,
	}, nil
}

// RefreshToken issues a new access token. The role is re-read so that role
// changes take effect without a new login.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	storedMemberID, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil || storedMemberID != claims.MemberID {
		return "", ErrInvalidRefreshToken
	}

	credential, err := s.credential(ctx, claims.MemberID)
	if repository.IsNotFound(err) {
		return "", ErrInvalidRefreshToken
	}
	if err != nil {
		return "", err
	}

	accessToken, err := s.jwtService.GenerateAccessToken(claims.MemberID, credential.Role)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout revokes a refresh token.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	return s.tokenStore.DeleteRefreshToken(ctx, claims.ID)
}

// credential returns the raw not-found error so callers can choose its meaning;
// every other fault is classified.
func (s *authService) credential(ctx context.Context, memberID uint) (*model.Credential, error) {
	var credential *model.Credential
	err := s.members.WithConnection(ctx, func(ctx context.Context, conn repository.MemberRepository) error {
		var err error
		credential, err = conn.FindCredential(ctx, memberID)
		return err
	})
	if err != nil && !repository.IsNotFound(err) {
		slog.ErrorContext(ctx, "load credential", "member_id", memberID, "error", err)
		return nil, db.Classify(err)
	}
	return credential, err
}
