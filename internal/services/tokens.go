package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/vidtube/internal/apperrors"
	"github.com/thereayou/vidtube/internal/database"
	"github.com/thereayou/vidtube/internal/models"
	"github.com/thereayou/vidtube/pkg/auth"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrTokenReused  = errors.New("refresh token is expired or used")
)

const msgTokenFailure = "something went wrong while generating tokens"

// TokenService issues token pairs and rotates refresh tokens. Only the most
// recently issued refresh token of a user is accepted.
type TokenService struct {
	users UserRepository
	jwt   *auth.JWTManager
}

func NewTokenService(users UserRepository, jwt *auth.JWTManager) *TokenService {
	return &TokenService{users: users, jwt: jwt}
}

func (s *TokenService) IssueAccessToken(user *models.User) (string, error) {
	return s.jwt.GenerateAccess(auth.Subject{
		ID:       user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		Fullname: user.Fullname,
	})
}

func (s *TokenService) IssueRefreshToken(user *models.User) (string, error) {
	return s.jwt.GenerateRefresh(user.ID.String())
}

func (s *TokenService) issue(user *models.User) (*TokenPair, error) {
	access, err := s.IssueAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal(msgTokenFailure, err)
	}
	refresh, err := s.IssueRefreshToken(user)
	if err != nil {
		return nil, apperrors.Internal(msgTokenFailure, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, UserID: user.ID}, nil
}

// IssueTokenPair mints a new pair and makes its refresh token the user's only live one.
// Nothing is returned unless the refresh token was stored.
func (s *TokenService) IssueTokenPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, apperrors.Internal(msgTokenFailure, err)
	}
	user.RefreshToken = pair.RefreshToken
	return pair, nil
}

func (s *TokenService) VerifyRefreshToken(token string) (*auth.RefreshClaims, error) {
	claims, err := s.jwt.VerifyRefresh(token)
	if err != nil {
		return nil, apperrors.Auth("invalid refresh token", err)
	}
	return claims, nil
}

// RotateRefreshToken exchanges the live refresh token for a new pair.
// The swap is conditional on the stored value still being presented, so of
// several concurrent rotations of one token at most one succeeds.
func (s *TokenService) RotateRefreshToken(ctx context.Context, presented string) (*TokenPair, error) {
	claims, err := s.VerifyRefreshToken(presented)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, apperrors.Auth("invalid refresh token", auth.ErrInvalidToken)
	}

	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperrors.Auth("invalid refresh token", ErrUserNotFound)
	}
	if err != nil {
		return nil, apperrors.Internal(msgTokenFailure, err)
	}

	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(presented)) != 1 {
		return nil, apperrors.Auth(ErrTokenReused.Error(), ErrTokenReused)
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	swapped, err := s.users.SwapRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if err != nil {
		return nil, apperrors.Internal(msgTokenFailure, err)
	}
	if !swapped {
		return nil, apperrors.Auth(ErrTokenReused.Error(), ErrTokenReused)
	}
	return pair, nil
}

// ClearRefreshToken drops the user's live refresh token. A missing user is not an error.
func (s *TokenService) ClearRefreshToken(ctx context.Context, userID uuid.UUID) error {
	err := s.users.SetRefreshToken(ctx, userID, "")
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	return nil
}

// AccessExpiry reports when a still-valid access token expires.
func (s *TokenService) AccessExpiry(token string) (time.Time, error) {
	return s.jwt.AccessExpiry(token)
}
