package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thereayou/vidtube/internal/apperrors"
	"github.com/thereayou/vidtube/internal/media"
)

// AuthService ведёт сессионные сценарии: регистрация, вход, выход,
// обновление токенов и смена пароля.
type AuthService struct {
	credentials *CredentialStore
	tokens      *TokenService
	media       media.Store
	blacklist   TokenBlacklist
	notifier    SessionNotifier
	logger      *zap.Logger
}

type AuthOption func(*AuthService)

// WithBlacklist revokes access tokens on logout.
func WithBlacklist(b TokenBlacklist) AuthOption {
	return func(s *AuthService) { s.blacklist = b }
}

func WithNotifier(n SessionNotifier) AuthOption {
	return func(s *AuthService) { s.notifier = n }
}

func NewAuthService(credentials *CredentialStore, tokens *TokenService, store media.Store, logger *zap.Logger, opts ...AuthOption) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuthService{
		credentials: credentials,
		tokens:      tokens,
		media:       store,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register создаёт пользователя. Аватар обязателен, обложка нет:
// неудачная загрузка обложки даёт пустой URL.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, avatarPath, coverPath string) (*PublicUser, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullname", in.Fullname},
		{"email", in.Email},
		{"username", in.Username},
		{"password", in.Password},
	} {
		if blank(f.value) {
			missing = append(missing, f.name+" is required")
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Validation("all fields are required", missing...)
	}

	if _, err := s.credentials.FindByUsernameOrEmail(ctx, in.Username, in.Email); err == nil {
		return nil, apperrors.Conflict(msgUserExists)
	} else if apperrors.KindOf(err) != apperrors.KindNotFound {
		return nil, err
	}

	if blank(avatarPath) {
		return nil, apperrors.Validation("avatar file is required")
	}

	avatar, err := s.media.Upload(ctx, avatarPath)
	if err != nil || avatar == nil || avatar.URL == "" {
		return nil, apperrors.Media("avatar file is required", err)
	}

	var coverURL string
	if !blank(coverPath) {
		cover, err := s.media.Upload(ctx, coverPath)
		if err != nil {
			s.logger.Warn("cover image upload failed", zap.String("username", in.Username), zap.Error(err))
		} else if cover != nil {
			coverURL = cover.URL
		}
	}

	user, err := s.credentials.Create(ctx, CreateUserInput{
		Username:      in.Username,
		Email:         in.Email,
		Fullname:      in.Fullname,
		Password:      in.Password,
		AvatarURL:     avatar.URL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("username", user.Username))
	return NewPublicUser(user), nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if blank(in.Username) && blank(in.Email) {
		return nil, apperrors.Validation("username or email is required")
	}

	user, err := s.credentials.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}

	if !s.credentials.VerifyPassword(user, in.Password) {
		return nil, apperrors.Auth("invalid user credentials", nil)
	}

	pair, err := s.tokens.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:         NewPublicUser(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout гасит refresh token пользователя и отзывает предъявленный access token.
// Повторный выход не ошибка.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, accessToken string) error {
	if err := s.tokens.ClearRefreshToken(ctx, userID); err != nil {
		return apperrors.Internal("something went wrong while logging out", err)
	}

	if s.blacklist != nil && accessToken != "" {
		if exp, err := s.tokens.AccessExpiry(accessToken); err == nil {
			if err := s.blacklist.Revoke(ctx, accessToken, exp); err != nil {
				s.logger.Warn("access token revoke failed", zap.String("user_id", userID.String()), zap.Error(err))
			}
		}
	}

	s.notify(userID, EventLoggedOut)
	return nil
}

func (s *AuthService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return nil, apperrors.Auth("unauthorized request", nil)
	}

	pair, err := s.tokens.RotateRefreshToken(ctx, presented)
	if err != nil {
		if errors.Is(err, ErrTokenReused) {
			s.logger.Warn("refresh token replay rejected")
		}
		return nil, err
	}

	s.notify(pair.UserID, EventTokenRefreshed)
	return pair, nil
}

// ChangePassword не трогает refresh token: остальные сессии продолжают жить.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPlain, newPlain string) error {
	user, err := s.credentials.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.credentials.VerifyPassword(user, oldPlain) {
		return apperrors.Auth("invalid old password", nil)
	}

	if err := s.credentials.UpdatePassword(ctx, user, newPlain); err != nil {
		return err
	}

	s.notify(userID, EventPasswordChanged)
	return nil
}

func (s *AuthService) notify(userID uuid.UUID, event string) {
	if s.notifier != nil {
		s.notifier.NotifyUser(userID, event)
	}
}
