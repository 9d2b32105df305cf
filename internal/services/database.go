package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/vidtube/internal/database"
	"github.com/thereayou/vidtube/internal/models"
)

// UserRepository is the persistence the credential and token components need.
// *database.Database satisfies it.
type UserRepository interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	SwapRefreshToken(ctx context.Context, id uuid.UUID, expected, next string) (bool, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, fullname, email string) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error
	UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) error
}

// ChannelRepository serves the read-only aggregation queries.
type ChannelRepository interface {
	GetChannelStats(ctx context.Context, channelID uuid.UUID, viewerID *uuid.UUID) (*database.ChannelStats, error)
	GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchHistoryEntry, error)
}

type TokenBlacklist interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
}

type SessionNotifier interface {
	NotifyUser(userID uuid.UUID, event string)
}

const (
	EventLoggedOut       = "logged_out"
	EventTokenRefreshed  = "token_refreshed"
	EventPasswordChanged = "password_changed"
)
