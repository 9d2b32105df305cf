package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thereayou/vidtube/internal/apperrors"
	"github.com/thereayou/vidtube/internal/media"
)

// ProfileService serves the account's own profile plus the channel and
// watch-history reads.
type ProfileService struct {
	credentials *CredentialStore
	channels    ChannelRepository
	media       media.Store
	logger      *zap.Logger
}

func NewProfileService(credentials *CredentialStore, channels ChannelRepository, store media.Store, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		credentials: credentials,
		channels:    channels,
		media:       store,
		logger:      logger,
	}
}

func (s *ProfileService) CurrentUser(ctx context.Context, userID uuid.UUID) (*PublicUser, error) {
	user, err := s.credentials.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewPublicUser(user), nil
}

func (s *ProfileService) UpdateAccount(ctx context.Context, userID uuid.UUID, fullname, email string) (*PublicUser, error) {
	user, err := s.credentials.UpdateProfileFields(ctx, userID, fullname, email)
	if err != nil {
		return nil, err
	}
	return NewPublicUser(user), nil
}

func (s *ProfileService) UpdateAvatar(ctx context.Context, userID uuid.UUID, localPath string) (*PublicUser, error) {
	url, err := s.upload(ctx, localPath, "avatar")
	if err != nil {
		return nil, err
	}
	user, err := s.credentials.UpdateAvatar(ctx, userID, url)
	if err != nil {
		return nil, err
	}
	return NewPublicUser(user), nil
}

func (s *ProfileService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, localPath string) (*PublicUser, error) {
	url, err := s.upload(ctx, localPath, "cover image")
	if err != nil {
		return nil, err
	}
	user, err := s.credentials.UpdateCoverImage(ctx, userID, url)
	if err != nil {
		return nil, err
	}
	return NewPublicUser(user), nil
}

func (s *ProfileService) upload(ctx context.Context, localPath, what string) (string, error) {
	if blank(localPath) {
		return "", apperrors.Validation(what + " file is missing")
	}
	up, err := s.media.Upload(ctx, localPath)
	if err != nil || up == nil || up.URL == "" {
		s.logger.Warn("media upload failed", zap.String("kind", what), zap.Error(err))
		return "", apperrors.Media("error while uploading "+what, err)
	}
	return up.URL, nil
}

// GetChannelProfile собирает профиль канала со счётчиками подписок.
// viewerID может быть nil, тогда IsSubscribed всегда false.
func (s *ProfileService) GetChannelProfile(ctx context.Context, viewerID *uuid.UUID, username string) (*ChannelView, error) {
	if blank(username) {
		return nil, apperrors.Validation("username is missing")
	}

	user, err := s.credentials.FindByUsername(ctx, username)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, apperrors.NotFound("channel does not exist")
		}
		return nil, err
	}

	stats, err := s.channels.GetChannelStats(ctx, user.ID, viewerID)
	if err != nil {
		return nil, apperrors.Internal("cannot load channel", err)
	}

	return &ChannelView{
		ID:                        user.ID,
		Username:                  user.Username,
		Fullname:                  user.Fullname,
		Email:                     user.Email,
		Avatar:                    user.AvatarURL,
		CoverImage:                user.CoverImageURL,
		SubscribersCount:          stats.SubscribersCount,
		ChannelsSubscribedToCount: stats.ChannelsSubscribedToCount,
		IsSubscribed:              stats.IsSubscribed,
	}, nil
}

func (s *ProfileService) GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]VideoView, error) {
	if _, err := s.credentials.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	entries, err := s.channels.GetWatchHistory(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("cannot load watch history", err)
	}

	views := make([]VideoView, 0, len(entries))
	for _, e := range entries {
		// видео могло быть удалено, а запись в истории осталась
		if e.Video.ID == uuid.Nil {
			continue
		}
		views = append(views, VideoView{
			ID:          e.Video.ID,
			VideoFile:   e.Video.VideoFile,
			Thumbnail:   e.Video.Thumbnail,
			Title:       e.Video.Title,
			Description: e.Video.Description,
			Duration:    e.Video.Duration,
			Views:       e.Video.Views,
			CreatedAt:   e.Video.CreatedAt,
			Owner: VideoOwner{
				Username: e.Video.Owner.Username,
				Fullname: e.Video.Owner.Fullname,
				Avatar:   e.Video.Owner.AvatarURL,
			},
		})
	}
	return views, nil
}
