package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/vidtube/internal/models"
	"gorm.io/gorm"
)

type ChannelStats struct {
	SubscribersCount          int64
	ChannelsSubscribedToCount int64
	IsSubscribed              bool
}

// GetChannelStats считает подписчиков канала, его подписки и подписан ли viewer
func (d *Database) GetChannelStats(ctx context.Context, channelID uuid.UUID, viewerID *uuid.UUID) (*ChannelStats, error) {
	stats := &ChannelStats{}
	db := d.db.WithContext(ctx)

	if err := db.Model(&models.Subscription{}).
		Where("channel_id = ?", channelID).
		Count(&stats.SubscribersCount).Error; err != nil {
		return nil, fmt.Errorf("count subscribers: %w", err)
	}

	if err := db.Model(&models.Subscription{}).
		Where("subscriber_id = ?", channelID).
		Count(&stats.ChannelsSubscribedToCount).Error; err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}

	if viewerID != nil {
		var n int64
		if err := db.Model(&models.Subscription{}).
			Where("channel_id = ? AND subscriber_id = ?", channelID, *viewerID).
			Count(&n).Error; err != nil {
			return nil, fmt.Errorf("check subscription: %w", err)
		}
		stats.IsSubscribed = n > 0
	}

	return stats, nil
}

// GetWatchHistory возвращает историю просмотров в порядке position вместе с владельцами видео
func (d *Database) GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchHistoryEntry, error) {
	var entries []models.WatchHistoryEntry

	err := d.db.WithContext(ctx).
		Preload("Video").
		Preload("Video.Owner", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "username", "fullname", "avatar_url")
		}).
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load watch history: %w", err)
	}

	return entries, nil
}

func (d *Database) AppendWatchHistory(ctx context.Context, userID, videoID uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last struct{ Max *int }
		if err := tx.Model(&models.WatchHistoryEntry{}).
			Select("MAX(position) AS max").
			Where("user_id = ?", userID).
			Scan(&last).Error; err != nil {
			return err
		}

		next := 0
		if last.Max != nil {
			next = *last.Max + 1
		}

		return tx.Create(&models.WatchHistoryEntry{
			UserID:    userID,
			VideoID:   videoID,
			Position:  next,
			WatchedAt: time.Now(),
		}).Error
	})
}

func (d *Database) CreateVideo(ctx context.Context, video *models.Video) error {
	return translate(d.db.WithContext(ctx).Omit("Owner").Create(video).Error)
}

func (d *Database) Subscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error {
	return translate(d.db.WithContext(ctx).Create(&models.Subscription{
		SubscriberID: subscriberID,
		ChannelID:    channelID,
	}).Error)
}
