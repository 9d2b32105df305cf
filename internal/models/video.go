package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Video struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:uuid;index;not null"`
	VideoFile   string    `gorm:"not null"`
	Thumbnail   string    `gorm:"not null"`
	Title       string    `gorm:"not null"`
	Description string
	Duration    float64
	Views       int64 `gorm:"default:0"`
	IsPublished bool  `gorm:"default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Связи
	Owner User `gorm:"foreignKey:OwnerID"`
}

func (v *Video) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// WatchHistoryEntry хранит одну позицию в истории просмотров пользователя
type WatchHistoryEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	VideoID   uuid.UUID `gorm:"type:uuid;not null"`
	Position  int       `gorm:"not null"`
	WatchedAt time.Time

	Video Video `gorm:"foreignKey:VideoID"`
}

func (WatchHistoryEntry) TableName() string {
	return "watch_history"
}

func (w *WatchHistoryEntry) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
