package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/thereayou/vidtube/internal/models"
)

func (d *Database) SaveUser(ctx context.Context, user *models.User) error {
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (d *Database) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (d *Database) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindUserByUsernameOrEmail ищет пользователя по любому из непустых значений
func (d *Database) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	if username == "" && email == "" {
		return nil, ErrNotFound
	}

	query := d.db.WithContext(ctx)
	switch {
	case username != "" && email != "":
		query = query.Where("username = ? OR email = ?", username, email)
	case username != "":
		query = query.Where("username = ?", username)
	default:
		query = query.Where("email = ?", email)
	}

	user := models.User{}
	if err := query.First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (d *Database) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	return d.updateColumn(ctx, id, "refresh_token", token)
}

// SwapRefreshToken заменяет refresh token, только если в базе всё ещё лежит expected.
// Возвращает false, если токен уже был заменён кем-то другим.
func (d *Database) SwapRefreshToken(ctx context.Context, id uuid.UUID, expected, next string) (bool, error) {
	if expected == "" {
		return false, nil
	}
	res := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND refresh_token = ?", id, expected).
		Update("refresh_token", next)
	if res.Error != nil {
		return false, fmt.Errorf("swap refresh token: %w", translate(res.Error))
	}
	return res.RowsAffected == 1, nil
}

func (d *Database) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return d.updateColumn(ctx, id, "password_hash", hash)
}

func (d *Database) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error {
	return d.updateColumn(ctx, id, "avatar_url", url)
}

func (d *Database) UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) error {
	return d.updateColumn(ctx, id, "cover_image_url", url)
}

func (d *Database) UpdateProfile(ctx context.Context, id uuid.UUID, fullname, email string) error {
	res := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"fullname": fullname, "email": email})
	if res.Error != nil {
		return fmt.Errorf("update profile: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) updateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	res := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("update %s: %w", column, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
