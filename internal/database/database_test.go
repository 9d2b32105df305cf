package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thereayou/vidtube/internal/models"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	db := NewDatabase(gdb)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedUser(t *testing.T, db *Database, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@x.com",
		Fullname:     username + " full",
		PasswordHash: "hash",
		AvatarURL:    "http://cdn/" + username + ".png",
	}
	require.NoError(t, db.SaveUser(context.Background(), u))
	return u
}

func TestSaveAndGetUser(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	u := seedUser(t, db, "alice")
	assert.NotEqual(t, uuid.Nil, u.ID)

	got, err := db.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Empty(t, got.RefreshToken)

	_, err = db.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveUser_Duplicate(t *testing.T) {
	db := newTestDatabase(t)
	seedUser(t, db, "alice")

	err := db.SaveUser(context.Background(), &models.User{
		Username: "alice", Email: "other@x.com", Fullname: "x", PasswordHash: "h", AvatarURL: "a",
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = db.SaveUser(context.Background(), &models.User{
		Username: "bob", Email: "alice@x.com", Fullname: "x", PasswordHash: "h", AvatarURL: "a",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestFindUserByUsernameOrEmail(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	u := seedUser(t, db, "alice")

	got, err := db.FindUserByUsernameOrEmail(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = db.FindUserByUsernameOrEmail(ctx, "", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = db.FindUserByUsernameOrEmail(ctx, "nobody", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = db.FindUserByUsernameOrEmail(ctx, "", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.FindUserByUsernameOrEmail(ctx, "nobody", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSwapRefreshToken(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	u := seedUser(t, db, "alice")

	require.NoError(t, db.SetRefreshToken(ctx, u.ID, "t1"))

	ok, err := db.SwapRefreshToken(ctx, u.ID, "t1", "t2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.SwapRefreshToken(ctx, u.ID, "t1", "t3")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := db.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "t2", got.RefreshToken)

	require.NoError(t, db.SetRefreshToken(ctx, u.ID, ""))
	ok, err = db.SwapRefreshToken(ctx, u.ID, "", "t4")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateColumns(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	u := seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	require.NoError(t, db.UpdatePasswordHash(ctx, u.ID, "new-hash"))
	require.NoError(t, db.UpdateAvatar(ctx, u.ID, "http://cdn/new.png"))
	require.NoError(t, db.UpdateCoverImage(ctx, u.ID, "http://cdn/cover.png"))
	require.NoError(t, db.UpdateProfile(ctx, u.ID, "Alice Updated", "alice2@x.com"))

	got, err := db.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, "http://cdn/new.png", got.AvatarURL)
	assert.Equal(t, "http://cdn/cover.png", got.CoverImageURL)
	assert.Equal(t, "Alice Updated", got.Fullname)
	assert.Equal(t, "alice2@x.com", got.Email)

	err = db.UpdateProfile(ctx, u.ID, "Alice", "bob@x.com")
	assert.ErrorIs(t, err, ErrDuplicate)

	err = db.UpdateAvatar(ctx, uuid.New(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetChannelStats(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	require.NoError(t, db.Subscribe(ctx, bob.ID, alice.ID))
	require.NoError(t, db.Subscribe(ctx, carol.ID, alice.ID))
	require.NoError(t, db.Subscribe(ctx, alice.ID, carol.ID))
	assert.ErrorIs(t, db.Subscribe(ctx, bob.ID, alice.ID), ErrDuplicate)

	stats, err := db.GetChannelStats(ctx, alice.ID, &bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.SubscribersCount)
	assert.Equal(t, int64(1), stats.ChannelsSubscribedToCount)
	assert.True(t, stats.IsSubscribed)

	stats, err = db.GetChannelStats(ctx, bob.ID, &alice.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.SubscribersCount)
	assert.Equal(t, int64(1), stats.ChannelsSubscribedToCount)
	assert.False(t, stats.IsSubscribed)

	stats, err = db.GetChannelStats(ctx, alice.ID, nil)
	require.NoError(t, err)
	assert.False(t, stats.IsSubscribed)
}

func TestWatchHistory(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	empty, err := db.GetWatchHistory(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	v1 := &models.Video{OwnerID: bob.ID, VideoFile: "v1.mp4", Thumbnail: "t1.png", Title: "First", Duration: 12.5}
	v2 := &models.Video{OwnerID: alice.ID, VideoFile: "v2.mp4", Thumbnail: "t2.png", Title: "Second"}
	require.NoError(t, db.CreateVideo(ctx, v1))
	require.NoError(t, db.CreateVideo(ctx, v2))

	require.NoError(t, db.AppendWatchHistory(ctx, alice.ID, v2.ID))
	require.NoError(t, db.AppendWatchHistory(ctx, alice.ID, v1.ID))

	entries, err := db.GetWatchHistory(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Second", entries[0].Video.Title)
	assert.Equal(t, "alice", entries[0].Video.Owner.Username)
	assert.Equal(t, "First", entries[1].Video.Title)
	assert.Equal(t, "bob", entries[1].Video.Owner.Username)
	assert.Equal(t, "bob full", entries[1].Video.Owner.Fullname)
	assert.Empty(t, entries[1].Video.Owner.PasswordHash)
}
