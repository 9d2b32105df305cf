package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/vidtube/internal/apperrors"
)

func validInput(username string) CreateUserInput {
	return CreateUserInput{
		Username:  username,
		Email:     username + "@x.com",
		Fullname:  "Some Body",
		Password:  "secret1",
		AvatarURL: "http://cdn.test/a.png",
	}
}

func TestCredentialStore_Create(t *testing.T) {
	store := NewCredentialStore(newTestDB(t), testBcryptCost)
	ctx := context.Background()

	in := validInput("Alice")
	in.Username = "  Alice "
	in.Email = " A@X.com"
	user, err := store.Create(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.Empty(t, user.RefreshToken)
	assert.Empty(t, user.CoverImageURL)
}

func TestCredentialStore_CreateValidation(t *testing.T) {
	store := NewCredentialStore(newTestDB(t), testBcryptCost)

	in := validInput("bob")
	in.Fullname = "   "
	in.AvatarURL = ""
	_, err := store.Create(context.Background(), in)
	require.Error(t, err)

	appErr := apperrors.As(err)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Equal(t, []string{"fullname is required", "avatar is required"}, appErr.Errors)
}

func TestCredentialStore_CreateConflict(t *testing.T) {
	store := NewCredentialStore(newTestDB(t), testBcryptCost)
	ctx := context.Background()

	_, err := store.Create(ctx, validInput("carol"))
	require.NoError(t, err)

	sameName := validInput("carol")
	sameName.Email = "other@x.com"
	_, err = store.Create(ctx, sameName)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	sameEmail := validInput("dave")
	sameEmail.Email = "CAROL@x.com"
	_, err = store.Create(ctx, sameEmail)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestCredentialStore_PasswordRoundTrip(t *testing.T) {
	store := NewCredentialStore(newTestDB(t), testBcryptCost)
	ctx := context.Background()

	user, err := store.Create(ctx, validInput("erin"))
	require.NoError(t, err)
	require.NoError(t, store.users.SetRefreshToken(ctx, user.ID, "live-refresh"))

	assert.True(t, store.VerifyPassword(user, "secret1"))
	assert.False(t, store.VerifyPassword(user, "secret2"))
	assert.False(t, store.VerifyPassword(user, ""))

	require.NoError(t, store.UpdatePassword(ctx, user, "secret2"))

	reloaded, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, store.VerifyPassword(reloaded, "secret1"))
	assert.True(t, store.VerifyPassword(reloaded, "secret2"))
	assert.Equal(t, "live-refresh", reloaded.RefreshToken, "password change keeps the refresh token")

	err = store.UpdatePassword(ctx, reloaded, " ")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestCredentialStore_Lookups(t *testing.T) {
	store := NewCredentialStore(newTestDB(t), testBcryptCost)
	ctx := context.Background()

	user, err := store.Create(ctx, validInput("frank"))
	require.NoError(t, err)

	byName, err := store.FindByUsernameOrEmail(ctx, "FRANK", "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := store.FindByUsernameOrEmail(ctx, "", "frank@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = store.FindByUsernameOrEmail(ctx, "nobody", "")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = store.FindByID(ctx, uuid.New())
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCredentialStore_UpdateProfile(t *testing.T) {
	store := NewCredentialStore(newTestDB(t), testBcryptCost)
	ctx := context.Background()

	grace, err := store.Create(ctx, validInput("grace"))
	require.NoError(t, err)
	_, err = store.Create(ctx, validInput("heidi"))
	require.NoError(t, err)

	updated, err := store.UpdateProfileFields(ctx, grace.ID, " Grace H ", "GRACE.H@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Grace H", updated.Fullname)
	assert.Equal(t, "grace.h@x.com", updated.Email)

	_, err = store.UpdateProfileFields(ctx, grace.ID, "Grace", "heidi@x.com")
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	_, err = store.UpdateProfileFields(ctx, grace.ID, "", "g@x.com")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	withAvatar, err := store.UpdateAvatar(ctx, grace.ID, "http://cdn.test/new.png")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.test/new.png", withAvatar.AvatarURL)

	withCover, err := store.UpdateCoverImage(ctx, grace.ID, "http://cdn.test/cover.png")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.test/cover.png", withCover.CoverImageURL)

	_, err = store.UpdateAvatar(ctx, uuid.New(), "x")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
