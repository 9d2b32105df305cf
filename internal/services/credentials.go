package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/thereayou/vidtube/internal/apperrors"
	"github.com/thereayou/vidtube/internal/database"
	"github.com/thereayou/vidtube/internal/models"
)

const msgUserExists = "user with email or username already exists"

// CredentialStore owns user records and password hashes.
type CredentialStore struct {
	users      UserRepository
	bcryptCost int
}

func NewCredentialStore(users UserRepository, bcryptCost int) *CredentialStore {
	return &CredentialStore{users: users, bcryptCost: bcryptCost}
}

func normalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Create validates, hashes the password and persists a new user with no live refresh token.
func (s *CredentialStore) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"username", in.Username},
		{"email", in.Email},
		{"fullname", in.Fullname},
		{"password", in.Password},
		{"avatar", in.AvatarURL},
	} {
		if blank(f.value) {
			missing = append(missing, f.name+" is required")
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Validation("all fields are required", missing...)
	}

	username := normalizeIdentity(in.Username)
	email := normalizeIdentity(in.Email)

	if _, err := s.users.FindUserByUsernameOrEmail(ctx, username, email); err == nil {
		return nil, apperrors.Conflict(msgUserExists)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, apperrors.Internal("something went wrong while registering the user", err)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:      username,
		Email:         email,
		Fullname:      strings.TrimSpace(in.Fullname),
		PasswordHash:  hash,
		AvatarURL:     in.AvatarURL,
		CoverImageURL: in.CoverImageURL,
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperrors.Conflict(msgUserExists)
		}
		return nil, apperrors.Internal("something went wrong while registering the user", err)
	}
	return user, nil
}

// VerifyPassword reports whether candidate matches the stored hash.
func (s *CredentialStore) VerifyPassword(user *models.User, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(candidate)) == nil
}

// UpdatePassword rehashes and stores the password. The live refresh token is left alone.
func (s *CredentialStore) UpdatePassword(ctx context.Context, user *models.User, newPlain string) error {
	if blank(newPlain) {
		return apperrors.Validation("new password is required")
	}
	hash, err := s.hash(newPlain)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return wrapLookup(err)
	}
	user.PasswordHash = hash
	return nil
}

func (s *CredentialStore) hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.bcryptCost)
	if err != nil {
		return "", apperrors.Internal("cannot hash password", err)
	}
	return string(hash), nil
}

func (s *CredentialStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	user, err := s.users.FindUserByUsernameOrEmail(ctx, normalizeIdentity(username), normalizeIdentity(email))
	if err != nil {
		return nil, wrapLookup(err)
	}
	return user, nil
}

func (s *CredentialStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, wrapLookup(err)
	}
	return user, nil
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindUserByUsername(ctx, normalizeIdentity(username))
	if err != nil {
		return nil, wrapLookup(err)
	}
	return user, nil
}

func (s *CredentialStore) UpdateProfileFields(ctx context.Context, id uuid.UUID, fullname, email string) (*models.User, error) {
	if blank(fullname) || blank(email) {
		return nil, apperrors.Validation("all fields are required")
	}
	err := s.users.UpdateProfile(ctx, id, strings.TrimSpace(fullname), normalizeIdentity(email))
	if errors.Is(err, database.ErrDuplicate) {
		return nil, apperrors.Conflict(msgUserExists)
	}
	if err != nil {
		return nil, wrapLookup(err)
	}
	return s.FindByID(ctx, id)
}

func (s *CredentialStore) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) (*models.User, error) {
	if err := s.users.UpdateAvatar(ctx, id, url); err != nil {
		return nil, wrapLookup(err)
	}
	return s.FindByID(ctx, id)
}

func (s *CredentialStore) UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) (*models.User, error) {
	if err := s.users.UpdateCoverImage(ctx, id, url); err != nil {
		return nil, wrapLookup(err)
	}
	return s.FindByID(ctx, id)
}

func wrapLookup(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return apperrors.NotFound("user does not exist")
	}
	return apperrors.Internal("database error", err)
}
