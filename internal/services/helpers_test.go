package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thereayou/vidtube/internal/database"
	"github.com/thereayou/vidtube/internal/media"
	"github.com/thereayou/vidtube/pkg/auth"
)

const testBcryptCost = 4

func newTestDB(t *testing.T) *database.Database {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "services.db") + "?_pragma=busy_timeout(5000)"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := database.NewDatabase(gdb)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestJWT() *auth.JWTManager {
	return auth.NewJWTManager("access-secret", 15*time.Minute, "refresh-secret", 24*time.Hour)
}

// fakeMedia pretends to be object storage. Paths listed in fail are rejected.
type fakeMedia struct {
	mu       sync.Mutex
	fail     map[string]bool
	uploaded []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{fail: map[string]bool{}}
}

func (f *fakeMedia) Upload(_ context.Context, localPath string) (*media.Upload, error) {
	if localPath == "" {
		return nil, media.ErrNoFile
	}
	defer os.Remove(localPath)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[localPath] {
		return nil, errors.New("storage unavailable")
	}
	f.uploaded = append(f.uploaded, localPath)
	key := "media/" + filepath.Base(localPath)
	return &media.Upload{URL: "http://cdn.test/vidtube/" + key, Key: key}, nil
}

func tempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o600))
	return path
}

type recordedEvent struct {
	UserID uuid.UUID
	Event  string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) NotifyUser(userID uuid.UUID, event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{UserID: userID, Event: event})
}

func (n *recordingNotifier) Events() []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedEvent(nil), n.events...)
}

type revokedToken struct {
	Token     string
	ExpiresAt time.Time
}

type recordingBlacklist struct {
	mu      sync.Mutex
	revoked []revokedToken
	err     error
}

func (b *recordingBlacklist) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.revoked = append(b.revoked, revokedToken{Token: token, ExpiresAt: expiresAt})
	return nil
}

// brokenTokenStore fails every refresh-token write.
type brokenTokenStore struct {
	UserRepository
}

func (brokenTokenStore) SetRefreshToken(context.Context, uuid.UUID, string) error {
	return errors.New("connection reset")
}

type fixture struct {
	db          *database.Database
	jwt         *auth.JWTManager
	credentials *CredentialStore
	tokens      *TokenService
	media       *fakeMedia
	notifier    *recordingNotifier
	blacklist   *recordingBlacklist
	auth        *AuthService
	profiles    *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	jwt := newTestJWT()
	credentials := NewCredentialStore(db, testBcryptCost)
	tokens := NewTokenService(db, jwt)
	store := newFakeMedia()
	notifier := &recordingNotifier{}
	blacklist := &recordingBlacklist{}

	return &fixture{
		db:          db,
		jwt:         jwt,
		credentials: credentials,
		tokens:      tokens,
		media:       store,
		notifier:    notifier,
		blacklist:   blacklist,
		auth:        NewAuthService(credentials, tokens, store, nil, WithBlacklist(blacklist), WithNotifier(notifier)),
		profiles:    NewProfileService(credentials, db, store, nil),
	}
}

func (f *fixture) register(t *testing.T, username string) *PublicUser {
	t.Helper()
	u, err := f.auth.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@x.com",
		Fullname: username + " full",
		Password: "secret1",
	}, tempFile(t, username+".png"), "")
	require.NoError(t, err)
	return u
}
