package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/thereayou/vidtube/internal/cache"
	"github.com/thereayou/vidtube/internal/config"
	"github.com/thereayou/vidtube/internal/database"
	"github.com/thereayou/vidtube/internal/handlers"
	"github.com/thereayou/vidtube/internal/media"
	"github.com/thereayou/vidtube/internal/services"
	"github.com/thereayou/vidtube/internal/websocket"
	"github.com/thereayou/vidtube/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	Config     *config.Config
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *websocket.Hub
	Logger     *zap.Logger

	AuthH   *handlers.AuthHandler
	UserH   *handlers.UserHandler
	WSH     *handlers.WebSocketHandler
	HealthH *handlers.HealthHandler
}

// Deps are the external collaborators the server is assembled from.
type Deps struct {
	DB     *database.Database
	Redis  *redis.Client
	Media  media.Store
	Logger *zap.Logger
}

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// NewServer читает конфигурацию, подключается к Postgres, Redis и S3
// и собирает сервер
func NewServer(ctx context.Context) (*Server, error) {
	loadedDotEnv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if !loadedDotEnv {
		logger.Info(".env not found, using environment variables")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	store, err := media.NewS3Store(ctx, media.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 init: %w", err)
	}

	return Build(cfg, Deps{DB: db, Redis: rdb, Media: store, Logger: logger}), nil
}

// Build wires services, handlers and routes over ready collaborators.
func Build(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	jwtMgr := auth.NewJWTManager(
		cfg.AccessTokenSecret,
		cfg.AccessTokenExpiry,
		cfg.RefreshTokenSecret,
		cfg.RefreshTokenExpiry,
	)
	blacklist := cache.NewBlacklist(deps.Redis)
	hub := websocket.NewHub(logger.Named("ws"))

	credentials := services.NewCredentialStore(deps.DB, cfg.BcryptCost)
	tokens := services.NewTokenService(deps.DB, jwtMgr)
	authService := services.NewAuthService(credentials, tokens, deps.Media, logger.Named("auth"),
		services.WithBlacklist(blacklist),
		services.WithNotifier(hub),
	)
	profiles := services.NewProfileService(credentials, deps.DB, deps.Media, logger.Named("profile"))

	cookies := handlers.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}
	authH := handlers.NewAuthHandler(authService, cookies, cfg.UploadDir)
	userH := handlers.NewUserHandler(profiles, cfg.UploadDir)
	wsH := handlers.NewWebSocketHandler(hub, logger.Named("ws"))
	healthH := handlers.NewHealthHandler(map[string]handlers.PingFunc{
		"postgres": deps.DB.Ping,
		"redis": func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		},
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	s := &Server{
		Router:     router,
		Config:     cfg,
		DB:         deps.DB,
		Redis:      deps.Redis,
		JWTManager: jwtMgr,
		Hub:        hub,
		Logger:     logger,
		AuthH:      authH,
		UserH:      userH,
		WSH:        wsH,
		HealthH:    healthH,
	}
	APIEndpoints(router, s, blacklist)
	return s
}

// Run слушает порт до отмены ctx, затем корректно гасит соединения
func (s *Server) Run(ctx context.Context) error {
	go s.Hub.Run()
	defer s.Hub.Stop()

	srv := &http.Server{
		Addr:              ":" + s.Config.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("server starting", zap.String("port", s.Config.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Close освобождает соединения с базой и Redis
func (s *Server) Close() {
	if err := s.DB.Close(); err != nil {
		s.Logger.Warn("close postgres", zap.Error(err))
	}
	if err := s.Redis.Close(); err != nil {
		s.Logger.Warn("close redis", zap.Error(err))
	}
	_ = s.Logger.Sync()
}
