package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thereayou/vidtube/internal/apperrors"
	"github.com/thereayou/vidtube/pkg/auth"
)

const (
	UserIDKey      = "userID"
	AccessTokenKey = "accessToken"

	AccessTokenCookie = "accessToken"
)

// RevocationChecker отвечает, отозван ли access token
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware проверяет access token из cookie или Authorization header
func AuthMiddleware(jwtManager *auth.JWTManager, revoked RevocationChecker, logger *zap.Logger) gin.HandlerFunc {
	logger = orNop(logger)
	return func(c *gin.Context) {
		token, err := auth.ExtractToken(c.Request, AccessTokenCookie)
		if err != nil {
			unauthorized(c, "unauthorized request", err)
			return
		}
		authenticate(c, token, jwtManager, revoked, logger)
	}
}

// WSAuthMiddleware специальный middleware для WebSocket: браузер не умеет
// слать заголовки при апгрейде, поэтому токен можно передать в ?token=
func WSAuthMiddleware(jwtManager *auth.JWTManager, revoked RevocationChecker, logger *zap.Logger) gin.HandlerFunc {
	logger = orNop(logger)
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			var err error
			token, err = auth.ExtractToken(c.Request, AccessTokenCookie)
			if err != nil {
				unauthorized(c, "missing token", err)
				return
			}
		}
		authenticate(c, token, jwtManager, revoked, logger)
	}
}

func authenticate(c *gin.Context, token string, jwtManager *auth.JWTManager, revoked RevocationChecker, logger *zap.Logger) {
	// Проверяем, не в черном списке ли токен
	if revoked != nil {
		isRevoked, err := revoked.IsRevoked(c.Request.Context(), token)
		if err != nil {
			logger.Error("blacklist lookup failed", zap.Error(err))
			unauthorized(c, "invalid access token", err)
			return
		}
		if isRevoked {
			unauthorized(c, "token is revoked", nil)
			return
		}
	}

	claims, err := jwtManager.VerifyAccess(token)
	if err != nil {
		unauthorized(c, "invalid access token", err)
		return
	}

	userID, err := uuid.Parse(claims.ID)
	if err != nil {
		unauthorized(c, "invalid access token", err)
		return
	}

	c.Set(UserIDKey, userID)
	c.Set(AccessTokenKey, token)
	c.Next()
}

func unauthorized(c *gin.Context, msg string, cause error) {
	_ = c.Error(apperrors.Auth(msg, cause))
	c.Abort()
}

// UserID достаёт id пользователя, положенный AuthMiddleware
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
