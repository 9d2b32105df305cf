package server

import (
	"github.com/gin-gonic/gin"

	"github.com/thereayou/vidtube/internal/middleware"
)

func APIEndpoints(r *gin.Engine, s *Server, revoked middleware.RevocationChecker) {
	r.Use(gin.Recovery(), middleware.RequestLogger(s.Logger), middleware.ErrorHandler(s.Logger))

	r.GET("/healthz", s.HealthH.Healthz)

	requireAuth := middleware.AuthMiddleware(s.JWTManager, revoked, s.Logger)

	users := r.Group("/api/v1/users")
	{
		// Auth endpoints
		users.POST("/register", s.AuthH.Register)
		users.POST("/login", s.AuthH.Login)
		users.POST("/refresh-token", s.AuthH.RefreshToken)

		secured := users.Group("", requireAuth)
		secured.POST("/logout", s.AuthH.Logout)
		secured.POST("/change-password", s.AuthH.ChangePassword)

		// Profile endpoints
		secured.GET("/current-user", s.UserH.CurrentUser)
		secured.PATCH("/update-account", s.UserH.UpdateAccount)
		secured.PATCH("/avatar", s.UserH.UpdateAvatar)
		secured.PATCH("/cover-image", s.UserH.UpdateCoverImage)
		secured.GET("/c/:username", s.UserH.Channel)
		secured.GET("/history", s.UserH.WatchHistory)

		users.GET("/events", middleware.WSAuthMiddleware(s.JWTManager, revoked, s.Logger), s.WSH.Events)
	}
}
