package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/vidtube/internal/apperrors"
	"github.com/thereayou/vidtube/internal/handlers/dto"
	"github.com/thereayou/vidtube/internal/middleware"
	"github.com/thereayou/vidtube/internal/services"
)

type UserHandler struct {
	profiles  *services.ProfileService
	uploadDir string
}

func NewUserHandler(profiles *services.ProfileService, uploadDir string) *UserHandler {
	return &UserHandler{profiles: profiles, uploadDir: uploadDir}
}

// CurrentUser возвращает информацию о текущем пользователе
func (h *UserHandler) CurrentUser(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.Auth("unauthorized request", nil))
		return
	}

	user, err := h.profiles.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, user, "User fetched successfully")
}

// UpdateAccount обновляет fullname и email
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.Auth("unauthorized request", nil))
		return
	}

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("invalid request body", err.Error()))
		return
	}

	user, err := h.profiles.UpdateAccount(c.Request.Context(), userID, req.Fullname, req.Email)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, user, "Account details updated successfully")
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", h.profiles.UpdateAvatar, "Avatar updated successfully")
}

func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", h.profiles.UpdateCoverImage, "Cover image updated successfully")
}

func (h *UserHandler) updateImage(
	c *gin.Context,
	field string,
	update func(ctx context.Context, userID uuid.UUID, localPath string) (*services.PublicUser, error),
	message string,
) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.Auth("unauthorized request", nil))
		return
	}

	path, err := saveUpload(c, h.uploadDir, field)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer removeTemp(path)

	user, err := update(c.Request.Context(), userID, path)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, user, message)
}

// Channel возвращает профиль канала со счётчиками подписок
func (h *UserHandler) Channel(c *gin.Context) {
	var viewer *uuid.UUID
	if id, ok := middleware.UserID(c); ok {
		viewer = &id
	}

	channel, err := h.profiles.GetChannelProfile(c.Request.Context(), viewer, c.Param("username"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, channel, "User channel fetched successfully")
}

func (h *UserHandler) WatchHistory(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.Auth("unauthorized request", nil))
		return
	}

	history, err := h.profiles.GetWatchHistory(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, history, "Watch history fetched successfully")
}
