package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/vidtube/internal/apperrors"
	"github.com/thereayou/vidtube/internal/handlers/dto"
	"github.com/thereayou/vidtube/internal/middleware"
	"github.com/thereayou/vidtube/internal/services"
)

const refreshTokenCookie = "refreshToken"

// CookieConfig задаёт флаги cookie с токенами
type CookieConfig struct {
	Domain string
	Secure bool
}

type AuthHandler struct {
	auth      *services.AuthService
	cookies   CookieConfig
	uploadDir string
}

func NewAuthHandler(authService *services.AuthService, cookies CookieConfig, uploadDir string) *AuthHandler {
	return &AuthHandler{auth: authService, cookies: cookies, uploadDir: uploadDir}
}

// Register принимает multipart-форму с обязательным avatar и необязательным coverImage
func (h *AuthHandler) Register(c *gin.Context) {
	var form dto.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		_ = c.Error(apperrors.Validation("invalid form", err.Error()))
		return
	}

	avatarPath, err := saveUpload(c, h.uploadDir, "avatar")
	if err != nil {
		_ = c.Error(err)
		return
	}
	coverPath, err := saveUpload(c, h.uploadDir, "coverImage")
	if err != nil {
		removeTemp(avatarPath)
		_ = c.Error(err)
		return
	}
	defer removeTemp(avatarPath, coverPath)

	user, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		Fullname: form.Fullname,
		Password: form.Password,
	}, avatarPath, coverPath)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusCreated, user, "User registered successfully")
}

// Login выдаёт пару токенов в теле ответа и в cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("invalid request body", err.Error()))
		return
	}

	res, err := h.auth.Login(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setTokenCookies(c, res.AccessToken, res.RefreshToken)
	respond(c, http.StatusOK, res, "User logged in successfully")
}

// Logout гасит refresh token, отзывает access token и чистит cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.Auth("unauthorized request", nil))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), userID, c.GetString(middleware.AccessTokenKey)); err != nil {
		_ = c.Error(err)
		return
	}

	h.clearTokenCookies(c)
	respond(c, http.StatusOK, nil, "User logged out")
}

// RefreshToken берёт refresh token из cookie, а если её нет, из тела запроса
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	presented, _ := c.Cookie(refreshTokenCookie)
	if presented == "" {
		var req dto.RefreshRequest
		// пустое тело допустимо, тогда ответим 401 ниже
		_ = c.ShouldBindJSON(&req)
		presented = req.RefreshToken
	}

	pair, err := h.auth.Refresh(c.Request.Context(), presented)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setTokenCookies(c, pair.AccessToken, pair.RefreshToken)
	respond(c, http.StatusOK, dto.TokensResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed")
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.Auth("unauthorized request", nil))
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("invalid request body", err.Error()))
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, nil, "Password changed successfully")
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	c.SetCookie(middleware.AccessTokenCookie, accessToken, 0, "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(refreshTokenCookie, refreshToken, 0, "/", h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearTokenCookies(c *gin.Context) {
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
}
