package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Subject описывает пользователя, для которого выпускается access token
type Subject struct {
	ID       string
	Email    string
	Username string
	Fullname string
}

type AccessClaims struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	accessSecret    []byte
	accessDuration  time.Duration
	refreshSecret   []byte
	refreshDuration time.Duration
	now             func() time.Time
}

func NewJWTManager(accessSecret string, accessDuration time.Duration, refreshSecret string, refreshDuration time.Duration) *JWTManager {
	return &JWTManager{
		accessSecret:    []byte(accessSecret),
		accessDuration:  accessDuration,
		refreshSecret:   []byte(refreshSecret),
		refreshDuration: refreshDuration,
		now:             time.Now,
	}
}

// WithClock возвращает копию менеджера с другим источником времени
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *JWTManager) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := m.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// GenerateAccess создаёт короткоживущий access token
func (m *JWTManager) GenerateAccess(s Subject) (string, error) {
	claims := AccessClaims{
		ID:               s.ID,
		Email:            s.Email,
		Username:         s.Username,
		Fullname:         s.Fullname,
		RegisteredClaims: m.registered(s.ID, m.accessDuration),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
}

// GenerateRefresh создаёт refresh token, содержащий только id пользователя
func (m *JWTManager) GenerateRefresh(userID string) (string, error) {
	claims := RefreshClaims{
		ID:               userID,
		RegisteredClaims: m.registered(userID, m.refreshDuration),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
}

// VerifyAccess парсит и проверяет access token
func (m *JWTManager) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(token, claims, m.accessSecret); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh парсит и проверяет refresh token
func (m *JWTManager) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(token, claims, m.refreshSecret); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AccessExpiry возвращает время истечения access token
func (m *JWTManager) AccessExpiry(token string) (time.Time, error) {
	claims, err := m.VerifyAccess(token)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

func parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}

// ExtractTokenFromHeader извлекает токен из Authorization header
func ExtractTokenFromHeader(r *http.Request) (string, error) {
	hdr := r.Header.Get("Authorization")
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid Authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// ExtractToken берёт токен из cookie, а если её нет, из Authorization header
func ExtractToken(r *http.Request, cookieName string) (string, error) {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return ExtractTokenFromHeader(r)
}
