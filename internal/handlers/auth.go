package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/walkgoal/apiserver/internal/services"
)

const (
	defaultTokenTTL = 24 * time.Hour
	adminSubject    = "admin"
)

// AuthHandler issues admin bearer tokens.
type AuthHandler struct {
	settings *services.SettingsService
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewAuthHandler(settings *services.SettingsService, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthHandler{
		settings: settings,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// RequireAdmin constructs middleware that only lets admin tokens through.
func RequireAdmin(jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "access token required")
				return
			}
			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil || subject != adminSubject {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Login exchanges the admin password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	if err := h.settings.VerifyAdminPassword(r.Context(), req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidPassword) {
			h.logger.WarnContext(r.Context(), "admin login rejected", "remote", r.RemoteAddr)
		}
		writeServiceError(w, r, h.logger, err, "login failed")
		return
	}

	token, err := issueToken(adminSubject, h.secret, h.tokenTTL)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to create token")
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Success: true})
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	Success bool   `json:"success"`
}

func issueToken(subject string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	return strings.TrimSpace(claims.Subject), nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errors.New("invalid authorization")
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
