package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/aitomarabdeljalil/42-Matcha/config"
	"github.com/aitomarabdeljalil/42-Matcha/discovery"
	"github.com/aitomarabdeljalil/42-Matcha/logging"
)

// UserIDKey is the key type for storing user ID in context
type UserIDKey string

const userIDKey UserIDKey = "userID"

const minAge = 18

// Signing settings, replaced from config at startup.
var (
	jwtSecret = []byte(config.DevJWTSecret)
	tokenTTL  = 24 * time.Hour

	refreshSecret   = []byte(config.DevRefreshSecret)
	refreshTokenTTL = 7 * 24 * time.Hour
)

const refreshTokenType = "refresh"

type credentialStore interface {
	CreateUser(ctx context.Context, nu newUser) (int, error)
	FindCredentials(ctx context.Context, email string) (int, string, error)
}

type presenceStore interface {
	TouchLastOnline(ctx context.Context, id int) error
}

type registerRequest struct {
	Email           string `json:"email" validate:"required,email,max=255"`
	Username        string `json:"username" validate:"omitempty,min=3,max=255"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	FirstName       string `json:"first_name" validate:"required,min=2,max=255"`
	LastName        string `json:"last_name" validate:"required,min=2,max=255"`
	BirthDate       string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender          string `json:"gender" validate:"omitempty,oneof=male female other"`
	PreferredGender string `json:"preferred_gender" validate:"omitempty,oneof=male female other"`
}

func (req *registerRequest) normalize() {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (req *loginRequest) normalize() {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// userFinder resolves a user id; (nil, nil) means no such user.
type userFinder interface {
	FindByID(ctx context.Context, id int) (*discovery.User, error)
}

func registerHandler(store credentialStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if req.Username == "" {
			req.Username = strings.SplitN(req.Email, "@", 2)[0]
		}

		nu := newUser{
			Email:           req.Email,
			Username:        req.Username,
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Gender:          req.Gender,
			PreferredGender: req.PreferredGender,
		}
		if req.BirthDate != "" {
			birth, _ := time.Parse(time.DateOnly, req.BirthDate)
			if birth.AddDate(minAge, 0, 0).After(time.Now()) {
				writeError(w, http.StatusBadRequest, "too_young")
				return
			}
			nu.BirthDate = &birth
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("hash password")
			writeError(w, http.StatusInternalServerError, "hash_error")
			return
		}
		nu.PasswordHash = string(hash)

		id, err := store.CreateUser(r.Context(), nu)
		switch {
		case errors.Is(err, errEmailTaken):
			writeError(w, http.StatusConflict, "email_exists")
			return
		case errors.Is(err, errUsernameTaken):
			writeError(w, http.StatusConflict, "username_exists")
			return
		case err != nil:
			logging.Ctx(r.Context()).Error().Err(err).Msg("register user")
			writeError(w, http.StatusInternalServerError, "register_error")
			return
		}

		writeTokens(w, r, http.StatusCreated, id)
	}
}

func loginHandler(store credentialStore, presence presenceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		id, hash, err := store.FindCredentials(r.Context(), req.Email)
		if errors.Is(err, errUserNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("load credentials")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}

		if err := presence.TouchLastOnline(r.Context(), id); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Int("user_id", id).Msg("update last_online")
		}

		writeTokens(w, r, http.StatusOK, id)
	}
}

// POST /api/auth/refresh exchanges a refresh token for a new access token.
func refreshHandler(users userFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		id, err := parseRefreshToken(req.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
			return
		}
		u, err := users.FindByID(r.Context(), id)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Int("user_id", id).Msg("load user for refresh")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if u == nil {
			writeError(w, http.StatusUnauthorized, "user_not_found")
			return
		}
		token, err := issueToken(id)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Int("user_id", id).Msg("sign token")
			writeError(w, http.StatusInternalServerError, "token_generation_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": token})
	}
}

// writeTokens answers a successful register or login with a fresh
// access and refresh token pair.
func writeTokens(w http.ResponseWriter, r *http.Request, status, id int) {
	token, err := issueToken(id)
	if err == nil {
		var refresh string
		refresh, err = issueRefreshToken(id)
		if err == nil {
			writeJSON(w, status, map[string]any{"token": token, "refreshToken": refresh, "id": id})
			return
		}
	}
	logging.Ctx(r.Context()).Error().Err(err).Int("user_id", id).Msg("sign token")
	writeError(w, http.StatusInternalServerError, "token_generation_error")
}

func issueToken(userID int) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(jwtSecret)
}

func issueRefreshToken(userID int) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"typ":     refreshTokenType,
		"exp":     time.Now().Add(refreshTokenTTL).Unix(),
	})
	return token.SignedString(refreshSecret)
}

// parseToken validates an HS256 access token and returns its user id.
func parseToken(raw string) (int, error) {
	id, typ, err := parseClaims(raw, jwtSecret)
	if err != nil {
		return 0, err
	}
	if typ != "" {
		return 0, errors.New("not an access token")
	}
	return id, nil
}

func parseRefreshToken(raw string) (int, error) {
	id, typ, err := parseClaims(raw, refreshSecret)
	if err != nil {
		return 0, err
	}
	if typ != refreshTokenType {
		return 0, errors.New("not a refresh token")
	}
	return id, nil
}

func parseClaims(raw string, secret []byte) (int, string, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid token claims")
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, "", errors.New("invalid user id in token")
	}
	typ, _ := claims["typ"].(string)
	return int(id), typ, nil
}

// requireAuth rejects requests without a valid Bearer token and stores the
// caller's id in the request context.
func requireAuth(presence presenceStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			id, err := parseToken(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if err := presence.TouchLastOnline(r.Context(), id); err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Int("user_id", id).Msg("update last_online")
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
		})
	}
}

func userIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok
}
