package user

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/auth"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/pkg/httputil"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/pkg/password"
)

type Handler struct {
	store       Store
	authService *auth.Service
	log         *slog.Logger
	dbTimeout   time.Duration
}

func NewHandler(store Store, authService *auth.Service, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = 5 * time.Second
	}
	return &Handler{store, authService, log, dbTimeout}
}

// RegisterAuthRoutes registers authentication endpoints (signup, signin, refresh)
func (h *Handler) RegisterAuthRoutes(r chi.Router) {
	r.Post("/signup", httputil.Handler(h.HandleSignup, h.log))
	r.Post("/signin", httputil.Handler(h.HandleSignin, h.log))
	r.Post("/refresh", httputil.Handler(h.HandleRefreshToken, h.log))
}

// RegisterUserRoutes registers the authenticated user endpoints
func (h *Handler) RegisterUserRoutes(r chi.Router) {
	r.Get("/me", httputil.Handler(h.HandleMe, h.log))
}

// Context that handles database requests
func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandleSignup registers a new account and signs it in
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) error {
	req := new(CreateUserRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	if err := validateCreateUserRequest(req); err != nil {
		return httputil.BadRequest(err.Error())
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	exists, err := h.store.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return httputil.Internal(err)
	}
	if exists {
		return httputil.Conflict("An account with this email already exists")
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return httputil.Internal(err)
	}

	user := &User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashed,
	}

	if err := h.store.CreateUser(ctx, user); err != nil {
		return httputil.Internal(err)
	}

	h.log.Info("user registered",
		"user_id", user.ID,
		"username", user.Username)

	return h.respondWithTokens(w, http.StatusCreated, user)
}

// HandleSignin authenticates by email and password
func (h *Handler) HandleSignin(w http.ResponseWriter, r *http.Request) error {
	req := new(SigninRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	user, err := h.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return httputil.Unauthorized("Invalid email or password")
		}
		return httputil.Internal(err)
	}

	if !password.Verify(req.Password, user.Password) {
		h.log.Warn("failed signin attempt", "email", req.Email)
		return httputil.Unauthorized("Invalid email or password")
	}

	return h.respondWithTokens(w, http.StatusOK, user)
}

// HandleRefreshToken exchanges a refresh token for a new token pair
func (h *Handler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) error {
	req := new(RefreshRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	userID, err := h.authService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return httputil.Unauthorized("Invalid or expired refresh token")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return httputil.Unauthorized("Account no longer exists")
		}
		return httputil.Internal(err)
	}

	return h.respondWithTokens(w, http.StatusOK, user)
}

// HandleMe returns the currently authenticated user's profile
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return httputil.NotFound("User not found")
		}
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) respondWithTokens(w http.ResponseWriter, status int, user *User) error {
	accessToken, err := h.authService.GenerateAccessToken(user.ID, user.Email, user.Username)
	if err != nil {
		return httputil.Internal(err)
	}

	refreshToken, err := h.authService.GenerateRefreshToken(user.ID)
	if err != nil {
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, status, AuthResponse{
		User:         *user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}
