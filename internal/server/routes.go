package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/auth"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/resource"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/room"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/user"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/ws"
)

type RouterConfig struct {
	Log             *slog.Logger
	AuthService     *auth.Service
	UserHandler     *user.Handler
	RoomHandler     *room.Handler
	ResourceHandler *resource.Handler
	WSHandler       *ws.Handler
}

func NewRouter(config RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware block
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(config.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		// Auth routes (no middleware)
		r.Route("/auth", func(r chi.Router) {
			config.UserHandler.RegisterAuthRoutes(r)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(config.AuthService))

			r.Route("/users", func(r chi.Router) {
				config.UserHandler.RegisterUserRoutes(r)
			})

			r.Route("/rooms", func(r chi.Router) {
				config.RoomHandler.RegisterRoutes(r)
			})

			r.Route("/resources", func(r chi.Router) {
				config.ResourceHandler.RegisterRoutes(r)
			})

			r.Get("/ws/rooms", config.WSHandler.HandleRoomsFeed)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
