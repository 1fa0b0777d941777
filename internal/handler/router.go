package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	authHandler "github.com/Shrey-Sawant/Sonder/internal/handler/auth"
	chatHandler "github.com/Shrey-Sawant/Sonder/internal/handler/chat"
	companionHandler "github.com/Shrey-Sawant/Sonder/internal/handler/companion"
	ratingHandler "github.com/Shrey-Sawant/Sonder/internal/handler/rating"
	scheduleHandler "github.com/Shrey-Sawant/Sonder/internal/handler/schedule"
	usersHandler "github.com/Shrey-Sawant/Sonder/internal/handler/users"
	"github.com/Shrey-Sawant/Sonder/internal/hub"
	"github.com/Shrey-Sawant/Sonder/internal/middleware"
	authService "github.com/Shrey-Sawant/Sonder/internal/service/auth"
	chatService "github.com/Shrey-Sawant/Sonder/internal/service/chat"
	companionService "github.com/Shrey-Sawant/Sonder/internal/service/companion"
	ratingService "github.com/Shrey-Sawant/Sonder/internal/service/rating"
	scheduleService "github.com/Shrey-Sawant/Sonder/internal/service/schedule"
	"github.com/Shrey-Sawant/Sonder/internal/store"
	"github.com/Shrey-Sawant/Sonder/pkg/utils"
)

// Services bundles everything the router mounts.
type Services struct {
	Store     store.Store
	Auth      *authService.Service
	Chat      *chatService.Service
	Schedule  *scheduleService.Service
	Rating    *ratingService.Service
	Companion *companionService.Service
	Hub       *hub.Hub
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svcs Services) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": "1.0"})
	})

	authMw := middleware.NewAuth(svcs.Auth)

	r.Route("/api/v1", func(api chi.Router) {
		authHandler.New(svcs.Auth).RegisterRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(authMw.Handle)

			usersHandler.New(svcs.Store).RegisterRoutes(protected)
			chatHandler.New(svcs.Chat, svcs.Hub).RegisterRoutes(protected)
			companionHandler.New(svcs.Companion).RegisterRoutes(protected)
			scheduleHandler.New(svcs.Schedule).RegisterRoutes(protected)
			ratingHandler.New(svcs.Rating).RegisterRoutes(protected)
		})
	})

	return r
}
