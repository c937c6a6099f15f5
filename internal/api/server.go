package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/api/handlers"
	"github.com/duowatch/duowatch/internal/api/middleware"
	"github.com/duowatch/duowatch/internal/auth"
	"github.com/duowatch/duowatch/internal/config"
	"github.com/duowatch/duowatch/internal/controllers"
	"github.com/duowatch/duowatch/internal/services/apple"
)

// Controllers bundles the application controllers the routes dispatch to
type Controllers struct {
	Auth      *controllers.AuthController
	Pairing   *controllers.PairingController
	Catalog   *controllers.CatalogController
	Watchlist *controllers.WatchlistController
	Profile   *controllers.ProfileController
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, ctrls Controllers, appleSvc *apple.Service, jwtManager *auth.JWTManager, logger *logrus.Logger) *Server {
	s := &Server{logger: logger}

	router := chi.NewRouter()
	router.Use(middleware.Logging(logger))
	router.Use(middleware.Metrics)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.setupRoutes(router, cfg, ctrls, appleSvc, jwtManager)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(router chi.Router, cfg *config.Config, ctrls Controllers, appleSvc *apple.Service, jwtManager *auth.JWTManager) {
	authHandler := handlers.NewAuthHandler(ctrls.Auth, jwtManager, s.logger)
	appleHandler := handlers.NewAppleHandler(appleSvc, ctrls.Auth, jwtManager, s.logger)
	pairsHandler := handlers.NewPairsHandler(ctrls.Pairing, ctrls.Auth, s.logger)
	moviesHandler := handlers.NewMoviesHandler(ctrls.Catalog, s.logger)
	watchlistHandler := handlers.NewWatchlistHandler(ctrls.Watchlist, s.logger)
	profileHandler := handlers.NewProfileHandler(ctrls.Profile, s.logger)
	healthHandler := handlers.NewHealthHandler(s.logger)

	requireAuth := middleware.Auth(jwtManager, s.logger)

	router.Get("/health", healthHandler.Check)
	router.Handle("/metrics", promhttp.Handler())
	router.Handle("/avatars/*", http.StripPrefix("/avatars/",
		http.FileServer(http.Dir(cfg.AvatarDir))))

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/apple", appleHandler.Login)
			r.Post("/apple/callback", appleHandler.Callback)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Delete("/account", authHandler.DeleteAccount)
			})
		})

		r.Route("/movies", func(r chi.Router) {
			r.Get("/search", moviesHandler.Search)
			r.Get("/config/image", moviesHandler.ImageConfig)
			r.Get("/{id}", moviesHandler.Detail)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/pairs", func(r chi.Router) {
				r.Get("/", pairsHandler.Get)
				r.Post("/create", pairsHandler.Create)
				r.Post("/join", pairsHandler.Join)
				r.Post("/leave", pairsHandler.Leave)
			})

			r.Route("/watchlist", func(r chi.Router) {
				r.Get("/me", watchlistHandler.MyList)
				r.Post("/me", watchlistHandler.Add)
				r.Delete("/me/{id}", watchlistHandler.Remove)
				r.Put("/me/{id}/rate", watchlistHandler.Rate)
				r.Delete("/me/{id}/rate", watchlistHandler.Unrate)
				r.Get("/partner", watchlistHandler.PartnerList)
				r.Get("/intersections", watchlistHandler.Intersections)
			})

			r.Route("/profile", func(r chi.Router) {
				r.Put("/", profileHandler.Update)
				r.Put("/avatar", profileHandler.UploadAvatar)
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("addr", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
