package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/duowatch/duowatch/internal/api"
	"github.com/duowatch/duowatch/internal/auth"
	"github.com/duowatch/duowatch/internal/config"
	"github.com/duowatch/duowatch/internal/controllers"
	"github.com/duowatch/duowatch/internal/models"
	"github.com/duowatch/duowatch/internal/services/apple"
	"github.com/duowatch/duowatch/internal/services/tmdb"
	"github.com/duowatch/duowatch/internal/utils"
)

func main() {
	root := &cobra.Command{
		Use:           "duowatch",
		Short:         "Shared movie/TV watchlist server for couples",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting duowatch")
	logger.WithField("data_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize services
	tmdbClient, err := tmdb.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize TMDB client: %w", err)
	}
	logger.Info("TMDB client initialized")

	appleSvc, err := apple.NewService(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Apple Sign-In: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.SessionSecret)

	// 5. Initialize controllers
	pairingCtrl := controllers.NewPairingController(db, logger)
	authCtrl := controllers.NewAuthController(db, pairingCtrl, cfg.AvatarDir, logger)
	catalogCtrl := controllers.NewCatalogController(db, tmdbClient, logger)
	watchlistCtrl := controllers.NewWatchlistController(db, catalogCtrl, pairingCtrl, logger)
	profileCtrl := controllers.NewProfileController(db, cfg.AvatarDir, logger)
	logger.Info("Controllers initialized")

	// 6. Initialize HTTP server
	server := api.NewServer(cfg, api.Controllers{
		Auth:      authCtrl,
		Pairing:   pairingCtrl,
		Catalog:   catalogCtrl,
		Watchlist: watchlistCtrl,
		Profile:   profileCtrl,
	}, appleSvc, jwtManager, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 7. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("duowatch is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("duowatch stopped")
	return nil
}
