package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shoshak/album-ranking-v2/internal/clock"
	"github.com/Shoshak/album-ranking-v2/internal/config"
	database "github.com/Shoshak/album-ranking-v2/internal/db"
	"github.com/Shoshak/album-ranking-v2/internal/metadata"
	"github.com/Shoshak/album-ranking-v2/internal/rounds"
	"github.com/Shoshak/album-ranking-v2/internal/storage"

	// Use an alias to prevent naming collisions with the 'server' variable
	apiserver "github.com/Shoshak/album-ranking-v2/internal/api/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Album Rounds API Server...")

	// 1. Setup Configuration
	cfg := config.Load()
	if cfg.Auth.TelegramToken == "" || cfg.Auth.JWTSecret == "" {
		log.Fatal("❌ ALBUMS_AUTH_TELEGRAM_TOKEN and ALBUMS_AUTH_JWT_SECRET must be set")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	// 2. Initialize Infrastructure
	db := database.New(cfg)

	// 3. Run Database Migrations and seed the singleton config
	if err := db.AutoMigrate(); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := database.SeedConfig(db.DB); err != nil {
		log.Fatalf("❌ Failed to seed config: %v", err)
	}
	if err := database.SeedAdminUser(db.DB, cfg.Auth.AdminTelegramID, cfg.Auth.AdminUsername); err != nil {
		log.Fatalf("❌ Failed to seed admin user: %v", err)
	}

	// 4. Cover archive (nil when disabled)
	covers := storage.New(cfg)

	// 5. Metadata sources
	registry := metadata.NewRegistry(cfg.ResolveTimeout())
	registry.Register("itunes", metadata.NewITunes())
	registry.Register("musicbrainz", metadata.NewMusicBrainz(cfg.Services.ContactEmail))
	if cfg.Services.DiscogsToken != "" {
		registry.Register("discogs", metadata.NewDiscogs(cfg.Services.DiscogsToken))
	}
	logger.Info("metadata sources ready", "sources", registry.Sources())

	// 6. Domain services
	submitter := rounds.NewSubmitter(db.DB, registry, logger)
	albums := rounds.NewAlbums(db.DB, logger)
	if covers != nil {
		submitter.WithCovers(covers)
		albums.WithCovers(covers)
	}
	svc := apiserver.Services{
		Users: rounds.NewUsers(db.DB, logger),
		Sessions: rounds.NewSessions(db.DB, rounds.SessionConfig{
			BotToken:   cfg.Auth.TelegramToken,
			JWTSecret:  []byte(cfg.Auth.JWTSecret),
			TTL:        cfg.SessionTTL(),
			MaxAuthAge: cfg.MaxAuthAge(),
		}, clock.RealClock{}, logger),
		Controller: rounds.NewController(db.DB, logger),
		Submitter:  submitter,
		Aggregator: rounds.NewAggregator(db.DB, logger),
		Albums:     albums,
		Covers:     covers,
	}

	// 7. Setup Metrics
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/_metrics", promhttp.Handler())
		log.Printf("📊 Metrics exposed at http://localhost%s/_metrics", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(cfg.Server.MetricsPort, mux); err != nil {
			log.Printf("⚠️ Metrics server error: %v", err)
		}
	}()

	// 8. Start Server
	srv := apiserver.New(cfg, svc, logger)

	log.Printf("🚀 API Server starting on %s", cfg.Server.Port)
	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
