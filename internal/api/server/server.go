package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Shoshak/album-ranking-v2/internal/config"
	"github.com/Shoshak/album-ranking-v2/internal/rounds"
	"github.com/Shoshak/album-ranking-v2/internal/storage"

	"github.com/Shoshak/album-ranking-v2/internal/api/handlers"
	"github.com/Shoshak/album-ranking-v2/internal/api/middleware"
)

// Services are the domain services the routes call into.
type Services struct {
	Users      *rounds.Users
	Sessions   *rounds.Sessions
	Controller *rounds.Controller
	Submitter  *rounds.Submitter
	Aggregator *rounds.Aggregator
	Albums     *rounds.Albums
	Covers     *storage.Client // nil when covers are not archived
}

type Server struct {
	cfg    *config.Config
	svc    Services
	logger *slog.Logger
	router *gin.Engine
}

func New(cfg *config.Config, svc Services, logger *slog.Logger) *Server {
	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode) // Set to Release for production
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		logger: logger,
		router: gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery(), middleware.SilentLogger(s.logger))

	// CORS Configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}

	// IMPORTANT: "Authorization" must be allowed so the frontend can send the session token
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	userHandler := handlers.NewUserHandler(s.svc.Users)
	sessionHandler := handlers.NewSessionHandler(s.svc.Sessions)
	albumHandler := handlers.NewAlbumHandler(s.svc.Controller, s.svc.Submitter, s.svc.Albums)
	rankingHandler := handlers.NewRankingHandler(s.svc.Aggregator)
	trackHandler := handlers.NewTrackHandler(s.svc.Controller, s.svc.Aggregator)
	configHandler := handlers.NewConfigHandler(s.svc.Controller)

	// Health Check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "album-ranking"})
	})

	v1 := s.router.Group("/api/v1")
	{
		// ==========================================
		// PUBLIC ROUTES (No Token Required)
		// ==========================================
		v1.POST("/sessions", sessionHandler.CreateSession)
		v1.PATCH("/sessions", sessionHandler.RefreshSession)

		v1.GET("/albums", albumHandler.GetAlbums)
		v1.GET("/albums/:id", albumHandler.GetAlbum)
		v1.GET("/tracks", trackHandler.GetTracks)
		v1.GET("/tracks/:id", trackHandler.GetTrackRankings)
		v1.GET("/rankings/:album_id", rankingHandler.GetAlbumRankings)
		v1.GET("/config", configHandler.GetConfig)

		if s.svc.Covers != nil {
			coverHandler := handlers.NewCoverHandler(s.svc.Covers)
			v1.GET("/covers/*key", coverHandler.StreamCover)
		}

		// ==========================================
		// PROTECTED ROUTES (Session Token Required)
		// ==========================================
		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth(s.svc.Sessions))
		{
			// --- MEMBERS ---
			protected.GET("/sessions", middleware.RequireRole(middleware.RoleMember), sessionHandler.GetSession)
			protected.POST("/albums", middleware.RequireRole(middleware.RoleMember), albumHandler.SubmitAlbum)
			protected.POST("/albums/:id/rankings", middleware.RequireRole(middleware.RoleMember), rankingHandler.CreateRanking)
			protected.PATCH("/albums/:id/rankings", middleware.RequireRole(middleware.RoleMember), rankingHandler.UpdateRanking)

			// --- ADMIN ONLY ---
			protected.GET("/users", middleware.RequireRole(middleware.RoleAdmin), userHandler.GetUsers)
			protected.POST("/users", middleware.RequireRole(middleware.RoleAdmin), userHandler.CreateUser)
			protected.DELETE("/albums/:id", middleware.RequireRole(middleware.RoleAdmin), albumHandler.DeleteAlbum)
			protected.PATCH("/config", middleware.RequireRole(middleware.RoleAdmin), configHandler.PatchConfig)
		}
	}
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server on the configured port
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}
