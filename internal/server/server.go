package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"teamchat/config"
	"teamchat/internal/handler"
	"teamchat/internal/middleware"
	"teamchat/internal/services"
	"teamchat/internal/transport/httpdto"
	"teamchat/internal/websocket"
	"teamchat/pkg/logger"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Room      *handler.RoomHandler
	Message   *handler.MessageHandler
	Presence  *handler.PresenceHandler
	WebSocket *websocket.Handler
}

// HealthFunc reports whether the durable store is usable.
type HealthFunc func(ctx context.Context) error

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// SetupRoutes registers the API. limiter may be nil, in which case message
// appends are not rate limited.
func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, limiter middleware.MessageLimiter, health HealthFunc) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	s.engine.GET("/ws", handlers.WebSocket.Connect)

	send := []gin.HandlerFunc{handlers.Message.Send}
	if limiter != nil {
		send = append([]gin.HandlerFunc{middleware.MessageRateLimitMiddleware(limiter)}, send...)
	}

	v1 := s.engine.Group("/v1", middleware.AuthMiddleware(authService))
	{
		v1.GET("/unread", handlers.Message.UnreadSummary)

		rooms := v1.Group("/rooms")
		rooms.POST("", handlers.Room.Create)
		rooms.GET("", handlers.Room.List)
		rooms.GET("/:id", handlers.Room.Get)
		rooms.GET("/:id/participants", handlers.Room.Participants)
		rooms.POST("/:id/participants", handlers.Room.AddParticipant)
		rooms.DELETE("/:id/participants/:userId", handlers.Room.RemoveParticipant)
		rooms.PUT("/:id/participants/:userId/role", handlers.Room.SetRole)
		rooms.POST("/:id/leave", handlers.Room.Leave)

		rooms.POST("/:id/messages", send...)
		rooms.GET("/:id/messages", handlers.Message.List)
		rooms.PATCH("/:id/messages/:messageId", handlers.Message.Edit)
		rooms.DELETE("/:id/messages/:messageId", handlers.Message.Delete)

		rooms.POST("/:id/read", handlers.Message.MarkRead)
		rooms.GET("/:id/unread", handlers.Message.Unread)

		rooms.POST("/:id/typing", handlers.Presence.StartTyping)
		rooms.DELETE("/:id/typing", handlers.Presence.StopTyping)
		rooms.GET("/:id/presence", handlers.Presence.RoomPresence)
	}
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}
	return nil
}
