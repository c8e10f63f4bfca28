package main

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"teamchat/config"
	"teamchat/internal/events"
	"teamchat/internal/handler"
	"teamchat/internal/middleware"
	"teamchat/internal/presence"
	"teamchat/internal/proxy"
	"teamchat/internal/redis"
	"teamchat/internal/repository"
	"teamchat/internal/server"
	"teamchat/internal/services"
	"teamchat/internal/websocket"
	"teamchat/pkg/database"
	"teamchat/pkg/logger"
)

type relay interface {
	events.Publisher
	Start(ctx context.Context) error
	Stop() error
}

type stores struct {
	rooms    repository.RoomRepository
	messages repository.MessageRepository
	health   server.HealthFunc
	close    func()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.New(logger.DevelopmentMode).Fatalf("Failed to load config: %v", err)
	}
	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, l)
	if err != nil {
		l.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer st.close()

	var redisClient *goredis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(redis.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer redisClient.Close()
		if err := redis.Ping(ctx, redisClient, 5*time.Second); err != nil {
			l.Fatalf("Failed to reach redis: %v", err)
		}
	}

	// Services publish into this fan-out; the hub and relay are appended
	// once they exist.
	var publisher events.MultiPublisher

	access := proxy.NewAccessControl(st.rooms)
	authService := services.NewAuthService(cfg.JWTSecret)
	roomService := services.NewRoomService(st.rooms, access, &publisher, l.Component("rooms"))
	messageService := services.NewMessageService(st.messages, access, &publisher, cfg.MaxMessageLength, l.Component("messages"))
	unreadService := services.NewUnreadService(st.rooms, st.messages, access)
	tracker := presence.NewTracker(presence.Config{
		TypingTimeout: cfg.TypingTimeout,
		OfflineGrace:  cfg.OfflineGrace,
	}, roomService, roomService, &publisher, l.Component("presence"))

	hub := websocket.NewHub(messageService, roomService, websocket.HubConfig{QueueSize: cfg.OutboundQueueSize}, l.Component("hub"))
	publisher = append(publisher, hub)

	rl, err := openRelay(cfg, redisClient, hub, l)
	if err != nil {
		l.Fatalf("Failed to set up %s relay: %v", cfg.EventRelay, err)
	}
	if rl != nil {
		if err := rl.Start(ctx); err != nil {
			l.Fatalf("Failed to start %s relay: %v", cfg.EventRelay, err)
		}
		defer rl.Stop()
		// Relay I/O runs off the room write path; the forwarder keeps order.
		fwd := events.NewForwarder(rl, cfg.RelayQueueSize, l.Component("relay"))
		fwd.Start()
		defer fwd.Stop()
		publisher = append(publisher, fwd)
	}

	go tracker.Run(ctx, cfg.PresenceSweepInterval)

	var limiter middleware.MessageLimiter
	if redisClient != nil {
		rlCfg := redis.DefaultRateLimitConfig()
		rlCfg.MessageLimit = cfg.MessageRateLimit
		limiter = redis.NewRateLimiter(redisClient, rlCfg)
	}

	srv := server.New(cfg, l)
	handlers := &server.Handlers{
		Room:      handler.NewRoomHandler(roomService),
		Message:   handler.NewMessageHandler(messageService, unreadService),
		Presence:  handler.NewPresenceHandler(tracker, roomService),
		WebSocket: websocket.NewHandler(authService, hub, tracker, unreadService),
	}
	srv.SetupRoutes(handlers, authService, limiter, st.health)

	if err := srv.Start(); err != nil {
		l.Errorf("Server shutdown: %v", err)
	}
}

func openStores(ctx context.Context, cfg *config.Config, l *logger.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg.PostgresDSN(), l.Component("postgres"))
		if err != nil {
			return nil, err
		}
		if err := database.ApplyMigrations(ctx, pool, l.Component("migrate")); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			rooms:    repository.NewPostgresRoomRepository(pool),
			messages: repository.NewPostgresMessageRepository(pool),
			health: func(ctx context.Context) error {
				return database.HealthCheck(ctx, pool)
			},
			close: pool.Close,
		}, nil
	default:
		db, err := database.OpenBadger(cfg.BadgerPath, l.Component("badger"))
		if err != nil {
			return nil, err
		}
		return &stores{
			rooms:    repository.NewBadgerRoomRepository(db),
			messages: repository.NewBadgerMessageRepository(db),
			health:   badgerHealth(db),
			close:    func() { _ = db.Close() },
		}, nil
	}
}

func badgerHealth(db *badger.DB) server.HealthFunc {
	return func(context.Context) error {
		if db.IsClosed() {
			return errors.New("badger store is closed")
		}
		return nil
	}
}

func openRelay(cfg *config.Config, redisClient *goredis.Client, hub events.Publisher, l *logger.Logger) (relay, error) {
	origin := uuid.NewString()
	switch cfg.EventRelay {
	case config.RelayRedis:
		return events.NewRedisRelay(redisClient, origin, hub, l.Logger), nil
	case config.RelayNATS:
		nc, err := events.ConnectNATS(cfg.NATSURL, "teamchat-"+origin, l.Component("nats"))
		if err != nil {
			return nil, err
		}
		return events.NewNATSRelay(nc, origin, hub, l.Logger), nil
	default:
		l.Logger.Info("event relay disabled", zap.String("relay", cfg.EventRelay))
		return nil, nil
	}
}
