package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreBadger   = "badger"
	StorePostgres = "postgres"

	RelayNone  = "none"
	RelayRedis = "redis"
	RelayNATS  = "nats"
)

type Config struct {
	AppPort string `envconfig:"APP_PORT" default:"8080"`
	AppMode string `envconfig:"APP_MODE" default:"debug" validate:"omitempty,oneof=debug release test"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"badger" validate:"oneof=badger postgres"`
	BadgerPath  string `envconfig:"BADGER_PATH" default:"data/badger"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"teamchat"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"" validate:"required_if=EventRelay redis"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	EventRelay string `envconfig:"EVENT_RELAY" default:"none" validate:"oneof=none redis nats"`
	NATSURL    string `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	// RelayQueueSize bounds the events waiting to be forwarded to the relay.
	RelayQueueSize int `envconfig:"RELAY_QUEUE_SIZE" default:"1024" validate:"gt=0"`

	JWTSecret string `envconfig:"JWT_SECRET" default:"change-me"`

	TypingTimeout         time.Duration `envconfig:"TYPING_TIMEOUT" default:"10s" validate:"gt=0"`
	OfflineGrace          time.Duration `envconfig:"OFFLINE_GRACE" default:"5s" validate:"gte=0"`
	PresenceSweepInterval time.Duration `envconfig:"PRESENCE_SWEEP_INTERVAL" default:"1s" validate:"gt=0"`
	OutboundQueueSize     int           `envconfig:"OUTBOUND_QUEUE_SIZE" default:"256" validate:"gt=0"`
	MessageRateLimit      int           `envconfig:"MESSAGE_RATE_LIMIT" default:"60" validate:"gte=0"`
	MaxMessageLength      int           `envconfig:"MAX_MESSAGE_LENGTH" default:"4000" validate:"gt=0"`
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	// Badger is local to one instance, so sequences relayed from another
	// instance could never be backfilled here.
	if c.EventRelay != RelayNone && c.StoreDriver != StorePostgres {
		return fmt.Errorf("invalid configuration: EVENT_RELAY=%s requires STORE_DRIVER=%s", c.EventRelay, StorePostgres)
	}
	return nil
}

// PostgresDSN builds a pgx connection string from the DB_* settings.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
