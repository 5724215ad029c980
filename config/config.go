package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"

	EntryPolicyWhitelist  = "whitelist"
	EntryPolicyAutoCreate = "auto_create"

	BackendNone     = "none"
	BackendMinio    = "minio"
	BackendGCS      = "gcs"
	BackendS3       = "s3"
	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"
	BackendNATS     = "nats"

	devJWTSecret = "walkgoal-dev-secret"
)

type Config struct {
	Env        string
	ServerPort int
	JWTSecret  string
	TokenTTL   time.Duration
	Store      StoreConfig
	Database   DatabaseConfig
	App        AppConfig
	Log        LogConfig
	Storage    StorageConfig
	MQ         MQConfig
}

type StoreConfig struct {
	Driver      string
	SQLitePath  string
	AutoMigrate bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// AppConfig holds the walking-goal defaults. Goal and locations only seed the
// settings table; once stored, admins change them through the API.
type AppConfig struct {
	GoalMinutes     int
	StartLocation   string
	EndLocation     string
	AdminPassword   string
	MaxEntryMinutes int
	EntryPolicy     string
	Timezone        string
}

type LogConfig struct {
	Level  string
	Format string
}

type StorageConfig struct {
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
	S3      S3Config
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type S3Config struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UsePathStyle bool
}

type MQConfig struct {
	Backend  string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
	NATS     NATSConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type NATSConfig struct {
	URL  string
	Name string
}

func LoadConfig() Config {
	env := getEnv("ENV", "")
	if env == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "walkgoal"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "walkgoal_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	jwtSecret := strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if jwtSecret == "" && env == "dev" {
		jwtSecret = devJWTSecret
	}

	return Config{
		Env:        env,
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		JWTSecret:  jwtSecret,
		TokenTTL:   getEnvDuration("TOKEN_TTL", 24*time.Hour),
		Store: StoreConfig{
			Driver:      strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
			SQLitePath:  getEnv("SQLITE_PATH", "data/walkgoal.db"),
			AutoMigrate: getEnvBool("AUTO_MIGRATE", false),
		},
		Database: dbConfig,
		App: AppConfig{
			GoalMinutes:     getEnvInt("GOAL_MINUTES", 600),
			StartLocation:   getEnv("START_LOCATION", "Start"),
			EndLocation:     getEnv("END_LOCATION", "Destination"),
			AdminPassword:   getEnv("ADMIN_PASSWORD", "admin"),
			MaxEntryMinutes: getEnvInt("MAX_ENTRY_MINUTES", 300),
			EntryPolicy:     strings.ToLower(getEnv("ENTRY_POLICY", EntryPolicyWhitelist)),
			Timezone:        getEnv("TIMEZONE", "UTC"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendNone)),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "walkgoal"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
			S3: S3Config{
				Region:       getEnv("S3_REGION", "us-east-1"),
				Endpoint:     getEnv("S3_ENDPOINT", ""),
				AccessKey:    getEnv("S3_ACCESS_KEY", ""),
				SecretKey:    getEnv("S3_SECRET_KEY", ""),
				Bucket:       getEnv("S3_BUCKET", ""),
				UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", false),
			},
		},
		MQ: MQConfig{
			Backend: strings.ToLower(getEnv("MQ_BACKEND", BackendNone)),
			Channel: getEnv("MQ_CHANNEL", "walkgoal-events"),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
				PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 0),
			},
			PubSub: PubSubConfig{
				ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
			},
			NATS: NATSConfig{
				URL:  getEnv("NATS_URL", ""),
				Name: getEnv("NATS_CLIENT_NAME", "walkgoal-apiserver"),
			},
		},
	}
}

// Validate reports configuration that would make the server misbehave at runtime.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverSQLite, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.App.EntryPolicy {
	case EntryPolicyWhitelist, EntryPolicyAutoCreate:
	default:
		return fmt.Errorf("unknown entry policy %q", c.App.EntryPolicy)
	}
	switch c.Storage.Backend {
	case "", BackendNone, BackendMinio, BackendGCS, BackendS3:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.MQ.Backend {
	case "", BackendNone, BackendRabbitMQ, BackendPubSub, BackendNATS:
	default:
		return fmt.Errorf("unknown mq backend %q", c.MQ.Backend)
	}
	if c.App.MaxEntryMinutes < 1 {
		return errors.New("MAX_ENTRY_MINUTES must be positive")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.App.Timezone, err)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil || value <= 0 {
			return defaultValue
		}
		return value
	}
	return defaultValue
}
