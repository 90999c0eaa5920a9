package parsa

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Desarso/parsa/models/gemini"
	"github.com/Desarso/parsa/stores"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds the environment driven configuration of the service.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	HTTPAddr        string        `env:"PARSA_HTTP_ADDR" envDefault:":8080"`
	Environment     string        `env:"PARSA_ENV" envDefault:"development"`
	ShutdownTimeout time.Duration `env:"PARSA_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxUploadBytes  int64         `env:"PARSA_MAX_UPLOAD_BYTES" envDefault:"20971520"`

	LogLevel  string `env:"PARSA_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"PARSA_LOG_FORMAT" envDefault:"console"` // "json" or "console"

	// Transcript archive: "memory", "sqlite" or "postgres"
	StoreType    string `env:"PARSA_STORE_TYPE" envDefault:"sqlite"`
	StoreDSN     string `env:"PARSA_STORE_DSN" envDefault:"parsa_history.sqlite"`
	HistoryLimit int    `env:"PARSA_HISTORY_LIMIT" envDefault:"0"`

	// Generated images: "local" or "minio"
	ImageStore string `env:"PARSA_IMAGE_STORE" envDefault:"local"`
	ImageDir   string `env:"PARSA_IMAGE_DIR" envDefault:"images"`
	ServerHost string `env:"SERVER_HOST" envDefault:"http://localhost:8080"`

	MinioEndpoint  string        `env:"PARSA_MINIO_ENDPOINT" envDefault:"localhost:9000"`
	MinioAccessKey string        `env:"PARSA_MINIO_ACCESS_KEY"`
	MinioSecretKey string        `env:"PARSA_MINIO_SECRET_KEY"`
	MinioUseSSL    bool          `env:"PARSA_MINIO_USE_SSL" envDefault:"false"`
	MinioBucket    string        `env:"PARSA_MINIO_BUCKET" envDefault:"parsa-images"`
	MinioPublicURL string        `env:"PARSA_MINIO_PUBLIC_URL"`
	MinioURLExpiry time.Duration `env:"PARSA_MINIO_URL_EXPIRY" envDefault:"24h"`

	RetentionSchedule string        `env:"PARSA_RETENTION_SCHEDULE" envDefault:"@every 10m"`
	ImageMaxAge       time.Duration `env:"PARSA_IMAGE_MAX_AGE" envDefault:"168h"`
	ConversationIdle  time.Duration `env:"PARSA_CONVERSATION_IDLE" envDefault:"1h"`

	Models gemini.Catalog `envPrefix:"PARSA_MODEL_"`
}

// LoadConfig reads .env files if present, then parses the environment.
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	cfg.Models = cfg.Models.Merge(gemini.DefaultCatalog())
	return cfg, cfg.Validate()
}

// Validate checks the values LoadConfig cannot check through tags alone.
func (c *Config) Validate() error {
	switch c.StoreType {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported PARSA_STORE_TYPE %q", c.StoreType)
	}
	switch c.ImageStore {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported PARSA_IMAGE_STORE %q", c.ImageStore)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("PARSA_MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func loadEnvFiles() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
		}
	}
}

// StoreConfig converts the archive settings for stores.NewStore.
func (c *Config) StoreConfig() *stores.StoreConfig {
	return stores.NewStoreConfig(c.StoreType, c.StoreDSN)
}

// MinioConfig converts the MinIO settings for stores.NewMinioImageStore.
func (c *Config) MinioConfig() stores.MinioConfig {
	return stores.MinioConfig{
		Endpoint:        c.MinioEndpoint,
		AccessKeyID:     c.MinioAccessKey,
		SecretAccessKey: c.MinioSecretKey,
		UseSSL:          c.MinioUseSSL,
		BucketName:      c.MinioBucket,
		PublicBaseURL:   c.MinioPublicURL,
		URLExpiry:       c.MinioURLExpiry,
	}
}

// JanitorConfig converts the retention settings for stores.NewJanitor.
func (c *Config) JanitorConfig() stores.JanitorConfig {
	return stores.JanitorConfig{
		Schedule:         c.RetentionSchedule,
		ImageMaxAge:      c.ImageMaxAge,
		ConversationIdle: c.ConversationIdle,
	}
}

// WithAPIKey sets the Gemini API key
func (c *Config) WithAPIKey(key string) *Config {
	c.GeminiAPIKey = key
	return c
}

// WithAddr sets the HTTP listen address
func (c *Config) WithAddr(addr string) *Config {
	c.HTTPAddr = addr
	return c
}

// WithMemoryStore keeps transcripts in an in-process database
func (c *Config) WithMemoryStore() *Config {
	c.StoreType = "memory"
	c.StoreDSN = ""
	return c
}

// WithSQLiteStore archives transcripts in a SQLite file
func (c *Config) WithSQLiteStore(dbPath string) *Config {
	c.StoreType = "sqlite"
	c.StoreDSN = dbPath
	return c
}

// WithPostgresStore archives transcripts in PostgreSQL
func (c *Config) WithPostgresStore(host, user, password, dbname string, port int) *Config {
	c.StoreType = "postgres"
	c.StoreDSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)
	return c
}

// WithLocalImages stores generated images in dir
func (c *Config) WithLocalImages(dir string) *Config {
	c.ImageStore = "local"
	c.ImageDir = dir
	return c
}

// WithModels overrides model identifiers; empty fields keep their current value
func (c *Config) WithModels(catalog gemini.Catalog) *Config {
	c.Models = catalog.Merge(c.Models)
	return c
}
