package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"ragcore"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"ragcore"`

	DBMaxOpenConns int `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	DBMaxIdleConns int `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-004"`
	LLMModel       string `envconfig:"LLM_MODEL" default:"gemini-2.5-flash"`

	// Retrieval defaults applied when a request omits them.
	RAGTopK           int     `envconfig:"RAG_TOP_K" default:"3"`
	RAGScoreThreshold float64 `envconfig:"RAG_SCORE_THRESHOLD" default:"0.10"`
	RAGChunkSize      int     `envconfig:"RAG_CHUNK_SIZE" default:"1000"`
	RAGChunkOverlap   int     `envconfig:"RAG_CHUNK_OVERLAP" default:"200"`

	ProviderTimeoutSeconds int `envconfig:"PROVIDER_TIMEOUT_SECONDS" default:"60"`

	EnableReingestWorker bool   `envconfig:"ENABLE_REINGEST_WORKER" default:"false"`
	MigrationPath        string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	ServerPort   int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Try loading .env from current dir and repo root.
	// Ignore errors, as env vars might be set in the shell.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.RAGChunkSize <= 0 || c.RAGChunkOverlap < 0 || c.RAGChunkOverlap >= c.RAGChunkSize {
		return fmt.Errorf("RAG_CHUNK_OVERLAP must be non-negative and smaller than RAG_CHUNK_SIZE")
	}
	if c.RAGTopK < 1 {
		return fmt.Errorf("RAG_TOP_K must be at least 1")
	}
	if c.RAGScoreThreshold < 0 || c.RAGScoreThreshold > 1 {
		return fmt.Errorf("RAG_SCORE_THRESHOLD must be within [0,1]")
	}
	return nil
}
