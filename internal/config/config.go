package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LLMProvider    string // "openai" (any OpenAI-compatible server) or "gemini"
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float32
	LLMRPMLimit    int // Requests per minute shared by chat and embeddings; 0 is unlimited

	EmbeddingBaseURL string
	EmbeddingModel   string

	VectorBackend     string // "chromem" or "qdrant"
	QdrantURL         string
	VectorSize        int
	CatalogCollection string
	ContentCollection string
	ChromemPath       string // Empty keeps the embedded store in memory

	DBPath          string
	DocsPath        string
	IngestOnStartup bool

	ChunkSize           int
	ChunkOverlap        int
	MaxResults          int
	MaxHistory          int
	CourseMatchMinScore float32

	SessionBackend string // "memory" or "redis"
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SessionTTL     time.Duration

	APIPort   string
	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"llm_provider":           "openai",
	"llm_base_url":           "http://localhost:8080",
	"llm_api_key":            "",
	"llm_model":              "Llama-3.1-8B-Instruct",
	"llm_max_tokens":         800,
	"llm_temperature":        0.0,
	"llm_rpm_limit":          0,
	"embedding_base_url":     "http://localhost:8081",
	"embedding_model":        "granite-embedding-278m-multilingual",
	"vector_backend":         "chromem",
	"qdrant_url":             "http://localhost:6333",
	"qdrant_vector_size":     768,
	"catalog_collection":     "course_catalog",
	"content_collection":     "course_content",
	"chromem_path":           "./data/vectors",
	"db_path":                "./data/courses.db",
	"docs_path":              "../docs",
	"ingest_on_startup":      true,
	"chunk_size":             800,
	"chunk_overlap":          100,
	"max_results":            5,
	"max_history":            10,
	"course_match_min_score": 0.35,
	"session_backend":        "memory",
	"redis_addr":             "localhost:6379",
	"redis_password":         "",
	"redis_db":               0,
	"session_ttl":            "24h",
	"api_port":               "8000",
	"log_level":              "info",
	"log_format":             "text",
}

// Load reads configuration from environment variables and an optional config
// file named by CONFIG_FILE. A .env file in the current directory or a parent
// is loaded first; variables already set take precedence over it, and the
// environment takes precedence over the config file.
func Load() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		LLMProvider:         strings.ToLower(v.GetString("llm_provider")),
		LLMBaseURL:          v.GetString("llm_base_url"),
		LLMAPIKey:           v.GetString("llm_api_key"),
		LLMModel:            v.GetString("llm_model"),
		LLMMaxTokens:        v.GetInt("llm_max_tokens"),
		LLMTemperature:      float32(v.GetFloat64("llm_temperature")),
		LLMRPMLimit:         v.GetInt("llm_rpm_limit"),
		EmbeddingBaseURL:    v.GetString("embedding_base_url"),
		EmbeddingModel:      v.GetString("embedding_model"),
		VectorBackend:       strings.ToLower(v.GetString("vector_backend")),
		QdrantURL:           v.GetString("qdrant_url"),
		VectorSize:          v.GetInt("qdrant_vector_size"),
		CatalogCollection:   v.GetString("catalog_collection"),
		ContentCollection:   v.GetString("content_collection"),
		ChromemPath:         v.GetString("chromem_path"),
		DBPath:              v.GetString("db_path"),
		DocsPath:            v.GetString("docs_path"),
		IngestOnStartup:     v.GetBool("ingest_on_startup"),
		ChunkSize:           v.GetInt("chunk_size"),
		ChunkOverlap:        v.GetInt("chunk_overlap"),
		MaxResults:          v.GetInt("max_results"),
		MaxHistory:          v.GetInt("max_history"),
		CourseMatchMinScore: float32(v.GetFloat64("course_match_min_score")),
		SessionBackend:      strings.ToLower(v.GetString("session_backend")),
		RedisAddr:           v.GetString("redis_addr"),
		RedisPassword:       v.GetString("redis_password"),
		RedisDB:             v.GetInt("redis_db"),
		SessionTTL:          v.GetDuration("session_ttl"),
		APIPort:             v.GetString("api_port"),
		LogLevel:            strings.ToLower(v.GetString("log_level")),
		LogFormat:           strings.ToLower(v.GetString("log_format")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Create the data directory for the registry database
	if dataDir := filepath.Dir(cfg.DBPath); dataDir != "" {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.LLMProvider == "openai" || c.LLMProvider == "gemini", "LLM_PROVIDER must be openai or gemini, got %q", c.LLMProvider)
	check(c.LLMProvider != "gemini" || c.LLMAPIKey != "", "LLM_API_KEY is required for the gemini provider")
	check(c.LLMModel != "", "LLM_MODEL is required")
	check(c.LLMMaxTokens > 0, "LLM_MAX_TOKENS must be greater than 0")
	check(c.LLMRPMLimit >= 0, "LLM_RPM_LIMIT must not be negative")
	check(c.EmbeddingModel != "", "EMBEDDING_MODEL is required")

	check(c.VectorBackend == "chromem" || c.VectorBackend == "qdrant", "VECTOR_BACKEND must be chromem or qdrant, got %q", c.VectorBackend)
	check(c.VectorBackend != "qdrant" || c.VectorSize > 0, "QDRANT_VECTOR_SIZE must be greater than 0 for the qdrant backend")
	check(c.VectorBackend != "qdrant" || c.QdrantURL != "", "QDRANT_URL is required for the qdrant backend")
	check(c.CatalogCollection != "" && c.ContentCollection != "", "CATALOG_COLLECTION and CONTENT_COLLECTION are required")
	check(c.CatalogCollection != c.ContentCollection, "CATALOG_COLLECTION and CONTENT_COLLECTION must differ")

	check(c.ChunkSize > 0, "CHUNK_SIZE must be greater than 0")
	check(c.ChunkOverlap >= 0 && c.ChunkOverlap < c.ChunkSize, "CHUNK_OVERLAP must be at least 0 and less than CHUNK_SIZE")
	check(c.MaxResults > 0, "MAX_RESULTS must be greater than 0")
	check(c.MaxHistory > 0, "MAX_HISTORY must be greater than 0")
	check(c.CourseMatchMinScore >= 0 && c.CourseMatchMinScore <= 1, "COURSE_MATCH_MIN_SCORE must be between 0 and 1")

	check(c.SessionBackend == "memory" || c.SessionBackend == "redis", "SESSION_BACKEND must be memory or redis, got %q", c.SessionBackend)
	check(c.SessionBackend != "redis" || c.RedisAddr != "", "REDIS_ADDR is required for the redis session backend")
	check(c.SessionTTL >= 0, "SESSION_TTL must not be negative")

	check(c.APIPort != "", "API_PORT is required")
	_, levelOK := logLevels[c.LogLevel]
	check(levelOK, "LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	check(c.LogFormat == "text" || c.LogFormat == "json", "LOG_FORMAT must be text or json, got %q", c.LogFormat)

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns LOG_LEVEL as a slog level, info when unset.
func (c *Config) SlogLevel() slog.Level {
	if level, ok := logLevels[c.LogLevel]; ok {
		return level
	}
	return slog.LevelInfo
}

// loadDotEnv loads .env from the working directory or the nearest parent that has one.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
