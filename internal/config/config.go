package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Catalog  CatalogConfig
	Loader   LoaderConfig
	Audio    AudioConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CatalogConfig struct {
	Path            string // optional JSON catalog file, built-in defaults otherwise
	DefaultLanguage string
}

type LoaderConfig struct {
	ModelsDir      string
	Device         string // "auto", "cpu" or "gpu"
	PiperBin       string
	WhisperBaseURL string
	WhisperAPIKey  string
	MMSBaseURL     string
}

type AudioConfig struct {
	TempDir     string // where uploads and synthesized audio live
	DataDir     string // per-language sentence files
	URLPrefix   string // public path under which TempDir is served
	ArtifactTTL time.Duration
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 5000)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	ttlMinutes, err := getEnvInt("ARTIFACT_TTL_MINUTES", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid ARTIFACT_TTL_MINUTES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: maxConns,
			MinConns: minConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Catalog: CatalogConfig{
			Path:            getEnv("LANGUAGES_CONFIG", ""),
			DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),
		},
		Loader: LoaderConfig{
			ModelsDir:      getEnv("MODELS_DIR", "models"),
			Device:         getEnv("MODEL_DEVICE", "auto"),
			PiperBin:       getEnv("PIPER_BIN", "piper"),
			WhisperBaseURL: getEnv("ASR_BASE_URL", "http://localhost:8178/v1"),
			WhisperAPIKey:  getEnv("ASR_API_KEY", ""),
			MMSBaseURL:     getEnv("MMS_BASE_URL", "http://localhost:8179"),
		},
		Audio: AudioConfig{
			TempDir:     getEnv("TEMP_AUDIO_DIR", "static/temp_audio"),
			DataDir:     getEnv("LANGUAGE_DATA_DIR", "languages"),
			URLPrefix:   getEnv("TEMP_AUDIO_URL_PREFIX", "/static/temp_audio"),
			ArtifactTTL: time.Duration(ttlMinutes) * time.Minute,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values that would otherwise be misread far from where they
// were set.
func (c *Config) Validate() error {
	switch c.Loader.Device {
	case "auto", "cpu", "gpu", "cuda":
	default:
		return fmt.Errorf("MODEL_DEVICE must be auto, cpu or gpu, got %q", c.Loader.Device)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}
	if c.Audio.ArtifactTTL <= 0 {
		return fmt.Errorf("ARTIFACT_TTL_MINUTES must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
