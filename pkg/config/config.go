package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Exposure ExposureConfig
	Scoring  ScoringConfig
	Ingest   IngestConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
	// Shared secret for /internal routes. Empty disables the guard.
	InternalAPIKey string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig backs the shared exposure-cache tier. An empty host disables
// the external tier entirely; the in-process tier still works.
type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type ExposureConfig struct {
	PopularityWeight   float64
	StrategicWeight    float64
	CategoryCap        int
	ColdThreshold      float64
	StockThreshold     int
	FreshnessThreshold float64
	CacheTTL           time.Duration
}

type ScoringConfig struct {
	WindowDays        int
	HalfLifeDays      float64
	FreshnessHalfLife float64
	// Interval between automatic scoring runs. Zero disables the ticker.
	Interval time.Duration
}

type IngestConfig struct {
	BufferCapacity int
	DedupCapacity  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:           getEnv("APP_NAME", "Rate View Exposure Engine"),
			Version:        getEnv("APP_VERSION", "1.0.0"),
			Environment:    getEnv("APP_ENV", "development"),
			InternalAPIKey: getEnv("INTERNAL_API_KEY", ""),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "rateview"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", ""),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		Exposure: ExposureConfig{
			PopularityWeight:   getEnvFloat("EXPOSURE_POPULARITY_WEIGHT", 0.7),
			StrategicWeight:    getEnvFloat("EXPOSURE_STRATEGIC_WEIGHT", 0.3),
			CategoryCap:        getEnvInt("EXPOSURE_CATEGORY_CAP", 3),
			ColdThreshold:      getEnvFloat("EXPOSURE_COLD_THRESHOLD", 0.6),
			StockThreshold:     getEnvInt("EXPOSURE_STOCK_THRESHOLD", 15),
			FreshnessThreshold: getEnvFloat("EXPOSURE_FRESHNESS_THRESHOLD", 0.7),
			CacheTTL:           time.Duration(getEnvInt("EXPOSURE_CACHE_TTL", 600)) * time.Second,
		},
		Scoring: ScoringConfig{
			WindowDays:        getEnvInt("SCORING_WINDOW_DAYS", 14),
			HalfLifeDays:      getEnvFloat("SCORING_HALF_LIFE_DAYS", 3.0),
			FreshnessHalfLife: getEnvFloat("SCORING_FRESHNESS_HALF_LIFE", 1.5),
			Interval:          time.Duration(getEnvInt("SCORING_INTERVAL_SECONDS", 0)) * time.Second,
		},
		Ingest: IngestConfig{
			BufferCapacity: getEnvInt("INGEST_BUFFER_CAPACITY", 50000),
			DedupCapacity:  getEnvInt("INGEST_DEDUP_CAPACITY", 10000),
		},
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Exposure.CategoryCap < 0 {
		return nil, errors.New("EXPOSURE_CATEGORY_CAP must not be negative")
	}

	if cfg.Scoring.WindowDays <= 0 {
		return nil, errors.New("SCORING_WINDOW_DAYS must be positive")
	}

	return cfg, nil
}

// WeightSum reports the combined exposure weights. The engine does not
// enforce that they sum to 1.0; callers may want to warn when they don't.
func (c *Config) WeightSum() float64 {
	return c.Exposure.PopularityWeight + c.Exposure.StrategicWeight
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}

	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}

	return defaultVal
}
