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
	JWT      JWTConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Geofence GeofenceConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
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

type JWTConfig struct {
	SecretKey       string
	ExpirationHours int
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type StripeConfig struct {
	SecretKey string
	BaseURL   string
	Currency  string
}

// GeofenceConfig carries the ad-serving policy knobs. The defaults mirror the
// production values: 1 mile geofence, 3 m trigger radius, 180 views bought
// per credit, one geofence lookup per device-hour, one ad creation per owner
// per 15 minutes.
type GeofenceConfig struct {
	DefaultRadiusMeters     float64
	TriggerRadiusMeters     float64
	ViewsPerCredit          int64
	EntryWindowMinutes      int
	EntryMaxRequests        int
	AdCreationWindowMinutes int
	AdCreationMaxRequests   int
	EventRetentionDays      int
	CreditExpiryMonths      int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Geofence Ads API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "geofence_ads"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", ""),
			ExpirationHours: getEnvInt("JWT_EXPIRATION_HOURS", 24),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			BaseURL:   getEnv("STRIPE_BASE_URL", "https://api.stripe.com/v1"),
			Currency:  getEnv("PAYMENT_CURRENCY", "USD"),
		},
		Geofence: GeofenceConfig{
			DefaultRadiusMeters:     getEnvFloat("GEOFENCE_RADIUS_METERS", 1609),
			TriggerRadiusMeters:     getEnvFloat("TRIGGER_RADIUS_METERS", 3),
			ViewsPerCredit:          int64(getEnvInt("VIEWS_PER_CREDIT", 180)),
			EntryWindowMinutes:      getEnvInt("GEOFENCE_ENTRY_WINDOW_MINUTES", 60),
			EntryMaxRequests:        getEnvInt("GEOFENCE_ENTRY_MAX_REQUESTS", 1),
			AdCreationWindowMinutes: getEnvInt("AD_CREATION_WINDOW_MINUTES", 15),
			AdCreationMaxRequests:   getEnvInt("AD_CREATION_MAX_REQUESTS", 1),
			EventRetentionDays:      getEnvInt("EVENT_RETENTION_DAYS", 30),
			CreditExpiryMonths:      getEnvInt("CREDIT_EXPIRY_MONTHS", 12),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

// EntryWindow is the geofence-entry rate-limit window as a duration.
func (g GeofenceConfig) EntryWindow() time.Duration {
	return time.Duration(g.EntryWindowMinutes) * time.Minute
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}

	return defaultVal
}
