package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Dan9191/rental-yield/internal/models"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	Port          string
	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxAgeDays int

	StorageDriver string
	DBConn        string
	CacheTTL      time.Duration

	JWTSecret          string
	BrokerUsername     string
	BrokerPasswordHash string

	BCChURL       string
	BCChUser      string
	BCChPassword  string
	SIIURL        string
	UFRateTTL     time.Duration
	UFRefreshSpec string

	WebhookURL    string
	WebhookSecret string
	WebhookRPS    float64

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	ReviewEmail  string

	PlansFile string
	Plans     []models.PlanSettings
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		LogFile:       getEnv("LOG_FILE", ""),
		StorageDriver: getEnv("STORAGE_DRIVER", StorageMemory),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=rental sslmode=disable"),

		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		BrokerUsername:     getEnv("BROKER_USERNAME", "broker"),
		BrokerPasswordHash: getEnv("BROKER_PASSWORD_HASH", ""),

		BCChURL:       getEnv("BCCH_URL", "https://si3.bcentral.cl/SieteWS/SieteWS.asmx"),
		BCChUser:      getEnv("BCCH_USER", ""),
		BCChPassword:  getEnv("BCCH_PASSWORD", ""),
		SIIURL:        getEnv("SII_UF_URL", "https://www.sii.cl/valores_y_fechas/uf/uf%d.htm"),
		UFRefreshSpec: getEnv("UF_REFRESH_SPEC", "@every 1h"),

		WebhookURL:    getEnv("WEBHOOK_URL", ""),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "no-reply@rental-yield.local"),
		ReviewEmail:  getEnv("REVIEW_EMAIL", ""),

		PlansFile: getEnv("PLANS_FILE", ""),
	}

	var err error
	if cfg.LogMaxAgeDays, err = getEnvInt("LOG_MAX_AGE_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getEnvDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.UFRateTTL, err = getEnvDuration("UF_RATE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.WebhookRPS, err = getEnvFloat("WEBHOOK_RPS", 1); err != nil {
		return nil, err
	}

	if cfg.StorageDriver != StorageMemory && cfg.StorageDriver != StoragePostgres {
		return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMemory, StoragePostgres, cfg.StorageDriver)
	}
	if cfg.StorageDriver == StoragePostgres && cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.WebhookRPS <= 0 {
		return nil, fmt.Errorf("WEBHOOK_RPS must be positive")
	}

	cfg.Plans, err = LoadPlans(cfg.PlansFile)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// EmailEnabled reports whether proposal emails can be sent
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.ReviewEmail != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return v, nil
}
