package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Admin    AdminConfig
	Email    EmailConfig
	Accounts AccountsConfig
	Waitlist WaitlistConfig
	CORS     CORSConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AdminConfig carries the shared secret protecting admin endpoints. An empty
// secret disables the check entirely (open admin), matching the deployment
// fallback the landing page shipped with.
type AdminConfig struct {
	Secret string
}

// EmailConfig configures the Resend provider. An empty APIKey switches the
// mailer into log-only mode where sends succeed without calling the provider.
type EmailConfig struct {
	APIKey      string
	BaseURL     string
	FromEmail   string
	AdminEmail  string
	LandingURL  string
	SendTimeout time.Duration
}

// AccountsConfig points at the external identity admin API used by the
// sync-joined reconciliation sweep.
type AccountsConfig struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// WaitlistConfig tunes invitation lifecycle behaviour.
type WaitlistConfig struct {
	InviteTTL     time.Duration
	SendDelay     time.Duration
	CountBase     int
	CountCacheTTL time.Duration
	CacheEnabled  bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Admin = AdminConfig{Secret: v.GetString("WAITLIST_ADMIN_SECRET")}

	cfg.Email = EmailConfig{
		APIKey:      v.GetString("RESEND_API_KEY"),
		BaseURL:     v.GetString("RESEND_BASE_URL"),
		FromEmail:   v.GetString("FROM_EMAIL"),
		AdminEmail:  v.GetString("ADMIN_NOTIFY_EMAIL"),
		LandingURL:  v.GetString("SITE_URL"),
		SendTimeout: parseDuration(v.GetString("EMAIL_SEND_TIMEOUT"), 10*time.Second),
	}

	cfg.Accounts = AccountsConfig{
		BaseURL:    v.GetString("ACCOUNTS_API_URL"),
		ServiceKey: v.GetString("ACCOUNTS_SERVICE_KEY"),
		Timeout:    parseDuration(v.GetString("ACCOUNTS_TIMEOUT"), 10*time.Second),
	}

	cfg.Waitlist = WaitlistConfig{
		InviteTTL:     parseDuration(v.GetString("INVITE_TTL"), 7*24*time.Hour),
		SendDelay:     parseDuration(v.GetString("EMAIL_SEND_DELAY"), 600*time.Millisecond),
		CountBase:     v.GetInt("COUNT_BASE"),
		CountCacheTTL: parseDuration(v.GetString("COUNT_CACHE_TTL"), time.Minute),
		CacheEnabled:  v.GetBool("ENABLE_COUNT_CACHE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "planewx_landing")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("WAITLIST_ADMIN_SECRET", "")

	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("RESEND_BASE_URL", "https://api.resend.com")
	v.SetDefault("FROM_EMAIL", "PlaneWX <hello@planewx.ai>")
	v.SetDefault("ADMIN_NOTIFY_EMAIL", "")
	v.SetDefault("SITE_URL", "https://planewx-landing.vercel.app")
	v.SetDefault("EMAIL_SEND_TIMEOUT", "10s")

	v.SetDefault("ACCOUNTS_API_URL", "")
	v.SetDefault("ACCOUNTS_SERVICE_KEY", "")
	v.SetDefault("ACCOUNTS_TIMEOUT", "10s")

	v.SetDefault("INVITE_TTL", "168h")
	v.SetDefault("EMAIL_SEND_DELAY", "600ms")
	v.SetDefault("COUNT_BASE", 50)
	v.SetDefault("COUNT_CACHE_TTL", "1m")
	v.SetDefault("ENABLE_COUNT_CACHE", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
