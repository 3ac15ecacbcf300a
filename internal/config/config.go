package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application settings. Services receive the relevant
// sections at construction time; nothing reads the environment directly.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Email    EmailConfig
	OTP      OTPConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings for rate limiting.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig holds access token settings for the sign-in endpoint.
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// EmailConfig holds delivery provider settings.
type EmailConfig struct {
	// ResendAPIKey enables delivery through Resend. Empty means no
	// provider is configured.
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
	// TestMode returns generated codes in the issuance response instead
	// of dispatching them. Opt-in for environments without a provider;
	// refused when ResendAPIKey is set.
	TestMode bool `mapstructure:"test_mode"`
}

// OTPConfig holds verification code settings.
type OTPConfig struct {
	// CodeTTLMinutes is the validity window of an issued code.
	CodeTTLMinutes int `mapstructure:"code_ttl_minutes"`
}

// CodeTTL returns the configured code lifetime.
func (o *OTPConfig) CodeTTL() time.Duration {
	if o.CodeTTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(o.CodeTTLMinutes) * time.Minute
}

// PostgresConnectionString builds the PostgreSQL DSN.
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from the given file, with explicit environment
// variable bindings taking precedence.
func Load(configPath string) (*Config, error) {
	vip := viper.New()

	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.readtimeout", "SERVER_READTIMEOUT")
	vip.BindEnv("server.writetimeout", "SERVER_WRITETIMEOUT")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")
	vip.BindEnv("email.test_mode", "EMAIL_TEST_MODE")

	vip.BindEnv("otp.code_ttl_minutes", "OTP_CODE_TTL_MINUTES")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Config file '%s' not found, relying on environment variables/defaults.", configPath)
			} else {
				log.Printf("Warning: failed to read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}

	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required (check JWT_SECRET env var)")
	}

	// Test mode discloses raw codes to callers, which defeats the mailbox
	// ownership proof. It is only a fallback for environments without a
	// delivery provider and can never coexist with one.
	if cfg.Email.TestMode && cfg.Email.ResendAPIKey != "" {
		return nil, fmt.Errorf("email.test_mode cannot be enabled while a Resend API key is configured")
	}
	if !cfg.Email.TestMode && cfg.Email.ResendAPIKey == "" {
		return nil, fmt.Errorf("either a Resend API key or explicit email.test_mode is required (check RESEND_API_KEY, EMAIL_TEST_MODE env vars)")
	}
	if cfg.Email.ResendAPIKey != "" && cfg.Email.From == "" {
		return nil, fmt.Errorf("email from address is required when Resend is configured (check EMAIL_FROM env var)")
	}

	return &cfg, nil
}
