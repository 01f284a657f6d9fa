package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddress     string
	DatabaseURL     string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string

	PasswordHasher string
	BcryptCost     int

	AllowedOrigins   []string
	AllowCredentials bool

	LogLevel        string
	ShutdownTimeout time.Duration
}

const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

var required = []string{
	"DATABASE_URL",
	"JWT_SECRET",
}

func Load() (*Config, error) {
	// .env is optional and never overrides variables already set.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("JWT_ISSUER", "session-service")
	v.SetDefault("PASSWORD_HASHER", HasherBcrypt)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("ALLOW_CREDENTIALS", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "5s")

	v.AutomaticEnv()
	for _, key := range required {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	for _, key := range required {
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("%s is not set", key)
		}
	}

	cfg := &Config{
		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		AccessTokenTTL:   v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  v.GetDuration("REFRESH_TOKEN_TTL"),
		Issuer:           v.GetString("JWT_ISSUER"),
		PasswordHasher:   strings.ToLower(v.GetString("PASSWORD_HASHER")),
		BcryptCost:       v.GetInt("BCRYPT_COST"),
		AllowedOrigins:   splitList(v.GetString("ALLOWED_ORIGINS")),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		ShutdownTimeout:  v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return fmt.Errorf("ACCESS_TOKEN_TTL (%s) must be shorter than REFRESH_TOKEN_TTL (%s)",
			c.AccessTokenTTL, c.RefreshTokenTTL)
	}
	switch c.PasswordHasher {
	case HasherBcrypt, HasherArgon2id:
	default:
		return fmt.Errorf("unknown PASSWORD_HASHER %q", c.PasswordHasher)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
