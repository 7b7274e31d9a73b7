package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlibekovAA/authify/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/authify/backend/internal/common/errors"
)

type AuthConfig struct {
	HTTPPort       string
	DatabaseURL    string
	JWTSecret      string
	AccessTokenTTL time.Duration
	RequestTimeout time.Duration
	BcryptCost     int
	LogDir         string
	LogLevel       string

	// UsingDefaultSecret is set when JWT_SECRET was absent and the
	// built-in development secret is in use.
	UsingDefaultSecret bool
}

// LoadAuthConfig reads the environment, preloading .env when present.
func LoadAuthConfig() (AuthConfig, error) {
	_ = godotenv.Load()

	jwtSecret, usingDefault := secretOrDefault("JWT_SECRET")

	return AuthConfig{
		HTTPPort:           getEnv("BACKEND_PORT", constants.DefaultBackendPort),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          jwtSecret,
		AccessTokenTTL:     getDurationEnv("ACCESS_TOKEN_TTL", constants.DefaultAccessTokenTTL),
		RequestTimeout:     getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout),
		BcryptCost:         getIntEnv("BCRYPT_COST", constants.DefaultBcryptCost),
		LogDir:             getEnv("LOG_DIR", ""),
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
		UsingDefaultSecret: usingDefault,
	}, nil
}

// RequireDatabaseURL is checked by commands that talk to Postgres.
func (c AuthConfig) RequireDatabaseURL() error {
	if c.DatabaseURL == "" {
		return commonerrors.ErrMissingRequiredEnv.WithCause(fmt.Errorf("DATABASE_URL"))
	}
	return nil
}

// WeakSecret reports a secret that is the default or shorter than the HS256 key size.
func (c AuthConfig) WeakSecret() bool {
	return c.UsingDefaultSecret || len(c.JWTSecret) < constants.JWTSecretMinLength
}

func secretOrDefault(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return constants.DefaultJWTSecret, true
	}
	return v, false
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
