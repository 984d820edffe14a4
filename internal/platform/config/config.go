package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	// DevJWTSecret is only acceptable outside production.
	DevJWTSecret = "devsecret"
)

type Config struct {
	AppEnv  string
	APIPort string

	JWTKey            []byte
	JWTExp            time.Duration
	AccessCookieName  string
	AllowRoleOnSignup bool
	FrontendOrigin    string

	StorageDriver string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSslMode     string
	DBConnStr     string
	DBAutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthRateLimit  int
	AuthRateWindow time.Duration

	LogLevel string
	LogJSON  bool
}

var AppConfig *Config

// Load reads envFiles (".env" when none are given) and then the process
// environment into AppConfig.
func Load(envFiles ...string) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	AppConfig = FromEnv()
}

// FromEnv builds a Config from the current environment without touching
// AppConfig.
func FromEnv() *Config {
	cfg := &Config{
		AppEnv:            strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		APIPort:           getEnv("API_PORT", "8080"),
		JWTKey:            []byte(getEnv("JWT_SECRET", DevJWTSecret)),
		JWTExp:            getEnvAsDuration("JWT_EXPIRES_IN", 24*time.Hour),
		AccessCookieName:  getEnv("ACCESS_COOKIE_NAME", "access_token"),
		AllowRoleOnSignup: getEnvAsBool("ALLOW_ROLE_ON_SIGNUP", false),
		FrontendOrigin:    getEnv("FRONTEND_ORIGIN", getEnv("FRONTEND_URL", "http://localhost:5173")),
		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "user"),
		DBPassword:        getEnv("DB_PASSWORD", "password"),
		DBName:            getEnv("DB_NAME", "taskboard"),
		DBSslMode:         getEnv("DB_SSLMODE", "disable"),
		DBAutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		AuthRateLimit:     getEnvAsInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:    getEnvAsDuration("AUTH_RATE_WINDOW", time.Minute),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogJSON:           getEnvAsBool("LOG_JSON", false),
	}

	cfg.DBConnStr = getEnv("DATABASE_URL", "")
	if cfg.DBConnStr == "" {
		cfg.DBConnStr = "host=" + cfg.DBHost +
			" port=" + cfg.DBPort +
			" user=" + cfg.DBUser +
			" password=" + cfg.DBPassword +
			" dbname=" + cfg.DBName +
			" sslmode=" + cfg.DBSslMode
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Debug reports whether error responses may carry internal detail.
func (c *Config) Debug() bool {
	return c.AppEnv == EnvDevelopment
}

// Validate rejects settings that are unsafe or unusable.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTKey) == 0 {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.IsProduction() && string(c.JWTKey) == DevJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.JWTExp <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.AccessCookieName == "" {
		errs = append(errs, errors.New("ACCESS_COOKIE_NAME must not be empty"))
	}
	switch c.StorageDriver {
	case StorageMemory, StoragePostgres:
	default:
		errs = append(errs, errors.New("STORAGE_DRIVER must be one of postgres, memory"))
	}
	switch c.AppEnv {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, errors.New("APP_ENV must be one of development, production, test"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90m", "24h") and whole days ("1d").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	if d, ok := parseDays(valueStr); ok {
		return d
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func parseDays(s string) (time.Duration, bool) {
	if !strings.HasSuffix(s, "d") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return time.Duration(n) * 24 * time.Hour, true
}
