package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	DBDriver    string
	MySQLDSN    string
	SQLitePath  string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	SwaggerHost string
	AppURL      string
	UploadDir   string

	// UploadMaxSize caps multipart upload bodies, e.g. "5M".
	UploadMaxSize string
	// BodyMaxSize caps every other request body.
	BodyMaxSize string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	// MeetupDateOffset is subtracted from incoming meetup dates before they are stored.
	MeetupDateOffset time.Duration

	AuthRateLimit float64
	AuthRateBurst int

	ResetDB bool
}

// Load builds Config from .env (when present) and the environment with sensible defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: reading .env: %v", err)
	}

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		DBDriver:         getEnv("DB_DRIVER", "mysql"),
		MySQLDSN:         getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/meetapp?charset=utf8mb4&parseTime=True&loc=UTC"),
		SQLitePath:       getEnv("SQLITE_PATH", "meetapp.db"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisPass:        os.Getenv("REDIS_PASSWORD"),
		JWTSecret:        getEnv("JWT_SECRET", "change-me"),
		SwaggerHost:      os.Getenv("SWAGGER_HOST"),
		AppURL:           getEnv("APP_URL", "http://localhost:8080"),
		UploadDir:        getEnv("UPLOAD_DIR", "tmp/uploads"),
		UploadMaxSize:    getEnv("UPLOAD_MAX_SIZE", "5M"),
		BodyMaxSize:      getEnv("BODY_MAX_SIZE", "1M"),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		MailFrom:         getEnv("MAIL_FROM", "Meetapp <noreply@meetapp.com>"),
		MeetupDateOffset: getEnvDuration("MEETUP_DATE_OFFSET", 3*time.Hour),
		AuthRateLimit:    getEnvFloat("AUTH_RATE_LIMIT", 5),
		AuthRateBurst:    getEnvInt("AUTH_RATE_BURST", 10),
		ResetDB:          os.Getenv("RESET_DB") == "true",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
