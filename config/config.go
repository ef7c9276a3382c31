package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Legacy    LegacyConfig
	Blob      BlobConfig
	Upload    UploadConfig
	Email     EmailConfig
	Log       LogConfig
	Dev       DevConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// AuthConfig holds the admin dashboard credentials and the session
// signing material. Viewer credentials are optional; an empty viewer
// username disables the viewer role.
type AuthConfig struct {
	AdminUsername  string
	AdminPassword  string
	ViewerUsername string
	ViewerPassword string
	SessionSecret  string
	SessionExpiry  time.Duration
	BearerToken    string
}

// LegacyConfig covers the spreadsheet-era integration endpoints.
// Token and path guard the read endpoint, UploadKey guards the
// legacy upload endpoint.
type LegacyConfig struct {
	Token     string
	Path      string
	UploadKey string
}

type BlobConfig struct {
	UseS3           bool
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	BaseURL         string
	LocalPath       string
}

// UploadConfig bounds incoming CV files. The accepted type set is
// fixed (pdf, doc, docx) and lives with the storage code.
type UploadConfig struct {
	MaxSize int64
}

type EmailConfig struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	From         string
	NotifyTo     string
}

type LogConfig struct {
	Level  string
	Format string
}

type DevConfig struct {
	AutoMigrate bool
	SeedData    bool
}

type CORSConfig struct {
	Origins     []string
	Credentials bool
}

type RateLimitConfig struct {
	Requests int
	Window   int
}

var Cfg *Config

func Load() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", ""),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "sqlite"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "password"),
			Name:       getEnv("DB_NAME", "recruitment_portal"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "./data/database.db"),
		},
		Auth: AuthConfig{
			AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
			ViewerUsername: getEnv("VIEWER_USERNAME", ""),
			ViewerPassword: getEnv("VIEWER_PASSWORD", ""),
			SessionSecret:  getEnv("SESSION_SECRET", "dev-secret"),
			SessionExpiry:  parseDuration(getEnv("SESSION_EXPIRY", "24h")),
			BearerToken:    getEnv("API_BEARER_TOKEN", ""),
		},
		Legacy: LegacyConfig{
			Token:     getEnv("LEGACY_TOKEN", ""),
			Path:      getEnv("LEGACY_PATH", ""),
			UploadKey: getEnv("LEGACY_UPLOAD_KEY", ""),
		},
		Blob: BlobConfig{
			UseS3:           parseBool(getEnv("USE_S3", "false")),
			Region:          getEnv("AWS_REGION", "eu-central-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("S3_BUCKET", ""),
			BaseURL:         getEnv("BLOB_BASE_URL", ""),
			LocalPath:       getEnv("BLOB_LOCAL_PATH", "./storage/cvs"),
		},
		Upload: UploadConfig{
			MaxSize: parseInt64(getEnv("MAX_UPLOAD_SIZE", "10485760")),
		},
		Email: EmailConfig{
			Enabled:      parseBool(getEnv("EMAIL_ENABLED", "false")),
			SMTPHost:     getEnv("SMTP_HOST", "localhost"),
			SMTPPort:     parseInt(getEnv("SMTP_PORT", "1025")),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("EMAIL_FROM", "noreply@recruitment-portal.local"),
			NotifyTo:     getEnv("EMAIL_NOTIFY_TO", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Dev: DevConfig{
			AutoMigrate: parseBool(getEnv("AUTO_MIGRATE", "true")),
			SeedData:    parseBool(getEnv("SEED_DATA", "false")),
		},
		CORS: CORSConfig{
			Origins:     strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
			Credentials: parseBool(getEnv("CORS_CREDENTIALS", "true")),
		},
		RateLimit: RateLimitConfig{
			Requests: parseInt(getEnv("RATE_LIMIT_REQUESTS", "5")),
			Window:   parseInt(getEnv("RATE_LIMIT_WINDOW", "60")),
		},
	}

	Cfg = cfg
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func parseInt64(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return i
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Hour
	}
	return d
}

func (c *Config) GetDSN() string {
	switch c.Database.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Host,
			c.Database.Port,
			c.Database.User,
			c.Database.Password,
			c.Database.Name,
			c.Database.SSLMode,
		)
	case "sqlite":
		return c.Database.SQLitePath
	default:
		return c.Database.SQLitePath
	}
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}
