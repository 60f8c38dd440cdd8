package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseDriver の値
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// ResumeStorage の値
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// defaultConfigFile はCONFIG_FILE未指定時に読み込む環境変数ファイル。
const defaultConfigFile = "config/config.env"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string

	// Database
	DatabaseDriver      string
	MongoURI            string
	MongoDatabase       string
	MongoConnectTimeout time.Duration
	MongoSocketTimeout  time.Duration
	DatabaseURL         string

	// JWT
	JWTSecretKey string
	JWTExpire    time.Duration

	// Cookie
	CookieExpireDays int
	CookieSecure     bool
	CookieDomain     string

	// CORS
	CORSAllowedOrigins []string

	// Resume storage
	ResumeStorage  string
	ResumeLocalDir string
	ResumeBaseURL  string
	ResumeMaxSize  int64
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3PublicURL    string
	S3UsePathStyle bool

	// Rate Limit
	RateLimitGeneral int
	RateLimitAuth    int

	// Logging
	LogLevel string
}

// CookieMaxAge はトークンCookieの有効期間を返す。
func (c *Config) CookieMaxAge() time.Duration {
	return time.Duration(c.CookieExpireDays) * 24 * time.Hour
}

// Load は環境変数からConfigを読み込む。
// CONFIG_FILEのファイルが存在すれば、未設定の変数のみを補う。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := loadEnvFile(getEnvString("CONFIG_FILE", defaultConfigFile)); err != nil {
		return nil, err
	}

	cfg := &Config{}
	var missing []string

	cfg.DatabaseDriver = strings.ToLower(getEnvString("DATABASE_DRIVER", DriverMongo))
	switch cfg.DatabaseDriver {
	case DriverMongo:
		cfg.MongoURI = os.Getenv("MONGO_URI")
		if cfg.MongoURI == "" {
			missing = append(missing, "MONGO_URI")
		}
	case DriverPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER: %q", cfg.DatabaseDriver)
	}

	cfg.JWTSecretKey = os.Getenv("JWT_SECRET_KEY")
	if cfg.JWTSecretKey == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}

	cfg.ResumeStorage = strings.ToLower(getEnvString("RESUME_STORAGE", StorageLocal))
	switch cfg.ResumeStorage {
	case StorageLocal:
	case StorageS3:
		cfg.S3Bucket = os.Getenv("S3_BUCKET")
		if cfg.S3Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
	default:
		return nil, fmt.Errorf("unsupported RESUME_STORAGE: %q", cfg.ResumeStorage)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "4000")
	cfg.MongoDatabase = getEnvString("MONGO_DATABASE", "Mern_Stack_Job_App")
	cfg.MongoConnectTimeout = getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second)
	cfg.MongoSocketTimeout = getEnvDuration("MONGO_SOCKET_TIMEOUT", 45*time.Second)
	cfg.JWTExpire = getEnvDuration("JWT_EXPIRE", 7*24*time.Hour)
	cfg.CookieExpireDays = getEnvInt("COOKIE_EXPIRE_DAYS", 7)
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", false)
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigins = splitList(getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173"))
	cfg.ResumeLocalDir = getEnvString("RESUME_LOCAL_DIR", "./uploads")
	cfg.ResumeBaseURL = getEnvString("RESUME_BASE_URL", "http://localhost:"+cfg.ServerPort+"/uploads")
	cfg.ResumeMaxSize = getEnvInt64("RESUME_MAX_SIZE", 5<<20)
	cfg.S3Region = getEnvString("S3_REGION", "auto")
	cfg.S3Endpoint = getEnvString("S3_ENDPOINT", "")
	cfg.S3AccessKey = getEnvString("S3_ACCESS_KEY_ID", "")
	cfg.S3SecretKey = getEnvString("S3_SECRET_ACCESS_KEY", "")
	cfg.S3PublicURL = getEnvString("S3_PUBLIC_BASE_URL", "")
	cfg.S3UsePathStyle = getEnvBool("S3_USE_PATH_STYLE", false)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 20)
	cfg.LogLevel = strings.ToLower(getEnvString("LOG_LEVEL", "info"))

	return cfg, nil
}

// loadEnvFile はファイルの変数を環境変数に読み込む。既存の値は上書きしない。
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
