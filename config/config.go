package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
	DriverS3     = "s3"
)

// Config holds every setting the service reads from the environment.
type Config struct {
	Environment string
	ServerPort  string

	StoreDriver string
	MongoURI    string
	MongoDBName string

	BlobDriver        string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AMQPURL      string
	AMQPExchange string

	CORSOrigins []string

	LogFile  string
	LogLevel string

	JWTSecret          string
	AdminSessionTTL    time.Duration
	AdminMaxAttempts   int
	AdminAttemptWindow time.Duration
	// AdminPassword1 and AdminPassword2 seed the credentials document when
	// it does not exist yet.
	AdminPassword1 string
	AdminPassword2 string
}

// Load reads the optional .env file and then the process environment.
// A missing .env file is not an error; variables already set win.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  os.Getenv("SERVER_PORT"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		MongoURI:    strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDBName: strings.TrimSpace(os.Getenv("MONGO_DB_NAME")),

		BlobDriver:        strings.ToLower(getEnv("BLOB_DRIVER", DriverS3)),
		S3Bucket:          strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:          strings.TrimSpace(os.Getenv("S3_REGION")),
		S3Endpoint:        strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3AccessKeyID:     strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
		S3SecretAccessKey: strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
		S3PublicBaseURL:   strings.TrimRight(strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")), "/"),

		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AMQPURL:      strings.TrimSpace(os.Getenv("AMQP_URL")),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ideahub.events"),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		LogFile:  getEnv("LOG_FILE", "logs/projects.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		AdminSessionTTL:    getEnvDuration("ADMIN_SESSION_TTL", 2*time.Hour),
		AdminMaxAttempts:   getEnvInt("ADMIN_MAX_ATTEMPTS", 5),
		AdminAttemptWindow: getEnvDuration("ADMIN_ATTEMPT_WINDOW", 15*time.Minute),
		AdminPassword1:     os.Getenv("ADMIN_PASSWORD_1"),
		AdminPassword2:     os.Getenv("ADMIN_PASSWORD_2"),
	}

	return cfg
}

// Missing returns the names of required variables that are not set.
func (c *Config) Missing() []string {
	var missing []string
	require := func(key, value string) {
		if value == "" {
			missing = append(missing, key)
		}
	}

	require("SERVER_PORT", c.ServerPort)
	require("JWT_SECRET", c.JWTSecret)
	if c.StoreDriver == DriverMongo {
		require("MONGO_URI", c.MongoURI)
		require("MONGO_DB_NAME", c.MongoDBName)
	}
	if c.BlobDriver == DriverS3 {
		require("S3_BUCKET", c.S3Bucket)
		require("S3_REGION", c.S3Region)
	}
	return missing
}

// Validate reports every missing variable and unknown driver at once.
func (c *Config) Validate() error {
	if missing := c.Missing(); len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	switch c.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.BlobDriver {
	case DriverS3, DriverMemory:
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.BlobDriver)
	}
	if c.AdminMaxAttempts < 1 {
		return fmt.Errorf("ADMIN_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
