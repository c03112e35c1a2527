package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration

	CodeTTL       time.Duration
	SendCooldown  time.Duration
	DailySendMax  int
	CodeAlphabet  string
	CodeLength    int

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	// NotifyChannel selects the code-dispatch backend: "email" or "sms".
	NotifyChannel    string
	NotifyMaxRetries int
	NotifyBackoff    time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	AuthKV string
	Users  string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			AuthKV: getEnv("DYNAMO_TABLE_AUTH_KV", "auth_kv"),
			Users:  getEnv("DYNAMO_TABLE_USERS", "users"),
		},

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		AccessTokenTTL:    getEnvDur("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL:   getEnvDur("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		CodeTTL:      getEnvDur("VERIFICATION_CODE_TTL", 5*time.Minute),
		SendCooldown: getEnvDur("SEND_COOLDOWN", 60*time.Second),
		DailySendMax: getEnvInt("DAILY_SEND_MAX", 10),
		CodeAlphabet: getEnv("CODE_ALPHABET", "0123456789"),
		CodeLength:   getEnvInt("CODE_LENGTH", 6),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		NotifyChannel:    getEnv("NOTIFY_CHANNEL", "email"),
		NotifyMaxRetries: getEnvInt("NOTIFY_MAX_RETRIES", 2),
		NotifyBackoff:    getEnvDur("NOTIFY_BACKOFF", 200*time.Millisecond),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
