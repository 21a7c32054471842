package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppEnv          string
	AppPort         string
	LogLevel        string
	DBDSN           string
	JWTSecret       string
	JWTExpiresMin   int
	FrontendBaseURL string
	CORSOrigins     string
	UploadDir       string
	MaxResumeMB     int
	BodyLimitMB     int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Mail MailConfig

	GoogleClientID string
	GoogleSecret   string
	GoogleRedirect string
}

// MailConfig selects and configures the outbound mail transport.
// Service is one of "log", "smtp" or "gmail".
type MailConfig struct {
	Service         string
	From            string
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPassword    string
	CredentialsFile string
	TokenFile       string
}

func Load() Config {
	return Config{
		AppEnv:          get("APP_ENV", "development"),
		AppPort:         get("APP_PORT", "8080"),
		LogLevel:        get("LOG_LEVEL", "info"),
		DBDSN:           must("DB_DSN"),
		JWTSecret:       must("JWT_SECRET"),
		JWTExpiresMin:   getInt("JWT_EXPIRES_MIN", 43200),
		FrontendBaseURL: strings.TrimRight(get("FRONTEND_BASE_URL", "http://localhost:5173"), "/"),
		CORSOrigins:     get("CORS_ORIGINS", "http://localhost:5173, http://127.0.0.1:5173"),
		UploadDir:       get("UPLOAD_DIR", "./uploads"),
		MaxResumeMB:     getInt("MAX_RESUME_MB", 5),
		BodyLimitMB:     getInt("BODY_LIMIT_MB", 10),

		RedisAddr:     get("REDIS_ADDR", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		Mail: MailConfig{
			Service:         strings.ToLower(get("EMAIL_SERVICE", "log")),
			From:            get("EMAIL_FROM", "noreply@jobshare.com"),
			SMTPHost:        get("SMTP_HOST", ""),
			SMTPPort:        getInt("SMTP_PORT", 587),
			SMTPUser:        get("SMTP_USER", ""),
			SMTPPassword:    get("SMTP_PASSWORD", ""),
			CredentialsFile: get("GMAIL_CREDENTIALS_FILE", "credentials.json"),
			TokenFile:       get("GMAIL_TOKEN_FILE", "token.json"),
		},

		GoogleClientID: get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:   get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect: get("GOOGLE_REDIRECT_URL", ""),
	}
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getInt(k string, def int) int {
	n, err := strconv.Atoi(get(k, ""))
	if err != nil {
		return def
	}
	return n
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
