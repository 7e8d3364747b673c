package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/norsebooks/norsebooks/internal/flagx"
)

const envPrefix = "NORSEBOOKS_"

// loadDotEnv seeds the process environment from the file named by -env, or
// from ./.env when present. Variables already set in the environment win.
func loadDotEnv() {
	path := flagx.EnvFileFlags()
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return
		}
		panic(err)
	}
}

// parseEnv overlays NORSEBOOKS_* variables onto config. Malformed numbers or
// durations panic, same as a malformed config file.
func parseEnv(config *Config) {
	envString(&config.Env, "ENV")
	envString(&config.HTTPAddr, "HTTP_ADDR")
	envString(&config.PublicURL, "PUBLIC_URL")
	envString(&config.AllowedOrigins, "ALLOWED_ORIGINS")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envInt(&config.DatabaseMaxConns, "DATABASE_MAX_CONNS")
	envInt(&config.BcryptCost, "BCRYPT_COST")
	envDuration(&config.SessionTimeout, "SESSION_TIMEOUT")
	envDuration(&config.VerifyTimeout, "VERIFY_TIMEOUT")
	envDuration(&config.PasswordResetTimeout, "PASSWORD_RESET_TIMEOUT")
	envDuration(&config.ReportCooldown, "REPORT_COOLDOWN")
	envDuration(&config.FeedbackCooldown, "FEEDBACK_COOLDOWN")
	envString(&config.EmailSuffix, "EMAIL_SUFFIX")
	envString(&config.SMTPHost, "SMTP_HOST")
	envInt(&config.SMTPPort, "SMTP_PORT")
	envString(&config.SMTPUser, "SMTP_USER")
	envString(&config.SMTPPassword, "SMTP_PASSWORD")
	envString(&config.MailFrom, "MAIL_FROM")
	envString(&config.FeedbackAddress, "FEEDBACK_ADDRESS")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.S3PublicURL, "S3_PUBLIC_URL")
	envString(&config.RedisURL, "REDIS_URL")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
