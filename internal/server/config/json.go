package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/norsebooks/norsebooks/internal/flagx"
	"github.com/norsebooks/norsebooks/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "1h" and integer nanoseconds are accepted. Absent
// or zero fields leave the current value untouched.
type JsonConfig struct {
	Env                  string         `json:"env"`
	HTTPAddr             string         `json:"http_addr"`
	PublicURL            string         `json:"public_url"`
	AllowedOrigins       string         `json:"allowed_origins"`
	DatabaseDSN          string         `json:"database_dsn"`
	DatabaseMaxConns     int            `json:"database_max_conns"`
	BcryptCost           int            `json:"bcrypt_cost"`
	SessionTimeout       timex.Duration `json:"session_timeout"`
	VerifyTimeout        timex.Duration `json:"verify_timeout"`
	PasswordResetTimeout timex.Duration `json:"password_reset_timeout"`
	ReportCooldown       timex.Duration `json:"report_cooldown"`
	FeedbackCooldown     timex.Duration `json:"feedback_cooldown"`
	EmailSuffix          string         `json:"email_suffix"`
	SMTPHost             string         `json:"smtp_host"`
	SMTPPort             int            `json:"smtp_port"`
	SMTPUser             string         `json:"smtp_user"`
	SMTPPassword         string         `json:"smtp_password"`
	MailFrom             string         `json:"mail_from"`
	FeedbackAddress      string         `json:"feedback_address"`
	S3RootUser           string         `json:"s3_root_user"`
	S3RootPassword       string         `json:"s3_root_password"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
	S3PublicURL          string         `json:"s3_public_url"`
	RedisURL             string         `json:"redis_url"`
}

// parseJson loads the file named by -c/-config into config. Nothing happens
// when the flag is absent; an unreadable or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.Env, c.Env)
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.PublicURL, c.PublicURL)
	setString(&config.AllowedOrigins, c.AllowedOrigins)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setInt(&config.DatabaseMaxConns, c.DatabaseMaxConns)
	setInt(&config.BcryptCost, c.BcryptCost)
	setDuration(&config.SessionTimeout, c.SessionTimeout)
	setDuration(&config.VerifyTimeout, c.VerifyTimeout)
	setDuration(&config.PasswordResetTimeout, c.PasswordResetTimeout)
	setDuration(&config.ReportCooldown, c.ReportCooldown)
	setDuration(&config.FeedbackCooldown, c.FeedbackCooldown)
	setString(&config.EmailSuffix, c.EmailSuffix)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.FeedbackAddress, c.FeedbackAddress)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)
	setString(&config.RedisURL, c.RedisURL)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
