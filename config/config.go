// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath = pflag.String("config", ".", "Directory containing config.toml")

	validLogLevels      = []string{"debug", "info", "warn", "error", "fatal"}
	validDatabases      = []string{"sqlite", "postgres"}
	validHashes         = []string{"bcrypt", "argon2id"}
	validSessionBackend = []string{"cookie", "redis"}
)

// GenSecret returns a random hex secret suitable for security.session_secret
func GenSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	// A missing .env is fine, plain environment variables still work
	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.AutomaticEnv()

	BindEnvs()
	SetDefaults()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	return Validate()
}

// BindEnvs maps every config key to its environment variable
func BindEnvs() {
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.cors_origins", "host_cors_origins")
	v.BindEnv("host.trusted_proxies", "host_trusted_proxies")

	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")
	v.BindEnv("host.ssl.certificate_path", "host_ssl_certificate_path")
	v.BindEnv("host.ssl.certificate_key_path", "host_ssl_certificate_key_path")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("security.hash", "security_hash")
	v.BindEnv("security.bcrypt_cost", "security_bcrypt_cost")
	v.BindEnv("security.session_secret", "security_session_secret")
	v.BindEnv("security.rate_limit", "security_rate_limit")

	v.BindEnv("security.turnstile.enabled", "security_turnstile_enabled")
	v.BindEnv("security.turnstile.site_key", "security_turnstile_site_key")
	v.BindEnv("security.turnstile.secret_token", "security_turnstile_secret_token")

	v.BindEnv("session.backend", "session_backend")
	v.BindEnv("session.cookie_name", "session_cookie_name")
	v.BindEnv("session.max_age", "session_max_age")

	v.BindEnv("redis.addr", "redis_addr")
	v.BindEnv("redis.password", "redis_password")
	v.BindEnv("redis.db", "redis_db")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.username", "mail_username")
	v.BindEnv("mail.password", "mail_password")
	v.BindEnv("mail.sender_address", "mail_sender_address")
	v.BindEnv("mail.workers", "mail_workers")
	v.BindEnv("mail.queue_size", "mail_queue_size")
	v.BindEnv("mail.send_timeout", "mail_send_timeout")
	v.BindEnv("mail.resend_cooldown", "mail_resend_cooldown")

	v.BindEnv("metrics.enabled", "metrics_enabled")
}

// SetDefaults sets a default for every key that has a sensible one
func SetDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost:8080")
	v.SetDefault("host.cors_origins", []string{})
	v.SetDefault("host.trusted_proxies", []string{})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("security.hash", "bcrypt")
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.rate_limit", 5)
	v.SetDefault("security.turnstile.enabled", false)

	v.SetDefault("session.backend", "cookie")
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.max_age", "168h")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.workers", 2)
	v.SetDefault("mail.queue_size", 100)
	v.SetDefault("mail.send_timeout", "30s")
	v.SetDefault("mail.resend_cooldown", "2m")

	v.SetDefault("metrics.enabled", false)
}

// SplitList flattens list values that may also arrive as one comma
// separated environment variable
func SplitList(values []string) []string {
	var out []string
	for _, val := range values {
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

// Validate checks the loaded values. It never modifies them except for
// exiting the process when a session secret has to be generated.
func Validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	for _, p := range SplitList(v.GetStringSlice("host.trusted_proxies")) {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("invalid trusted proxy %q", p)
			}
		}
	}

	if !slices.Contains(validDatabases, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("database dsn can't be empty")
	}

	if !slices.Contains(validHashes, v.GetString("security.hash")) {
		return errors.New("invalid password hash provided")
	}

	if v.GetInt("security.rate_limit") < 0 {
		return errors.New("rate limit can't be negative")
	}

	if !v.GetBool("security.turnstile.enabled") {
		fmt.Println("[WARNING]: Cloudflare's turnstile is disabled. The registration form won't be guarded against bots")
	} else {
		if v.GetString("security.turnstile.secret_token") == "" {
			return errors.New("turnstile secret token is missing")
		}

		if v.GetString("security.turnstile.site_key") == "" {
			return errors.New("turnstile site key is missing")
		}
	}

	switch v.GetString("session.backend") {
	case "cookie":
		if v.GetString("security.session_secret") == "" {
			fmt.Println("WARNING: You haven't set a session secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random session secret:\n\n" + GenSecret() + "\n\nPaste it into your config.toml file.")
			os.Exit(0)
		}
	case "redis":
		if v.GetString("redis.addr") == "" {
			return errors.New("redis address can't be empty")
		}
	}

	if !slices.Contains(validSessionBackend, v.GetString("session.backend")) {
		return errors.New("invalid session backend provided")
	}

	if v.GetDuration("session.max_age") <= 0 {
		return errors.New("session max age must be bigger than 0")
	}

	if v.GetString("mail.host") == "" {
		return errors.New("mail host can't be empty")
	}

	if v.GetString("mail.sender_address") == "" {
		return errors.New("mail sender address can't be empty")
	}

	if v.GetInt("mail.workers") <= 0 {
		return errors.New("mail workers must be bigger than 0")
	}

	if v.GetInt("mail.queue_size") <= 0 {
		return errors.New("mail queue size must be bigger than 0")
	}

	return nil
}
