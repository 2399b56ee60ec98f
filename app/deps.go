package app

import (
	"bitwise74/portal-web/db"
	"bitwise74/portal-web/internal"
	"bitwise74/portal-web/internal/service"
	"bitwise74/portal-web/internal/session"
	"bitwise74/portal-web/pkg/security"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewDeps builds every dependency from the loaded config and starts the
// mail workers. Call Mail.Close on shutdown.
func NewDeps() (*internal.Deps, error) {
	d := &internal.Deps{
		ResendCooldown:   viper.GetDuration("mail.resend_cooldown"),
		TurnstileSiteKey: viper.GetString("security.turnstile.site_key"),
	}

	database, err := db.New(viper.GetString("database.driver"), viper.GetString("database.dsn"))
	if err != nil {
		return nil, err
	}
	d.DB = database

	hasher, err := security.NewHasher(viper.GetString("security.hash"), viper.GetInt("security.bcrypt_cost"))
	if err != nil {
		return nil, err
	}
	d.Hasher = hasher

	store, err := newSessionStore()
	if err != nil {
		return nil, err
	}
	d.Sessions = store

	mailer := service.NewSMTPMailer(service.MailConfig{
		Host:     viper.GetString("mail.host"),
		Port:     viper.GetInt("mail.port"),
		Username: viper.GetString("mail.username"),
		Password: viper.GetString("mail.password"),
		From:     viper.GetString("mail.sender_address"),
		BaseURL:  BaseURL(),
	})

	d.Mail = service.NewMailQueue(mailer,
		viper.GetInt("mail.workers"),
		viper.GetInt("mail.queue_size"),
		viper.GetDuration("mail.send_timeout"))
	d.Mail.StartWorkerPool()

	return d, nil
}

// BaseURL is the public address links in mails point to
func BaseURL() string {
	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	return scheme + "://" + viper.GetString("host.domain")
}

func newSessionStore() (session.Store, error) {
	opts := session.CookieOptions{
		Name:   viper.GetString("session.cookie_name"),
		MaxAge: viper.GetDuration("session.max_age"),
		Secure: viper.GetBool("host.ssl.enabled"),
	}

	switch viper.GetString("session.backend") {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis, %w", err)
		}

		zap.L().Info("Using redis session store", zap.String("addr", viper.GetString("redis.addr")))
		return session.NewRedisStore(rdb, opts), nil
	default:
		return session.NewCookieStore([]byte(viper.GetString("security.session_secret")), opts)
	}
}
