package app

import (
	"bitwise74/portal-web/app/auth"
	"bitwise74/portal-web/app/dashboard"
	"bitwise74/portal-web/app/pages"
	"bitwise74/portal-web/app/profile"
	"bitwise74/portal-web/app/root"
	"bitwise74/portal-web/config"
	"bitwise74/portal-web/internal"
	"bitwise74/portal-web/internal/redirect"
	"bitwise74/portal-web/pkg/middleware"
	"bitwise74/portal-web/web"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options are the router settings that don't belong to a dependency
type Options struct {
	CORSOrigins []string
	// TrustedProxies may set the client IP through X-Forwarded-For. Nil
	// trusts nobody and the remote address is used.
	TrustedProxies []string
	// RateLimit is the number of form posts per second one IP may send,
	// 0 disables limiting
	RateLimit int
	Metrics   bool
	Turnstile middleware.TurnstileConfig
}

// OptionsFromConfig reads Options from the loaded config
func OptionsFromConfig() Options {
	return Options{
		CORSOrigins:    config.SplitList(viper.GetStringSlice("host.cors_origins")),
		TrustedProxies: config.SplitList(viper.GetStringSlice("host.trusted_proxies")),
		RateLimit:      viper.GetInt("security.rate_limit"),
		Metrics:        viper.GetBool("metrics.enabled"),
		Turnstile: middleware.TurnstileConfig{
			Enabled: viper.GetBool("security.turnstile.enabled"),
			Secret:  viper.GetString("security.turnstile.secret_token"),
		},
	}
}

func NewRouter(d *internal.Deps, o Options) *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(web.Templates())

	if err := router.SetTrustedProxies(o.TrustedProxies); err != nil {
		zap.L().Error("Invalid trusted proxies, trusting none", zap.Error(err))
		router.SetTrustedProxies(nil)
	}

	router.Use(
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.NewRequestIDMiddleware(),
		middleware.NewMetricsMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("username"); v != "" {
					fields = append(fields, zap.String("username", v))
				}

				return fields
			},
		}),
	)

	if len(o.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     o.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	sessions := middleware.NewSessionMiddleware(d.Sessions)
	loggedIn := middleware.RequireSession()
	form := middleware.BodySizeLimiter(1 << 20)

	limiter := func(c *gin.Context) { c.Next() }
	if o.RateLimit > 0 {
		limiter = middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
			RequestsPerSecond: o.RateLimit,
			Burst:             o.RateLimit * 2,
		})
	}

	turnstile := middleware.NewTurnstileMiddleware(o.Turnstile, func(c *gin.Context) {
		redirect.WithError(c, redirect.Register, redirect.CaptchaFailed)
	})

	// HEAD /heartbeat		-> Used to check if the server is alive
	router.HEAD("/heartbeat", root.Heartbeat)

	if o.Metrics {
		// GET /metrics		-> Prometheus metrics
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	p := router.Group("/", sessions)
	{
		// GET /			-> Home page
		p.GET("", pages.Home)

		// GET /planos			-> Plans page
		p.GET("/planos", pages.Plans)

		// GET /contato			-> Contact page
		p.GET("/contato", pages.Contact)
	}

	a := router.Group("/auth", sessions)
	{
		// GET /auth/cadastro		-> Registration form
		a.GET("/cadastro", func(c *gin.Context) { auth.RegisterForm(c, d) })

		// POST /auth/cadastro		-> Registers a new, inactive user and mails the verification link
		a.POST("/cadastro", limiter, form, turnstile, func(c *gin.Context) { auth.Register(c, d) })

		// GET /auth/verificar-email	-> Activates the account holding ?token=
		a.GET("/verificar-email", func(c *gin.Context) { auth.VerifyEmail(c, d) })

		// GET /auth/login		-> Login form
		a.GET("/login", auth.LoginForm)

		// POST /auth/login		-> Logs in a user and starts a session
		a.POST("/login", limiter, form, func(c *gin.Context) { auth.Login(c, d) })

		// GET /auth/logout		-> Clears the session
		a.GET("/logout", func(c *gin.Context) { auth.Logout(c, d) })

		// GET /auth/reenviar-verificacao	-> Resend verification form
		a.GET("/reenviar-verificacao", auth.ResendForm)

		// POST /auth/reenviar-verificacao	-> Mails a fresh verification link to a pending account
		a.POST("/reenviar-verificacao", limiter, form, func(c *gin.Context) { auth.Resend(c, d) })
	}

	// GET /painel/			-> Dashboard of the logged in user
	router.GET("/painel/", sessions, loggedIn, dashboard.Dashboard)

	pf := router.Group("/perfil", sessions, loggedIn)
	{
		// GET /perfil/			-> Profile page
		pf.GET("/", func(c *gin.Context) { profile.View(c, d) })

		// POST /perfil/		-> Renames the logged in user
		pf.POST("/", form, func(c *gin.Context) { profile.Update(c, d) })
	}

	return router
}
