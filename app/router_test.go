package app_test

import (
	"bitwise74/portal-web/app"
	"bitwise74/portal-web/app/apptest"
	"bitwise74/portal-web/internal"
	"bitwise74/portal-web/internal/session"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signUpToLogout walks one account from registration to logout
func signUpToLogout(t *testing.T, e *apptest.Env) {
	resp := e.Register("a@x.com", "alice")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, apptest.Body(t, resp), "a@x.com")
	assert.False(t, e.User("a@x.com").IsActive)

	// Not verified yet
	resp = e.Login("a@x.com", apptest.Password)
	assert.Equal(t, "/auth/login?error=not_verified", apptest.Location(t, resp))

	jobs := e.WaitForMails(1)

	resp = e.Get("/auth/verificar-email?token=" + url.QueryEscape(jobs[0].Token))
	assert.Equal(t, "/auth/login?verified=true", apptest.Location(t, resp))

	resp = e.Get("/auth/login?verified=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, apptest.Body(t, resp), `class="success"`)

	resp = e.Login("a@x.com", apptest.Password)
	assert.Equal(t, "/painel/", apptest.Location(t, resp))

	resp = e.Get("/painel/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, apptest.Body(t, resp), "alice")

	resp = e.Get("/auth/logout")
	assert.Equal(t, "/", apptest.Location(t, resp))

	resp = e.Get("/painel/")
	assert.Equal(t, "/auth/login", apptest.Location(t, resp))
}

func TestSignUpToLogout_CookieSessions(t *testing.T) {
	signUpToLogout(t, apptest.New(t))
}

func TestSignUpToLogout_RedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)

	e := apptest.New(t, func(d *internal.Deps, _ *app.Options) {
		d.Sessions = session.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), session.CookieOptions{
			Name:   "session",
			MaxAge: time.Hour,
		})
	})

	signUpToLogout(t, e)
	assert.Empty(t, mr.Keys())
}

func TestHeartbeat(t *testing.T) {
	e := apptest.New(t)

	req, err := http.NewRequest(http.MethodHead, e.Server.URL+"/heartbeat", nil)
	require.NoError(t, err)

	resp, err := e.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	e := apptest.New(t)
	assert.Equal(t, http.StatusNotFound, e.Get("/metrics").StatusCode)

	e = apptest.New(t, func(_ *internal.Deps, o *app.Options) {
		o.Metrics = true
	})
	e.Get("/")

	resp := e.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, apptest.Body(t, resp), "http_requests_total")
}

func TestRequestID(t *testing.T) {
	e := apptest.New(t)

	resp := e.Get("/")
	assert.Len(t, resp.Header.Get("X-Request-ID"), 10)
}

func TestRateLimit(t *testing.T) {
	e := apptest.New(t, func(_ *internal.Deps, o *app.Options) {
		o.RateLimit = 1
	})

	codes := map[int]int{}
	for range 5 {
		codes[e.Login("nobody@x.com", "whatever-pass").StatusCode]++
	}

	assert.Positive(t, codes[http.StatusTooManyRequests])
}

// loginsFromForwardedIPs posts n logins, each claiming a different client
// through X-Forwarded-For, and counts the answers per status
func loginsFromForwardedIPs(t *testing.T, e *apptest.Env, n int) map[int]int {
	codes := map[int]int{}
	for i := range n {
		form := url.Values{"email": {"nobody@x.com"}, "password": {"whatever-pass"}}

		req, err := http.NewRequest(http.MethodPost, e.Server.URL+"/auth/login", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))

		resp, err := e.Client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		codes[resp.StatusCode]++
	}

	return codes
}

func TestRateLimit_IgnoresForwardedForByDefault(t *testing.T) {
	e := apptest.New(t, func(_ *internal.Deps, o *app.Options) {
		o.RateLimit = 1
	})

	codes := loginsFromForwardedIPs(t, e, 10)
	assert.GreaterOrEqual(t, codes[http.StatusTooManyRequests], 5)
}

func TestRateLimit_TrustedProxyForwardsClientIP(t *testing.T) {
	e := apptest.New(t, func(_ *internal.Deps, o *app.Options) {
		o.RateLimit = 1
		o.TrustedProxies = []string{"127.0.0.1", "::1"}
	})

	codes := loginsFromForwardedIPs(t, e, 10)
	assert.Zero(t, codes[http.StatusTooManyRequests])
	assert.Equal(t, 10, codes[http.StatusFound])
}

func turnstileServer(t *testing.T, success bool) string {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": success})
	}))
	t.Cleanup(srv.Close)

	return srv.URL
}

func TestTurnstile(t *testing.T) {
	form := url.Values{
		"email":                 {"a@x.com"},
		"username":              {"alice"},
		"password":              {apptest.Password},
		"password_confirm":      {apptest.Password},
		"cf-turnstile-response": {"widget-token"},
	}

	withTurnstile := func(success bool) apptest.Option {
		return func(_ *internal.Deps, o *app.Options) {
			o.Turnstile.Enabled = true
			o.Turnstile.Secret = "secret"
			o.Turnstile.VerifyURL = turnstileServer(t, success)
		}
	}

	e := apptest.New(t, withTurnstile(false))
	resp := e.Post("/auth/cadastro", form)
	assert.Equal(t, "/auth/cadastro?error=captcha_failed", apptest.Location(t, resp))

	e = apptest.New(t, withTurnstile(true))
	resp = e.Post("/auth/cadastro", form)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", e.User("a@x.com").Username)
}

func TestOptionsFromConfig_SplitsOrigins(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("host.cors_origins", []string{"https://a.example, https://b.example", ""})
	viper.Set("host.trusted_proxies", []string{"10.0.0.1,10.0.0.2"})

	o := app.OptionsFromConfig()
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, o.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, o.TrustedProxies)
}
