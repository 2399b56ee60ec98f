package middleware

import (
	"bitwise74/portal-web/internal/session"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ok(c *gin.Context) { c.String(http.StatusOK, "ok") }

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.GET("/", NewRequestIDMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("requestID"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, w.Body.String(), 10)
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
}

func TestBodySizeLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/", BodySizeLimiter(8), ok)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/", RateLimiterMiddleware(RateLimiterConfig{RequestsPerSecond: 1, Burst: 2}), ok)

	codes := []int{}
	for range 3 {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

type stubStore struct {
	sess *session.Session
	err  error
}

func (s stubStore) Get(*gin.Context) (*session.Session, error) { return s.sess, s.err }
func (s stubStore) Save(*gin.Context, *session.Session) error  { return nil }
func (s stubStore) Clear(*gin.Context) error                   { return nil }

func TestSessionMiddleware(t *testing.T) {
	handler := func(c *gin.Context) {
		s := session.FromContext(c)
		c.String(http.StatusOK, s.Username)
	}

	t.Run("anonymous is redirected", func(t *testing.T) {
		r := gin.New()
		r.GET("/painel/", NewSessionMiddleware(stubStore{}), RequireSession(), handler)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/painel/", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/login", w.Header().Get("Location"))
	})

	t.Run("logged in passes", func(t *testing.T) {
		r := gin.New()
		r.GET("/painel/", NewSessionMiddleware(stubStore{sess: &session.Session{Username: "alice"}}), RequireSession(), handler)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/painel/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", w.Body.String())
	})

	t.Run("backend failure", func(t *testing.T) {
		r := gin.New()
		r.GET("/painel/", NewSessionMiddleware(stubStore{err: errors.New("redis down")}), RequireSession(), handler)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/painel/", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestTurnstile(t *testing.T) {
	var gotSecret string
	cf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotSecret = r.PostForm.Get("secret")

		json.NewEncoder(w).Encode(response{Success: r.PostForm.Get("response") == "good"})
	}))
	defer cf.Close()

	failed := func(c *gin.Context) { c.String(http.StatusForbidden, "captcha") }

	newRouter := func(enabled bool) *gin.Engine {
		r := gin.New()
		r.POST("/", NewTurnstileMiddleware(TurnstileConfig{Enabled: enabled, Secret: "s3", VerifyURL: cf.URL}, failed), ok)
		return r
	}

	post := func(r *gin.Engine, token string) int {
		form := url.Values{}
		if token != "" {
			form.Set("cf-turnstile-response", token)
		}

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post(newRouter(false), ""))
	assert.Equal(t, http.StatusForbidden, post(newRouter(true), ""))
	assert.Equal(t, http.StatusForbidden, post(newRouter(true), "bad"))
	assert.Equal(t, http.StatusOK, post(newRouter(true), "good"))
	assert.Equal(t, "s3", gotSecret)
}
