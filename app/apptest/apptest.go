// Package apptest runs the full router against a throwaway sqlite database
// for handler tests
package apptest

import (
	"bitwise74/portal-web/app"
	"bitwise74/portal-web/db"
	"bitwise74/portal-web/internal"
	"bitwise74/portal-web/internal/model"
	"bitwise74/portal-web/internal/service"
	"bitwise74/portal-web/internal/session"
	"bitwise74/portal-web/pkg/security"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Password is the password every helper registers users with
const Password = "s3cret-pass"

// FakeSender records verification mails instead of sending them
type FakeSender struct {
	mu   sync.Mutex
	sent []service.MailJob
}

func (f *FakeSender) SendVerificationMail(_ context.Context, to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, service.MailJob{To: to, Token: token})
	return nil
}

func (f *FakeSender) Jobs() []service.MailJob {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]service.MailJob(nil), f.sent...)
}

type Env struct {
	t *testing.T

	Deps   *internal.Deps
	Server *httptest.Server
	Client *http.Client
	Sender *FakeSender
}

// Option tweaks the dependencies and router options before the server starts
type Option func(d *internal.Deps, o *app.Options)

func New(t *testing.T, opts ...Option) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// db.New refuses to create sqlite files inside docker
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	database, err := db.New("sqlite", path)
	require.NoError(t, err)

	store, err := session.NewCookieStore([]byte("test-secret"), session.CookieOptions{
		Name:   "session",
		MaxAge: time.Hour,
	})
	require.NoError(t, err)

	sender := &FakeSender{}
	queue := service.NewMailQueue(sender, 1, 16, time.Second)
	queue.StartWorkerPool()

	d := &internal.Deps{
		DB:       database,
		Hasher:   security.NewBcrypt(bcrypt.MinCost),
		Sessions: store,
		Mail:     queue,
	}

	var o app.Options
	for _, fn := range opts {
		fn(d, &o)
	}

	srv := httptest.NewServer(app.NewRouter(d, o))

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		srv.Close()
		queue.Close()

		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return &Env{
		t:      t,
		Deps:   d,
		Server: srv,
		Sender: sender,
		Client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Get requests path without following redirects
func (e *Env) Get(path string) *http.Response {
	e.t.Helper()

	resp, err := e.Client.Get(e.Server.URL + path)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { resp.Body.Close() })

	return resp
}

// Post submits form to path without following redirects
func (e *Env) Post(path string, form url.Values) *http.Response {
	e.t.Helper()

	resp, err := e.Client.PostForm(e.Server.URL+path, form)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { resp.Body.Close() })

	return resp
}

// Register submits the registration form with matching passwords
func (e *Env) Register(email, username string) *http.Response {
	e.t.Helper()

	return e.Post("/auth/cadastro", url.Values{
		"email":            {email},
		"username":         {username},
		"password":         {Password},
		"password_confirm": {Password},
	})
}

// Login submits the login form
func (e *Env) Login(email, password string) *http.Response {
	e.t.Helper()

	return e.Post("/auth/login", url.Values{
		"email":    {email},
		"password": {password},
	})
}

// User loads the account registered with email
func (e *Env) User(email string) model.User {
	e.t.Helper()

	var u model.User
	require.NoError(e.t, e.Deps.DB.Where("email = ?", email).First(&u).Error)

	return u
}

// CreateUser stores an account directly, active or pending
func (e *Env) CreateUser(email, username string, active bool) model.User {
	e.t.Helper()

	hash, err := e.Deps.Hasher.GenerateFromPassword(Password)
	require.NoError(e.t, err)

	u := model.User{
		Email:          email,
		Username:       username,
		HashedPassword: hash,
		IsActive:       active,
	}

	if !active {
		token, err := security.NewVerificationToken()
		require.NoError(e.t, err)
		u.VerificationToken = &token
	}

	require.NoError(e.t, e.Deps.DB.Create(&u).Error)
	return u
}

// LoggedIn creates an active account and logs it in
func (e *Env) LoggedIn(email, username string) model.User {
	e.t.Helper()

	u := e.CreateUser(email, username, true)
	resp := e.Login(email, Password)
	require.Equal(e.t, "/painel/", resp.Header.Get("Location"))

	return u
}

// Body reads the whole response body
func Body(t *testing.T, resp *http.Response) string {
	t.Helper()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(b)
}

// Location returns the redirect target of resp, failing unless it is a 302
func Location(t *testing.T, resp *http.Response) string {
	t.Helper()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	return resp.Header.Get("Location")
}

// WaitForMails waits until n verification mails went out
func (e *Env) WaitForMails(n int) []service.MailJob {
	e.t.Helper()

	require.Eventually(e.t, func() bool {
		return len(e.Sender.Jobs()) >= n
	}, 2*time.Second, 10*time.Millisecond)

	return e.Sender.Jobs()
}

// Contains reports whether body contains every part
func Contains(body string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(body, p) {
			return false
		}
	}

	return true
}
