package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var opts = CookieOptions{Name: "session", MaxAge: time.Hour}

func init() {
	gin.SetMode(gin.TestMode)
}

// newContext builds a context for a request carrying cookies
func newContext(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	c.Request = req

	return c, w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	var found *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == opts.Name {
			found = ck
		}
	}
	require.NotNil(t, found, "no session cookie written")

	return found
}

func stores(t *testing.T) map[string]Store {
	t.Helper()

	cs, err := NewCookieStore([]byte("secret"), opts)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return map[string]Store{
		"cookie": cs,
		"redis":  NewRedisStore(rdb, opts),
	}
}

func TestStores_RoundTrip(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c, w := newContext()
			require.NoError(t, st.Save(c, &Session{Username: "alice", Email: "a@x.com"}))
			assert.Equal(t, "alice", FromContext(c).Username)

			ck := sessionCookie(t, w)
			assert.True(t, ck.HttpOnly)
			assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)

			c2, _ := newContext(ck)
			s, err := st.Get(c2)
			require.NoError(t, err)
			require.NotNil(t, s)
			assert.Equal(t, Session{Username: "alice", Email: "a@x.com"}, *s)
		})
	}
}

func TestStores_AnonymousRequest(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext()

			s, err := st.Get(c)
			require.NoError(t, err)
			assert.Nil(t, s)
			assert.Nil(t, FromContext(c))
		})
	}
}

func TestStores_ClearExpiresCookie(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c, w := newContext()
			require.NoError(t, st.Save(c, &Session{Username: "alice", Email: "a@x.com"}))
			ck := sessionCookie(t, w)

			c2, w2 := newContext(ck)
			require.NoError(t, st.Clear(c2))
			assert.Nil(t, FromContext(c2))
			assert.Less(t, sessionCookie(t, w2).MaxAge, 0)

			// Clearing without any session is fine too
			c3, _ := newContext()
			assert.NoError(t, st.Clear(c3))
		})
	}
}

func TestCookieStore_RejectsTamperedCookie(t *testing.T) {
	st, err := NewCookieStore([]byte("secret"), opts)
	require.NoError(t, err)

	other, err := NewCookieStore([]byte("other-secret"), opts)
	require.NoError(t, err)

	c, w := newContext()
	require.NoError(t, other.Save(c, &Session{Username: "mallory", Email: "m@x.com"}))

	c2, w2 := newContext(sessionCookie(t, w))
	s, err := st.Get(c2)
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Less(t, sessionCookie(t, w2).MaxAge, 0)
}

func TestCookieStore_RejectsExpiredCookie(t *testing.T) {
	st, err := NewCookieStore([]byte("secret"), CookieOptions{Name: "session", MaxAge: -time.Minute})
	require.NoError(t, err)

	c, w := newContext()
	require.NoError(t, st.Save(c, &Session{Username: "alice", Email: "a@x.com"}))

	var raw *http.Cookie
	for _, ck := range w.Result().Cookies() {
		raw = ck
	}
	require.NotNil(t, raw)

	c2, _ := newContext(&http.Cookie{Name: "session", Value: raw.Value})
	s, err := st.Get(c2)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestNewCookieStore_NeedsSecret(t *testing.T) {
	_, err := NewCookieStore(nil, opts)
	assert.Error(t, err)
}

func TestRedisStore_SaveRotatesID(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	st := NewRedisStore(rdb, opts)

	c, w := newContext()
	require.NoError(t, st.Save(c, &Session{Username: "alice", Email: "a@x.com"}))
	first := sessionCookie(t, w)

	c2, w2 := newContext(first)
	require.NoError(t, st.Save(c2, &Session{Username: "alice2", Email: "a@x.com"}))
	second := sessionCookie(t, w2)

	assert.NotEqual(t, first.Value, second.Value)
	assert.False(t, mr.Exists(keyPrefix+first.Value))
	assert.True(t, mr.Exists(keyPrefix+second.Value))

	ttl := mr.TTL(keyPrefix + second.Value)
	assert.Equal(t, time.Hour, ttl)
}

func TestRedisStore_ExpiredServerSide(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	st := NewRedisStore(rdb, opts)

	c, w := newContext()
	require.NoError(t, st.Save(c, &Session{Username: "alice", Email: "a@x.com"}))
	ck := sessionCookie(t, w)

	mr.FastForward(2 * time.Hour)

	c2, _ := newContext(ck)
	s, err := st.Get(c2)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRedisStore_BackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()

	st := NewRedisStore(rdb, opts)
	mr.Close()

	c, _ := newContext(&http.Cookie{Name: "session", Value: "abc"})
	_, err := st.Get(c)
	assert.Error(t, err)
}
