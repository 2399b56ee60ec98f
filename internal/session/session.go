// Package session keeps the logged in user between requests. Two backends
// exist: a signed cookie holding the whole record, and Redis holding the
// record server side behind an opaque cookie id.
package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const contextKey = "session"

// Session is the logged in user. It carries no numeric id,
// handlers resolve the account by Email.
type Session struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Store loads, saves and clears the session of the request in c. Get returns
// a nil Session and a nil error for anonymous requests, errors are reserved
// for backend failures.
type Store interface {
	Get(c *gin.Context) (*Session, error)
	Save(c *gin.Context, s *Session) error
	Clear(c *gin.Context) error
}

// CookieOptions configures the cookie both backends write
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// FromContext returns the session loaded for this request, nil if anonymous
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}

	s, _ := v.(*Session)
	return s
}

// ToContext makes s the session of this request
func ToContext(c *gin.Context, s *Session) {
	c.Set(contextKey, s)
}

func writeCookie(c *gin.Context, o CookieOptions, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(o.Name, value, int(o.MaxAge.Seconds()), "/", "", o.Secure, true)
}

func expireCookie(c *gin.Context, o CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(o.Name, "", -1, "/", "", o.Secure, true)
}
