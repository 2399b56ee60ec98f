package middleware

import (
	"bitwise74/portal-web/internal/redirect"
	"bitwise74/portal-web/internal/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewSessionMiddleware loads the session of every request so handlers and
// templates can read it with session.FromContext
func NewSessionMiddleware(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := store.Get(c)
		if err != nil {
			c.String(http.StatusInternalServerError, "Internal server error")
			c.Abort()

			zap.L().Error("Failed to load session", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
			return
		}

		if s != nil {
			c.Set("username", s.Username)
		}

		session.ToContext(c, s)
		c.Next()
	}
}

// RequireSession sends anonymous requests to the login page
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.FromContext(c) == nil {
			redirect.To(c, redirect.Login)
			c.Abort()
			return
		}

		c.Next()
	}
}
