// Package redirect holds the error codes handlers report to the browser
// through the query string of a 302 redirect
package redirect

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

type Code string

const (
	PasswordMismatch   Code = "password_mismatch"
	UserExists         Code = "user_exists"
	EmailExists        Code = "email_exists"
	UsernameExists     Code = "username_exists"
	MissingFields      Code = "missing_fields"
	InvalidEmail       Code = "invalid_email"
	InvalidUsername    Code = "invalid_username"
	InvalidPassword    Code = "invalid_password"
	InvalidToken       Code = "invalid_token"
	InvalidCredentials Code = "invalid_credentials"
	NotVerified        Code = "not_verified"
	UserNotFound       Code = "user_not_found"
	CaptchaFailed      Code = "captcha_failed"
)

// Paths shared between handlers
const (
	Home      = "/"
	Login     = "/auth/login"
	Register  = "/auth/cadastro"
	Dashboard = "/painel/"
	Profile   = "/perfil/"
)

// To redirects to path with a 302
func To(c *gin.Context, path string) {
	c.Redirect(http.StatusFound, path)
}

// WithError redirects to path carrying code as the error query parameter
func WithError(c *gin.Context, path string, code Code) {
	With(c, path, "error", string(code))
}

// With redirects to path with a single key=value query parameter
func With(c *gin.Context, path, key, value string) {
	q := url.Values{}
	q.Set(key, value)

	c.Redirect(http.StatusFound, path+"?"+q.Encode())
}
