package auth

import (
	"bitwise74/portal-web/app/view"
	"bitwise74/portal-web/internal"
	"bitwise74/portal-web/internal/metrics"
	"bitwise74/portal-web/internal/model"
	"bitwise74/portal-web/internal/redirect"
	"bitwise74/portal-web/internal/session"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type loginBody struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

func LoginForm(c *gin.Context) {
	view.Render(c, "login.html", "Entrar", gin.H{
		"Verified": c.Query("verified") == "true",
	})
}

func Login(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	fail := func(code redirect.Code) {
		metrics.Logins.WithLabelValues(string(code)).Inc()
		redirect.WithError(c, redirect.Login, code)
	}

	var data loginBody
	if err := c.ShouldBind(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		fail(redirect.InvalidCredentials)
		return
	}

	data.Email = normalizeEmail(data.Email)
	if data.Email == "" || data.Password == "" {
		fail(redirect.InvalidCredentials)
		return
	}

	var user model.User

	err := d.DB.WithContext(c.Request.Context()).
		Where("email = ?", data.Email).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(redirect.InvalidCredentials)
			return
		}

		view.InternalError(c, "Failed to fetch user", err)
		return
	}

	ok, err := d.Hasher.VerifyPasswd(data.Password, user.HashedPassword)
	if err != nil {
		view.InternalError(c, "Failed to verify password", err)
		return
	}

	if !ok {
		fail(redirect.InvalidCredentials)
		return
	}

	if !user.IsActive {
		fail(redirect.NotVerified)
		return
	}

	err = d.Sessions.Save(c, &session.Session{
		Username: user.Username,
		Email:    user.Email,
	})
	if err != nil {
		view.InternalError(c, "Failed to save session", err)
		return
	}

	metrics.Logins.WithLabelValues("ok").Inc()
	redirect.To(c, redirect.Dashboard)
}

// Logout always ends up at the home page, with or without a session
func Logout(c *gin.Context, d *internal.Deps) {
	if err := d.Sessions.Clear(c); err != nil {
		zap.L().Error("Failed to clear session", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
	}

	redirect.To(c, redirect.Home)
}
