// Package auth contains the registration, verification and login handlers
package auth

import (
	"bitwise74/portal-web/app/view"
	"bitwise74/portal-web/internal"
	"bitwise74/portal-web/internal/metrics"
	"bitwise74/portal-web/internal/model"
	"bitwise74/portal-web/internal/redirect"
	"bitwise74/portal-web/internal/service"
	"bitwise74/portal-web/pkg/security"
	"bitwise74/portal-web/validators"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type registerBody struct {
	Email           string `form:"email"`
	Username        string `form:"username"`
	Password        string `form:"password"`
	PasswordConfirm string `form:"password_confirm"`
}

func RegisterForm(c *gin.Context, d *internal.Deps) {
	view.Render(c, "cadastro.html", "Cadastro", gin.H{
		"TurnstileSiteKey": d.TurnstileSiteKey,
	})
}

func Register(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	fail := func(code redirect.Code) {
		metrics.Registrations.WithLabelValues(string(code)).Inc()
		redirect.WithError(c, redirect.Register, code)
	}

	var data registerBody
	if err := c.ShouldBind(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		fail(redirect.MissingFields)
		return
	}

	data.Email = normalizeEmail(data.Email)
	data.Username = strings.TrimSpace(data.Username)

	if data.Email == "" || data.Username == "" || data.Password == "" || data.PasswordConfirm == "" {
		fail(redirect.MissingFields)
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		fail(redirect.InvalidEmail)
		return
	}

	if err := validators.UsernameValidator(data.Username); err != nil {
		fail(redirect.InvalidUsername)
		return
	}

	if data.Password != data.PasswordConfirm {
		fail(redirect.PasswordMismatch)
		return
	}

	if err := validators.PasswordValidator(data.Password); err != nil {
		fail(redirect.InvalidPassword)
		return
	}

	db := d.DB.WithContext(c.Request.Context())

	taken, err := model.EmailTaken(db, data.Email)
	if err != nil {
		view.InternalError(c, "Failed to check if email is registered", err)
		return
	}

	if taken {
		fail(redirect.EmailExists)
		return
	}

	taken, err = model.UsernameTaken(db, data.Username, 0)
	if err != nil {
		view.InternalError(c, "Failed to check if username is registered", err)
		return
	}

	if taken {
		fail(redirect.UsernameExists)
		return
	}

	hash, err := d.Hasher.GenerateFromPassword(data.Password)
	if err != nil {
		view.InternalError(c, "Failed to hash password", err)
		return
	}

	token, err := security.NewVerificationToken()
	if err != nil {
		view.InternalError(c, "Failed to generate verification token", err)
		return
	}

	user := model.User{
		Email:             data.Email,
		Username:          data.Username,
		HashedPassword:    hash,
		IsActive:          false,
		VerificationToken: &token,
		ResendRequest: model.ResendRequest{
			LastResend: time.Now(),
		},
	}

	if err := db.Create(&user).Error; err != nil {
		// Lost a race against a concurrent registration of the same account
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			fail(redirect.UserExists)
			return
		}

		view.InternalError(c, "Failed to create user", err)
		return
	}

	if err := d.Mail.Enqueue(service.MailJob{To: user.Email, Token: token}); err != nil {
		// The account stays pending, the user can ask for another mail
		zap.L().Error("Failed to queue verification email", zap.Error(err), zap.String("requestID", requestID))
	}

	metrics.Registrations.WithLabelValues("created").Inc()

	view.Render(c, "verifique_email.html", "Verifique seu e-mail", gin.H{
		"Email": user.Email,
	})
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
