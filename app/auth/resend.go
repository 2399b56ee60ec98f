package auth

import (
	"bitwise74/portal-web/app/view"
	"bitwise74/portal-web/internal"
	"bitwise74/portal-web/internal/model"
	"bitwise74/portal-web/internal/redirect"
	"bitwise74/portal-web/internal/service"
	"bitwise74/portal-web/pkg/security"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const resendPath = "/auth/reenviar-verificacao"

type resendBody struct {
	Email string `form:"email"`
}

func ResendForm(c *gin.Context) {
	view.Render(c, "reenviar.html", "Reenviar verificação", nil)
}

// Resend replaces the token of a pending account and mails it again. The
// answer is the same whether or not a mail went out.
func Resend(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	var data resendBody
	if err := c.ShouldBind(&data); err != nil || normalizeEmail(data.Email) == "" {
		redirect.WithError(c, resendPath, redirect.MissingFields)
		return
	}

	email := normalizeEmail(data.Email)
	done := func() {
		view.Render(c, "verifique_email.html", "Verifique seu e-mail", gin.H{
			"Email": email,
		})
	}

	db := d.DB.WithContext(c.Request.Context())

	var user model.User
	err := db.Preload("ResendRequest").Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			done()
			return
		}

		view.InternalError(c, "Failed to fetch user", err)
		return
	}

	now := time.Now()
	if !user.Pending() || !user.ResendRequest.CooledDown(now, d.ResendCooldown) {
		zap.L().Debug("Skipping verification resend", zap.Uint("user_id", user.ID), zap.String("requestID", requestID))
		done()
		return
	}

	token, err := security.NewVerificationToken()
	if err != nil {
		view.InternalError(c, "Failed to generate verification token", err)
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).
			Where("id = ? AND is_active = ?", user.ID, false).
			Update("verification_token", token)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected != 1 {
			return gorm.ErrRecordNotFound
		}

		rr := user.ResendRequest
		rr.UserID = user.ID
		rr.LastResend = now
		rr.Count++

		return tx.Save(&rr).Error
	})
	if err != nil {
		// Activated in the meantime
		if errors.Is(err, gorm.ErrRecordNotFound) {
			done()
			return
		}

		view.InternalError(c, "Failed to rotate verification token", err)
		return
	}

	if err := d.Mail.Enqueue(service.MailJob{To: user.Email, Token: token}); err != nil {
		zap.L().Error("Failed to queue verification email", zap.Error(err), zap.String("requestID", requestID))
	}

	done()
}
