package auth

import (
	"bitwise74/portal-web/app/view"
	"bitwise74/portal-web/internal"
	"bitwise74/portal-web/internal/metrics"
	"bitwise74/portal-web/internal/model"
	"bitwise74/portal-web/internal/redirect"

	"github.com/gin-gonic/gin"
)

// VerifyEmail activates the pending account holding the token. Unknown and
// already used tokens get the same answer.
func VerifyEmail(c *gin.Context, d *internal.Deps) {
	token := c.Query("token")
	if token == "" {
		metrics.Verifications.WithLabelValues(string(redirect.InvalidToken)).Inc()
		redirect.WithError(c, redirect.Login, redirect.InvalidToken)
		return
	}

	// A single conditional update so a token can only ever activate once
	res := d.DB.WithContext(c.Request.Context()).
		Model(&model.User{}).
		Where("verification_token = ? AND is_active = ?", token, false).
		Updates(map[string]any{
			"is_active":          true,
			"verification_token": nil,
		})
	if res.Error != nil {
		view.InternalError(c, "Failed to activate user", res.Error)
		return
	}

	if res.RowsAffected != 1 {
		metrics.Verifications.WithLabelValues(string(redirect.InvalidToken)).Inc()
		redirect.WithError(c, redirect.Login, redirect.InvalidToken)
		return
	}

	metrics.Verifications.WithLabelValues("ok").Inc()
	redirect.With(c, redirect.Login, "verified", "true")
}
