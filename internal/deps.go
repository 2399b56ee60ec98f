package internal

import (
	"bitwise74/portal-web/internal/service"
	"bitwise74/portal-web/internal/session"
	"bitwise74/portal-web/pkg/security"
	"time"

	"gorm.io/gorm"
)

// Deps is everything a handler may need. Handlers derive a request scoped
// handle with DB.WithContext.
type Deps struct {
	DB       *gorm.DB
	Hasher   security.Hasher
	Sessions session.Store
	Mail     *service.MailQueue

	// ResendCooldown is the minimum time between two verification mails
	// for the same account
	ResendCooldown time.Duration

	// TurnstileSiteKey enables the captcha widget on the registration form
	TurnstileSiteKey string
}
