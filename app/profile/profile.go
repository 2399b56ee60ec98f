// Package profile lets a logged in user see and rename their account
package profile

import (
	"bitwise74/portal-web/app/view"
	"bitwise74/portal-web/internal"
	"bitwise74/portal-web/internal/model"
	"bitwise74/portal-web/internal/redirect"
	"bitwise74/portal-web/internal/session"
	"bitwise74/portal-web/validators"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type profileBody struct {
	Username string `form:"username"`
}

// currentUser resolves the account behind the session by email. When the
// account is gone the session is dropped and the response already written.
func currentUser(c *gin.Context, d *internal.Deps) (*model.User, bool) {
	s := session.FromContext(c)

	var user model.User
	err := d.DB.WithContext(c.Request.Context()).
		Where("email = ?", s.Email).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := d.Sessions.Clear(c); err != nil {
				zap.L().Error("Failed to clear stale session", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
			}

			redirect.WithError(c, redirect.Login, redirect.UserNotFound)
			return nil, false
		}

		view.InternalError(c, "Failed to fetch user", err)
		return nil, false
	}

	return &user, true
}

func View(c *gin.Context, d *internal.Deps) {
	user, ok := currentUser(c, d)
	if !ok {
		return
	}

	view.Render(c, "perfil.html", "Perfil", gin.H{
		"User":    user,
		"Success": c.Query("success") == "true",
	})
}

// Update renames the account and mirrors the new name into the session
// before answering, so both always agree.
func Update(c *gin.Context, d *internal.Deps) {
	// A stale session is dropped whatever the form holds
	user, ok := currentUser(c, d)
	if !ok {
		return
	}

	var data profileBody
	if err := c.ShouldBind(&data); err != nil {
		redirect.WithError(c, redirect.Profile, redirect.InvalidUsername)
		return
	}

	username := strings.TrimSpace(data.Username)
	if err := validators.UsernameValidator(username); err != nil {
		redirect.WithError(c, redirect.Profile, redirect.InvalidUsername)
		return
	}

	db := d.DB.WithContext(c.Request.Context())

	if username != user.Username {
		taken, err := model.UsernameTaken(db, username, user.ID)
		if err != nil {
			view.InternalError(c, "Failed to check if username is taken", err)
			return
		}

		if taken {
			redirect.WithError(c, redirect.Profile, redirect.UsernameExists)
			return
		}

		if err := db.Model(user).Update("username", username).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				redirect.WithError(c, redirect.Profile, redirect.UsernameExists)
				return
			}

			view.InternalError(c, "Failed to update username", err)
			return
		}
	}

	err := d.Sessions.Save(c, &session.Session{
		Username: username,
		Email:    user.Email,
	})
	if err != nil {
		view.InternalError(c, "Failed to save session", err)
		return
	}

	redirect.With(c, redirect.Profile, "success", "true")
}
