package dashboard

import (
	"bitwise74/portal-web/app/view"
	"bitwise74/portal-web/internal/session"

	"github.com/gin-gonic/gin"
)

// Dashboard expects RequireSession in front of it
func Dashboard(c *gin.Context) {
	s := session.FromContext(c)

	view.Render(c, "dashboard.html", "Painel", gin.H{
		"Username": s.Username,
	})
}
