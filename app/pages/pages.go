// Package pages renders the static pages that need no login
package pages

import (
	"bitwise74/portal-web/app/view"

	"github.com/gin-gonic/gin"
)

func Home(c *gin.Context) {
	view.Render(c, "home.html", "Início", nil)
}

func Plans(c *gin.Context) {
	view.Render(c, "planos.html", "Planos", nil)
}

func Contact(c *gin.Context) {
	view.Render(c, "contato.html", "Contato", nil)
}
