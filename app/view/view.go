// Package view renders the HTML pages with the data every page shares
package view

import (
	"bitwise74/portal-web/internal/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Render renders the template name. data may be nil, Title, Session and
// Error (from the query string) are always filled in.
func Render(c *gin.Context, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	data["Title"] = title
	data["Session"] = session.FromContext(c)
	if _, ok := data["Error"]; !ok {
		data["Error"] = c.Query("error")
	}

	c.HTML(http.StatusOK, name, data)
}

// InternalError logs err and answers with the error page
func InternalError(c *gin.Context, msg string, err error) {
	requestID := c.GetString("requestID")

	zap.L().Error(msg, zap.Error(err), zap.String("requestID", requestID))

	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Title":     "Erro",
		"Session":   session.FromContext(c),
		"RequestID": requestID,
	})
}
