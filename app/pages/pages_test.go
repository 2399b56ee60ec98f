package pages_test

import (
	"bitwise74/portal-web/app/apptest"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPages_Anonymous(t *testing.T) {
	e := apptest.New(t)

	for _, path := range []string{"/", "/planos", "/contato"} {
		resp := e.Get(path)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)

		body := apptest.Body(t, resp)
		assert.Contains(t, body, `href="/auth/login"`, path)
		assert.NotContains(t, body, `href="/auth/logout"`, path)
	}
}

func TestPages_LoggedIn(t *testing.T) {
	e := apptest.New(t)
	e.LoggedIn("a@x.com", "alice")

	for _, path := range []string{"/", "/planos", "/contato"} {
		resp := e.Get(path)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, apptest.Body(t, resp), `href="/auth/logout"`, path)
	}
}
