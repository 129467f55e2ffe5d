package list

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/postman-sync/internal/cmd/base"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections", r.URL.Path)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCommand_Run(t *testing.T) {
	t.Setenv("POSTMAN_API_KEY", "")
	t.Setenv("INPUT_POSTMANAPIKEY", "")

	listing := `{"collections": [
		{"id": "r1", "name": "Users API"},
		{"id": "r2", "name": "Users API", "fork": {"label": "mine", "from": "r1"}}
	]}`

	t.Run("prints collections and forks", func(t *testing.T) {
		server := newServer(t, http.StatusOK, listing)
		ui := cli.NewMockUi()
		cmd := &Command{Command: base.NewCommand(hclog.NewNullLogger(), ui)}

		code := cmd.Run([]string{"-api-key=k", "-base-url=" + server.URL})
		require.Equal(t, 0, code, ui.ErrorWriter.String())

		out := ui.OutputWriter.String()
		assert.Contains(t, out, "r1\tUsers API\n")
		assert.Contains(t, out, "r2\tUsers API\t(fork of r1)")
		assert.Contains(t, out, "2 collection(s)")
	})

	t.Run("hides forks", func(t *testing.T) {
		server := newServer(t, http.StatusOK, listing)
		ui := cli.NewMockUi()
		cmd := &Command{Command: base.NewCommand(hclog.NewNullLogger(), ui)}

		code := cmd.Run([]string{"-api-key=k", "-base-url=" + server.URL, "-forks=false"})
		require.Equal(t, 0, code, ui.ErrorWriter.String())

		assert.NotContains(t, ui.OutputWriter.String(), "r2")
		assert.Contains(t, ui.OutputWriter.String(), "1 collection(s)")
	})

	t.Run("listing failure", func(t *testing.T) {
		server := newServer(t, http.StatusUnauthorized, `{"error": {"name": "AuthenticationError", "message": "Invalid API Key"}}`)
		ui := cli.NewMockUi()
		cmd := &Command{Command: base.NewCommand(hclog.NewNullLogger(), ui)}

		code := cmd.Run([]string{"-api-key=k", "-base-url=" + server.URL})
		assert.Equal(t, 1, code)
		assert.Contains(t, ui.ErrorWriter.String(), "Invalid API Key")
	})
}
