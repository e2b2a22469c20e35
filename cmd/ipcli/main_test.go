package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/javajoker/story-txprep/internal/utils"
)

// runApp executes the CLI with captured output and exit code.
func runApp(t *testing.T, args ...string) (string, int, error) {
	t.Helper()
	var out bytes.Buffer
	exitCode := 0

	prevWriter, prevErrWriter, prevExiter := app.Writer, cli.ErrWriter, cli.OsExiter
	app.Writer = &out
	cli.ErrWriter = &bytes.Buffer{}
	cli.OsExiter = func(code int) { exitCode = code }
	t.Cleanup(func() {
		app.Writer, cli.ErrWriter, cli.OsExiter = prevWriter, prevErrWriter, prevExiter
	})

	err := app.Run(append([]string{"ipcli"}, args...))
	return out.String(), exitCode, err
}

func TestTokenCommandIssuesVerifiableToken(t *testing.T) {
	out, _, err := runApp(t, "token", "--secret", "dev-secret", "--subject", "ci-runner", "--ttl", "1h")
	require.NoError(t, err)

	subject, err := utils.ValidateClientToken(strings.TrimSpace(out), "dev-secret")
	require.NoError(t, err)
	assert.Equal(t, "ci-runner", subject)
}

func TestTokenCommandRequiresSecretAndSubject(t *testing.T) {
	t.Setenv("API_JWT_SECRET", "")
	out, code, err := runApp(t, "token", "--subject", "ci-runner")
	require.Error(t, err)
	assert.Equal(t, exitTerminal, code)
	assert.Empty(t, out)
}

func TestDetectContentType(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	assert.Equal(t, "image/png", detectContentType("a.bin", png, ""))
	assert.Equal(t, "image/jpeg", detectContentType("a.png", png, "image/jpeg"))
	assert.Equal(t, "application/octet-stream", detectContentType("blob", []byte{0x00, 0x01, 0x02, 0xfe}, ""))
}

func TestFileArgReadsSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))

	out, _, err := runApp(t, "hash", path)
	require.NoError(t, err)
	assert.Equal(t, "0x"+utils.HashContent([]byte("abc"))+"\n", out)
}
