package authentication

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/cftpd/pkg/logging"
)

func captureLogs(t *testing.T) (access, app *bytes.Buffer) {
	t.Helper()
	prevAccess, prevApp := logging.Access, logging.App
	t.Cleanup(func() { logging.Access, logging.App = prevAccess, prevApp })

	access, app = &bytes.Buffer{}, &bytes.Buffer{}
	logging.Access = logging.NewWriterAccessLogger(access)
	logging.App = logging.NewWriterAppLogger(app, logging.LogLevelDebug, nil)
	return access, app
}

func TestInstrumented(t *testing.T) {
	access, app := captureLogs(t)

	broken := errors.New("nil pointer in provider")
	inner := ProviderFunc(func(user, password string) error {
		if user == "crash" {
			return broken
		}
		return stubProvider{}.Authenticate(user, password)
	})
	p := Instrument("stub", inner)

	assert.NoError(t, p.Authenticate("alice", "correct"))
	assert.Error(t, p.Authenticate("alice", "wrong"))
	assert.Error(t, p.Authenticate("mallory", "guess"))
	assert.Same(t, broken, p.Authenticate("crash", "x"))

	assert.Equal(t, int64(1), p.Successes())
	assert.Equal(t, int64(2), p.Failures())
	assert.Equal(t, int64(1), p.Errors())
	assert.Equal(t, "stub", p.Identifier())
	assert.NotNil(t, p.Provider())

	lines := strings.Split(strings.TrimSpace(access.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "op=AUTH user=alice status=success provider=stub attempt=")
	assert.Contains(t, lines[1], "status=failure")
	assert.Contains(t, lines[1], "reason=")
	assert.Contains(t, lines[3], "status=error")
	assert.NotContains(t, access.String(), "correct", "passwords must never be logged")

	assert.Contains(t, app.String(), "Authentication provider error")
}

func TestDescribe(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterProvider("stub", func() (Provider, error) { return stubProvider{}, nil })
	custom, err := NewCustomProvider(settingsFor("stub"), reg)
	require.NoError(t, err)

	assert.Equal(t, "stub", Describe(custom))
	assert.Equal(t, "wrapped", Describe(Instrument("wrapped", custom)))
	assert.Equal(t, "simple", Describe(NewSimpleProvider()))
	assert.Equal(t, "authentication.stubProvider", Describe(stubProvider{}))
}
