package ftpserver

import (
	"errors"
	"net"
	"testing"
	"time"

	ftpserverlib "github.com/fclairamb/ftpserverlib"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/cftpd/pkg/authentication"
)

// fakeClientContext overrides the few ClientContext methods the driver uses.
// Calling anything else panics on the nil embedded interface.
type fakeClientContext struct {
	ftpserverlib.ClientContext
	path string
}

func (c *fakeClientContext) SetPath(p string) { c.path = p }
func (c *fakeClientContext) ID() uint32       { return 42 }
func (c *fakeClientContext) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
}

func newTestServer(t *testing.T, cfg *Config, provider authentication.Provider) (*Server, afero.Fs) {
	t.Helper()
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/srv/ftp", 0755))
	if cfg.RootDir == "" {
		cfg.RootDir = "/srv/ftp"
	}
	s, err := newServer(cfg, provider, base)
	require.NoError(t, err)
	return s, base
}

func memoryProvider() authentication.Provider {
	// drake's password is billiards
	return authentication.NewMemoryProvider(map[string]string{"drake": "GgHKjSw.CAsOo"}, nil)
}

func TestNew_Validation(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/srv/ftp", 0755))
	require.NoError(t, afero.WriteFile(base, "/srv/file", []byte("x"), 0644))

	tests := []struct {
		name     string
		cfg      *Config
		provider authentication.Provider
	}{
		{"nil provider", &Config{RootDir: "/srv/ftp"}, nil},
		{"no root", &Config{}, authentication.NewSimpleProvider()},
		{"missing root", &Config{RootDir: "/nope"}, authentication.NewSimpleProvider()},
		{"root is a file", &Config{RootDir: "/srv/file"}, authentication.NewSimpleProvider()},
		{"bad home pattern", &Config{RootDir: "/srv/ftp", HomePattern: "users"}, authentication.NewSimpleProvider()},
		{"half tls", &Config{RootDir: "/srv/ftp", TLSCertFile: "/cert.pem"}, authentication.NewSimpleProvider()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newServer(tt.cfg, tt.provider, base)
			assert.Error(t, err)
		})
	}
}

func TestDriver_AuthUser(t *testing.T) {
	s, base := newTestServer(t, &Config{HomePattern: "users/%s"}, memoryProvider())
	d := &ftpDriver{server: s}

	t.Run("valid credentials", func(t *testing.T) {
		cc := &fakeClientContext{}
		driver, err := d.AuthUser(cc, "drake", "billiards")
		require.NoError(t, err)
		require.NotNil(t, driver)
		assert.Equal(t, "/users/drake", cc.path)

		exists, err := afero.DirExists(base, "/srv/ftp/users/drake")
		require.NoError(t, err)
		assert.True(t, exists)

		// The returned fs is rooted at the server root
		require.NoError(t, afero.WriteFile(driver, "/users/drake/hello.txt", []byte("hi"), 0644))
		data, err := afero.ReadFile(base, "/srv/ftp/users/drake/hello.txt")
		require.NoError(t, err)
		assert.Equal(t, "hi", string(data))
	})

	t.Run("rejected credentials are returned unchanged", func(t *testing.T) {
		cc := &fakeClientContext{}
		driver, err := d.AuthUser(cc, "drake", "wrong")
		assert.Nil(t, driver)
		assert.True(t, authentication.IsAuthenticationFailure(err))
		assert.Empty(t, cc.path)
	})

	t.Run("provider errors are returned", func(t *testing.T) {
		boom := errors.New("boom")
		s, _ := newTestServer(t, &Config{}, authentication.ProviderFunc(func(string, string) error { return boom }))
		_, err := (&ftpDriver{server: s}).AuthUser(&fakeClientContext{}, "drake", "billiards")
		assert.Same(t, boom, err)
	})

	t.Run("user names cannot escape the home pattern", func(t *testing.T) {
		s, _ := newTestServer(t, &Config{HomePattern: "users/%s"}, authentication.NewSimpleProvider())
		_, err := (&ftpDriver{server: s}).AuthUser(&fakeClientContext{}, "../etc", "x")
		assert.Error(t, err)
	})

	t.Run("no home pattern starts at root", func(t *testing.T) {
		s, _ := newTestServer(t, &Config{}, authentication.NewSimpleProvider())
		cc := &fakeClientContext{}
		_, err := (&ftpDriver{server: s}).AuthUser(cc, "anyone", "x")
		require.NoError(t, err)
		assert.Equal(t, "/", cc.path)
	})
}

func TestDriver_ConnectionsAndSettings(t *testing.T) {
	s, _ := newTestServer(t, &Config{
		ListenAddr:           "127.0.0.1",
		Port:                 2121,
		PublicHost:           "203.0.113.7",
		PassiveTransferPorts: [2]int{50000, 50010},
		IdleTimeout:          5 * time.Minute,
		WelcomeMessage:       "hello",
	}, authentication.NewSimpleProvider())
	d := &ftpDriver{server: s}

	settings, err := d.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:2121", settings.ListenAddr)
	assert.Equal(t, "203.0.113.7", settings.PublicHost)
	assert.Equal(t, 300, settings.IdleTimeout)

	msg, err := d.ClientConnected(&fakeClientContext{})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg)
	_, _ = d.ClientConnected(&fakeClientContext{})
	assert.Equal(t, int32(2), s.GetActiveConnections())

	d.ClientDisconnected(&fakeClientContext{})
	assert.Equal(t, int32(1), s.GetActiveConnections())
	assert.False(t, s.GetStartTime().IsZero())

	_, err = d.GetTLSConfig()
	assert.Error(t, err, "no TLS configured")
}
