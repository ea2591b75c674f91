package conf

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlFixture = `
server:
  port: 2200
  root_dir: ftp
  home_pattern: "users/%s"
  tls_cert_file: /etc/ssl/cftpd.pem
authentication:
  type: CUSTOM
  provider:
    custom:
      class: passwd-file
  passwd:
    file: passwd
logging:
  level: debug
tags: [a, b, 3]
empty:
`

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/srv/cftpd/cftpd.yaml", []byte(yamlFixture), 0644))

	c, err := Load(fs, "/srv/cftpd/cftpd.yaml")
	require.NoError(t, err)

	t.Run("flattens nested maps", func(t *testing.T) {
		v, ok := c.Get(KeyCustomProviderClass)
		assert.True(t, ok)
		assert.Equal(t, "passwd-file", v)
		assert.Equal(t, "CUSTOM", c.GetString(KeyAuthType, ""))
		assert.Equal(t, "a,b,3", c.GetString("tags", ""))

		v, ok = c.Get("empty")
		assert.True(t, ok)
		assert.Equal(t, "", v)
	})

	t.Run("typed getters", func(t *testing.T) {
		port, err := c.GetInt(KeyPort, 0)
		require.NoError(t, err)
		assert.Equal(t, 2200, port)

		idle, err := c.GetDuration(KeyIdleTimeout, 0)
		require.NoError(t, err)
		assert.Equal(t, 300*time.Second, idle, "default applies when unset")
	})

	t.Run("relative paths resolve against config dir", func(t *testing.T) {
		assert.Equal(t, filepath.Join("/srv/cftpd", "ftp"), c.GetString(KeyRootDir, ""))
		assert.Equal(t, filepath.Join("/srv/cftpd", "passwd"), c.GetString(KeyPasswdFile, ""))
		assert.Equal(t, "/etc/ssl/cftpd.pem", c.GetString(KeyTLSCertFile, ""))
	})

	t.Run("home pattern is not a path key", func(t *testing.T) {
		assert.Equal(t, "users/%s", c.GetString(KeyHomePattern, ""))
	})
}

func TestLoad_JSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `{"server": {"port": 2121, "root_dir": "/ftp"}, "authentication": {"type": "SIMPLE"}}`
	require.NoError(t, afero.WriteFile(fs, "/etc/cftpd.json", []byte(doc), 0644))

	c, err := Load(fs, "/etc/cftpd.json")
	require.NoError(t, err)
	assert.Equal(t, "/ftp", c.GetString(KeyRootDir, ""))
	assert.Equal(t, "SIMPLE", c.GetString(KeyAuthType, ""))
}

func TestLoad_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Load(fs, "/missing.yaml")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("server: [unclosed"), 0644))
	_, err = Load(fs, "/bad.yaml")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/nested.yaml", []byte("ports:\n  - {a: 1}\n"), 0644))
	_, err = Load(fs, "/nested.yaml")
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CFTPD_AUTHENTICATION_PROVIDER_CUSTOM_CLASS", "http-api")
	t.Setenv("CFTPD_SERVER_LISTEN__ADDR", "127.0.0.1")

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte(yamlFixture), 0644))

	c, err := Load(fs, "/c.yaml")
	require.NoError(t, err)
	assert.Equal(t, "http-api", c.GetString(KeyCustomProviderClass, ""))
	assert.Equal(t, "127.0.0.1", c.GetString(KeyListenAddr, ""))
}

func TestLoad_RelativePluginPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := "authentication:\n  provider:\n    custom:\n      class: plugin:plugins/ldap.so#New\n"
	require.NoError(t, afero.WriteFile(fs, "/srv/cftpd.yaml", []byte(doc), 0644))

	c, err := Load(fs, "/srv/cftpd.yaml")
	require.NoError(t, err)
	assert.Equal(t, "plugin:"+filepath.Join("/srv", "plugins/ldap.so#New"), c.GetString(KeyCustomProviderClass, ""))

	t.Run("surrounding whitespace", func(t *testing.T) {
		doc := "authentication:\n  provider:\n    custom:\n      class: \" plugin:rel.so \"\n"
		require.NoError(t, afero.WriteFile(fs, "/srv/padded.yaml", []byte(doc), 0644))

		c, err := Load(fs, "/srv/padded.yaml")
		require.NoError(t, err)
		assert.Equal(t, "plugin:"+filepath.Join("/srv", "rel.so"), c.GetString(KeyCustomProviderClass, ""))
	})
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.port", envKey("CFTPD_SERVER_PORT"))
	assert.Equal(t, "server.listen_addr", envKey("CFTPD_SERVER_LISTEN__ADDR"))
	assert.Equal(t, "authentication.http_api.url", envKey("CFTPD_AUTHENTICATION_HTTP__API_URL"))
}

func TestGetters(t *testing.T) {
	c := New()
	c.Set("a.int", "x")
	c.Set("a.bool", "yes-ish")
	c.Set("a.dur", "1m30s")
	c.Set("a.secs", "45")
	c.Set("a.flag", "true")

	_, err := c.GetInt("a.int", 1)
	assert.Error(t, err)
	_, err = c.GetBool("a.bool", false)
	assert.Error(t, err)

	b, err := c.GetBool("a.flag", false)
	require.NoError(t, err)
	assert.True(t, b)

	d, err := c.GetDuration("a.dur", 0)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	d, err = c.GetDuration("a.secs", 0)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)

	assert.Equal(t, "def", c.GetString("unset", "def"))
	assert.Contains(t, c.Keys(), KeyPort)
}
