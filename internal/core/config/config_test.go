package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_FileAndDefaults(t *testing.T) {
	p := writeYAML(t, `
app:
  http:
    port: 9090
jwt:
  secret: s3cret
  access_token_ttl_min: 30
db:
  driver: memory
`)
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, "0.0.0.0:9090", c.App.HTTP.Addr())
	assert.Equal(t, "s3cret", c.JWT.Secret)
	assert.Equal(t, 30*time.Minute, c.JWT.TTL())
	assert.Equal(t, time.Duration(0), c.JWT.Leeway())
	assert.Equal(t, "memory", c.DB.Driver)

	// 未写出的键取默认值
	assert.Equal(t, "gin-user-service", c.JWT.Issuer)
	assert.True(t, c.Auth.PublicRead)
	assert.False(t, c.Auth.DistinguishInactive)
	assert.Equal(t, []string{"token", "api_key"}, c.Auth.CredentialOrder)
	assert.Equal(t, "auto", c.DB.Migrate)
	assert.EqualValues(t, 1<<20, c.App.HTTP.MaxBodyBytes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	p := writeYAML(t, "jwt:\n  secret: from-file\n")
	t.Setenv("APP_JWT_SECRET", "from-env")
	t.Setenv("APP_AUTH_PUBLIC_READ", "false")
	t.Setenv("APP_APP_HTTP_PORT", "7000")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.JWT.Secret)
	assert.False(t, c.Auth.PublicRead)
	assert.Equal(t, 7000, c.App.HTTP.Port)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(missing)
	assert.ErrorIs(t, err, ErrMissingSecret)

	t.Setenv("APP_JWT_SECRET", "x")
	c, err := Load(missing)
	require.NoError(t, err)
	assert.Equal(t, 8080, c.App.HTTP.Port)
	assert.Equal(t, "sqlite", c.DB.Driver)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"credential order": "jwt:\n  secret: x\nauth:\n  credential_order: [token, cookie]\n",
		"driver":           "jwt:\n  secret: x\ndb:\n  driver: oracle\n",
		"ttl":              "jwt:\n  secret: x\n  access_token_ttl_min: 0\n",
		"blank secret":     "jwt:\n  secret: \"  \"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BrokenYAML(t *testing.T) {
	_, err := Load(writeYAML(t, "jwt: [unterminated"))
	assert.Error(t, err)
}
