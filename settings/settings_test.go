package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
[fchat]
server = "chat.f-list.net"
port = 9722
account = "moderator"
password = "hunter2"
character = "Cogito"
owners = ["Root"]
autoJoin = ["Frontpage"]

[moderation]

[storage]

[logging]
level = "debug"
format = "json"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, ".", config.Fchat.TriggerPrefix)
	assert.Equal(t, "=>", config.Fchat.RedirectOperator)
	assert.Equal(t, DefaultTicketUrl, config.Fchat.TicketUrl)
	assert.Equal(t, "Alert", config.Moderation.DefaultResponse)
	assert.Equal(t, time.Hour, config.Moderation.ProfileRefresh())
	assert.Equal(t, 10*time.Second, config.Fchat.ReconnectDelay())
	assert.Equal(t, "@every 10m", config.Storage.SaveSchedule)
	assert.Equal(t, "ws://chat.f-list.net:9722", config.Fchat.Url())
}

func TestLoadConfigEnvironmentOverride(t *testing.T) {
	t.Setenv("FCHAT_PASSWORD", "from-env")
	config, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.Fchat.Password)
	assert.Equal(t, "moderator", config.Fchat.Account)
}

func TestLoadConfigDotEnv(t *testing.T) {
	path := writeConfig(t, `
[fchat]
server = "chat.f-list.net"
port = 9722
character = "Cogito"
[moderation]
[storage]
[logging]
`)
	dotenv := filepath.Join(filepath.Dir(path), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("FCHAT_ACCOUNT=dotenv-account\nFCHAT_PASSWORD=dotenv-pass\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("FCHAT_ACCOUNT")
		os.Unsetenv("FCHAT_PASSWORD")
	})

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-account", config.Fchat.Account)
	assert.Equal(t, "dotenv-pass", config.Fchat.Password)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "[fchat\nserver="))
	assert.Error(t, err)

	t.Setenv("FCHAT_ACCOUNT", "")
	_, err = LoadConfig(writeConfig(t, `
[fchat]
server = "chat.f-list.net"
port = 9722
character = "Cogito"
[moderation]
defaultResponse = "Explode"
[storage]
[logging]
`))
	assert.Error(t, err, "missing credentials and bad response must fail validation")
}
