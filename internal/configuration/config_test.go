package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)

	config, err := LoadConfig("")
	req.NoError(err)
	req.Equal(8080, config.Server.AppPort)
	req.Equal(5000, config.Server.SocketPort)
	req.Equal("ws", config.Server.SocketRoute)
	req.Equal(16, config.Hub.Workers)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "config.json")
	req.NoError(os.WriteFile(path, []byte(`{
		"server": {"app_port": 9000, "socket_port": 9001, "socket_route": "sync"},
		"hub": {"workers": 4}
	}`), 0o600))

	config, err := LoadConfig(path)
	req.NoError(err)
	req.Equal(9000, config.Server.AppPort)
	req.Equal(9001, config.Server.SocketPort)
	req.Equal("sync", config.Server.SocketRoute)
	req.Equal(4, config.Hub.Workers)
	// untouched keys keep their defaults
	req.Equal(int64(64*1024), config.Hub.MaxMessageBytes)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	req := require.New(t)

	t.Setenv("SYNCBOARD_APP_PORT", "7777")
	t.Setenv("SYNCBOARD_ALLOWED_ORIGINS", "http://localhost:5173")

	config, err := LoadConfig("")
	req.NoError(err)
	req.Equal(7777, config.Server.AppPort)
	req.Equal([]string{"http://localhost:5173"}, config.Server.AllowedOrigins)
}

func TestLoadConfig_MissingFileFails(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
