package configuration

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type ServerConfig struct {
	AppPort        int      `json:"app_port" envconfig:"APP_PORT"`
	SocketPort     int      `json:"socket_port" envconfig:"SOCKET_PORT"`
	SocketRoute    string   `json:"socket_route" envconfig:"SOCKET_ROUTE"`
	AllowedOrigins []string `json:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

type HubConfig struct {
	EgressBuffer    int   `json:"egress_buffer" envconfig:"EGRESS_BUFFER"`
	InboundBuffer   int   `json:"inbound_buffer" envconfig:"INBOUND_BUFFER"`
	Workers         int   `json:"workers" envconfig:"WORKERS"`
	MaxMessageBytes int64 `json:"max_message_bytes" envconfig:"MAX_MESSAGE_BYTES"`
}

type Config struct {
	Server ServerConfig `json:"server"`
	Hub    HubConfig    `json:"hub"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			AppPort:     8080,
			SocketPort:  5000,
			SocketRoute: "ws",
		},
		Hub: HubConfig{
			EgressBuffer:    256,
			InboundBuffer:   4096,
			Workers:         16,
			MaxMessageBytes: 64 * 1024,
		},
	}
}

// LoadConfig builds the config from defaults, an optional JSON file and
// SYNCBOARD_* environment overrides, in that order.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := DefaultConfig()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(file, &config); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("syncboard", &config); err != nil {
		return nil, err
	}

	return &config, nil
}
