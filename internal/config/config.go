// Package config loads the warp client configuration. Values load from an
// optional YAML file over defaults; command-line flags override both.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	User   UserConfig   `yaml:"user"`
	UI     UIConfig     `yaml:"ui"`
}

type ServerConfig struct {
	URL string `yaml:"url"`
}

type UserConfig struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

type UIConfig struct {
	FollowThreshold int    `yaml:"follow_threshold"`
	MaxMessageLen   int    `yaml:"max_message_len"`
	LogFile         string `yaml:"log_file"`
}

// Load reads the config at path. A missing file yields the defaults; path ""
// skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			URL: "http://127.0.0.1:8085",
		},
		UI: UIConfig{
			FollowThreshold: 2,
			MaxMessageLen:   160,
		},
	}

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
