// Package config loads cellmqtt-demo's YAML configuration file, grounded
// on the same "battle-tested parser, defaults applied in code" pattern
// alibo-simple-mqtt-network-lab's go-backend uses for its own broker
// connection config.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is cellmqtt-demo's on-disk configuration.
type Config struct {
	Broker struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		WebSocket bool   `yaml:"websocket"`
	} `yaml:"broker"`

	Client struct {
		ID          string `yaml:"id"`
		KeepAlive   int    `yaml:"keepalive_secs"`
		PingTimeout int    `yaml:"ping_timeout"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
	} `yaml:"client"`

	Log struct {
		Debug bool `yaml:"debug"`
	} `yaml:"log"`
}

// Load reads and parses the YAML file at path, filling in defaults for
// anything left unset.
func Load(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&c)
	return c, nil
}

func applyDefaults(c *Config) {
	if c.Broker.Host == "" {
		c.Broker.Host = "localhost"
	}
	if c.Broker.Port == 0 {
		if c.Broker.WebSocket {
			c.Broker.Port = 8080
		} else {
			c.Broker.Port = 1883
		}
	}
	if c.Client.KeepAlive == 0 {
		c.Client.KeepAlive = 30
	}
}
