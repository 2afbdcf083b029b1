// Package config loads the hub's YAML configuration: which profiles
// to run, their network bindings, and the hub core's resource bounds.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level hub configuration document.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Standard StandardConfig `yaml:"standard"`
	Web      WebConfig      `yaml:"web"`

	MaxClients           int `yaml:"max_clients"`
	MaxDeliveryPerTarget int `yaml:"max_delivery_per_target"`
	HTTPWorkers          int `yaml:"http_workers"`
}

// StandardConfig configures the Standard Profile (lockfile + XML-RPC).
type StandardConfig struct {
	Enabled       bool   `yaml:"enabled"`
	LockfilePath  string `yaml:"lockfile_path"` // empty: resolved via lockfile.ResolvePath
	LocalhostName string `yaml:"localhost_name"`
}

// WebConfig configures the Web Profile (single HTTP endpoint).
type WebConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Addr            string `yaml:"addr"`
	Path            string `yaml:"path"`
	QueueBound      int    `yaml:"queue_bound"`
	AllowAllOrigins bool   `yaml:"allow_all_origins"`
}

// Load reads and parses filename, applying defaults for anything
// left unset.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", filename, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", filename, err)
	}
	c.applyDefaults()

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxClients == 0 {
		c.MaxClients = 4096
	}
	if c.MaxDeliveryPerTarget == 0 {
		c.MaxDeliveryPerTarget = 16
	}
	if c.HTTPWorkers == 0 {
		c.HTTPWorkers = 20
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8090"
	}
	if c.Web.Path == "" {
		c.Web.Path = "/"
	}
	if c.Web.QueueBound == 0 {
		c.Web.QueueBound = 4096
	}
	if !c.Standard.Enabled && !c.Web.Enabled {
		// A hub with neither profile enabled serves nobody; default
		// to Standard only.
		c.Standard.Enabled = true
	}
}

func (c *Config) validate() error {
	if c.MaxClients < 0 {
		return fmt.Errorf("config: max_clients cannot be negative: %d", c.MaxClients)
	}
	if c.MaxDeliveryPerTarget < 0 {
		return fmt.Errorf("config: max_delivery_per_target cannot be negative: %d", c.MaxDeliveryPerTarget)
	}
	if c.Web.QueueBound < 0 {
		return fmt.Errorf("config: web.queue_bound cannot be negative: %d", c.Web.QueueBound)
	}
	return nil
}
