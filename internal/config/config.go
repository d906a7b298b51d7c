package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// DataDir is where CSV exports and combined reports are written.
	DataDir string `yaml:"data_dir"`
	// LogDir is where the rotating activity log lives.
	LogDir string `yaml:"log_dir"`
	// VaultPath is the credential vault file. Defaults to ~/.ApiVault.
	VaultPath string `yaml:"vault_path"`
	// Resolver is the DNS server used for nameserver classification and
	// record verification, host:port.
	Resolver string `yaml:"resolver"`
	// EdgercPath is the Akamai EdgeGrid credentials file.
	EdgercPath string `yaml:"edgerc_path"`
	// EdgercSection is the section within the edgerc file.
	EdgercSection string `yaml:"edgerc_section"`
	// PropagationWait is how long workflows pause between publishing
	// validation records and telling the CA to check them.
	PropagationWait time.Duration `yaml:"propagation_wait"`
	// TXTRecordTTL is the TTL for _pki-validation TXT records.
	TXTRecordTTL int `yaml:"txt_record_ttl"`
	// CNAMERecordTTL is the TTL for DCV CNAME records.
	CNAMERecordTTL int `yaml:"cname_record_ttl"`
}

// configDir is the default config directory
const configDir = ".config/dcvkit"
const configFile = "config.yaml"

// New creates a new Config with default values
func New() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir:         filepath.Join(home, "dcv-data"),
		LogDir:          filepath.Join(home, "dcv-data", "logs"),
		VaultPath:       filepath.Join(home, ".ApiVault"),
		Resolver:        "8.8.8.8:53",
		EdgercPath:      filepath.Join(home, ".edgerc"),
		EdgercSection:   "default",
		PropagationWait: 10 * time.Minute,
		TXTRecordTTL:    60,
		CNAMERecordTTL:  300,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// ConfigPath returns the config file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}

	return LoadFile(path)
}

// LoadFile reads the config from an explicit path. Missing fields keep
// their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks that the config is usable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Resolver == "" {
		return fmt.Errorf("resolver must not be empty")
	}
	if c.PropagationWait < 0 {
		return fmt.Errorf("propagation_wait must not be negative")
	}
	if c.TXTRecordTTL <= 0 || c.CNAMERecordTTL <= 0 {
		return fmt.Errorf("record TTLs must be positive")
	}
	return nil
}

// DomainListPath returns the path of the per-CA domain list file used by
// bulk add/remove commands.
func (c *Config) DomainListPath(name string) string {
	return filepath.Join(c.DataDir, name)
}
