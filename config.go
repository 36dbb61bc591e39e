package gmail

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/nhle/gmail/internal/credential"
)

// IMAPConfig holds the IMAP endpoint settings.
type IMAPConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// SMTPConfig holds the SMTP endpoint settings for the send hand-off.
type SMTPConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Config is the account configuration.
type Config struct {
	// Username is the account address used for IMAP and SMTP login.
	Username string `mapstructure:"username" yaml:"username"`

	// Password is optional; when empty it is resolved from the system
	// keyring at dial time.
	Password string `mapstructure:"password" yaml:"password"`

	IMAP IMAPConfig `mapstructure:"imap" yaml:"imap"`
	SMTP SMTPConfig `mapstructure:"smtp" yaml:"smtp"`

	// CachePath, when set, attaches a sqlite raw-message cache at that path.
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`
}

// IMAPAddr returns the host:port of the IMAP endpoint.
func (c *Config) IMAPAddr() string {
	return fmt.Sprintf("%s:%d", c.IMAP.Host, c.IMAP.Port)
}

// SMTPAddr returns the host:port of the SMTP endpoint.
func (c *Config) SMTPAddr() string {
	return fmt.Sprintf("%s:%d", c.SMTP.Host, c.SMTP.Port)
}

// DefaultConfigPath returns the default configuration file location,
// ~/.config/gmail/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "gmail", "config.yaml")
}

func defaultConfig() *Config {
	return &Config{
		IMAP: IMAPConfig{Host: "imap.gmail.com", Port: 993},
		SMTP: SMTPConfig{Host: "smtp.gmail.com", Port: 587},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("imap.host", "imap.gmail.com")
	v.SetDefault("imap.port", 993)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path, creating
// parent directories if needed.
func SaveConfig(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("username", cfg.Username)
	v.Set("imap", cfg.IMAP)
	v.Set("smtp", cfg.SMTP)
	v.Set("cache_path", cfg.CachePath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// resolvePassword looks an account password up in the system keyring.
func resolvePassword(username string) (string, error) {
	p, err := credential.Password(username)
	if err != nil {
		return "", fmt.Errorf("resolving password for %s: %w", username, err)
	}
	return p, nil
}
