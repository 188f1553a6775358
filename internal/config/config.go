package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	Language string `yaml:"language" mapstructure:"language"`
	Debug    bool   `yaml:"debug" mapstructure:"debug"`

	Database struct {
		Type string `yaml:"type" mapstructure:"type"`
		DSN  string `yaml:"dsn" mapstructure:"dsn"`
	} `yaml:"database" mapstructure:"database"`

	SSH struct {
		Dir        string `yaml:"dir" mapstructure:"dir"`
		CopyIDPath string `yaml:"copy_id_path" mapstructure:"copy_id_path"`
	} `yaml:"ssh" mapstructure:"ssh"`

	UI struct {
		ShowHelp bool `yaml:"show_help" mapstructure:"show_help"`
	} `yaml:"ui" mapstructure:"ui"`
}

// Defaults returns the built-in defaults as viper keys.
func Defaults() map[string]any {
	sshDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		sshDir = filepath.Join(home, ".ssh")
	}
	return map[string]any{
		"language":         "en",
		"debug":            false,
		"database.type":    "sqlite",
		"database.dsn":     defaultDSN(),
		"ssh.dir":          sshDir,
		"ssh.copy_id_path": "ssh-copy-id",
		"ui.show_help":     true,
	}
}

// defaultDSN places the history database next to the config file.
func defaultDSN() string {
	path, err := getConfigPath(false)
	if err != nil {
		return "./keypick.db"
	}
	return filepath.Join(filepath.Dir(path), "keypick.db")
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		// System-wide configuration paths
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Keypick")
		default: // Linux, macOS, etc.
			configDir = "/etc/keypick"
		}
	} else {
		// User-specific configuration paths
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "keypick")
	}

	return filepath.Join(configDir, "keypick.yaml"), nil
}

// LoadConfig resolves configuration with the usual precedence: flags over
// environment over explicit config file over standard locations over defaults.
func LoadConfig(cmd *cobra.Command, additionalConfigFilePath *string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("keypick")
	v.SetConfigType("yaml")

	// Explicit config file path via --config has the highest file precedence.
	if additionalConfigFilePath != nil && *additionalConfigFilePath != "" {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".") // Look for keypick.yaml in current dir

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; other errors are fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("keypick")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
		// Flags whose names differ from their config keys.
		for flag, key := range map[string]string{
			"db-type":   "database.type",
			"db-dsn":    "database.dsn",
			"lang":      "language",
			"show-help": "ui.show_help",
		} {
			if f := cmd.Flags().Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// WriteConfigFile persists the configuration as YAML to the standard
// location for the user or system scope.
func WriteConfigFile(c *Config, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	return os.WriteFile(path, data, 0600)
}
