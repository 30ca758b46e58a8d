// ABOUTME: Configuration management for kultpiva with YAML config loading.
// ABOUTME: Handles data file location, printer backend, label text, fonts, and logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied to empty config values.
const (
	DefaultDataFileName = "beers_data.json"
	DefaultPrinterName  = "Xprinter XP-365B"
	DefaultBackend      = "lp"
	DefaultBrand        = "КультПива"
	DefaultPricePrefix  = "Цена за 1л:"
	DefaultCurrency     = "₽"
	DefaultLogLevel     = "info"
)

// Config stores kultpiva configuration loaded from ~/.config/kultpiva/config.yaml.
type Config struct {
	DataFile string        `yaml:"data_file,omitempty"`
	Printer  PrinterConfig `yaml:"printer"`
	Label    LabelConfig   `yaml:"label"`
	Log      LogConfig     `yaml:"log"`
}

// PrinterConfig selects the print backend and the static printer name.
type PrinterConfig struct {
	Name      string `yaml:"name,omitempty"`
	Backend   string `yaml:"backend,omitempty"` // lp, ipp, or file
	IPPURL    string `yaml:"ipp_url,omitempty"`
	OutputDir string `yaml:"output_dir,omitempty"`
	LPCommand string `yaml:"lp_command,omitempty"`
}

// LabelConfig holds the fixed label strings and optional font files.
type LabelConfig struct {
	Brand       string `yaml:"brand,omitempty"`
	PricePrefix string `yaml:"price_prefix,omitempty"`
	Currency    string `yaml:"currency,omitempty"`
	BoldFont    string `yaml:"bold_font,omitempty"`
	RegularFont string `yaml:"regular_font,omitempty"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}

// applyDefaults fills every empty value that has a default.
func (c *Config) applyDefaults() {
	if c.Printer.Name == "" {
		c.Printer.Name = DefaultPrinterName
	}
	if c.Printer.Backend == "" {
		c.Printer.Backend = DefaultBackend
	}
	if c.Label.Brand == "" {
		c.Label.Brand = DefaultBrand
	}
	if c.Label.PricePrefix == "" {
		c.Label.PricePrefix = DefaultPricePrefix
	}
	if c.Label.Currency == "" {
		c.Label.Currency = DefaultCurrency
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// GetDataFile returns the catalog path, defaulting to beers_data.json next to the executable.
func (c *Config) GetDataFile() (string, error) {
	if c.DataFile != "" {
		return ExpandPath(c.DataFile)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultDataFileName), nil
}

// GetOutputDir returns the expanded file-backend output directory.
func (c *Config) GetOutputDir() (string, error) {
	return ExpandPath(c.Printer.OutputDir)
}

// GetLogLevel parses the configured log level.
func (c *Config) GetLogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "kultpiva", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads config from disk. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
