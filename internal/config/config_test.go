// ABOUTME: Tests for kultpiva configuration loading and path expansion.
// ABOUTME: Covers YAML parsing, defaults, path expansion, and log level parsing.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"tilde only", "~", home},
		{"tilde slash", "~/foo/bar", filepath.Join(home, "foo", "bar")},
		{"absolute", "/tmp/foo", "/tmp/foo"},
		{"relative", "foo/bar", "foo/bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			if err != nil {
				t.Fatalf("ExpandPath(%q) error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadDefaultConfig(t *testing.T) {
	// Set config path to a non-existent location
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Printer.Name != DefaultPrinterName {
		t.Errorf("expected default printer %q, got %q", DefaultPrinterName, cfg.Printer.Name)
	}
	if cfg.Printer.Backend != DefaultBackend {
		t.Errorf("expected default backend %q, got %q", DefaultBackend, cfg.Printer.Backend)
	}
	if cfg.Label.Brand != DefaultBrand {
		t.Errorf("expected default brand %q, got %q", DefaultBrand, cfg.Label.Brand)
	}
	if cfg.Label.Currency != DefaultCurrency {
		t.Errorf("expected default currency %q, got %q", DefaultCurrency, cfg.Label.Currency)
	}
	if cfg.DataFile != "" {
		t.Errorf("expected empty data_file, got %q", cfg.DataFile)
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "kultpiva")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configData := `data_file: "~/beer/beers_data.json"
printer:
  name: "Office Label"
  backend: "ipp"
  ipp_url: "http://localhost:631"
label:
  brand: "Craft Corner"
  currency: "EUR"
  bold_font: "/usr/share/fonts/DejaVuSans-Bold.ttf"
log:
  level: "debug"
  file: "/tmp/kultpiva.log"
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configData), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Printer.Name != "Office Label" {
		t.Errorf("expected printer name 'Office Label', got %q", cfg.Printer.Name)
	}
	if cfg.Printer.Backend != "ipp" {
		t.Errorf("expected backend 'ipp', got %q", cfg.Printer.Backend)
	}
	if cfg.Printer.IPPURL != "http://localhost:631" {
		t.Errorf("expected ipp_url, got %q", cfg.Printer.IPPURL)
	}
	if cfg.Label.Brand != "Craft Corner" {
		t.Errorf("expected brand 'Craft Corner', got %q", cfg.Label.Brand)
	}
	if cfg.Label.PricePrefix != DefaultPricePrefix {
		t.Errorf("expected default price prefix, got %q", cfg.Label.PricePrefix)
	}
	if cfg.Label.BoldFont != "/usr/share/fonts/DejaVuSans-Bold.ttf" {
		t.Errorf("expected bold_font, got %q", cfg.Label.BoldFont)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, "beer", "beers_data.json")
	if got, err := cfg.GetDataFile(); err != nil {
		t.Fatalf("GetDataFile() error: %v", err)
	} else if got != expected {
		t.Errorf("GetDataFile() = %q, want %q", got, expected)
	}

	level, err := cfg.GetLogLevel()
	if err != nil {
		t.Fatalf("GetLogLevel() error: %v", err)
	}
	if level != slog.LevelDebug {
		t.Errorf("GetLogLevel() = %v, want debug", level)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "kultpiva")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("printer: [unclosed"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := &Config{
		Printer: PrinterConfig{
			Name:      "Saved Printer",
			Backend:   "file",
			OutputDir: "~/labels",
		},
	}

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if loaded.Printer.Name != "Saved Printer" {
		t.Errorf("expected name 'Saved Printer', got %q", loaded.Printer.Name)
	}
	if loaded.Printer.Backend != "file" {
		t.Errorf("expected backend 'file', got %q", loaded.Printer.Backend)
	}

	home, _ := os.UserHomeDir()
	if got, _ := loaded.GetOutputDir(); got != filepath.Join(home, "labels") {
		t.Errorf("GetOutputDir() = %q", got)
	}
}

func TestDefaultDataFileNextToExecutable(t *testing.T) {
	cfg := &Config{}
	got, err := cfg.GetDataFile()
	if err != nil {
		t.Fatalf("GetDataFile() error: %v", err)
	}
	if filepath.Base(got) != DefaultDataFileName {
		t.Errorf("GetDataFile() = %q, want file named %q", got, DefaultDataFileName)
	}

	exe, _ := os.Executable()
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	if filepath.Dir(got) != filepath.Dir(exe) {
		t.Errorf("expected data file beside %s, got %s", exe, got)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "chatty"}}
	if _, err := cfg.GetLogLevel(); err == nil {
		t.Error("expected error for unknown log level")
	}
}
