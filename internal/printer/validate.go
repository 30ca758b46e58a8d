// ABOUTME: Reachability checks for configured printers.
// ABOUTME: Uses lpstat for CUPS, an HTTP probe for IPP, and a write test for the file backend.
package printer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ValidateFn is the signature of printer validation, swappable in tests.
type ValidateFn func(ctx context.Context, s Settings, name string) error

// Validate checks that the named printer is reachable through the backend.
// The context allows cancellation when the user quits during validation.
func Validate(ctx context.Context, s Settings, name string) error {
	if name == "" {
		return fmt.Errorf("printer name is required")
	}
	switch s.Backend {
	case "", BackendLP:
		return validateLP(ctx, s.LPCommand, name)
	case BackendIPP:
		return validateIPP(ctx, s.IPPURL, name)
	case BackendFile:
		return validateDir(s.OutputDir)
	}
	return fmt.Errorf("unknown printer backend %q", s.Backend)
}

// lpstatCommand returns the lpstat that belongs to the configured lp command.
// A bare lp name resolves through PATH; an lp given by path uses the lpstat
// next to it.
func lpstatCommand(lp string) string {
	if lp != "" && strings.ContainsRune(lp, filepath.Separator) {
		return filepath.Join(filepath.Dir(lp), "lpstat")
	}
	return "lpstat"
}

func validateLP(ctx context.Context, lp, name string) error {
	out, err := exec.CommandContext(ctx, lpstatCommand(lp), "-p", name).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("lpstat failed: %w", err)
		}
		return fmt.Errorf("lpstat failed: %s", msg)
	}
	return nil
}

// validateIPP fetches the printer's page on the IPP server's HTTP interface.
func validateIPP(ctx context.Context, rawURL, name string) error {
	host, port, _, _, useTLS, err := ParseIPPURL(rawURL)
	if err != nil {
		return err
	}
	scheme := "http"
	if useTLS {
		scheme = "https"
	}
	probe := fmt.Sprintf("%s://%s:%d/printers/%s", scheme, host, port, url.PathEscape(name))

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(ctx, "GET", probe, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("printer server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func validateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("output_dir is required for the file backend")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("output dir not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(filepath.Clean(name))
}
