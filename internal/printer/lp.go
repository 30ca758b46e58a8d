// ABOUTME: CUPS command-line backend for the spooling printer.
// ABOUTME: Pipes each PNG page to `lp -d <printer>` on stdin.
package printer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// LPSubmitter sends pages through the CUPS lp command.
type LPSubmitter struct {
	// Command overrides the lp binary; empty means "lp".
	Command string
}

func (s *LPSubmitter) command() string {
	if s.Command == "" {
		return "lp"
	}
	return s.Command
}

// Submit runs lp with the page on stdin.
func (s *LPSubmitter) Submit(ctx context.Context, printer, title string, page []byte) error {
	cmd := exec.CommandContext(ctx, s.command(),
		"-d", printer,
		"-t", title,
		"-o", "fit-to-page",
		"-",
	)
	cmd.Stdin = bytes.NewReader(page)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s failed: %w", s.command(), err)
		}
		return fmt.Errorf("%s failed: %w: %s", s.command(), err, msg)
	}
	return nil
}
