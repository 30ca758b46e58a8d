// ABOUTME: File backend for the spooling printer.
// ABOUTME: Writes each page as a PNG into a directory instead of a physical printer.
package printer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// FileSubmitter writes pages to Dir as <printer>-<title>-<n>.png.
type FileSubmitter struct {
	Dir string
}

// Submit writes the page to the next free file name.
func (s *FileSubmitter) Submit(ctx context.Context, printer, title string, page []byte) error {
	if err := os.MkdirAll(s.Dir, 0750); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	base := sanitize(printer) + "-" + sanitize(title)
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(s.Dir, fmt.Sprintf("%s-%d.png", base, n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if _, err := f.Write(page); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return f.Close()
	}
}

// sanitize keeps letters and digits and turns everything else into '_'.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "page"
	}
	return s
}
