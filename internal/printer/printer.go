// ABOUTME: Page printer capability used to send rendered labels to a printer.
// ABOUTME: Defines the device sequence, the opaque PrintError, and backend selection.
package printer

import (
	"context"
	"fmt"
	"image"
)

// Backend names accepted in Settings.
const (
	BackendLP   = "lp"
	BackendIPP  = "ipp"
	BackendFile = "file"
)

// DefaultName is the printer used when none is configured.
const DefaultName = "Xprinter XP-365B"

// Device is an open printer that accepts one document at a time.
type Device interface {
	StartDoc(title string) error
	StartPage() error
	DrawImage(img image.Image) error
	EndPage() error
	EndDoc() error
	Close() error
}

// PagePrinter opens devices by printer name.
type PagePrinter interface {
	Open(ctx context.Context, name string) (Device, error)
}

// PrintError reports any failure while printing. It is not retried.
type PrintError struct {
	Printer string
	Err     error
}

func (e *PrintError) Error() string {
	return fmt.Sprintf("print to %q failed: %v", e.Printer, e.Err)
}

func (e *PrintError) Unwrap() error {
	return e.Err
}

// Print draws img on a single page of a new document named title.
func Print(ctx context.Context, pp PagePrinter, name, title string, img image.Image) (err error) {
	wrap := func(step string, err error) error {
		return &PrintError{Printer: name, Err: fmt.Errorf("%s: %w", step, err)}
	}

	dev, err := pp.Open(ctx, name)
	if err != nil {
		return wrap("open", err)
	}
	defer func() {
		if cerr := dev.Close(); cerr != nil && err == nil {
			err = wrap("close", cerr)
		}
	}()

	if err := dev.StartDoc(title); err != nil {
		return wrap("start document", err)
	}
	if err := dev.StartPage(); err != nil {
		return wrap("start page", err)
	}
	if err := dev.DrawImage(img); err != nil {
		return wrap("draw", err)
	}
	if err := dev.EndPage(); err != nil {
		return wrap("end page", err)
	}
	if err := dev.EndDoc(); err != nil {
		return wrap("end document", err)
	}
	return nil
}

// Settings selects and configures a backend.
type Settings struct {
	Backend   string
	IPPURL    string
	OutputDir string
	LPCommand string
}

// New returns a PagePrinter for the configured backend.
func New(s Settings) (PagePrinter, error) {
	switch s.Backend {
	case "", BackendLP:
		return NewSpoolPrinter(&LPSubmitter{Command: s.LPCommand}), nil
	case BackendIPP:
		sub, err := NewIPPSubmitter(s.IPPURL)
		if err != nil {
			return nil, err
		}
		return NewSpoolPrinter(sub), nil
	case BackendFile:
		if s.OutputDir == "" {
			return nil, fmt.Errorf("output_dir is required for the file backend")
		}
		return NewSpoolPrinter(&FileSubmitter{Dir: s.OutputDir}), nil
	}
	return nil, fmt.Errorf("unknown printer backend %q", s.Backend)
}
