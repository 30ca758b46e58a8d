// ABOUTME: Spooling device that buffers drawn pages and submits them on EndDoc.
// ABOUTME: Enforces the start/draw/end call order and hands PNG pages to a Submitter.
package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
)

// Submitter delivers one encoded page to a named printer.
type Submitter interface {
	Submit(ctx context.Context, printer, title string, page []byte) error
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, printer, title string, page []byte) error

// Submit calls f.
func (f SubmitFunc) Submit(ctx context.Context, printer, title string, page []byte) error {
	return f(ctx, printer, title, page)
}

var (
	errNoDocument = errors.New("no document started")
	errInDocument = errors.New("document already started")
	errNoPage     = errors.New("no page started")
	errInPage     = errors.New("page already started")
	errEmptyPage  = errors.New("page has no image")
	errClosed     = errors.New("device closed")
	errEmptyDoc   = errors.New("document has no pages")
	errDrawnTwice = errors.New("page already has an image")
	errNilImage   = errors.New("nil image")
)

// SpoolPrinter opens spooling devices backed by a Submitter.
type SpoolPrinter struct {
	submit Submitter
}

// NewSpoolPrinter creates a printer that submits pages through s.
func NewSpoolPrinter(s Submitter) *SpoolPrinter {
	return &SpoolPrinter{submit: s}
}

// Open returns a device for the named printer.
func (p *SpoolPrinter) Open(ctx context.Context, name string) (Device, error) {
	if name == "" {
		return nil, fmt.Errorf("printer name is required")
	}
	return &spoolDevice{ctx: ctx, name: name, submit: p.submit}, nil
}

type spoolDevice struct {
	ctx    context.Context
	name   string
	submit Submitter

	closed bool
	inDoc  bool
	inPage bool
	title  string
	page   []byte
	pages  [][]byte
}

func (d *spoolDevice) StartDoc(title string) error {
	switch {
	case d.closed:
		return errClosed
	case d.inDoc:
		return errInDocument
	}
	d.inDoc = true
	d.title = title
	d.pages = nil
	return nil
}

func (d *spoolDevice) StartPage() error {
	switch {
	case d.closed:
		return errClosed
	case !d.inDoc:
		return errNoDocument
	case d.inPage:
		return errInPage
	}
	d.inPage = true
	d.page = nil
	return nil
}

func (d *spoolDevice) DrawImage(img image.Image) error {
	switch {
	case d.closed:
		return errClosed
	case !d.inPage:
		return errNoPage
	case d.page != nil:
		return errDrawnTwice
	case img == nil:
		return errNilImage
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}
	d.page = buf.Bytes()
	return nil
}

func (d *spoolDevice) EndPage() error {
	switch {
	case d.closed:
		return errClosed
	case !d.inPage:
		return errNoPage
	case d.page == nil:
		return errEmptyPage
	}
	d.pages = append(d.pages, d.page)
	d.page = nil
	d.inPage = false
	return nil
}

func (d *spoolDevice) EndDoc() error {
	switch {
	case d.closed:
		return errClosed
	case !d.inDoc:
		return errNoDocument
	case d.inPage:
		return errInPage
	case len(d.pages) == 0:
		return errEmptyDoc
	}
	pages := d.pages
	d.pages = nil
	d.inDoc = false

	for i, page := range pages {
		if err := d.ctx.Err(); err != nil {
			return err
		}
		if err := d.submit.Submit(d.ctx, d.name, d.title, page); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	return nil
}

// Close discards any unfinished document.
func (d *spoolDevice) Close() error {
	d.closed = true
	d.pages = nil
	d.page = nil
	return nil
}
