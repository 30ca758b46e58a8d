// ABOUTME: Catalog controller tying the record store, label renderer, and printer together.
// ABOUTME: Actions take and return an explicit State instead of holding UI selection.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/2389-research/kultpiva/internal/label"
	"github.com/2389-research/kultpiva/internal/models"
	"github.com/2389-research/kultpiva/internal/printer"
	"github.com/2389-research/kultpiva/internal/storage"
)

// DocumentTitle names print jobs.
const DocumentTitle = "Beer Label"

var (
	// ErrLoad wraps failures reading the catalog; the session continues empty.
	ErrLoad = errors.New("failed to load catalog")

	// ErrSave wraps failures writing the catalog; in-memory state is kept.
	ErrSave = errors.New("failed to save catalog")

	// ErrNoSelection is returned by actions that need a selected record.
	ErrNoSelection = errors.New("no record selected")

	// ErrNotFound is returned when a reference matches no record.
	ErrNotFound = errors.New("record not found")

	// ErrAmbiguous is returned when a reference matches several records.
	ErrAmbiguous = errors.New("reference matches more than one record")

	// ErrNoPrinter is returned by Print when no printer is configured.
	ErrNoPrinter = errors.New("no printer configured")
)

// State is the UI-facing selection and filter, passed through every action.
type State struct {
	Query    string
	Selected uuid.UUID
}

// Catalog owns the in-memory record list for one session.
type Catalog struct {
	store       storage.RecordStore
	renderer    *label.Renderer
	printer     printer.PagePrinter
	printerName string
	logger      *slog.Logger
	records     []*models.BeerRecord

	// loadErr is the last load failure, cleared by a successful load or save.
	loadErr error
}

// Option configures optional Catalog dependencies.
type Option func(*Catalog)

// WithPrinter sets the page printer and the configured printer name.
func WithPrinter(pp printer.PagePrinter, name string) Option {
	return func(c *Catalog) {
		c.printer = pp
		c.printerName = name
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = l
	}
}

// New creates a catalog over store. Call Load before use.
func New(store storage.RecordStore, renderer *label.Renderer, opts ...Option) (*Catalog, error) {
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("label renderer is required")
	}
	c := &Catalog{
		store:    store,
		renderer: renderer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		records:  []*models.BeerRecord{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Load replaces the in-memory list with the persisted one. On error the list
// is empty and the file on disk is left untouched.
func (c *Catalog) Load() error {
	records, err := c.store.Load()
	if records == nil {
		records = []*models.BeerRecord{}
	}
	c.records = records
	c.loadErr = nil
	if err != nil {
		c.logger.Warn("catalog load failed", "path", c.store.Path(), "error", err)
		c.loadErr = fmt.Errorf("%w: %w", ErrLoad, err)
		return c.loadErr
	}
	c.logger.Debug("catalog loaded", "path", c.store.Path(), "records", len(records))
	return nil
}

// Reload loads the catalog again if the file changed since the last load or save.
func (c *Catalog) Reload() (bool, error) {
	changed, err := c.store.Changed()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if !changed {
		return false, nil
	}
	return true, c.Load()
}

// Save writes the full list. Callers may retry after ErrSave.
func (c *Catalog) Save() error {
	if err := c.store.Save(c.records); err != nil {
		c.logger.Warn("catalog save failed", "path", c.store.Path(), "error", err)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	c.loadErr = nil
	c.logger.Debug("catalog saved", "path", c.store.Path(), "records", len(c.records))
	return nil
}

// LoadFailed reports whether the document on disk could not be read and has
// not been overwritten since. Saving now would replace its contents.
func (c *Catalog) LoadFailed() bool {
	return c.loadErr != nil
}

// Path returns the catalog document location.
func (c *Catalog) Path() string {
	return c.store.Path()
}

// Records returns all records in insertion order.
func (c *Catalog) Records() []*models.BeerRecord {
	out := make([]*models.BeerRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Visible returns the records matching st.Query.
func (c *Catalog) Visible(st State) []*models.BeerRecord {
	return storage.Filter(c.Records(), st.Query)
}

// Selected returns the selected record, or nil.
func (c *Catalog) Selected(st State) *models.BeerRecord {
	return storage.Find(c.records, st.Selected)
}

// Get returns the record with the given ID.
func (c *Catalog) Get(id uuid.UUID) (*models.BeerRecord, error) {
	if r := storage.Find(c.records, id); r != nil {
		return r, nil
	}
	return nil, ErrNotFound
}

// Resolve finds exactly one record by ID prefix or exact name.
func (c *Catalog) Resolve(ref string) (*models.BeerRecord, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotFound
	}
	if id, err := uuid.Parse(ref); err == nil {
		return c.Get(id)
	}
	matches := storage.FindByPrefix(c.records, ref)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	}
	return nil, fmt.Errorf("%w: %s (%d matches)", ErrAmbiguous, ref, len(matches))
}

// Search applies a trimmed filter and selects the first visible record.
func (c *Catalog) Search(st State, text string) State {
	st.Query = strings.TrimSpace(text)
	return c.selectFirst(st)
}

// Reset clears the filter and selects the first record.
func (c *Catalog) Reset(st State) State {
	st.Query = ""
	return c.selectFirst(st)
}

// Select marks id as selected if it is visible under st.Query.
func (c *Catalog) Select(st State, id uuid.UUID) State {
	if storage.Find(c.Visible(st), id) != nil {
		st.Selected = id
	}
	return st
}

func (c *Catalog) selectFirst(st State) State {
	st.Selected = uuid.Nil
	if visible := c.Visible(st); len(visible) > 0 {
		st.Selected = visible[0].ID
	}
	return st
}

// Add validates in, appends the record, and saves. A validation error leaves
// everything unchanged. A save error keeps the new record in memory.
func (c *Catalog) Add(st State, in models.BeerInput) (State, *models.BeerRecord, error) {
	rec, err := models.NewBeerRecord(in)
	if err != nil {
		return st, nil, err
	}
	c.records = storage.Add(c.records, rec)
	c.logger.Info("record added", "id", rec.ShortID(), "name", rec.Name)

	st = State{Selected: rec.ID}
	if err := c.Save(); err != nil {
		return st, rec, err
	}
	return st, rec, nil
}

// Delete removes the selected record and saves. With nothing selected it is a no-op.
func (c *Catalog) Delete(st State) (State, error) {
	if st.Selected == uuid.Nil {
		return st, nil
	}
	out, ok := storage.Remove(c.records, st.Selected)
	if !ok {
		st.Selected = uuid.Nil
		return st, nil
	}
	c.records = out
	c.logger.Info("record deleted", "id", st.Selected.String()[:8])

	st = c.selectFirst(st)
	if err := c.Save(); err != nil {
		return st, err
	}
	return st, nil
}

// Label renders the selected record.
func (c *Catalog) Label(st State) (*image.RGBA, *models.BeerRecord, error) {
	rec := c.Selected(st)
	if rec == nil {
		return nil, nil, ErrNoSelection
	}
	return c.renderer.Render(rec), rec, nil
}

// LabelPNG renders the selected record as PNG bytes.
func (c *Catalog) LabelPNG(st State) ([]byte, *models.BeerRecord, error) {
	rec := c.Selected(st)
	if rec == nil {
		return nil, nil, ErrNoSelection
	}
	data, err := c.renderer.RenderPNG(rec)
	if err != nil {
		return nil, rec, err
	}
	return data, rec, nil
}

// Print renders the selected record and sends it to the configured printer.
func (c *Catalog) Print(ctx context.Context, st State) error {
	img, rec, err := c.Label(st)
	if err != nil {
		return err
	}
	return c.PrintImage(ctx, img, rec)
}

// PrintImage sends an already rendered label for rec to the printer. It does
// not touch the record list, so it may run while other actions proceed.
func (c *Catalog) PrintImage(ctx context.Context, img image.Image, rec *models.BeerRecord) error {
	if c.printer == nil {
		return &printer.PrintError{Printer: c.printerName, Err: ErrNoPrinter}
	}
	if err := printer.Print(ctx, c.printer, c.printerName, DocumentTitle, img); err != nil {
		c.logger.Warn("print failed", "printer", c.printerName, "id", rec.ShortID(), "error", err)
		return err
	}
	c.logger.Info("label printed", "printer", c.printerName, "id", rec.ShortID())
	return nil
}

// PrinterName returns the configured printer name.
func (c *Catalog) PrinterName() string {
	return c.printerName
}

// Renderer returns the label renderer.
func (c *Catalog) Renderer() *label.Renderer {
	return c.renderer
}
