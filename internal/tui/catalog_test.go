// ABOUTME: Unit tests for the catalog browser bubbletea model.
// ABOUTME: Drives the model with synthetic key messages against a temp-dir catalog.
package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/kultpiva/internal/catalog"
	"github.com/2389-research/kultpiva/internal/label"
	"github.com/2389-research/kultpiva/internal/models"
	"github.com/2389-research/kultpiva/internal/printer"
	"github.com/2389-research/kultpiva/internal/storage"
)

const sampleCatalog = `[
  {"Название": "Жигулёвское", "Тип": "Лагер", "Цена": "120", "Приветствие": "Будьте здоровы"},
  {"Название": "Guinness", "Тип": "Stout", "Цена": "350", "Приветствие": "Sláinte"},
  {"Название": "Балтика 7", "Тип": "Лагер", "Цена": "99", "Приветствие": "Привет"}
]`

func newTestCatalog(t *testing.T, opts ...catalog.Option) *catalog.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), storage.DefaultFileName)
	if err := os.WriteFile(path, []byte(sampleCatalog), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	store, err := storage.NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore error: %v", err)
	}
	c, err := catalog.New(store, label.NewRenderer(label.DefaultOptions()), opts...)
	if err != nil {
		t.Fatalf("catalog.New error: %v", err)
	}
	if err := c.Load(); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return c
}

func press(t *testing.T, m CatalogModel, keys ...string) CatalogModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEscape}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(CatalogModel)
	}
	return m
}

func selectedName(m CatalogModel) string {
	if r := m.catalog.Selected(m.State()); r != nil {
		return r.Name
	}
	return ""
}

func TestCatalogModel_InitialSelection(t *testing.T) {
	m := NewCatalogModel(newTestCatalog(t), nil)
	if m.Mode() != ModeBrowse {
		t.Errorf("expected ModeBrowse, got %d", m.Mode())
	}
	if selectedName(m) != "Жигулёвское" {
		t.Errorf("expected first record selected, got %q", selectedName(m))
	}
	if m.Init() != nil {
		t.Error("expected no init cmd without a change channel")
	}
}

func TestCatalogModel_Navigation(t *testing.T) {
	m := NewCatalogModel(newTestCatalog(t), nil)
	m = press(t, m, "down", "j")
	if selectedName(m) != "Балтика 7" {
		t.Errorf("expected third record, got %q", selectedName(m))
	}
	m = press(t, m, "down")
	if selectedName(m) != "Балтика 7" {
		t.Errorf("expected selection to stop at the end, got %q", selectedName(m))
	}
	m = press(t, m, "k")
	if selectedName(m) != "Guinness" {
		t.Errorf("expected second record, got %q", selectedName(m))
	}
}

func TestCatalogModel_SearchApplyAndReset(t *testing.T) {
	m := NewCatalogModel(newTestCatalog(t), nil)
	m = press(t, m, "/")
	if m.Mode() != ModeSearch {
		t.Fatalf("expected ModeSearch, got %d", m.Mode())
	}
	m.search.SetValue("  STOUT ")
	m = press(t, m, "enter")

	if m.State().Query != "STOUT" {
		t.Errorf("expected trimmed query, got %q", m.State().Query)
	}
	if selectedName(m) != "Guinness" {
		t.Errorf("expected Guinness selected, got %q", selectedName(m))
	}
	if !strings.Contains(m.View(), "Filter") {
		t.Error("expected view to show the active filter")
	}

	m = press(t, m, "/", "esc")
	if m.State().Query != "" {
		t.Errorf("expected query reset, got %q", m.State().Query)
	}
	if len(m.catalog.Visible(m.State())) != 3 {
		t.Error("expected all records visible after reset")
	}
}

func TestCatalogModel_SearchNoMatches(t *testing.T) {
	m := NewCatalogModel(newTestCatalog(t), nil)
	m = press(t, m, "/")
	m.search.SetValue("ipa")
	m = press(t, m, "enter")
	if selectedName(m) != "" {
		t.Errorf("expected no selection, got %q", selectedName(m))
	}
	if status, _ := m.Status(); !strings.Contains(status, "Nothing matches") {
		t.Errorf("unexpected status %q", status)
	}
}

func TestCatalogModel_AddRecord(t *testing.T) {
	c := newTestCatalog(t)
	m := NewCatalogModel(c, nil)
	m = press(t, m, "/")
	m.search.SetValue("stout")
	m = press(t, m, "enter", "a")
	if m.Mode() != ModeAdd {
		t.Fatalf("expected ModeAdd, got %d", m.Mode())
	}

	m.form[0].SetValue("Хмельное")
	m.form[1].SetValue("Эль")
	m.form[2].SetValue("200")
	m.form[3].SetValue("Ура")
	m = press(t, m, "enter", "enter", "enter", "enter")

	if m.Mode() != ModeBrowse {
		t.Fatalf("expected ModeBrowse after submit, got %d", m.Mode())
	}
	if m.State().Query != "" {
		t.Error("expected query cleared after add")
	}
	if selectedName(m) != "Хмельное" {
		t.Errorf("expected new record selected, got %q", selectedName(m))
	}
	if status, failed := m.Status(); failed || !strings.Contains(status, "Added") {
		t.Errorf("unexpected status %q (failed=%v)", status, failed)
	}

	data, err := os.ReadFile(c.Path())
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !strings.Contains(string(data), "Хмельное") {
		t.Error("expected new record persisted")
	}
}

func TestCatalogModel_AddValidationKeepsForm(t *testing.T) {
	c := newTestCatalog(t)
	m := NewCatalogModel(c, nil)
	m = press(t, m, "a")
	m.form[0].SetValue("Only name")
	m.form[2].SetValue("   ")
	m = press(t, m, "tab", "tab", "tab", "enter")

	if m.Mode() != ModeAdd {
		t.Errorf("expected to stay in ModeAdd, got %d", m.Mode())
	}
	status, failed := m.Status()
	if !failed {
		t.Error("expected failure status")
	}
	for _, field := range []string{models.FieldType, models.FieldPrice, models.FieldGreeting} {
		if !strings.Contains(status, field) {
			t.Errorf("expected status to name %s, got %q", field, status)
		}
	}
	if len(c.Records()) != 3 {
		t.Error("expected catalog unchanged")
	}
}

func TestCatalogModel_AddCancel(t *testing.T) {
	c := newTestCatalog(t)
	m := NewCatalogModel(c, nil)
	m = press(t, m, "a")
	m.form[0].SetValue("Draft")
	m = press(t, m, "esc")
	if m.Mode() != ModeBrowse {
		t.Errorf("expected ModeBrowse after cancel, got %d", m.Mode())
	}
	if len(c.Records()) != 3 {
		t.Error("expected no record added on cancel")
	}
}

func TestCatalogModel_DeleteConfirm(t *testing.T) {
	c := newTestCatalog(t)
	m := NewCatalogModel(c, nil)
	m = press(t, m, "down", "d")
	if m.Mode() != ModeConfirmDelete {
		t.Fatalf("expected ModeConfirmDelete, got %d", m.Mode())
	}
	if !strings.Contains(m.View(), "Delete \"Guinness\"?") {
		t.Error("expected confirmation prompt naming the record")
	}

	m = press(t, m, "n")
	if len(c.Records()) != 3 {
		t.Fatal("expected no deletion after n")
	}

	m = press(t, m, "d", "y")
	if len(c.Records()) != 2 {
		t.Fatalf("expected 2 records after delete, got %d", len(c.Records()))
	}
	if selectedName(m) != "Жигулёвское" {
		t.Errorf("expected first record selected after delete, got %q", selectedName(m))
	}
}

func TestCatalogModel_DeleteWithoutSelection(t *testing.T) {
	m := NewCatalogModel(newTestCatalog(t), nil)
	m = press(t, m, "/")
	m.search.SetValue("nothing")
	m = press(t, m, "enter", "d")
	if m.Mode() != ModeBrowse {
		t.Errorf("expected to stay in ModeBrowse, got %d", m.Mode())
	}
	if status, _ := m.Status(); !strings.Contains(status, "Select a record") {
		t.Errorf("unexpected status %q", status)
	}
}

func TestCatalogModel_Preview(t *testing.T) {
	m := NewCatalogModel(newTestCatalog(t), nil)
	m = press(t, m, "v")
	if m.Mode() != ModePreview {
		t.Fatalf("expected ModePreview, got %d", m.Mode())
	}
	if !strings.Contains(m.View(), halfBlock) {
		t.Error("expected preview to contain half-block cells")
	}
	m = press(t, m, "x")
	if m.Mode() != ModeBrowse {
		t.Errorf("expected any key to leave preview, got %d", m.Mode())
	}
}

func TestCatalogModel_PrintWithoutSelection(t *testing.T) {
	m := NewCatalogModel(newTestCatalog(t), nil)
	m = press(t, m, "/")
	m.search.SetValue("nothing")
	m = press(t, m, "enter")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = updated.(CatalogModel)
	if cmd != nil {
		t.Error("expected no print cmd without a selection")
	}
	if _, failed := m.Status(); !failed {
		t.Error("expected failure status")
	}
}

func TestCatalogModel_PrintToFile(t *testing.T) {
	dir := t.TempDir()
	pp, err := printer.New(printer.Settings{Backend: printer.BackendFile, OutputDir: dir})
	if err != nil {
		t.Fatalf("printer.New error: %v", err)
	}
	m := NewCatalogModel(newTestCatalog(t, catalog.WithPrinter(pp, "Desk")), nil)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = updated.(CatalogModel)
	if cmd == nil {
		t.Fatal("expected print cmd")
	}
	if !strings.Contains(m.View(), "Printing") {
		t.Error("expected printing indicator")
	}

	batch := cmd().(tea.BatchMsg)
	result := batch[0]()
	updated, _ = m.Update(result)
	m = updated.(CatalogModel)

	if status, failed := m.Status(); failed || !strings.Contains(status, "Desk") {
		t.Errorf("unexpected status %q (failed=%v)", status, failed)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected one printed page, got %d", len(entries))
	}
}

func TestCatalogModel_PrintWhileDeleting(t *testing.T) {
	dir := t.TempDir()
	pp, err := printer.New(printer.Settings{Backend: printer.BackendFile, OutputDir: dir})
	if err != nil {
		t.Fatalf("printer.New error: %v", err)
	}
	c := newTestCatalog(t, catalog.WithPrinter(pp, "Desk"))
	m := NewCatalogModel(c, nil)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = updated.(CatalogModel)
	batch := cmd().(tea.BatchMsg)

	results := make(chan tea.Msg, 1)
	go func() { results <- batch[0]() }()

	m = press(t, m, "d", "y", "d", "y")
	if len(c.Records()) != 1 {
		t.Fatalf("expected 1 record after deletes, got %d", len(c.Records()))
	}

	updated, _ = m.Update(<-results)
	m = updated.(CatalogModel)
	if status, failed := m.Status(); failed || !strings.Contains(status, "Жигулёвское") {
		t.Errorf("unexpected status %q (failed=%v)", status, failed)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected one printed page, got %d", len(entries))
	}
}

func TestCatalogModel_PrintFailureShowsError(t *testing.T) {
	m := NewCatalogModel(newTestCatalog(t), nil)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = updated.(CatalogModel)
	batch := cmd().(tea.BatchMsg)
	updated, _ = m.Update(batch[0]())
	m = updated.(CatalogModel)

	if _, failed := m.Status(); !failed {
		t.Error("expected failure status without a printer")
	}
	if !strings.Contains(m.View(), "✗") {
		t.Error("expected error marker in view")
	}
}

func TestCatalogModel_ReloadOnChange(t *testing.T) {
	c := newTestCatalog(t)
	changes := make(chan struct{}, 1)
	m := NewCatalogModel(c, changes)
	m = press(t, m, "down")

	edited := `[{"Название": "Guinness", "Тип": "Stout", "Цена": "350", "Приветствие": "Sláinte"}]`
	if err := os.WriteFile(c.Path(), []byte(edited), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	changes <- struct{}{}
	msg := m.Init()()
	if _, ok := msg.(catalogChangedMsg); !ok {
		t.Fatalf("expected catalogChangedMsg, got %T", msg)
	}

	updated, cmd := m.Update(msg)
	m = updated.(CatalogModel)
	if cmd == nil {
		t.Error("expected the model to keep waiting for changes")
	}
	if len(c.Records()) != 1 {
		t.Errorf("expected 1 record after reload, got %d", len(c.Records()))
	}
	if selectedName(m) != "Guinness" {
		t.Errorf("expected selection kept across reload, got %q", selectedName(m))
	}
}

func newMalformedCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), storage.DefaultFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	store, err := storage.NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore error: %v", err)
	}
	c, err := catalog.New(store, label.NewRenderer(label.DefaultOptions()))
	if err != nil {
		t.Fatalf("catalog.New error: %v", err)
	}
	if err := c.Load(); err == nil {
		t.Fatal("expected Load to fail on a malformed file")
	}
	return c
}

func fileContent(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	return string(data)
}

func TestCatalogModel_AddAfterMalformedLoadAsksFirst(t *testing.T) {
	c := newMalformedCatalog(t)
	m := NewCatalogModel(c, nil)

	m = press(t, m, "a")
	m.form[0].SetValue("Хмельное")
	m.form[1].SetValue("Эль")
	m.form[2].SetValue("200")
	m.form[3].SetValue("Ура")
	m = press(t, m, "enter", "enter", "enter", "enter")

	if m.Mode() != ModeConfirmOverwrite {
		t.Fatalf("expected ModeConfirmOverwrite, got %d", m.Mode())
	}
	if !strings.Contains(m.View(), "could not be read") {
		t.Error("expected overwrite prompt in view")
	}
	if got := fileContent(t, c.Path()); got != "{not json" {
		t.Fatalf("expected file untouched before confirmation, got %q", got)
	}

	m = press(t, m, "n")
	if m.Mode() != ModeAdd {
		t.Fatalf("expected form kept after declining, got %d", m.Mode())
	}
	if m.form[0].Value() != "Хмельное" {
		t.Error("expected form values kept after declining")
	}
	if got := fileContent(t, c.Path()); got != "{not json" {
		t.Fatalf("expected file untouched after declining, got %q", got)
	}

	m = press(t, m, "ctrl+s")
	m = press(t, m, "y")
	if m.Mode() != ModeBrowse {
		t.Fatalf("expected ModeBrowse after confirming, got %d", m.Mode())
	}
	if !strings.Contains(fileContent(t, c.Path()), "Хмельное") {
		t.Error("expected new record persisted after confirming")
	}
	if c.LoadFailed() {
		t.Error("expected load failure cleared after the file was replaced")
	}
}

func TestCatalogModel_SaveAfterMalformedLoadAsksFirst(t *testing.T) {
	c := newMalformedCatalog(t)
	m := NewCatalogModel(c, nil)

	m = press(t, m, "s")
	if m.Mode() != ModeConfirmOverwrite {
		t.Fatalf("expected ModeConfirmOverwrite, got %d", m.Mode())
	}
	m = press(t, m, "esc")
	if m.Mode() != ModeBrowse {
		t.Fatalf("expected ModeBrowse after cancel, got %d", m.Mode())
	}
	if got := fileContent(t, c.Path()); got != "{not json" {
		t.Fatalf("expected file untouched after cancel, got %q", got)
	}

	m = press(t, m, "s", "y")
	if status, failed := m.Status(); failed || !strings.Contains(status, "Saved") {
		t.Errorf("unexpected status %q (failed=%v)", status, failed)
	}
	if got := fileContent(t, c.Path()); got == "{not json" {
		t.Error("expected file replaced after confirming")
	}
}

func TestCatalogModel_Quit(t *testing.T) {
	m := NewCatalogModel(newTestCatalog(t), nil)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = updated.(CatalogModel)
	if cmd == nil || !m.quitting {
		t.Error("expected quit on q")
	}
	if m.View() != "" {
		t.Error("expected empty view after quitting")
	}
}
