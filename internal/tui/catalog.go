// ABOUTME: Bubbletea model for browsing the beer catalog and printing labels.
// ABOUTME: Holds explicit catalog.State and routes keys to search, add, delete, preview, and print actions.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/2389-research/kultpiva/internal/catalog"
	"github.com/2389-research/kultpiva/internal/models"
)

// Mode is the interaction mode of the catalog browser.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeSearch
	ModeAdd
	ModeConfirmDelete
	ModePreview
	ModeConfirmOverwrite
)

// overwriteAction is a write held back until the user agrees to replace
// a catalog file that could not be read.
type overwriteAction int

const (
	overwriteNone overwriteAction = iota
	overwriteAdd
	overwriteDelete
	overwriteSave
)

const (
	defaultListHeight = 12
	previewColumns    = 72
)

// catalogChangedMsg reports that the catalog file changed on disk.
type catalogChangedMsg struct{}

// printResultMsg carries the result of an async print.
type printResultMsg struct {
	name string
	err  error
}

var (
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle    = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("99"))
)

// CatalogModel is the bubbletea model for the catalog browser.
type CatalogModel struct {
	catalog  *catalog.Catalog
	state    catalog.State
	mode     Mode
	search   textinput.Model
	form     [4]textinput.Model
	focus    int
	spinner  spinner.Model
	printing bool
	pending  overwriteAction
	// overwriteOK is set once the user agreed to replace an unreadable file.
	overwriteOK bool
	changes     <-chan struct{}
	status      string
	failed      bool
	height      int
	quitting    bool
}

// NewCatalogModel creates a browser over c. Signals on changes trigger a reload.
func NewCatalogModel(c *catalog.Catalog, changes <-chan struct{}) CatalogModel {
	search := textinput.New()
	search.Placeholder = "name or type"
	search.Prompt = "/ "
	search.Width = 40

	var form [4]textinput.Model
	for i, field := range models.Fields {
		in := textinput.New()
		in.Placeholder = field
		in.Width = 40
		in.CharLimit = 120
		form[i] = in
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := CatalogModel{
		catalog: c,
		search:  search,
		form:    form,
		spinner: sp,
		changes: changes,
		height:  defaultListHeight,
	}
	m.state = c.Reset(catalog.State{})
	return m
}

// WithError shows err on the status line, e.g. a failed initial load.
func (m CatalogModel) WithError(err error) CatalogModel {
	if err != nil {
		m.setError(err)
	}
	return m
}

// State returns the current query and selection.
func (m CatalogModel) State() catalog.State {
	return m.state
}

// Mode returns the current interaction mode.
func (m CatalogModel) Mode() Mode {
	return m.mode
}

// Status returns the status line text and whether it reports a failure.
func (m CatalogModel) Status() (string, bool) {
	return m.status, m.failed
}

// Init implements tea.Model.
func (m CatalogModel) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return catalogChangedMsg{}
	}
}

// Update implements tea.Model.
func (m CatalogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - 12; h > 3 {
			m.height = h
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case ModeSearch:
			return m.updateSearch(msg)
		case ModeAdd:
			return m.updateForm(msg)
		case ModeConfirmDelete:
			return m.updateConfirm(msg)
		case ModeConfirmOverwrite:
			return m.updateOverwrite(msg)
		case ModePreview:
			m.mode = ModeBrowse
			return m, nil
		}
		return m.updateBrowse(msg)

	case catalogChangedMsg:
		m = m.reload()
		return m, waitForChange(m.changes)

	case printResultMsg:
		m.printing = false
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setInfo(fmt.Sprintf("Label for %q sent to %s", msg.name, m.catalog.PrinterName()))
		}
		return m, nil

	case spinner.TickMsg:
		if m.printing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m CatalogModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "/":
		m.mode = ModeSearch
		m.search.SetValue(m.state.Query)
		m.search.CursorEnd()
		m.search.Focus()
		return m, textinput.Blink
	case "esc":
		m.state = m.catalog.Reset(m.state)
		m.status = ""
	case "a":
		m.mode = ModeAdd
		m.focus = 0
		for i := range m.form {
			m.form[i].SetValue("")
			m.form[i].Blur()
		}
		m.form[0].Focus()
		m.status = ""
		return m, textinput.Blink
	case "d":
		if m.catalog.Selected(m.state) == nil {
			m.setInfo("Select a record to delete")
			return m, nil
		}
		m.mode = ModeConfirmDelete
	case "v", "enter":
		if m.catalog.Selected(m.state) == nil {
			m.setInfo("Select a record to preview")
			return m, nil
		}
		m.mode = ModePreview
	case "p":
		return m.startPrint()
	case "s":
		if guarded, ok := m.guardOverwrite(overwriteSave); ok {
			return guarded, nil
		}
		return m.save(), nil
	}
	return m, nil
}

func (m CatalogModel) save() CatalogModel {
	if err := m.catalog.Save(); err != nil {
		m.setError(err)
	} else {
		m.setInfo("Saved to " + m.catalog.Path())
	}
	return m
}

func (m *CatalogModel) move(delta int) {
	visible := m.catalog.Visible(m.state)
	if len(visible) == 0 {
		return
	}
	idx := 0
	for i, r := range visible {
		if r.ID == m.state.Selected {
			idx = i + delta
			break
		}
	}
	idx = max(0, min(idx, len(visible)-1))
	m.state = m.catalog.Select(m.state, visible[idx].ID)
}

func (m CatalogModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.state = m.catalog.Search(m.state, m.search.Value())
		m.search.Blur()
		m.mode = ModeBrowse
		if len(m.catalog.Visible(m.state)) == 0 {
			m.setInfo(fmt.Sprintf("Nothing matches %q", m.state.Query))
		} else {
			m.status = ""
		}
		return m, nil
	case tea.KeyEscape:
		m.state = m.catalog.Reset(m.state)
		m.search.SetValue("")
		m.search.Blur()
		m.mode = ModeBrowse
		m.status = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m CatalogModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.form[m.focus].Blur()
		m.mode = ModeBrowse
		m.status = ""
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m.focusField(m.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m.focusField(m.focus - 1)
	case tea.KeyEnter:
		if m.focus < len(m.form)-1 {
			return m.focusField(m.focus + 1)
		}
		return m.submitForm()
	case tea.KeyCtrlS:
		return m.submitForm()
	}
	var cmd tea.Cmd
	m.form[m.focus], cmd = m.form[m.focus].Update(msg)
	return m, cmd
}

func (m CatalogModel) focusField(i int) (tea.Model, tea.Cmd) {
	m.form[m.focus].Blur()
	m.focus = (i + len(m.form)) % len(m.form)
	m.form[m.focus].Focus()
	return m, textinput.Blink
}

func (m CatalogModel) submitForm() (tea.Model, tea.Cmd) {
	in := models.BeerInput{
		Name:     m.form[0].Value(),
		Type:     m.form[1].Value(),
		Price:    m.form[2].Value(),
		Greeting: m.form[3].Value(),
	}
	var verr *models.ValidationError
	if errors.As(in.Validate(), &verr) {
		m.setError(fmt.Errorf("fill in all fields: %s", strings.Join(verr.Fields, ", ")))
		return m, nil
	}
	if guarded, ok := m.guardOverwrite(overwriteAdd); ok {
		return guarded, nil
	}
	st, rec, err := m.catalog.Add(m.state, in)

	m.form[m.focus].Blur()
	m.state = st
	m.mode = ModeBrowse
	if err != nil {
		m.setError(fmt.Errorf("%w (press s to retry)", err))
		return m, nil
	}
	m.setInfo(fmt.Sprintf("Added %q", rec.Name))
	return m, nil
}

func (m CatalogModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if guarded, ok := m.guardOverwrite(overwriteDelete); ok {
			return guarded, nil
		}
		return m.deleteSelected(), nil
	case "n", "N", "esc", "q":
		m.mode = ModeBrowse
	}
	return m, nil
}

func (m CatalogModel) deleteSelected() CatalogModel {
	rec := m.catalog.Selected(m.state)
	st, err := m.catalog.Delete(m.state)
	m.state = st
	m.mode = ModeBrowse
	if err != nil {
		m.setError(fmt.Errorf("%w (press s to retry)", err))
		return m
	}
	if rec != nil {
		m.setInfo(fmt.Sprintf("Deleted %q", rec.Name))
	}
	return m
}

// guardOverwrite diverts a write to the overwrite prompt while the catalog
// file on disk is unreadable and the user has not agreed to replace it.
func (m CatalogModel) guardOverwrite(action overwriteAction) (CatalogModel, bool) {
	if !m.catalog.LoadFailed() || m.overwriteOK {
		return m, false
	}
	m.pending = action
	m.mode = ModeConfirmOverwrite
	return m, true
}

func (m CatalogModel) updateOverwrite(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.pending
	switch msg.String() {
	case "y", "Y":
		m.pending = overwriteNone
		m.overwriteOK = true
		switch action {
		case overwriteAdd:
			m.mode = ModeAdd
			return m.submitForm()
		case overwriteDelete:
			return m.deleteSelected(), nil
		case overwriteSave:
			m.mode = ModeBrowse
			return m.save(), nil
		}
		m.mode = ModeBrowse
	case "n", "N", "esc", "q":
		m.pending = overwriteNone
		m.mode = ModeBrowse
		if action == overwriteAdd {
			m.mode = ModeAdd
		}
		m.setInfo("Not saved; " + m.catalog.Path() + " left untouched")
	}
	return m, nil
}

func (m CatalogModel) startPrint() (tea.Model, tea.Cmd) {
	if m.printing {
		return m, nil
	}
	// Render here so the print goroutine never touches the record list.
	img, rec, err := m.catalog.Label(m.state)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.printing = true
	m.setInfo("")
	c, snapshot := m.catalog, *rec
	return m, tea.Batch(func() tea.Msg {
		return printResultMsg{name: snapshot.Name, err: c.PrintImage(context.Background(), img, &snapshot)}
	}, m.spinner.Tick)
}

// reload picks up external edits, keeping the selection when the record survives.
func (m CatalogModel) reload() CatalogModel {
	changed, err := m.catalog.Reload()
	if err != nil {
		m.overwriteOK = false
		m.state = m.catalog.Reset(m.state)
		m.setError(err)
		return m
	}
	if !changed {
		return m
	}
	prev := m.state.Selected
	m.state = m.catalog.Search(m.state, m.state.Query)
	m.state = m.catalog.Select(m.state, prev)
	m.setInfo("Catalog reloaded from disk")
	return m
}

func (m *CatalogModel) setError(err error) {
	m.status = err.Error()
	m.failed = true
}

func (m *CatalogModel) setInfo(s string) {
	m.status = s
	m.failed = false
}

// View implements tea.Model.
func (m CatalogModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   КУЛЬТ ПИВА"))
	b.WriteString(titleStyle.Render(" - Beer labels"))
	b.WriteString("\n\n")

	switch m.mode {
	case ModePreview:
		m.viewPreview(&b)
	case ModeAdd:
		m.viewForm(&b)
	case ModeConfirmOverwrite:
		if m.pending == overwriteAdd {
			m.viewForm(&b)
		} else {
			m.viewList(&b)
		}
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("%s could not be read; saving replaces it. Continue? [y/n]", m.catalog.Path())))
		b.WriteString("\n")
	default:
		m.viewList(&b)
	}

	b.WriteString("\n")
	switch {
	case m.printing:
		b.WriteString(m.spinner.View())
		b.WriteString(" Printing...")
	case m.status != "" && m.failed:
		b.WriteString(errorStyle.Render("✗ " + m.status))
	case m.status != "":
		b.WriteString(successStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(promptStyle.Render(m.help()))
	b.WriteString("\n")
	return b.String()
}

func (m CatalogModel) viewList(b *strings.Builder) {
	if m.mode == ModeSearch {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	} else if m.state.Query != "" {
		b.WriteString(stepStyle.Render(fmt.Sprintf("Filter: %q", m.state.Query)))
		b.WriteString("\n\n")
	}

	visible := m.catalog.Visible(m.state)
	if len(visible) == 0 {
		b.WriteString(dimStyle.Render("  No beers"))
		b.WriteString("\n")
	}

	sel := 0
	for i, r := range visible {
		if r.ID == m.state.Selected {
			sel = i
		}
	}
	start := max(0, sel-m.height+1)
	end := min(len(visible), start+m.height)
	for _, r := range visible[start:end] {
		row := column(r.Name, 28) + " " + column(r.Type, 18) + " " + runewidth.FillLeft(r.Price, 8)
		if r.ID == m.state.Selected {
			b.WriteString(selectedStyle.Render("> " + row))
		} else {
			b.WriteString("  " + row)
		}
		b.WriteString("\n")
	}
	if len(visible) > m.height {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d of %d", sel+1, len(visible))))
		b.WriteString("\n")
	}

	if rec := m.catalog.Selected(m.state); rec != nil {
		b.WriteString("\n")
		for _, field := range models.Fields {
			b.WriteString(labelStyle.Render(field))
			b.WriteString(rec.Value(field))
			b.WriteString("\n")
		}
	}

	if m.mode == ModeConfirmDelete {
		if rec := m.catalog.Selected(m.state); rec != nil {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(fmt.Sprintf("Delete %q? [y/n]", rec.Name)))
			b.WriteString("\n")
		}
	}
}

// column fits s into width terminal cells.
func column(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

func (m CatalogModel) viewForm(b *strings.Builder) {
	b.WriteString(stepStyle.Render("New beer"))
	b.WriteString("\n\n")
	for i, field := range models.Fields {
		b.WriteString(labelStyle.Render(field))
		b.WriteString(m.form[i].View())
		b.WriteString("\n")
	}
}

func (m CatalogModel) viewPreview(b *strings.Builder) {
	img, rec, err := m.catalog.Label(m.state)
	if err != nil {
		b.WriteString(errorStyle.Render(err.Error()))
		b.WriteString("\n")
		return
	}
	b.WriteString(stepStyle.Render(rec.Name))
	b.WriteString("\n")
	b.WriteString(RenderPreview(img, previewColumns))
	b.WriteString("\n")
	if fonts := m.catalog.Renderer().Fonts(); fonts.Degraded {
		b.WriteString(dimStyle.Render("fonts unavailable, using built-in bitmap font"))
		b.WriteString("\n")
	}
}

func (m CatalogModel) help() string {
	switch m.mode {
	case ModeSearch:
		return "enter apply  esc reset"
	case ModeAdd:
		return "tab next  enter next/save  ctrl+s save  esc cancel"
	case ModeConfirmDelete:
		return "y delete  n cancel"
	case ModeConfirmOverwrite:
		return "y replace file  n keep file"
	case ModePreview:
		return "any key back"
	}
	return "↑/↓ move  / search  a add  d delete  v preview  p print  s save  q quit"
}
