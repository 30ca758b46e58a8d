// ABOUTME: Interactive TUI wizard for configuring the label printer.
// ABOUTME: Collects backend, printer name, and IPP URL or output dir, then validates reachability.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/kultpiva/internal/printer"
)

// Step represents the current wizard step.
type Step int

const (
	StepBackend Step = iota
	StepPrinterName
	StepTarget
	StepValidating
	StepDone
	StepFailed
)

// validationResultMsg carries the result of an async validation attempt.
type validationResultMsg struct {
	err error
}

// cancelHolder shares a cancel function across bubbletea model copies.
// This MUST be stored as a pointer field on SetupModel so that value-receiver
// methods (required by tea.Model) can store the cancel func and have it
// visible to all copies of the model.
type cancelHolder struct {
	cancel context.CancelFunc
}

// SetupModel is the bubbletea model for the printer setup wizard.
type SetupModel struct {
	step          Step
	inputs        [3]textinput.Model
	spinner       spinner.Model
	validateFn    printer.ValidateFn
	lpCommand     string
	cancelCtx     *cancelHolder
	validationErr error
	inputErr      string
	quitting      bool
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	brandStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// NewSetupModel creates a new setup wizard model, pre-filling with existing config values.
func NewSetupModel(s printer.Settings, name string) SetupModel {
	backendInput := textinput.New()
	backendInput.Placeholder = printer.BackendLP
	backendInput.Focus()
	backendInput.Width = 50
	if s.Backend != "" {
		backendInput.SetValue(s.Backend)
	}

	nameInput := textinput.New()
	nameInput.Placeholder = printer.DefaultName
	nameInput.Width = 50
	if name != "" {
		nameInput.SetValue(name)
	}

	targetInput := textinput.New()
	targetInput.Width = 50
	switch s.Backend {
	case printer.BackendIPP:
		targetInput.SetValue(s.IPPURL)
	case printer.BackendFile:
		targetInput.SetValue(s.OutputDir)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return SetupModel{
		step:       StepBackend,
		inputs:     [3]textinput.Model{backendInput, nameInput, targetInput},
		spinner:    sp,
		validateFn: printer.Validate,
		lpCommand:  s.LPCommand,
		cancelCtx:  &cancelHolder{},
	}
}

// WithValidateFn replaces the reachability check run before saving.
func (m SetupModel) WithValidateFn(fn printer.ValidateFn) SetupModel {
	m.validateFn = fn
	return m
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEscape:
			m.quitting = true
			if m.cancelCtx.cancel != nil {
				m.cancelCtx.cancel()
			}
			return m, tea.Quit
		}

		switch m.step {
		case StepBackend, StepPrinterName, StepTarget:
			return m.updateInput(msg)
		case StepFailed:
			return m.updateFailed(msg)
		}

	case validationResultMsg:
		m.cancelCtx.cancel = nil
		if msg.err == nil {
			m.step = StepDone
			return m, tea.Quit
		}
		m.validationErr = msg.err
		m.step = StepFailed
		return m, nil

	case spinner.TickMsg:
		if m.step == StepValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		idx := int(m.step)
		m.inputErr = ""

		switch m.step {
		case StepBackend:
			val := strings.ToLower(strings.TrimSpace(m.inputs[0].Value()))
			if val == "" {
				val = printer.BackendLP
			}
			switch val {
			case printer.BackendLP, printer.BackendIPP, printer.BackendFile:
			default:
				m.inputErr = fmt.Sprintf("unknown backend %q (use lp, ipp or file)", val)
				return m, nil
			}
			m.inputs[0].SetValue(val)
			m.inputs[2].Placeholder = m.targetPlaceholder()

		case StepPrinterName:
			if strings.TrimSpace(m.inputs[1].Value()) == "" {
				m.inputs[1].SetValue(printer.DefaultName)
			}

		case StepTarget:
			val := strings.TrimSpace(m.inputs[2].Value())
			if val == "" {
				return m, nil
			}
			if m.backend() == printer.BackendIPP {
				if _, _, _, _, _, err := printer.ParseIPPURL(val); err != nil {
					m.inputErr = err.Error()
					return m, nil
				}
			}
			m.inputs[2].SetValue(val)
		}

		m.inputs[idx].Blur()

		switch m.step {
		case StepBackend:
			m.step = StepPrinterName
			m.inputs[1].Focus()
			return m, textinput.Blink
		case StepPrinterName:
			if m.backend() == printer.BackendLP {
				m.step = StepValidating
				return m, tea.Batch(m.startValidation(), m.spinner.Tick)
			}
			m.step = StepTarget
			m.inputs[2].Focus()
			return m, textinput.Blink
		case StepTarget:
			m.step = StepValidating
			return m, tea.Batch(m.startValidation(), m.spinner.Tick)
		}
	}

	// Forward to the active input
	idx := int(m.step)
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)
	return m, cmd
}

func (m SetupModel) updateFailed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyRunes {
		switch msg.Runes[0] {
		case 'r':
			m.step = StepValidating
			m.validationErr = nil
			return m, tea.Batch(m.startValidation(), m.spinner.Tick)
		case 's':
			m.step = StepDone
			return m, tea.Quit
		case 'q':
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m SetupModel) startValidation() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelCtx.cancel = cancel
	settings, name := m.Result()
	fn := m.validateFn
	return func() tea.Msg {
		return validationResultMsg{err: fn(ctx, settings, name)}
	}
}

func (m SetupModel) backend() string {
	if v := m.inputs[0].Value(); v != "" {
		return v
	}
	return printer.BackendLP
}

func (m SetupModel) targetLabel() string {
	if m.backend() == printer.BackendFile {
		return "Output directory"
	}
	return "IPP URL"
}

func (m SetupModel) targetPlaceholder() string {
	if m.backend() == printer.BackendFile {
		return "~/labels"
	}
	return "ipp://localhost:631"
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   КУЛЬТ ПИВА"))
	b.WriteString(titleStyle.Render(" - Printer setup"))
	b.WriteString("\n\n")
	b.WriteString("Choose where beer labels are printed.\n\n")

	switch m.step {
	case StepBackend:
		b.WriteString(stepStyle.Render("Step 1 of 3: Backend (lp, ipp or file)"))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("(press Enter for lp)"))
		b.WriteString("\n")
		b.WriteString(m.inputs[0].View())
		b.WriteString("\n")

	case StepPrinterName:
		b.WriteString(fmt.Sprintf("  Backend: %s\n\n", m.backend()))
		b.WriteString(stepStyle.Render("Step 2 of 3: Printer name"))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("(press Enter for default)"))
		b.WriteString("\n")
		b.WriteString(m.inputs[1].View())
		b.WriteString("\n")

	case StepTarget:
		b.WriteString(fmt.Sprintf("  Backend: %s\n", m.backend()))
		b.WriteString(fmt.Sprintf("  Printer: %s\n\n", m.inputs[1].Value()))
		b.WriteString(stepStyle.Render("Step 3 of 3: " + m.targetLabel()))
		b.WriteString("\n")
		b.WriteString(m.inputs[2].View())
		b.WriteString("\n")

	case StepValidating:
		b.WriteString(fmt.Sprintf("  Backend: %s\n", m.backend()))
		b.WriteString(fmt.Sprintf("  Printer: %s\n", m.inputs[1].Value()))
		if m.backend() != printer.BackendLP {
			b.WriteString(fmt.Sprintf("  %s: %s\n", m.targetLabel(), m.inputs[2].Value()))
		}
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" Checking printer...")
		b.WriteString("\n")

	case StepDone:
		b.WriteString(successStyle.Render("✓ Printer ready!"))
		b.WriteString("\n")

	case StepFailed:
		errMsg := "unknown error"
		if m.validationErr != nil {
			errMsg = m.validationErr.Error()
		}
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ Validation failed: %s", errMsg)))
		b.WriteString("\n\n")
		b.WriteString(promptStyle.Render("[r]etry  [s]ave anyway  [q]uit"))
		b.WriteString("\n")
	}

	if m.inputErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.inputErr))
		b.WriteString("\n")
	}

	return b.String()
}

// Result returns the entered printer settings and name.
func (m SetupModel) Result() (printer.Settings, string) {
	s := printer.Settings{Backend: m.backend(), LPCommand: m.lpCommand}
	switch s.Backend {
	case printer.BackendIPP:
		s.IPPURL = m.inputs[2].Value()
	case printer.BackendFile:
		s.OutputDir = m.inputs[2].Value()
	}
	name := m.inputs[1].Value()
	if name == "" {
		name = printer.DefaultName
	}
	return s, name
}

// ShouldSave returns true if the wizard completed (via validation success or
// "save anyway") and the user did not cancel with Ctrl+C, Escape, or 'q'.
func (m SetupModel) ShouldSave() bool {
	return m.step == StepDone && !m.quitting
}
