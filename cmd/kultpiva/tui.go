// ABOUTME: Cobra command that opens the interactive catalog browser.
// ABOUTME: Watches the data file so external edits show up while the TUI runs.
package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/kultpiva/internal/storage"
	"github.com/2389-research/kultpiva/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the catalog interactively",
	Long:  "Open the terminal catalog browser. This is also what running kultpiva without a command does.",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 1)
	notify := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
	if err := storage.Watch(ctx, globalCatalog.Path(), notify); err != nil {
		globalLogger.Warn("catalog watch disabled", "error", err)
	}

	model := tui.NewCatalogModel(globalCatalog, changes).WithError(globalLoadErr)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
