// ABOUTME: Cobra command for interactive printer setup.
// ABOUTME: Launches a bubbletea TUI wizard to choose and validate the label printer.
package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/kultpiva/internal/config"
	"github.com/2389-research/kultpiva/internal/printer"
	"github.com/2389-research/kultpiva/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the label printer",
	Long:  "Interactive wizard to choose the print backend and printer, then check that it is reachable.",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	current := printer.Settings{
		Backend:   cfg.Printer.Backend,
		IPPURL:    cfg.Printer.IPPURL,
		OutputDir: cfg.Printer.OutputDir,
		LPCommand: cfg.Printer.LPCommand,
	}
	model := tui.NewSetupModel(current, cfg.Printer.Name).WithValidateFn(validateExpanded)

	p := tea.NewProgram(model)
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Println("Setup cancelled.")
		return nil
	}

	s, name := final.Result()
	cfg.Printer.Name = name
	cfg.Printer.Backend = s.Backend
	cfg.Printer.IPPURL = s.IPPURL
	cfg.Printer.OutputDir = s.OutputDir

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Println("Config saved successfully.")
	} else {
		fmt.Printf("Config saved to %s\n", configPath)
	}
	return nil
}

// validateExpanded checks the printer with ~ in the output dir resolved.
func validateExpanded(ctx context.Context, s printer.Settings, name string) error {
	dir, err := config.ExpandPath(s.OutputDir)
	if err != nil {
		return err
	}
	s.OutputDir = dir
	return printer.Validate(ctx, s, name)
}
