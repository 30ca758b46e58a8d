// ABOUTME: Root Cobra command and global flags for kultpiva CLI.
// ABOUTME: Loads config, builds the logger, and wires store, renderer, printer, and catalog.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389-research/kultpiva/internal/catalog"
	"github.com/2389-research/kultpiva/internal/config"
	"github.com/2389-research/kultpiva/internal/label"
	"github.com/2389-research/kultpiva/internal/printer"
	"github.com/2389-research/kultpiva/internal/storage"
)

var globalConfig *config.Config
var globalLogger *slog.Logger
var globalLogFile io.Closer
var globalStore storage.RecordStore
var globalCatalog *catalog.Catalog

// globalLoadErr is set when the catalog file exists but could not be read.
var globalLoadErr error

var dataFileFlag string

var rootCmd = &cobra.Command{
	Use:   "kultpiva",
	Short: "Beer catalog and label printer",
	Long: `
██╗  ██╗██╗   ██╗██╗  ████████╗██████╗ ██╗██╗   ██╗ █████╗
██║ ██╔╝██║   ██║██║  ╚══██╔══╝██╔══██╗██║██║   ██║██╔══██╗
█████╔╝ ██║   ██║██║     ██║   ██████╔╝██║██║   ██║███████║
██╔═██╗ ██║   ██║██║     ██║   ██╔═══╝ ██║╚██╗ ██╔╝██╔══██║
██║  ██╗╚██████╔╝███████╗██║   ██║     ██║ ╚████╔╝ ██║  ██║
╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═╝   ╚═╝     ╚═╝  ╚═══╝  ╚═╝  ╚═╝

   КУЛЬТ ПИВА

Keep the beer list in one JSON file and print a 580x400 label
for any beer on the shop's label printer.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "setup" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		globalConfig = cfg
		if dataFileFlag != "" {
			cfg.DataFile = dataFileFlag
		}

		logger, closer, err := newLogger(cfg, isInteractive(cmd), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		globalLogger = logger
		globalLogFile = closer

		dataFile, err := cfg.GetDataFile()
		if err != nil {
			return fmt.Errorf("failed to resolve data file: %w", err)
		}
		store, err := storage.NewJSONStore(dataFile)
		if err != nil {
			return fmt.Errorf("failed to open catalog store: %w", err)
		}
		globalStore = store

		opts, err := labelOptions(cfg)
		if err != nil {
			return err
		}
		renderer := label.NewRenderer(opts)
		if fonts := renderer.Fonts(); fonts.Degraded {
			logger.Warn("no scalable font available, labels use the built-in bitmap font")
		}

		catOpts := []catalog.Option{catalog.WithLogger(logger)}
		settings, err := printerSettings(cfg)
		if err != nil {
			return err
		}
		if pp, err := printer.New(settings); err != nil {
			logger.Warn("printer unavailable", "backend", settings.Backend, "error", err)
		} else {
			catOpts = append(catOpts, catalog.WithPrinter(pp, cfg.Printer.Name))
		}

		cat, err := catalog.New(store, renderer, catOpts...)
		if err != nil {
			return fmt.Errorf("failed to create catalog: %w", err)
		}
		globalCatalog = cat

		// A broken file leaves the session running with an empty list.
		if err := cat.Load(); err != nil {
			globalLoadErr = err
			if !isInteractive(cmd) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if globalStore != nil {
			_ = globalStore.Close()
			globalStore = nil
		}
		if globalLogFile != nil {
			_ = globalLogFile.Close()
			globalLogFile = nil
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataFileFlag, "data", "", "Catalog file (overrides data_file in config)")
}

// isInteractive reports whether cmd takes over the terminal: the bare root or tui.
func isInteractive(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "tui"
}

// newLogger builds the slog logger. Interactive sessions log to log.file or nowhere.
func newLogger(cfg *config.Config, interactive bool, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := cfg.GetLogLevel()
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = stderr
	var closer io.Closer
	if cfg.Log.File != "" {
		path, err := config.ExpandPath(cfg.Log.File)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve log file: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, closer = f, f
	} else if interactive {
		w = io.Discard
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closer, nil
}

// labelOptions maps config onto renderer options with font paths expanded.
func labelOptions(cfg *config.Config) (label.Options, error) {
	bold, err := config.ExpandPath(cfg.Label.BoldFont)
	if err != nil {
		return label.Options{}, fmt.Errorf("failed to resolve bold font: %w", err)
	}
	regular, err := config.ExpandPath(cfg.Label.RegularFont)
	if err != nil {
		return label.Options{}, fmt.Errorf("failed to resolve regular font: %w", err)
	}
	return label.Options{
		Brand:       cfg.Label.Brand,
		PricePrefix: cfg.Label.PricePrefix,
		Currency:    cfg.Label.Currency,
		BoldFont:    bold,
		RegularFont: regular,
	}, nil
}

// printerSettings maps config onto print backend settings.
func printerSettings(cfg *config.Config) (printer.Settings, error) {
	outDir, err := cfg.GetOutputDir()
	if err != nil {
		return printer.Settings{}, fmt.Errorf("failed to resolve output dir: %w", err)
	}
	return printer.Settings{
		Backend:   cfg.Printer.Backend,
		IPPURL:    cfg.Printer.IPPURL,
		OutputDir: outDir,
		LPCommand: cfg.Printer.LPCommand,
	}, nil
}
