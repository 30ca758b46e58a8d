// ABOUTME: CLI commands for catalog records and labels.
// ABOUTME: Provides list, search, add, delete, render, and print subcommands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/2389-research/kultpiva/internal/catalog"
	"github.com/2389-research/kultpiva/internal/models"
	"github.com/2389-research/kultpiva/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all beers",
	Long:  "List every beer in the catalog in file order.",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search beers by name or type",
	Long:  "Show beers whose name or type contains the query, ignoring case.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a beer",
	Long:  "Add a beer to the catalog. All four fields are required.",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id-prefix|name>",
	Short: "Delete a beer",
	Long:  "Delete one beer chosen by ID prefix or exact name.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var renderCmd = &cobra.Command{
	Use:   "render <id-prefix|name>",
	Short: "Render a label to a PNG file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var printCmd = &cobra.Command{
	Use:   "print <id-prefix|name>",
	Short: "Print a label",
	Long:  "Render the label for one beer and send it to the configured printer.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrint,
}

// Flags
var (
	searchFuzzy  bool
	addName      string
	addType      string
	addPrice     string
	addGreeting  string
	renderOutput string
)

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(printCmd)

	searchCmd.Flags().BoolVar(&searchFuzzy, "fuzzy", false, "Rank approximate matches instead of substring search")

	addCmd.Flags().StringVar(&addName, "name", "", "Beer name ("+models.FieldName+")")
	addCmd.Flags().StringVar(&addType, "type", "", "Beer type ("+models.FieldType+")")
	addCmd.Flags().StringVar(&addPrice, "price", "", "Price per litre ("+models.FieldPrice+")")
	addCmd.Flags().StringVar(&addGreeting, "greeting", "", "Greeting line ("+models.FieldGreeting+")")

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "label.png", "Output PNG file")
}

func printRecords(records []*models.BeerRecord) {
	if len(records) == 0 {
		fmt.Println("No beers found.")
		return
	}
	for _, r := range records {
		fmt.Printf("%s  %s %s %s  %s\n", r.ShortID(),
			runewidth.FillRight(r.Name, 28), runewidth.FillRight(r.Type, 18),
			runewidth.FillLeft(r.Price, 8), r.Greeting)
	}
}

// requireLoaded refuses changes that would overwrite an unreadable catalog file.
func requireLoaded() error {
	if globalLoadErr != nil {
		return fmt.Errorf("catalog not modified: %w", globalLoadErr)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	printRecords(globalCatalog.Records())
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchFuzzy {
		printRecords(storage.FuzzyFilter(globalCatalog.Records(), args[0]))
		return nil
	}
	st := globalCatalog.Search(catalog.State{}, args[0])
	printRecords(globalCatalog.Visible(st))
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	if err := requireLoaded(); err != nil {
		return err
	}
	in := models.BeerInput{Name: addName, Type: addType, Price: addPrice, Greeting: addGreeting}
	_, rec, err := globalCatalog.Add(catalog.State{}, in)
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("%w (use --name, --type, --price, --greeting)", err)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Added %s (ID: %s)\n", rec.Name, rec.ShortID())
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := requireLoaded(); err != nil {
		return err
	}
	rec, err := globalCatalog.Resolve(args[0])
	if err != nil {
		return err
	}
	if _, err := globalCatalog.Delete(catalog.State{Selected: rec.ID}); err != nil {
		return err
	}
	fmt.Printf("Deleted %s (ID: %s)\n", rec.Name, rec.ShortID())
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	rec, err := globalCatalog.Resolve(args[0])
	if err != nil {
		return err
	}
	data, _, err := globalCatalog.LabelPNG(catalog.State{Selected: rec.ID})
	if err != nil {
		return fmt.Errorf("failed to render label: %w", err)
	}
	if err := os.WriteFile(renderOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", renderOutput, err)
	}
	fmt.Printf("Label for %s written to %s (%s)\n", rec.Name, renderOutput, humanize.Bytes(uint64(len(data))))
	return nil
}

func runPrint(cmd *cobra.Command, args []string) error {
	rec, err := globalCatalog.Resolve(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := globalCatalog.Print(ctx, catalog.State{Selected: rec.ID}); err != nil {
		return err
	}
	fmt.Printf("Label for %s sent to %s\n", rec.Name, globalCatalog.PrinterName())
	return nil
}
