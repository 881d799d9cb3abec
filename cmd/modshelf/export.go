package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modshelf/modshelf/formats"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [format]",
	Short: "Render the category tree as a shareable document",
	Long: `Render the category tree, with per-category mod counts and any
unclassified archives, in one of the registered document formats.

Examples:
  modshelf export markdown
  modshelf export text -o categories.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "markdown"
		if len(args) == 1 {
			name = args[0]
		}
		ef, err := formats.Get(name)
		if err != nil {
			return fmt.Errorf("%w (available: %s)", err, strings.Join(formats.List(), ", "))
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		forest, err := store.FetchTree()
		if err != nil {
			return err
		}
		items, err := store.Items()
		if err != nil {
			return err
		}

		doc := ef.Render(forest, items)
		if exportOutput == "" {
			fmt.Print(doc)
			return nil
		}
		out := exportOutput
		if !strings.Contains(out, ".") {
			out += ef.Extension
		}
		if err := os.WriteFile(out, []byte(doc), 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Printf("Exported to %s\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
