package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/modshelf/modshelf/taxonomy"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the category tree with per-node mod counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		forest, err := store.FetchTree()
		if err != nil {
			return err
		}
		return renderForest(forest)
	},
}

// treeRow is the flattened serialization shape for json/yaml output.
type treeRow struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Depth    int    `json:"depth" yaml:"depth"`
	Priority int    `json:"priority" yaml:"priority"`
	ModCount int    `json:"mod_count" yaml:"mod_count"`
}

func renderForest(forest taxonomy.Forest) error {
	switch format {
	case "table", "":
		printIndented(forest)
		return nil
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(flattenForest(forest))
	case "yaml":
		data, err := yaml.Marshal(flattenForest(forest))
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func flattenForest(forest taxonomy.Forest) []treeRow {
	depth := make(map[string]int)
	var rows []treeRow
	forest.Walk(func(n *taxonomy.Node) {
		d := 0
		if parent, _ := forest.ParentOf(n.ID); parent != nil {
			d = depth[parent.ID] + 1
		}
		depth[n.ID] = d
		rows = append(rows, treeRow{
			ID:       n.ID,
			Name:     n.Name,
			Depth:    d,
			Priority: n.Priority,
			ModCount: n.ModCount,
		})
	})
	return rows
}

func printIndented(forest taxonomy.Forest) {
	for _, row := range flattenForest(forest) {
		fmt.Printf("%s%s (%d)\n", strings.Repeat("  ", row.Depth), row.Name, row.ModCount)
	}
}

func init() {
	rootCmd.AddCommand(treeCmd)
}
