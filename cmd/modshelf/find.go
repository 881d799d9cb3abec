package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modshelf/modshelf/search"
)

var (
	findExact bool
	findCase  bool
	findLimit int
)

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Search categories and archives by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		opts := search.Options{
			Query:           args[0],
			CaseSensitive:   findCase,
			ExactMatch:      findExact,
			EnableHighlight: true,
		}
		if findLimit > 0 {
			opts.MaxResults = &findLimit
		}

		results, err := search.NewEngine(store).Search(opts)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, r := range results {
			switch r.Kind {
			case search.KindNode:
				fmt.Printf("category  %-40s %s\n", r.ID, r.Highlight)
			case search.KindItem:
				category := r.Category
				if category == "" {
					category = "(unclassified)"
				}
				fmt.Printf("archive   %-40s %s\n", category, r.Highlight)
			}
		}
		return nil
	},
}

func init() {
	findCmd.Flags().BoolVar(&findExact, "exact", false, "Match the whole name, not a substring")
	findCmd.Flags().BoolVar(&findCase, "case-sensitive", false, "Case-sensitive matching")
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 0, "Maximum number of results (0 = all)")
	rootCmd.AddCommand(findCmd)
}
