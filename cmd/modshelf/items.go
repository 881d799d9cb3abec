package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/modshelf/modshelf/classify"
)

var assignCmd = &cobra.Command{
	Use:   "assign <sha> <node-id|->",
	Short: "Assign an item to a category node",
	Long:  `Assign sets an item's category. Use "-" to mark it unclassified.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		nodeID := args[1]
		if nodeID == "-" {
			nodeID = ""
		}
		if err := store.AssignItemCategory(args[0], "", nodeID); err != nil {
			return err
		}
		fmt.Printf("Assigned %s\n", args[0])
		return nil
	},
}

var (
	classifyRulesFile string
	classifyApply     bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify [name...]",
	Short: "Auto-classify archive names against the rule set",
	Long: `Classify evaluates names against the active rules (from --rules, or
derived from the tree's node names and priorities) and prints the winning
category per name. With no arguments it classifies every unclassified item
in the store; pass --apply to record the results.`,
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

		var rules []classify.Rule
		if classifyRulesFile != "" {
			rules, err = classify.LoadRules(classifyRulesFile)
			if err != nil {
				return err
			}
		} else {
			rules = classify.RulesFromNodes(forest)
		}
		engine := classify.NewEngine(rules, slog.Default())

		if len(args) > 0 {
			for _, name := range args {
				printClassification(name, engine.Classify(name))
			}
			return nil
		}

		items, err := store.Items()
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.Category != "" {
				continue
			}
			target := engine.Classify(it.Name)
			printClassification(it.Name, target)
			if classifyApply && target != classify.Unclassified {
				if err := store.AssignItemCategory(it.SHA, it.Name, target); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func printClassification(name, target string) {
	if target == classify.Unclassified {
		fmt.Printf("%s -> (unclassified)\n", name)
		return
	}
	fmt.Printf("%s -> %s\n", name, target)
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Export the rule set derived from the current tree",
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
		rules := classify.RulesFromNodes(forest)
		if classifyRulesFile != "" {
			if err := classify.SaveRules(classifyRulesFile, rules); err != nil {
				return err
			}
			fmt.Printf("Wrote %d rules to %s\n", len(rules), classifyRulesFile)
			return nil
		}
		for _, r := range rules {
			fmt.Printf("%3d  %-30s -> %s\n", r.Priority, r.Pattern, r.TargetNodeID)
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyRulesFile, "rules", "", "YAML rules file (default: derive from tree)")
	classifyCmd.Flags().BoolVar(&classifyApply, "apply", false, "Record classifications in the store")
	rulesCmd.Flags().StringVar(&classifyRulesFile, "rules", "", "Write rules to this YAML file instead of stdout")

	rootCmd.AddCommand(assignCmd, classifyCmd, rulesCmd)
}
