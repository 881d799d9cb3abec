package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/modshelf/modshelf/taxonomy"
)

var (
	createParent      string
	createPriority    int
	createThumbnail   string
	createDescription string
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a category node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, lib, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		thumbnail := ""
		if createThumbnail != "" {
			thumbnail, err = lib.Add(createThumbnail)
			if err != nil {
				return fmt.Errorf("failed to import thumbnail: %w", err)
			}
		}

		node, err := store.CreateNode(taxonomy.CreateRequest{
			Name:        args[0],
			ParentID:    createParent,
			Priority:    createPriority,
			Thumbnail:   thumbnail,
			Description: createDescription,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (%s)\n", node.Name, node.ID)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <id> <new-name>",
	Short: "Rename a category node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		node, err := store.RenameNode(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Renamed %s to %s\n", node.ID, node.Name)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a category node and its descendants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.DeleteNode(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <id> <new-parent-id|-> [index]",
	Short: "Move a node under a new parent at a sibling position",
	Long: `Move relinks a node under a new parent at the given sibling index
(default 0). Use "-" as the parent to move the node to root level.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		parent := args[1]
		if parent == "-" {
			parent = ""
		}
		index := 0
		if len(args) == 3 {
			index, err = strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[2], err)
			}
		}
		if err := store.MoveNode(args[0], parent, index); err != nil {
			return err
		}
		fmt.Printf("Moved %s\n", args[0])
		return nil
	},
}

var priorityCmd = &cobra.Command{
	Use:   "priority <id> <priority>",
	Short: "Set a node's classification priority",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		p, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid priority %q: %w", args[1], err)
		}
		node, err := store.SetNodePriority(args[0], p)
		if err != nil {
			return err
		}
		fmt.Printf("Set priority of %s to %d\n", node.ID, node.Priority)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createParent, "parent", "p", "", "Parent node ID (empty creates a root node)")
	createCmd.Flags().IntVar(&createPriority, "priority", 0, "Classification priority (higher evaluated first)")
	createCmd.Flags().StringVar(&createThumbnail, "thumbnail", "", "Path of an image to import as the node thumbnail")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Node description")

	rootCmd.AddCommand(createCmd, renameCmd, deleteCmd, moveCmd, priorityCmd)
}
