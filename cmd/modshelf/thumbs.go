package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modshelf/modshelf/thumbs"
)

var thumbsCmd = &cobra.Command{
	Use:   "thumbs",
	Short: "Manage the thumbnail library",
}

var thumbsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored thumbnails",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := thumbs.NewLibrary(viper.GetString("thumbs-dir"))
		if err != nil {
			return err
		}
		entries, err := lib.List()
		if err != nil {
			return err
		}
		var total int64
		for _, e := range entries {
			fmt.Printf("%-24s %10s\n", e.Ref, humanize.Bytes(uint64(e.Size)))
			total += e.Size
		}
		fmt.Printf("%d thumbnails, %s\n", len(entries), humanize.Bytes(uint64(total)))
		return nil
	},
}

var thumbsAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Import a file into the thumbnail library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := thumbs.NewLibrary(viper.GetString("thumbs-dir"))
		if err != nil {
			return err
		}
		ref, err := lib.Add(args[0])
		if err != nil {
			return err
		}
		fmt.Println(ref)
		return nil
	},
}

func init() {
	thumbsCmd.AddCommand(thumbsListCmd, thumbsAddCmd)
	rootCmd.AddCommand(thumbsCmd)
}
