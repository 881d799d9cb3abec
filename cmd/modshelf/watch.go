package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modshelf/modshelf/taxonomy"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-render the tree whenever another process changes the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("backend") != "json" {
			return fmt.Errorf("watch requires the json backend")
		}
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		ticks, err := taxonomy.Watch(ctx, viper.GetString("store"), slog.Default())
		if err != nil {
			return err
		}

		forest, err := store.FetchTree()
		if err != nil {
			return err
		}
		if err := renderForest(forest); err != nil {
			return err
		}

		reloader, _ := store.(interface{ Reload() error })
		for range ticks {
			// Another writer changed the file; the authoritative fetch
			// always wins over whatever was displayed.
			if reloader != nil {
				if err := reloader.Reload(); err != nil {
					slog.Warn("reload failed", "error", err)
					continue
				}
			}
			forest, err := store.FetchTree()
			if err != nil {
				slog.Warn("refresh failed", "error", err)
				continue
			}
			fmt.Println("---")
			if err := renderForest(forest); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
