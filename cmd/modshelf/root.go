package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modshelf/modshelf/taxonomy"
	"github.com/modshelf/modshelf/thumbs"
)

var rootCmd = &cobra.Command{
	Use:   "modshelf",
	Short: "Modshelf - organize mod archives into a category tree",
	Long: `Modshelf organizes mod archives for a target game into a user-defined
hierarchical category tree, with wildcard rules that auto-classify new
archives by filename.

Examples:
  # Create a category and a subcategory
  modshelf create Characters --priority 10
  modshelf create Raiden --parent characters --priority 5

  # Show the tree with per-category mod counts
  modshelf tree

  # Move a category under a new parent at position 0
  modshelf move characters/raiden weapons 0

  # Auto-classify archive names from the current tree
  modshelf classify RaidenShogunSkin.zip`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return initLogging(viper.GetString("log-level"), verbose)
	},
}

var (
	// Global flags that apply to all commands
	cfgFile   string
	storePath string
	backend   string
	thumbsDir string
	format    string
	logLevel  string
	verbose   bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default modshelf.yaml in cwd or $HOME/.config/modshelf)")
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "", "Taxonomy store path (default modshelf.json)")
	rootCmd.PersistentFlags().StringVarP(&backend, "backend", "b", "", "Store backend: json|sqlite")
	rootCmd.PersistentFlags().StringVar(&thumbsDir, "thumbs-dir", "", "Thumbnail library directory")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "table", "Output format: table|json|yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr as well as the log file")

	_ = viper.BindPFlag("store", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("thumbs-dir", rootCmd.PersistentFlags().Lookup("thumbs-dir"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("modshelf")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/modshelf")
	}
	viper.SetEnvPrefix("MODSHELF")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("store", "modshelf.json")
	viper.SetDefault("backend", "json")
	viper.SetDefault("thumbs-dir", "thumbnails")
	viper.SetDefault("log-level", "warn")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil // config file is optional
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	viper.WatchConfig()
	return nil
}

// openStore opens the configured store backend, wiring the thumbnail
// library in as the cascade-delete releaser.
func openStore() (taxonomy.Store, *thumbs.Library, error) {
	lib, err := thumbs.NewLibrary(viper.GetString("thumbs-dir"))
	if err != nil {
		return nil, nil, err
	}
	path := viper.GetString("store")
	switch viper.GetString("backend") {
	case "json", "":
		store, err := taxonomy.NewJSONStore(path, lib)
		return store, lib, err
	case "sqlite":
		store, err := taxonomy.NewSQLiteStore(path, lib)
		return store, lib, err
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want json or sqlite)", viper.GetString("backend"))
	}
}
