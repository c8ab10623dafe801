package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"govinv/internal/filter"
	"govinv/internal/storage"
)

var initStorePath string

var initStoreCmd = &cobra.Command{
	Use:   "init-store",
	Short: "Create an empty inventory database",
	Long: `Create the inventory tables in a SQLite file, creating the file if needed.
The engine only reads the store; this is for bootstrapping and local testing.
An existing store with the current schema is left untouched.`,
	RunE: runInitStore,
}

func init() {
	rootCmd.AddCommand(initStoreCmd)
	initStoreCmd.Flags().StringVar(&initStorePath, "path", "", "SQLite file (default: store.path)")
}

func runInitStore(cmd *cobra.Command, _ []string) error {
	path := initStorePath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Store.Driver != "sqlite" {
			return fmt.Errorf("init-store only supports the sqlite driver, configured driver is %q", cfg.Store.Driver)
		}
		path = cfg.Store.Path
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	db, err := storage.OpenWritable(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.EnsureSchema(cmd.Context(), db, filter.SQLite); err != nil {
		return err
	}
	fmt.Printf("Inventory store ready at %s\n", path)
	return nil
}
