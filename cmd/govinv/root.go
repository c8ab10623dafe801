package main

import (
	"github.com/spf13/cobra"

	"govinv/internal/version"
)

var (
	// configFlag points at an explicit config file
	configFlag string
	// rootFlag is the directory config, .env and relative paths resolve against
	rootFlag string
)

var rootCmd = &cobra.Command{
	Use:   "govinv",
	Short: "govinv - governance inventory and change-impact analysis",
	Long: `govinv answers questions about a pre-built governance inventory: which
governance artifacts apply to a path, how directories depend on each other,
what a proposed change would touch and how risky it is, and how projects
classify across the portfolio. It also drives the external maintenance
process that detects and archives deprecated components.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("govinv version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: <root>/.govinv/config.json)")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".", "Project root")
}
