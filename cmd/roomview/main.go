package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "roomview",
	Short: "Inspect room scans and manage their annotations and robot placement",
	Long: `roomview works on the same scene geometry and database as the room viewer.
It can report the bounds of a PLY scan, resolve screen taps to room surfaces,
manage surface annotations and the robot placement, and render a surface
snapshot to PNG.`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&configPath, "config", "", "JSON configuration file")
	f.StringVar(&dbPath, "db", "", "SQLite database file (overrides the configuration)")
	f.BoolVar(&debug, "debug", false, "log debug output to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
