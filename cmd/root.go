package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgoubet/urlshortener/internal/config"
)

// Cfg is the global variable that will contain the loaded configuration
// It will be accessible to all Cobra commands throughout the application
var Cfg *config.Config

// RootCmd is the base command for the CLI application
// All other commands (create, run-server, stats, migrate) are added as subcommands
var RootCmd = &cobra.Command{
	Use:   "urlshortener",
	Short: "A URL shortener application",
	Long: `A URL shortener application that allows you to create shortened URLs
with custom aliases and expiration dates, track click statistics,
and monitor URL health.`,
}

// Execute is the main entry point for the Cobra application
// It is called from 'main.go' and handles command execution and error handling
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// init sets up configuration initialization to run before any command executes.
// Subcommands register themselves via their own init() functions, which keeps
// the packages decoupled and avoids import cycles.
func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig loads the application configuration
// This function is called at the beginning of every Cobra command execution
// thanks to `cobra.OnInitialize(initConfig)` set up above
func initConfig() {
	var err error

	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Problem loading configuration: %v. Using default values.", err)
	}
}
