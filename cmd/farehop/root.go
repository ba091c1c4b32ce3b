package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "farehop",
	Short: "Farehop is a travel-reservation backend",
	Long: `Farehop coordinates the search, select, checkout and confirm steps of a
travel booking over stateless HTTP handlers, relaying state between requests
through encrypted continuation tokens backed by an ephemeral store.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "farehop.yaml", "Path to the configuration file")
}
