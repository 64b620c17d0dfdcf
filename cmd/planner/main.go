package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dataDir string

var rootCmd = &cobra.Command{
	Use:           "planner",
	Short:         "Journey planner CLI",
	Long:          "Finds itineraries and runs feed-wide reports over a GTFS static feed",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "data", "Path to the GTFS feed directory")
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
