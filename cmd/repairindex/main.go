package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "repairindex",
	Short: "Device repairability aggregator",
	Long: `repairindex builds a device repairability report from the iFixit
catalog and the French repairability index.

It walks the iFixit category tree for the requested categories, fetches
each device's repairability score and teardown guides, scrapes the
French catalog for the official repairability scores and joins both
catalogs by normalized device name. The merged report is written as
JSON and can be served over a read-only HTTP API.`,
}

func init() {
	rootCmd.AddCommand(fetchCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
