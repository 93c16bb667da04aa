package main

import (
	"github.com/spf13/cobra"

	"repairindex/internal/api"
	"repairindex/internal/logging"
)

var (
	flagServeAddr     string
	flagServeReport   string
	flagServeLogLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generated report over HTTP",
	Long: `Serve the latest generated report over a read-only HTTP API.

Endpoints:
  GET /health                   liveness and report availability
  GET /api/v1/report            the full report
  GET /api/v1/devices/:name     one device by name`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&flagServeReport, "report", "devices_with_scores.json", "Report file to serve")
	serveCmd.Flags().StringVar(&flagServeLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.New(flagServeLogLevel)
	return api.NewServer(flagServeReport, logger).Run(flagServeAddr)
}
