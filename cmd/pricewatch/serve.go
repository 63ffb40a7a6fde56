package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/alexmmd/pricewatch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and HTTP trigger server",
	Long:  "Starts the cadence driver (daily plan build plus windowed batch runs) and the HTTP server exposing the trigger and receipt-ingestion endpoints.",
	RunE:  runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	app, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	if servePort != 0 {
		app.cfg.Port = servePort
	}

	if err := app.driver.Start(); err != nil {
		return err
	}
	defer app.driver.Stop()

	srv := server.New(server.Config{Port: app.cfg.Port}, app.store, app.driver, app.logger)
	return srv.Start()
}
