package main

import (
	"context"

	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one batch invocation",
	Long:  "Pops a bounded batch of pending items from today's plan, scrapes them through a single browser session, and records the results. Safe to invoke repeatedly; a completed plan is a no-op.",
	RunE:  runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(_ *cobra.Command, _ []string) error {
	app, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	app.driver.RunScrape()
	return nil
}
