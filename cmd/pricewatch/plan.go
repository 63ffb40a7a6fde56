package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build today's scraping plan",
	Long:  "Snapshots the item catalog and writes today's general and members-only work lists, replacing any existing plan for the date.",
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(_ *cobra.Command, _ []string) error {
	app, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(app.cfg.InvocationSec)*time.Second)
	defer cancel()

	return app.planner.Build(ctx, time.Now())
}
