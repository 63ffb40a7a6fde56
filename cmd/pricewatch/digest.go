package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Print the day's notification digest",
	Long:  "Renders one message per member from the notifications accumulated for a date, for the delivery pipeline to consume.",
	RunE:  runDigest,
}

var digestDate string

func init() {
	digestCmd.Flags().StringVar(&digestDate, "date", "", "Date to render (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(digestCmd)
}

func runDigest(cmd *cobra.Command, _ []string) error {
	app, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	date := time.Now()
	if digestDate != "" {
		date, err = time.ParseInLocation("2006-01-02", digestDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", digestDate, err)
		}
	}

	digests, err := app.notifier.Digest(context.Background(), date)
	if err != nil {
		return err
	}
	if len(digests) == 0 {
		cmd.Println("No notifications for this date.")
		return nil
	}
	for _, d := range digests {
		cmd.Printf("--- %s ---\n%s\n", d.MemberID, d.Body)
	}
	return nil
}
