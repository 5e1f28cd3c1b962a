package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/desafio-logico/desafio/internal/daemon"
	"github.com/desafio-logico/desafio/internal/infra/leaderboard"
)

func init() {
	weeklyCmd.Flags().StringVar(&weeklyWeek, "week", "", "ISO week (YYYY-Www), default current")
	weeklyCmd.Flags().IntVar(&weeklyLimit, "limit", 10, "Rows to show")
	rootCmd.AddCommand(weeklyCmd)
}

var (
	weeklyWeek  string
	weeklyLimit int
)

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Show the weekly championship board",
	RunE:  runWeekly,
}

func runWeekly(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	week := weeklyWeek
	if week == "" {
		week = leaderboard.WeekID(d.Clock.Now())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	top, err := d.Board.Top(ctx, week, weeklyLimit)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		fmt.Printf("No scores for %s yet.\n", week)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\tPLAYER\tSCORE\t(%s)\n", week)
	for _, e := range top {
		fmt.Fprintf(w, "%d\t%s\t%d\t\n", e.Rank, e.UserID, e.Score)
	}
	return w.Flush()
}
