package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/desafio-logico/desafio/internal/app/session"
	"github.com/desafio-logico/desafio/internal/daemon"
	"github.com/desafio-logico/desafio/internal/domain"
)

func init() {
	dailyCmd.Flags().StringVar(&dailyLevel, "level", string(domain.EntryLevel), "Question level")
	dailyCmd.Flags().BoolVar(&dailyRecord, "record", false, "Record today's result instead of listing questions")
	dailyCmd.Flags().IntVar(&dailyResult.Correct, "correct", 0, "Correct answers (with --record)")
	dailyCmd.Flags().IntVar(&dailyResult.Score, "score", 0, "Score (with --record)")
	dailyCmd.Flags().IntVar(&dailyResult.XP, "xp", 0, "XP earned (with --record)")
	rootCmd.AddCommand(dailyCmd)
}

var (
	dailyLevel  string
	dailyRecord bool
	dailyResult domain.DailyResult
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show or record today's daily challenge",
	RunE:  runDaily,
}

func runDaily(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Sessions.With(userID, func(s *session.Session) error {
		if dailyRecord {
			recorded, titles := s.Store.RecordDailyResult(dailyResult)
			if !recorded {
				fmt.Println("Daily challenge already recorded today.")
				return nil
			}
			if dailyResult.XP > 0 {
				s.Store.AddXP(dailyResult.XP)
			}
			fmt.Printf("Recorded. Daily streak: %d\n", s.Store.DailyStreak())
			for _, t := range titles {
				fmt.Printf("  unlocked %s\n", t)
			}
			return nil
		}

		level := domain.LevelID(dailyLevel)
		if !level.Valid() {
			return fmt.Errorf("%w: %s", domain.ErrUnknownLevel, level)
		}
		qs := s.Store.DailyQuestions(level, d.Questions)
		if len(qs) == 0 {
			return fmt.Errorf("%w: %s", domain.ErrNotEnoughQuestions, level)
		}
		fmt.Printf("Daily challenge %s for %s (streak %d, done: %t)\n\n",
			s.Store.Clock().Today(), s.UserID(), s.Store.DailyStreak(), s.Store.IsDailyDoneToday())
		for i, q := range qs {
			fmt.Printf("%d. %s\n", i+1, q.Text)
			for j, opt := range q.Options {
				fmt.Printf("   %c) %s\n", 'a'+j, opt)
			}
		}
		return nil
	})
}
