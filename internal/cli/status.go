package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/desafio-logico/desafio/internal/app/levels"
	"github.com/desafio-logico/desafio/internal/app/progress"
	"github.com/desafio-logico/desafio/internal/app/session"
	"github.com/desafio-logico/desafio/internal/daemon"
	"github.com/desafio-logico/desafio/internal/domain"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a player's progress",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Sessions.With(userID, func(s *session.Session) error {
		st := s.Store
		score := st.OverallTotalScore()

		fmt.Printf("Player:   %s\n", s.UserID())
		fmt.Printf("Coins:    %d\n", st.Coins())
		fmt.Printf("XP:       %d\n", st.XP())
		fmt.Printf("Score:    %d (best streak %d)\n", score, st.HighestStreak())
		if next, ok := levels.NextThreshold(score); ok {
			fmt.Printf("Next:     %s at %d  %s\n", next.Level, next.Score, renderBar(levels.ProgressToNext(score)))
		} else {
			fmt.Println("Next:     every level open")
		}
		fmt.Printf("Daily:    streak %d, done today: %t\n", st.DailyStreak(), st.IsDailyDoneToday())
		fmt.Printf("Relics:   %d\n", s.Gate.Relics())
		if !d.Encrypted {
			fmt.Println("Storage:  UNENCRYPTED fallback")
		}
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LEVEL\tOPEN\tCORRECT\tSCORED\tMAP")
		all := append(append([]domain.LevelID{}, domain.OrderedLevels...), domain.LevelEnigma)
		for _, l := range all {
			fmt.Fprintf(w, "%s\t%t\t%d\t%d\t%s\n",
				l,
				st.IsLevelUnlocked(l),
				st.CorrectForLevel(l),
				st.ScoredCount(l),
				renderSteps(st.MapProgress(l)/progress.MapStep, progress.MapCap/progress.MapStep),
			)
		}
		return w.Flush()
	})
}
