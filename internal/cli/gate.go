package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/desafio-logico/desafio/internal/app/gate"
	"github.com/desafio-logico/desafio/internal/app/session"
	"github.com/desafio-logico/desafio/internal/daemon"
)

func init() {
	rootCmd.AddCommand(gateCmd)
}

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Show the Enigma Portal state",
	RunE:  runGate,
}

func runGate(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Sessions.With(userID, func(s *session.Session) error {
		st := s.Gate.Status()
		p := s.Gate.Policy()

		fmt.Printf("Portal for %s on %s\n", s.UserID(), st.Day)
		fmt.Printf("  Tries:   %s (%d left)\n", renderSteps(st.TriesUsedToday, p.MaxTriesPerDay), st.AttemptsLeft)
		fmt.Printf("  Relics:  %d\n", st.Relics)

		if st.Run == nil {
			fmt.Println("  No run today.")
			return nil
		}
		run := st.Run
		state := "active"
		if run.Finished {
			state = string(run.Outcome)
		}
		fmt.Printf("  Run:     %s (%s)\n", run.ID, state)
		fmt.Printf("  Stage:   %s\n", renderSteps(run.Stage+1, run.Stages))
		fmt.Printf("  Errors:  %d left\n", run.ErrorsLeft)
		fmt.Printf("  Stability %s\n", renderBar(float64(run.Stability)/gate.MaxStability))
		return nil
	})
}
