package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/desafio-logico/desafio/internal/app/session"
	"github.com/desafio-logico/desafio/internal/daemon"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move a player's legacy plain data into encrypted storage",
	Long: `Migration runs automatically the first time a player is loaded.
Run it by hand to retry keys that failed earlier.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Sessions.With(userID, func(s *session.Session) error {
		first := s.Migration
		rep := s.Store.MigrateIfNeeded()

		if first.AlreadyDone && rep.AlreadyDone {
			fmt.Printf("%s: already migrated.\n", rep.User)
			return nil
		}
		migrated := first.Migrated + rep.Migrated
		skipped := first.Skipped + rep.Skipped
		fmt.Printf("%s: migrated %d, kept %d existing\n", rep.User, migrated, skipped)
		for _, f := range rep.Failed {
			fmt.Printf("  failed %s: %s\n", f.Key, f.Reason)
		}
		if !rep.Done() {
			return fmt.Errorf("%d keys could not be migrated", len(rep.Failed))
		}
		return nil
	})
}
