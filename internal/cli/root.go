// Package cli implements the Desafio command-line interface using Cobra.
// Most subcommands open the local data directory directly; serve exposes
// the same core over HTTP.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "desafio",
	Short: "Desafio Lógico progression core",
	Long: `Desafio keeps score, streaks, the daily challenge, cosmetics and the
Enigma Portal for every player, stored encrypted on this machine.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// userID is shared by every per-player command.
var userID string

func init() {
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "guest", "Player id")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
