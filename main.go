package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "remi",
	Short:   "Voice-call reminders with generated audio.",
	Long:    `remi stores reminders, generates a spoken version of each one in a chosen voice and calls you when it is due.`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, remindersCmd, audioCmd, callCmd, tokenCmd)
	remindersCmd.AddCommand(remindersListCmd)
	audioCmd.AddCommand(audioListCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
