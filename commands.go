package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Inspect stored reminders",
}

var remindersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all reminders in creation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadServices()
		if err != nil {
			return err
		}
		defer s.close()

		reminders, err := s.reminders.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list reminders: %w", err)
		}
		if len(reminders) == 0 {
			fmt.Println("No reminders found.")
			return nil
		}
		return printJSON(reminders)
	},
}

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Inspect voice source audio",
}

var audioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the audio files in the storage bucket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadServices()
		if err != nil {
			return err
		}
		defer s.close()

		if err := s.audio.Refresh(cmd.Context()); err != nil {
			return err
		}
		return printJSON(s.audio.List())
	},
}

var callCmd = &cobra.Command{
	Use:   "call [reminder-id]",
	Short: "Place the call for a reminder now",
	Long:  `Runs the same path as a delivered notification: the reminder's generated audio is played in a phone call.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadServices()
		if err != nil {
			return err
		}
		defer s.close()

		res, err := s.flow.HandleNotification(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("call failed: %w", err)
		}
		return printJSON(res)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token [device-id]",
	Short: "Issue an API token for a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadServices()
		if err != nil {
			return err
		}
		defer s.close()

		if s.jwt == nil {
			return fmt.Errorf("AUTH_JWT_SECRET is not set")
		}
		token, err := s.jwt.Sign(args[0])
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}
