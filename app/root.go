// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kotoba",
	Short: "Kotoba is a bilingual personal blog with an admin backend",
	Long: `Kotoba is a bilingual personal blog with an admin backend.
Admin accounts are provisioned by invitation only and protected by
password + TOTP login; comment submission is guarded by a per-visitor
CAPTCHA escalation state machine.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
