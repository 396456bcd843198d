package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/daemon"
	"github.com/kotoba-blog/kotoba/internal/invite"
)

func init() { //nolint: gochecknoinits
	inviteCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration directory")
	inviteCmd.Flags().StringVar(&inviteEmail, "email", "", "Email address of the invited admin")

	_ = inviteCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(inviteCmd)
}

var (
	inviteEmail string

	inviteCmd = &cobra.Command{
		Use:   "invite",
		Short: "Issue an admin invitation and print the registration link",
		PreRun: func(_ *cobra.Command, _ []string) {
			if cfg, err = config.ReadConfig(configPath); err != nil {
				panic(err)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := daemon.OpenDB(&cfg)
			if err != nil {
				return err
			}

			manager := invite.NewManager(db, &cfg)

			// Issuer 0 marks invitations issued from the command line.
			raw, inv, err := manager.Issue(context.Background(), inviteEmail, 0)
			if err != nil {
				return err
			}

			cmd.Printf("invitation issued for %s (expires %s)\n", inv.Email, inv.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			cmd.Println(invite.Link(cfg.Webserver.URL, raw))

			return nil
		},
	}
)
