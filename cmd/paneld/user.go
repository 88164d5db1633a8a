package main

import (
	"github.com/spf13/cobra"

	"panel-backend/internal/account"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage panel users",
	}

	var u account.NewUser
	makeCmd := &cobra.Command{
		Use:   "make",
		Short: "Create an approved user and print an API key for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}

			user, err := a.services.Accounts.CreateUser(cmd.Context(), u)
			if err != nil {
				return err
			}
			token, err := a.services.Accounts.CreateAPIKey(cmd.Context(), user.ID, "cli")
			if err != nil {
				return err
			}

			cmd.Printf("Created user %s (id %d).\n", user.Username, user.ID)
			cmd.Printf("API key: %s\n", token)
			return nil
		},
	}

	f := makeCmd.Flags()
	f.StringVar(&u.Username, "username", "", "username")
	f.StringVar(&u.Email, "email", "", "email address")
	f.StringVar(&u.Password, "password", "", "password")
	f.BoolVar(&u.RootAdmin, "admin", false, "grant root admin")
	f.BoolVar(&u.Verified, "verified", false, "mark the account as verified")
	_ = makeCmd.MarkFlagRequired("username")
	_ = makeCmd.MarkFlagRequired("email")
	_ = makeCmd.MarkFlagRequired("password")

	cmd.AddCommand(makeCmd)
	return cmd
}
