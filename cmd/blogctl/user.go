package main

import (
	"github.com/spf13/cobra"

	"github.com/sakif/blog/internal/service"
)

var userCmd = &cobra.Command{
	Use:     "user",
	Aliases: []string{"users"},
	Short:   "Manage accounts",
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete USERNAME",
	Short: "Delete an account with its posts, comments and follows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		// Deleting needs neither sessions nor password hashing.
		accounts := service.NewAccountService(db, nil, nil, newLogger())
		if err := accounts.DeleteUser(cmd.Context(), args[0]); err != nil {
			return err
		}
		success("deleted user %s", args[0])
		return nil
	},
}

func init() {
	userCmd.AddCommand(userDeleteCmd)
}
