/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seckatie/linkindex/internal/logging"
)

var adminsCmd = &cobra.Command{
	Use:   "admins",
	Short: "List administrator accounts",
	Args:  cobra.NoArgs,
	RunE:  runAdmins,
}

var adminsAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminsAdd,
}

func runAdmins(cmd *cobra.Command, _ []string) error {
	warnSQLiteOnly(cmd.CommandPath())
	database, err := initDB()
	if err != nil {
		return err
	}
	defer database.Close()

	admins, err := database.ListAdministrators()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(admins) == 0 {
		fmt.Fprintln(out, "No administrators. Create one with: linkindex admins add <username>")
		return nil
	}

	rows := make([][]string, 0, len(admins))
	for _, a := range admins {
		rows = append(rows, []string{a.Username, a.Email, a.CreatedAt})
	}
	return renderTable(out, []string{"Username", "Email", "Created"}, rows)
}

func runAdminsAdd(cmd *cobra.Command, args []string) error {
	email, err := cmd.Flags().GetString("email")
	if err != nil {
		return fmt.Errorf("failed to read --email: %w", err)
	}
	superuser, err := cmd.Flags().GetBool("superuser")
	if err != nil {
		return fmt.Errorf("failed to read --superuser: %w", err)
	}

	warnSQLiteOnly(cmd.CommandPath())
	database, err := initDB()
	if err != nil {
		return err
	}
	defer database.Close()

	account, err := database.CreateAccount(args[0], email, superuser)
	if err != nil {
		return err
	}
	logging.Default().Info().Str("username", account.Username).Bool("superuser", account.IsSuperuser).Msg("Created account")
	fmt.Fprintf(cmd.OutOrStdout(), "Created account %s\n", account.Username)
	return nil
}

func init() {
	rootCmd.AddCommand(adminsCmd)
	adminsCmd.AddCommand(adminsAddCmd)

	adminsAddCmd.Flags().String("email", "", "Email address for the account")
	adminsAddCmd.Flags().Bool("superuser", true, "Grant administrator rights")
}
