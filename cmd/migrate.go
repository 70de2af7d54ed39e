/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/seckatie/linkindex/internal/config"
	"github.com/seckatie/linkindex/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations to the SQLite database",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return fmt.Errorf("failed to read --list: %w", err)
	}

	database, err := db.NewSQLiteDB(config.Load(viper.GetViper()).DB)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer database.Close()

	out := cmd.OutOrStdout()
	if list {
		migrations, err := database.ListMigrations()
		if err != nil {
			return err
		}
		for _, m := range migrations {
			mark := " "
			if m.Applied {
				mark = "X"
			}
			fmt.Fprintf(out, "[%s] %s\n", mark, m.Name)
		}
		return nil
	}

	lines, err := database.ApplyMigrations()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return err
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().Bool("list", false, "List migrations and whether they are applied")
}
