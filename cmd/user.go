package cmd

import (
	"fmt"

	"timecard/database"
	"timecard/models"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var (
	userEmail    string
	userName     string
	userPassword string
	userRole     string
)

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := models.ParseRole(userRole)
		if !ok {
			return fmt.Errorf("unknown role %q (ADMIN, MANAGER or EMPLOYEE)", userRole)
		}
		user, err := database.CreateUser(database.GetDB(), userEmail, userName, userPassword, role)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s, %s)\n", user.ID, user.Email, user.Role)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "login email")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "full name")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "initial password")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(models.RoleEmployee), "ADMIN, MANAGER or EMPLOYEE")
	userCreateCmd.MarkFlagRequired("email")
	userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
