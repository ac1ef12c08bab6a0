package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage back-office accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create [email]",
	Short: "Create a back-office account",
	Long: `Create a back-office account.

The password is read from INTAKE_ADMIN_PASSWORD so it does not end up in
shell history. It must be at least 10 characters.

Example:
  INTAKE_ADMIN_PASSWORD=... intakectl admin create ops@northgateadvisors.com --name "Ops"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		role, _ := cmd.Flags().GetString("role")
		password := os.Getenv("INTAKE_ADMIN_PASSWORD")

		c, err := connect()
		if err != nil {
			fail("Failed to connect: %v", err)
		}
		defer release(c)

		admin, err := c.Auth.CreateAdmin(args[0], name, password, role)
		if err != nil {
			fail("Failed to create admin: %v", err)
		}
		fmt.Printf("Created %s (%s) with role %s\n", admin.Email, admin.ID, admin.Role)
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)
	adminCreateCmd.Flags().StringP("name", "n", "", "Display name")
	adminCreateCmd.Flags().StringP("role", "r", "admin", "Role (admin or viewer)")
}
