package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
	"github.com/leadbook/crm-api/internal/core/service"
)

var (
	newUsername string
	newEmail    string
	newPassword string
	newRole     string
)

// userCmd groups account maintenance commands
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

// userCreateCmd provisions an account without going through the API,
// typically the first admin.
var userCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create an account with any role",
	Example: `  crm user create --username root --email root@example.com --password s3cret --role admin`,
	RunE:    runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&newUsername, "username", "", "Username (required)")
	userCreateCmd.Flags().StringVar(&newEmail, "email", "", "Email address (required)")
	userCreateCmd.Flags().StringVar(&newPassword, "password", "", "Password (required)")
	userCreateCmd.Flags().StringVar(&newRole, "role", domain.RoleAdmin, "Role: admin, manager, staff or guest")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
}

// operator is the identity the CLI acts as.
var operator = domain.Identity{Username: "crm-cli", Role: domain.RoleAdmin}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	users := service.NewUserService(a.repos.users, a.log)
	u, err := users.CreateUser(cmd.Context(), operator, ports.CreateUserInput{
		Username: newUsername,
		Email:    newEmail,
		Password: newPassword,
		Role:     newRole,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s user %q (id %d)\n", u.Role, u.Username, u.ID)
	return nil
}
