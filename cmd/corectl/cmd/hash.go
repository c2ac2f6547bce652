package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/good-yellow-bee/corewatch/internal/api/auth"
)

// bcryptCost matches the server-side hashing cost.
const bcryptCost = 12

// hashPasswordCmd generates a bcrypt hash for the server config.
var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Generate a password hash for the server config",
	Long: `Generate a bcrypt hash for auth.operator_password_hash.

Prompts for the password twice and prints the hash to paste into the
server configuration file.

Example:
  corectl hash-password`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Enter password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		if err := auth.ValidatePassword(password); err != nil {
			return fmt.Errorf("invalid password: %w", err)
		}

		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password confirmation: %w", err)
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		fmt.Println()
		fmt.Println("Add to the server config under auth:")
		fmt.Printf("  operator_password_hash: %q\n", string(hash))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}
