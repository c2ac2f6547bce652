package cmd

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginUsername string

// loginCmd authenticates against the server and persists the token.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the CoreWatch server",
	Long: `Authenticate with the CoreWatch server and store the access token.

The token is written to the user config directory and used by all
subsequent commands. Set CORECTL_TOKEN to bypass the stored token.

Example:
  corectl login --username operator`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		req := map[string]string{
			"username": loginUsername,
			"password": password,
		}
		var resp struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int    `json:"expires_in"`
			TokenType   string `json:"token_type"`
		}
		if err := doRequest(http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
			return fmt.Errorf("login: %w", err)
		}

		if err := saveToken(resp.AccessToken); err != nil {
			return err
		}

		fmt.Printf("Logged in as %s (token valid for %dh)\n", loginUsername, resp.ExpiresIn/3600)
		return nil
	},
}

// logoutCmd removes the stored token.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := clearToken(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "operator", "operator username")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// promptPassword reads a password from stdin, without echo when stdin
// is a terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)

	fd := syscall.Stdin
	if term.IsTerminal(fd) {
		passwordBytes, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(passwordBytes), nil
	}

	// Fallback for non-terminal input (e.g., piped input)
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(password), nil
}
