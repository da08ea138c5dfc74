package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var authEmail string

// passwordReader reads a password without echo. Replaced in tests.
var passwordReader = readPassword

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the backend",
	Long: `Exchanges your email and password for an access token and stores the
token in the config file. The password is never stored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCredentials(cmd, false)
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a backend account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCredentials(cmd, true)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVarP(&authEmail, "email", "e", "", "account email")
	signupCmd.Flags().StringVarP(&authEmail, "email", "e", "", "account email")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runCredentials(cmd *cobra.Command, signup bool) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}

	email := strings.TrimSpace(authEmail)
	if email == "" {
		cmd.Print("Email: ")
		email = readLine(bufio.NewReader(cmd.InOrStdin()))
	}
	if email == "" {
		return errors.New("email is required")
	}

	cmd.Print("Password: ")
	password := passwordReader()
	cmd.Println()
	if password == "" {
		return errors.New("password is required")
	}

	if signup {
		if err := authService.Signup(cmd.Context(), email, password); err != nil {
			return fmt.Errorf("failed to sign up: %w", err)
		}
		cmd.Printf("Account created. Logged in as %s.\n", email)
		return nil
	}

	if err := authService.Login(cmd.Context(), email, password); err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	cmd.Printf("Logged in as %s.\n", email)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}
	if !authService.IsAuthenticated() {
		cmd.Println("Not logged in.")
		return nil
	}
	if err := authService.Logout(); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	cmd.Println("Logged out.")
	return nil
}
