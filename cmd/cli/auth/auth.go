package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/crucial707/booktrack/cmd/cli/apiclient"
	"github.com/crucial707/booktrack/cmd/cli/config"
	"github.com/spf13/cobra"
)

// InitAuth registers the auth command group on the root command.
func InitAuth(rootCmd *cobra.Command) {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Register, log in and manage the stored token",
	}
	authCmd.AddCommand(registerCmd(), loginCmd(), logoutCmd(), whoamiCmd())
	rootCmd.AddCommand(authCmd)
}

type user struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type tokenResponse struct {
	Message   string    `json:"message"`
	User      user      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var email, username, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(os.Stdin)
			email = prompt(in, "Email", email)
			username = prompt(in, "Username", username)
			password = prompt(in, "Password", password)

			var out tokenResponse
			err := apiclient.Do("POST", "/auth/register", "", map[string]string{
				"email": email, "username": username, "password": password,
			}, &out)
			if err != nil {
				return fmt.Errorf("register failed: %w", err)
			}
			return storeToken(out)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

// ==========================
// Login
// ==========================
func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(os.Stdin)
			email = prompt(in, "Email", email)
			password = prompt(in, "Password", password)

			var out tokenResponse
			err := apiclient.Do("POST", "/auth/login", "", map[string]string{
				"email": email, "password": password,
			}, &out)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			return storeToken(out)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

// ==========================
// Logout
// ==========================
// The API keeps no session state, so logging out only forgets the token.
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeleteToken(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

// ==========================
// Whoami
// ==========================
func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var u user
			if err := apiclient.DoAuthed("GET", "/auth/me", nil, &u); err != nil {
				return err
			}
			fmt.Printf("%s <%s>\nid: %s\nmember since: %s\n",
				u.Username, u.Email, u.ID, u.CreatedAt.Format("2006-01-02"))
			return nil
		},
	}
}

func storeToken(out tokenResponse) error {
	if out.Token == "" {
		return fmt.Errorf("server returned no token")
	}
	if err := config.SaveToken(out.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	fmt.Printf("%s. Logged in as %s (token valid until %s).\n",
		out.Message, out.User.Username, out.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func prompt(in *bufio.Reader, label, current string) string {
	if current != "" {
		return current
	}
	fmt.Printf("%s: ", label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
