package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tyredash/internal/api"
	"tyredash/internal/config"
	"tyredash/internal/dashboard"
	"tyredash/internal/models"
	"tyredash/internal/timestamp"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the simulation server",
	Long:  "Authenticate with the simulation server and remember the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		email := strings.TrimSpace(loginEmail)
		if email == "" {
			fmt.Print("Email: ")
			scanner := bufio.NewScanner(os.Stdin)
			if scanner.Scan() {
				email = strings.TrimSpace(scanner.Text())
			}
		}

		fmt.Print("Password: ")
		passwordBytes, err := term.ReadPassword(os.Stdin.Fd())
		if err != nil {
			return fmt.Errorf("error reading password: %w", err)
		}
		fmt.Println() // Add a newline after password input

		auth, err := a.client.Login(cmd.Context(), email, string(passwordBytes))
		if err != nil {
			var le *api.LoginError
			if errors.As(err, &le) || errors.Is(err, models.ErrInvalidCredentials) {
				color.Red("%v\n", err)
				return fmt.Errorf("login failed")
			}
			return fmt.Errorf("login failed: %w", err)
		}

		a.cfg.SetProfile(auth.User)
		if err := config.SaveGlobalConfig(a.cfg); err != nil {
			return fmt.Errorf("error saving global config: %w", err)
		}
		logger.Info("logged in", zap.String("email", auth.User.Email))

		color.Green("Successfully logged in as %s\n", auth.User.Email)
		if auth.IsManager() {
			color.Yellow("Manager accounts use the manager dashboard at %s/manager-dashboard.html\n", strings.TrimRight(a.cfg.Server.URL, "/"))
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out from the simulation server",
	Long:  "Remove the saved session token. Pins and recent activity are kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.client.Logout(); err != nil {
			return fmt.Errorf("error during logout: %w", err)
		}

		a.cfg.ClearProfile()
		if err := config.SaveGlobalConfig(a.cfg); err != nil {
			return fmt.Errorf("error saving global config: %w", err)
		}

		fmt.Println("Successfully logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current user information",
	Long:  "Display the signed-in engineer as the dashboard shows them",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireLogin(); err != nil {
			fmt.Println("You are not logged in")
			return nil
		}

		profile := dashboard.NewProfile(a.client.CurrentUser(cmd.Context()), timestamp.Local)
		fmt.Printf("Logged in as: %s\n", profile.DisplayName)
		fmt.Printf("Email: %s\n", profile.Email)
		fmt.Printf("Role: %s\n", profile.Role)
		fmt.Printf("Member since: %s\n", profile.MemberSince)
		fmt.Printf("Last login: %s\n", profile.LastLogin)
		fmt.Printf("Server: %s\n", a.cfg.Server.URL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email address to log in with")
}
