package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the stillmind backend",
	RunE:  loginRun,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a stillmind account",
	RunE:  signupRun,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credential",
	RunE:  logoutRun,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE:  whoamiRun,
}

var (
	loginEmail    string
	loginPassword string
	signupName    string
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted)")

	signupCmd.Flags().StringVar(&signupName, "name", "", "Display name")
	signupCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	signupCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

// promptLine reads one line from stdin with a label.
func promptLine(label string) (string, error) {
	fmt.Printf("%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(label string) (string, error) {
	fmt.Printf("%s: ", label)
	if term.IsTerminal(int(syscall.Stdin)) {
		data, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return promptLine("")
}

func resolveCredentials(needName bool) (name, email, password string, err error) {
	name = signupName
	email = loginEmail
	password = loginPassword

	if needName && name == "" {
		if name, err = promptLine("Name"); err != nil {
			return
		}
	}
	if email == "" {
		if email, err = promptLine("Email"); err != nil {
			return
		}
	}
	if password == "" {
		if password, err = promptPassword("Password"); err != nil {
			return
		}
	}
	if email == "" || password == "" {
		err = fmt.Errorf("email and password are required")
	}
	return
}

func loginRun(cmd *cobra.Command, args []string) error {
	_, email, password, err := resolveCredentials(false)
	if err != nil {
		return err
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	client := backendClient()
	ctx := cmd.Context()

	// Free-tier backends spin down when idle; nudge before the real call.
	client.Wake(ctx)

	creds, err := client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := s.SaveCredential(ctx, creds.Token, creds.User); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}

	ui.Success("Logged in as %s", creds.User.Email)
	return nil
}

func signupRun(cmd *cobra.Command, args []string) error {
	name, email, password, err := resolveCredentials(true)
	if err != nil {
		return err
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	client := backendClient()
	ctx := cmd.Context()
	client.Wake(ctx)

	creds, err := client.Signup(ctx, name, email, password)
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	if err := s.SaveCredential(ctx, creds.Token, creds.User); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}

	ui.Success("Account created, logged in as %s", creds.User.Email)
	return nil
}

func logoutRun(cmd *cobra.Command, args []string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if err := s.ClearCredential(cmd.Context()); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}

	ui.Success("Logged out")
	return nil
}

func whoamiRun(cmd *cobra.Command, args []string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	token, user, err := s.Credential(cmd.Context())
	if err != nil {
		return fmt.Errorf("read credential: %w", err)
	}
	if token == "" {
		ui.Info("Not logged in")
		return nil
	}

	if user.Name != "" {
		ui.Info("Logged in as %s <%s>", user.Name, user.Email)
	} else {
		ui.Info("Logged in as %s", user.Email)
	}
	return nil
}
