package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"jobflow/internal/app"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(userAddCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user account",
		Long:  "Create a user account. The password is prompted for when --password is omitted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("missing required flag: --email")
			}
			out := cmd.OutOrStdout()

			if password == "" {
				fmt.Fprint(out, "Password: ")
				var err error
				password, err = readPassword(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				fmt.Fprintln(out)
			}
			if strings.TrimSpace(password) == "" {
				return errors.New("password cannot be empty")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()

			sessions := app.NewSessionManager(st.sessions, st, app.SessionConfig{})
			user, err := app.NewAuthService(st, sessions).CreateUser(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "User %s created with ID %s\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address of the new user")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted for when omitted)")
	return cmd
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
