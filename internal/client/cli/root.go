package cli

import (
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the gophauth client command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gophauth",
		Short:         "Command-line client for the gophauth service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewRegisterCmd())
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewMeCmd())
	cmd.AddCommand(NewHealthCmd())

	return cmd
}

// NewRegisterCmd creates the register subcommand.
func NewRegisterCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account. Missing values are prompted for; the password is
read without echo and asked for twice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			if name, err = a.prompt(name, "Enter name"); err != nil {
				return err
			}
			if email, err = a.prompt(email, "Enter email"); err != nil {
				return err
			}
			password, err := getPassword(a.reader, "Enter password: ", a.errOut)
			if err != nil {
				return err
			}
			confirm, err := getPassword(a.reader, "Confirm password: ", a.errOut)
			if err != nil {
				return err
			}

			u, err := a.api.Register(cmd.Context(), client.RegisterRequest{
				Name:            name,
				Email:           email,
				Password:        password,
				ConfirmPassword: confirm,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Registered %s (id %s)\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "user name")
	cmd.Flags().StringVar(&email, "email", "", "email address")

	return cmd
}

// NewLoginCmd creates the login subcommand. The token is printed alone on
// stdout so it can be captured by scripts.
func NewLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			if email, err = a.prompt(email, "Enter email"); err != nil {
				return err
			}
			password, err := getPassword(a.reader, "Enter password: ", a.errOut)
			if err != nil {
				return err
			}

			res, err := a.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.errOut, "Logged in as %s\n", res.User.Email)
			fmt.Fprintln(a.out, res.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")

	return cmd
}

// NewMeCmd creates the me subcommand.
func NewMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the identity behind --token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if a.config.Token == "" {
				return fmt.Errorf("no token: pass --token or set %sTOKEN", config.EnvPrefix)
			}

			id, err := a.api.Me(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "id:    %s\nemail: %s\nrole:  %s\n", id.ID, id.Email, id.Role)
			return nil
		},
	}
}

// NewHealthCmd creates the health subcommand.
func NewHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			h, err := a.api.Health(cmd.Context())
			if h != nil {
				fmt.Fprintf(a.out, "status: %s\n", h.Status)
				for name, state := range h.Services {
					fmt.Fprintf(a.out, "  %s: %s\n", name, state)
				}
			}
			return err
		},
	}
}
