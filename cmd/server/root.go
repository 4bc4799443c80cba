package main

import (
	"github.com/dmitrijs2005/gophauth/internal/server"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the server command. Every config key is also a flag.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gophauth-server",
		Short: "gophauth - username/password authentication service",
		Long: `gophauth registers users and exchanges their credentials for signed
session tokens over HTTP and gRPC.

Settings are read from defaults, an optional config file (-c), GOPHAUTH_*
environment variables and flags, in that order.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			app, err := server.NewApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			return app.Run(cmd.Context())
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}
