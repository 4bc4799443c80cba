// Package cli implements the gophauth command-line client.
package cli

import (
	"bufio"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/spf13/cobra"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// App holds what every subcommand needs once flags are parsed.
type App struct {
	config *config.Config
	api    *client.Client
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func newApp(cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return &App{
		config: cfg,
		api:    client.New(cfg.Server, cfg.APIPrefix, cfg.Token, cfg.Timeout),
		reader: bufio.NewReader(cmd.InOrStdin()),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}, nil
}

// prompt returns value, or asks for it when empty.
func (a *App) prompt(value, question string) (string, error) {
	if value != "" {
		return value, nil
	}
	return getSimpleText(a.reader, question, a.errOut)
}
