package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/postman-sync/internal/cmd/base"
	"github.com/hashicorp-forge/postman-sync/internal/cmd/commands/list"
	"github.com/hashicorp-forge/postman-sync/internal/cmd/commands/scan"
	"github.com/hashicorp-forge/postman-sync/internal/cmd/commands/sync"
	"github.com/hashicorp-forge/postman-sync/internal/cmd/commands/version"
)

// Commands is the mapping of all available commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"list": func() (cli.Command, error) {
			return &list.Command{Command: b}, nil
		},
		"scan": func() (cli.Command, error) {
			return &scan.Command{Command: b}, nil
		},
		"sync": func() (cli.Command, error) {
			return &sync.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
