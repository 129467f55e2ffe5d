package list

import (
	"context"
	"flag"
	"fmt"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/postman-sync/internal/cmd/base"
	"github.com/hashicorp-forge/postman-sync/pkg/postman"
)

type Command struct {
	*base.Command

	flagConfig base.ConfigFlags
	flagForks  bool
}

func (c *Command) Synopsis() string {
	return "List the collections visible to the API key"
}

func (c *Command) Help() string {
	return `Usage: postman-sync list [options]

  Prints the identifier and name of every remote collection visible to the
  configured API key. Forks are marked.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("list", flag.ExitOnError))

	c.flagConfig.AddFlags(f, true)

	f.BoolVar(
		&c.flagForks, "forks", true,
		"Include forked collections",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.flagConfig.Load(afero.NewOsFs(), f)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}
	if err := cfg.Validate(); err != nil {
		c.UI.Error(fmt.Sprintf("invalid configuration: %v", err))
		return 1
	}

	logger := c.ConfigureLogger(cfg.LogLevel, c.flagConfig.LogJSON)

	client, err := postman.NewClient(cfg.ClientConfig(logger))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating postman client: %v", err))
		return 1
	}

	remote, err := client.ListCollections(context.Background())
	if err != nil {
		c.UI.Error(fmt.Sprintf("error listing collections: %v", err))
		return 1
	}

	shown := 0
	for _, rc := range remote {
		if rc.IsFork() {
			if !c.flagForks {
				continue
			}
			c.UI.Output(fmt.Sprintf("%s\t%s\t(fork of %s)", rc.ID, rc.Name, rc.Fork.From))
		} else {
			c.UI.Output(fmt.Sprintf("%s\t%s", rc.ID, rc.Name))
		}
		shown++
	}
	c.UI.Info(fmt.Sprintf("%d collection(s)", shown))

	return 0
}
