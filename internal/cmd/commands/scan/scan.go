package scan

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/postman-sync/internal/cmd/base"
	"github.com/hashicorp-forge/postman-sync/pkg/collection"
)

type Command struct {
	*base.Command

	flagConfig base.ConfigFlags
}

func (c *Command) Synopsis() string {
	return "List the local collections a sync would publish"
}

func (c *Command) Help() string {
	return `Usage: postman-sync scan [options]

  Scans the source folder and prints every accepted collection with its
  Postman identifier and source file. Nothing is sent to the Postman API.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("scan", flag.ExitOnError))
	c.flagConfig.AddFlags(f, false)
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	fs := afero.NewOsFs()

	cfg, err := c.flagConfig.Load(fs, f)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}
	if err := cfg.ValidateLocal(); err != nil {
		c.UI.Error(fmt.Sprintf("invalid configuration: %v", err))
		return 1
	}

	logger := c.ConfigureLogger(cfg.LogLevel, c.flagConfig.LogJSON)

	scanner, err := collection.NewScanner(collection.ScannerConfig{
		Fs:      fs,
		Root:    cfg.Source.Folder,
		Pattern: cfg.Source.Pattern,
		Logger:  logger,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating scanner: %v", err))
		return 1
	}

	result, err := scanner.Scan(context.Background())
	if err != nil {
		c.UI.Error(fmt.Sprintf("error scanning %s: %v", scanner.Root(), err))
		return 1
	}

	for _, col := range result.Collections {
		path := col.Path
		if rel, err := filepath.Rel(scanner.Root(), col.Path); err == nil {
			path = rel
		}
		id := col.ID()
		if id == "" {
			id = "-"
		}
		c.UI.Output(fmt.Sprintf("%s\t%s\t%s", id, col.Name(), path))
	}
	c.UI.Info(fmt.Sprintf("%d collection(s) in %d JSON file(s)", len(result.Collections), result.FilesFound))

	return 0
}
