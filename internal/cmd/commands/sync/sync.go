package sync

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/postman-sync/internal/cmd/base"
	"github.com/hashicorp-forge/postman-sync/pkg/collection"
	"github.com/hashicorp-forge/postman-sync/pkg/postman"
	"github.com/hashicorp-forge/postman-sync/pkg/reconciler"
)

type Command struct {
	*base.Command

	flagConfig          base.ConfigFlags
	flagListing         string
	flagOnDeleteFailure string
	flagDryRun          bool
	flagWriteBack       bool
	flagReport          string
	flagReportFormat    string
}

func (c *Command) Synopsis() string {
	return "Publish local Postman collections to the Postman API"
}

func (c *Command) Help() string {
	return `Usage: postman-sync sync [options]

  Scans the source folder for Postman v2.1.0 collection files and, for each
  one, deletes any remote collection with the same name and creates the local
  collection in its place. Collections are processed concurrently.

  The command exits non-zero if the remote listing could not be fetched or
  if any collection failed.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("sync", flag.ExitOnError))

	c.flagConfig.AddFlags(f, true)

	f.StringVar(
		&c.flagListing, "listing", "",
		"Remote listing policy: per-task or snapshot (default \"per-task\")",
	)
	f.StringVar(
		&c.flagOnDeleteFailure, "on-delete-failure", "",
		"What to do when deleting a matched collection fails: abort or proceed (default \"abort\")",
	)
	f.BoolVar(
		&c.flagDryRun, "dry-run", false,
		"Resolve remote matches without deleting or creating anything",
	)
	f.BoolVar(
		&c.flagWriteBack, "write-back", false,
		"Write identifiers assigned by Postman back to the source files",
	)
	f.StringVar(
		&c.flagReport, "report", "",
		"Write a run report to this path (\"-\" for standard output)",
	)
	f.StringVar(
		&c.flagReportFormat, "report-format", "json",
		"Run report format: json or yaml",
	)

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
	if f.IsSet("listing") {
		cfg.Sync.Listing = c.flagListing
	}
	if f.IsSet("on-delete-failure") {
		cfg.Sync.OnDeleteFailure = c.flagOnDeleteFailure
	}
	if f.IsSet("dry-run") {
		cfg.Sync.DryRun = c.flagDryRun
	}
	if f.IsSet("write-back") {
		cfg.Sync.WriteBackIDs = c.flagWriteBack
	}
	if err := cfg.Validate(); err != nil {
		c.UI.Error(fmt.Sprintf("invalid configuration: %v", err))
		return 1
	}
	switch c.flagReportFormat {
	case "json", "yaml":
	default:
		c.UI.Error(fmt.Sprintf("unsupported report format: %q", c.flagReportFormat))
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

	client, err := postman.NewClient(cfg.ClientConfig(logger))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating postman client: %v", err))
		return 1
	}

	opts := []reconciler.Option{
		reconciler.WithSource(scanner),
		reconciler.WithDirectory(client),
		reconciler.WithLogger(logger.Named("reconciler")),
		reconciler.WithWorkspaceID(cfg.Postman.WorkspaceID),
		reconciler.WithListingPolicy(reconciler.ListingPolicy(cfg.Sync.Listing)),
		reconciler.WithDeleteFailurePolicy(reconciler.DeleteFailurePolicy(cfg.Sync.OnDeleteFailure)),
		reconciler.WithIgnoreMissingOnDelete(cfg.Sync.IgnoreMissingOnDelete),
		reconciler.WithIgnoreForks(cfg.Sync.IgnoreForks),
		reconciler.WithDryRun(cfg.Sync.DryRun),
	}
	if cfg.Sync.WriteBackIDs {
		opts = append(opts, reconciler.WithWriteBack(scanner.Fs()))
	}

	rec, err := reconciler.New(opts...)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating reconciler: %v", err))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, cancelling run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	report, runErr := rec.Run(ctx)

	if c.flagReport != "" && report != nil {
		if err := c.writeReport(fs, report); err != nil {
			c.UI.Error(fmt.Sprintf("error writing report: %v", err))
			return 1
		}
	}

	if runErr != nil {
		if errors.Is(runErr, reconciler.ErrTasksFailed) {
			c.UI.Error("Errors processing Postman Collection(s) - Please see the output above")
		} else {
			c.UI.Error(fmt.Sprintf("error: %v", runErr))
		}
		return 1
	}

	return 0
}

func (c *Command) writeReport(fs afero.Fs, report *reconciler.Report) error {
	var buf bytes.Buffer
	if err := report.Write(&buf, c.flagReportFormat); err != nil {
		return err
	}

	if c.flagReport == "-" {
		c.UI.Output(buf.String())
		return nil
	}
	return afero.WriteFile(fs, c.flagReport, buf.Bytes(), 0o644)
}
