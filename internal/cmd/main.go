package cmd

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/postman-sync/internal/version"
)

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	cliName := filepath.Base(args[0])

	log := hclog.New(&hclog.LoggerOptions{
		Name: cliName,
	})

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	return run(cliName, defaultArgs(args), log, ui)
}

func run(cliName string, args []string, log hclog.Logger, ui cli.Ui) int {
	initCommands(log, ui)

	c := &cli.CLI{
		Name:     cliName,
		Args:     args[1:],
		Version:  version.HumanVersion(),
		Commands: Commands,
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	return exitCode
}

// defaultArgs maps version flags to the version command and runs sync when
// no subcommand is given, so the binary can run bare as a CI step.
func defaultArgs(args []string) []string {
	if len(args) == 2 &&
		(args[1] == "-version" ||
			args[1] == "-v") {
		return []string{args[0], "version"}
	}

	if len(args) == 1 {
		return append(args, "sync")
	}

	if strings.HasPrefix(args[1], "-") && !isHelpFlag(args[1]) {
		return append([]string{args[0], "sync"}, args[1:]...)
	}

	return args
}

func isHelpFlag(arg string) bool {
	switch arg {
	case "-h", "-help", "--help":
		return true
	}
	return false
}
