package base

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by every CLI command.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger
}

// NewCommand returns a Command writing to ui and logging to log.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		UI:  ui,
		Log: log,
	}
}

// ConfigureLogger applies the configured level to the command logger. When
// jsonFormat is set the logger is replaced with one emitting JSON lines.
func (c *Command) ConfigureLogger(level string, jsonFormat bool) hclog.Logger {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}

	if jsonFormat {
		c.Log = hclog.New(&hclog.LoggerOptions{
			Name:       c.Log.Name(),
			Level:      lvl,
			JSONFormat: true,
			Output:     os.Stderr,
		})
		return c.Log
	}

	c.Log.SetLevel(lvl)
	return c.Log
}
