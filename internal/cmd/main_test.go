package cmd

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"

	"github.com/hashicorp-forge/postman-sync/internal/version"
)

func TestDefaultArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "bare", args: []string{"postman-sync"}, want: []string{"postman-sync", "sync"}},
		{name: "version flag", args: []string{"postman-sync", "-v"}, want: []string{"postman-sync", "version"}},
		{name: "flags only", args: []string{"postman-sync", "-dry-run"}, want: []string{"postman-sync", "sync", "-dry-run"}},
		{name: "help", args: []string{"postman-sync", "-help"}, want: []string{"postman-sync", "-help"}},
		{name: "subcommand", args: []string{"postman-sync", "scan", "-folder=x"}, want: []string{"postman-sync", "scan", "-folder=x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultArgs(tt.args))
		})
	}
}

func TestRun_Version(t *testing.T) {
	ui := cli.NewMockUi()

	code := run("postman-sync", []string{"postman-sync", "version"}, hclog.NewNullLogger(), ui)
	assert.Equal(t, 0, code)
	assert.Contains(t, ui.OutputWriter.String(), version.Version)
}

func TestInitCommands(t *testing.T) {
	initCommands(hclog.NewNullLogger(), cli.NewMockUi())

	for _, name := range []string{"sync", "scan", "list", "version"} {
		factory, ok := Commands[name]
		if assert.True(t, ok, name) {
			c, err := factory()
			assert.NoError(t, err)
			assert.NotEmpty(t, c.Synopsis())
		}
	}
}
