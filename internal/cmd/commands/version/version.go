package version

import (
	"github.com/hashicorp-forge/postman-sync/internal/cmd/base"
	"github.com/hashicorp-forge/postman-sync/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: postman-sync version

  Prints the version of this binary.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.HumanVersion())
	return 0
}
