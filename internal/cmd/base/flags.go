package base

import (
	"flag"
	"fmt"
	"strings"
)

// FlagSet wraps flag.FlagSet with help text generation.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help returns the options section of a command's help text.
func (f *FlagSet) Help() string {
	var b strings.Builder
	b.WriteString("\n\nOptions:\n")

	f.VisitAll(func(fl *flag.Flag) {
		name, usage := flag.UnquoteUsage(fl)
		if name != "" {
			fmt.Fprintf(&b, "\n  -%s=<%s>\n", fl.Name, name)
		} else {
			fmt.Fprintf(&b, "\n  -%s\n", fl.Name)
		}

		for _, line := range strings.Split(usage, "\n") {
			fmt.Fprintf(&b, "      %s\n", line)
		}
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&b, "      Default: %s\n", fl.DefValue)
		}
	})

	return strings.TrimRight(b.String(), "\n")
}

// IsSet reports whether the named flag was set on the command line.
func (f *FlagSet) IsSet(name string) bool {
	set := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}
