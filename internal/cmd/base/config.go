package base

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/postman-sync/internal/config"
)

// ConfigFlags are the flags shared by commands that load configuration.
// Explicitly set flags take precedence over the environment, which takes
// precedence over the config file.
type ConfigFlags struct {
	ConfigPath  string
	APIKey      string
	BaseURL     string
	TimeoutMs   int
	WorkspaceID string
	Folder      string
	Pattern     string
	LogLevel    string
	LogJSON     bool
}

// AddFlags registers the flags on f. The postman flags are only registered
// when remote is set.
func (cf *ConfigFlags) AddFlags(f *FlagSet, remote bool) {
	f.StringVar(
		&cf.ConfigPath, "config", "",
		"Path to an HCL configuration file",
	)
	f.StringVar(
		&cf.Folder, "folder", "",
		envUsage(config.InputSourceFolder, "Folder scanned recursively for collection files"),
	)
	f.StringVar(
		&cf.Pattern, "pattern", "",
		"Glob matched against file names (default \"*.json\")",
	)
	f.StringVar(
		&cf.LogLevel, "log-level", "",
		"Log level (trace, debug, info, warn, error)",
	)
	f.BoolVar(
		&cf.LogJSON, "log-json", false,
		"Emit logs as JSON",
	)

	if !remote {
		return
	}

	f.StringVar(
		&cf.APIKey, "api-key", "",
		envUsage(config.InputAPIKey, "Postman API key"),
	)
	f.StringVar(
		&cf.BaseURL, "base-url", "",
		"Postman API base URL (default \"https://api.getpostman.com\")",
	)
	f.IntVar(
		&cf.TimeoutMs, "timeout", 0,
		envUsage(config.InputTimeout, "Per-request timeout in milliseconds (default 15000)"),
	)
	f.StringVar(
		&cf.WorkspaceID, "workspace", "",
		envUsage(config.InputWorkspaceID, "Workspace that created collections are placed in"),
	)
}

// Load reads the configuration and applies the flags set on f.
func (cf *ConfigFlags) Load(fs afero.Fs, f *FlagSet) (*config.Config, error) {
	cfg, err := config.Load(fs, cf.ConfigPath)
	if err != nil {
		return nil, err
	}

	if f.IsSet("api-key") {
		cfg.Postman.APIKey = cf.APIKey
	}
	if f.IsSet("base-url") {
		cfg.Postman.BaseURL = cf.BaseURL
	}
	if f.IsSet("timeout") {
		cfg.Postman.Timeout = time.Duration(cf.TimeoutMs) * time.Millisecond
	}
	if f.IsSet("workspace") {
		cfg.Postman.WorkspaceID = cf.WorkspaceID
	}
	if f.IsSet("folder") {
		cfg.Source.Folder = cf.Folder
	}
	if f.IsSet("pattern") {
		cfg.Source.Pattern = cf.Pattern
	}
	if f.IsSet("log-level") {
		cfg.LogLevel = cf.LogLevel
	}

	return cfg, nil
}

func envUsage(input, usage string) string {
	return fmt.Sprintf("[%s] %s", strings.Join(config.EnvNames(input), ", "), usage)
}
