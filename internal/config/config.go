package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/iancoleman/strcase"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/hashicorp-forge/postman-sync/pkg/collection"
	"github.com/hashicorp-forge/postman-sync/pkg/postman"
	"github.com/hashicorp-forge/postman-sync/pkg/reconciler"
)

// Action input names. Each is also read from the environment under its
// screaming snake case name and its GitHub Actions INPUT_ name.
const (
	InputAPIKey       = "postmanApiKey"
	InputTimeout      = "postmanTimeout"
	InputWorkspaceID  = "postmanWorkspaceId"
	InputSourceFolder = "postmanSourceFolder"
)

// Config is the runtime configuration.
type Config struct {
	LogLevel string
	Postman  Postman
	Source   Source
	Sync     Sync
}

// Postman configures the remote collection service.
type Postman struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	WorkspaceID string
}

// Source configures local collection discovery.
type Source struct {
	Folder  string
	Pattern string
}

// Sync configures reconciliation behavior.
type Sync struct {
	Listing               string
	OnDeleteFailure       string
	IgnoreMissingOnDelete bool
	IgnoreForks           bool
	WriteBackIDs          bool
	DryRun                bool
}

// file mirrors the HCL configuration file. Unset values are left as nil or
// zero so they do not override defaults.
type file struct {
	LogLevel string       `hcl:"log_level,optional"`
	Postman  *postmanFile `hcl:"postman,block"`
	Source   *sourceFile  `hcl:"source,block"`
	Sync     *syncFile    `hcl:"sync,block"`
}

type postmanFile struct {
	APIKey      string `hcl:"api_key,optional"`
	BaseURL     string `hcl:"base_url,optional"`
	TimeoutMs   int    `hcl:"timeout_ms,optional"`
	WorkspaceID string `hcl:"workspace_id,optional"`
}

type sourceFile struct {
	Folder  string `hcl:"folder,optional"`
	Pattern string `hcl:"pattern,optional"`
}

type syncFile struct {
	Listing               string `hcl:"listing,optional"`
	OnDeleteFailure       string `hcl:"on_delete_failure,optional"`
	IgnoreMissingOnDelete *bool  `hcl:"ignore_missing_on_delete,optional"`
	IgnoreForks           *bool  `hcl:"ignore_forks,optional"`
	WriteBackIDs          *bool  `hcl:"write_back_ids,optional"`
	DryRun                *bool  `hcl:"dry_run,optional"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Postman: Postman{
			BaseURL: postman.DefaultBaseURL,
			Timeout: postman.DefaultTimeout,
		},
		Source: Source{
			Folder:  collection.DefaultFolder,
			Pattern: collection.DefaultPattern,
		},
		Sync: Sync{
			Listing:         string(reconciler.ListingPerTask),
			OnDeleteFailure: string(reconciler.DeleteFailureAbort),
		},
	}
}

// Load returns the defaults overlaid with the config file at path, if path is
// not empty, and then with the environment.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.decodeFile(fs, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) decodeFile(fs afero.Fs, path string) error {
	if _, err := fs.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", path)
	}

	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var f file
	if err := hclsimple.Decode(path, src, evalContext(), &f); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}

	if p := f.Postman; p != nil {
		setString(&c.Postman.APIKey, p.APIKey)
		setString(&c.Postman.BaseURL, p.BaseURL)
		setString(&c.Postman.WorkspaceID, p.WorkspaceID)
		if p.TimeoutMs != 0 {
			c.Postman.Timeout = time.Duration(p.TimeoutMs) * time.Millisecond
		}
	}

	if s := f.Source; s != nil {
		setString(&c.Source.Folder, s.Folder)
		setString(&c.Source.Pattern, s.Pattern)
	}

	if s := f.Sync; s != nil {
		setString(&c.Sync.Listing, s.Listing)
		setString(&c.Sync.OnDeleteFailure, s.OnDeleteFailure)
		setBool(&c.Sync.IgnoreMissingOnDelete, s.IgnoreMissingOnDelete)
		setBool(&c.Sync.IgnoreForks, s.IgnoreForks)
		setBool(&c.Sync.WriteBackIDs, s.WriteBackIDs)
		setBool(&c.Sync.DryRun, s.DryRun)
	}

	return nil
}

// evalContext exposes env("NAME") to config files.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": function.New(&function.Spec{
				Params: []function.Parameter{
					{Name: "name", Type: cty.String},
				},
				Type: function.StaticReturnType(cty.String),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					return cty.StringVal(os.Getenv(args[0].AsString())), nil
				},
			}),
		},
	}
}

// EnvNames returns the environment variable names read for an action input,
// in lookup order.
func EnvNames(input string) []string {
	return []string{
		strcase.ToScreamingSnake(input),
		"INPUT_" + strings.ToUpper(input),
	}
}

// ApplyEnv overlays action inputs found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookupInput(lookup, InputAPIKey); ok {
		c.Postman.APIKey = v
	}
	if v, ok := lookupInput(lookup, InputWorkspaceID); ok {
		c.Postman.WorkspaceID = v
	}
	if v, ok := lookupInput(lookup, InputSourceFolder); ok {
		c.Source.Folder = v
	}
	if v, ok := lookupInput(lookup, InputTimeout); ok {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: must be milliseconds", InputTimeout, v)
		}
		c.Postman.Timeout = time.Duration(ms) * time.Millisecond
	}
	return nil
}

// lookupInput returns the first non-empty value among the input's
// environment names.
func lookupInput(lookup func(string) (string, bool), input string) (string, bool) {
	for _, name := range EnvNames(input) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateLocal is Validate without the postman block, for commands that
// never contact the remote service.
func (c *Config) ValidateLocal() error {
	return c.validate(false)
}

func (c *Config) validate(remote bool) error {
	var result *multierror.Error

	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.Required, validation.By(logLevel)),
	); err != nil {
		result = multierror.Append(result, err)
	}

	if remote {
		if err := validation.ValidateStruct(&c.Postman,
			validation.Field(&c.Postman.APIKey, validation.Required.Error(
				fmt.Sprintf("is required (set %s)", strings.Join(EnvNames(InputAPIKey), " or ")))),
			validation.Field(&c.Postman.BaseURL, validation.Required, validation.By(httpURL)),
			validation.Field(&c.Postman.Timeout, validation.Required, validation.Min(time.Millisecond)),
		); err != nil {
			result = multierror.Append(result, fmt.Errorf("postman: %w", err))
		}
	}

	if err := validation.ValidateStruct(&c.Source,
		validation.Field(&c.Source.Folder, validation.Required),
		validation.Field(&c.Source.Pattern, validation.Required),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("source: %w", err))
	}

	if err := validation.ValidateStruct(&c.Sync,
		validation.Field(&c.Sync.Listing, validation.Required, validation.In(
			string(reconciler.ListingPerTask), string(reconciler.ListingSnapshot))),
		validation.Field(&c.Sync.OnDeleteFailure, validation.Required, validation.In(
			string(reconciler.DeleteFailureAbort), string(reconciler.DeleteFailureProceed))),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("sync: %w", err))
	}

	return result.ErrorOrNil()
}

// ClientConfig converts the postman block into a client configuration.
func (c *Config) ClientConfig(logger hclog.Logger) *postman.Config {
	cfg := postman.DefaultConfig()
	cfg.APIKey = c.Postman.APIKey
	cfg.BaseURL = c.Postman.BaseURL
	cfg.Timeout = c.Postman.Timeout
	cfg.Logger = logger
	return cfg
}

func logLevel(value any) error {
	s, _ := value.(string)
	if hclog.LevelFromString(s) == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", s)
	}
	return nil
}

func httpURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an http or https URL")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
