package reconciler

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Report describes one run.
type Report struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Duration  string    `json:"duration" yaml:"duration"`
	DryRun    bool      `json:"dry_run" yaml:"dry_run"`

	FilesFound        int `json:"files_found" yaml:"files_found"`
	Collections       int `json:"collections" yaml:"collections"`
	RemoteCollections int `json:"remote_collections" yaml:"remote_collections"`

	Summary Summary       `json:"summary" yaml:"summary"`
	Results []*TaskResult `json:"results" yaml:"results"`
}

// Summary counts task outcomes.
type Summary struct {
	Created int `json:"created" yaml:"created"`
	Failed  int `json:"failed" yaml:"failed"`
	Planned int `json:"planned" yaml:"planned"`
}

func newReport(dryRun bool) *Report {
	return &Report{
		RunID:     newRunID(),
		StartedAt: time.Now().UTC(),
		DryRun:    dryRun,
		Results:   []*TaskResult{},
	}
}

func (r *Report) finish() {
	r.Duration = elapsed(r.StartedAt).String()

	var s Summary
	for _, res := range r.Results {
		switch {
		case res.State == StateCreated:
			s.Created++
		case res.State == StatePlanned:
			s.Planned++
		case res.Failed():
			s.Failed++
		}
	}
	r.Summary = s
}

// Failed reports whether any task failed.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Failed() {
			return true
		}
	}
	return false
}

// Err aggregates the errors of all failed tasks, or returns nil.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, res := range r.Results {
		if res.Failed() {
			result = multierror.Append(result, res.Err)
		}
	}
	return result.ErrorOrNil()
}

// Write encodes the report as "json" or "yaml".
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported report format: %q", format)
	}
}
