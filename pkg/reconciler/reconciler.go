package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/postman-sync/pkg/collection"
	"github.com/hashicorp-forge/postman-sync/pkg/postman"
)

// ErrTasksFailed is wrapped by the error Run returns when at least one
// collection could not be reconciled.
var ErrTasksFailed = errors.New("errors processing collection(s)")

// Source discovers local collections.
type Source interface {
	Scan(ctx context.Context) (*collection.ScanResult, error)
}

// Directory is the remote collection service.
type Directory interface {
	ListCollections(ctx context.Context) ([]postman.RemoteCollection, error)
	CreateCollection(ctx context.Context, doc *collection.Collection, workspaceID string) (*postman.RemoteCollection, error)
	DeleteCollection(ctx context.Context, id string) error
}

// ListingPolicy selects where each task gets its view of the remote
// collections from.
type ListingPolicy string

const (
	// ListingPerTask re-fetches the listing inside every task. Tasks may
	// observe different listings if another actor changes the remote side
	// during the run.
	ListingPerTask ListingPolicy = "per-task"

	// ListingSnapshot reuses the baseline listing taken before dispatch.
	ListingSnapshot ListingPolicy = "snapshot"
)

// DeleteFailurePolicy selects what a task does when deleting the matched
// remote collection fails.
type DeleteFailurePolicy string

const (
	// DeleteFailureAbort ends the task in StateDeleteFailed.
	DeleteFailureAbort DeleteFailurePolicy = "abort"

	// DeleteFailureProceed logs the failure and creates anyway.
	DeleteFailureProceed DeleteFailurePolicy = "proceed"
)

// Reconciler mirrors local collections onto the remote service by deleting
// any remote collection with the same name and creating the local one.
type Reconciler struct {
	source          Source
	directory       Directory
	logger          hclog.Logger
	workspaceID     string
	listing         ListingPolicy
	onDeleteFailure DeleteFailurePolicy
	ignoreMissing   bool
	ignoreForks     bool
	dryRun          bool

	// writeBackFs is nil unless identifiers are written back to source
	// files. Writes are serialized since duplicate identifiers can map two
	// tasks onto one file.
	writeBackFs afero.Fs
	writeMu     sync.Mutex
}

// Option is a functional option for creating a Reconciler.
type Option func(*Reconciler)

// WithSource sets the local collection source.
func WithSource(source Source) Option {
	return func(r *Reconciler) {
		r.source = source
	}
}

// WithDirectory sets the remote collection service.
func WithDirectory(directory Directory) Option {
	return func(r *Reconciler) {
		r.directory = directory
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithWorkspaceID scopes created collections to a workspace.
func WithWorkspaceID(id string) Option {
	return func(r *Reconciler) {
		r.workspaceID = id
	}
}

// WithListingPolicy sets the listing policy.
func WithListingPolicy(policy ListingPolicy) Option {
	return func(r *Reconciler) {
		r.listing = policy
	}
}

// WithDeleteFailurePolicy sets the delete failure policy.
func WithDeleteFailurePolicy(policy DeleteFailurePolicy) Option {
	return func(r *Reconciler) {
		r.onDeleteFailure = policy
	}
}

// WithIgnoreMissingOnDelete treats a 404 on delete as already deleted.
func WithIgnoreMissingOnDelete(ignore bool) Option {
	return func(r *Reconciler) {
		r.ignoreMissing = ignore
	}
}

// WithIgnoreForks excludes forked remote collections from matching.
func WithIgnoreForks(ignore bool) Option {
	return func(r *Reconciler) {
		r.ignoreForks = ignore
	}
}

// WithWriteBack enables rewriting source files on fs with the identifier
// assigned at creation.
func WithWriteBack(fs afero.Fs) Option {
	return func(r *Reconciler) {
		r.writeBackFs = fs
	}
}

// WithDryRun enables or disables dry-run mode.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) {
		r.dryRun = dryRun
	}
}

// New creates a new Reconciler.
func New(opts ...Option) (*Reconciler, error) {
	r := &Reconciler{
		listing:         ListingPerTask,
		onDeleteFailure: DeleteFailureAbort,
		logger: hclog.New(&hclog.LoggerOptions{
			Name: "reconciler",
		}),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.source == nil {
		return nil, fmt.Errorf("collection source is required")
	}
	if r.directory == nil {
		return nil, fmt.Errorf("remote directory is required")
	}
	switch r.listing {
	case ListingPerTask, ListingSnapshot:
	default:
		return nil, fmt.Errorf("unsupported listing policy: %q", r.listing)
	}
	switch r.onDeleteFailure {
	case DeleteFailureAbort, DeleteFailureProceed:
	default:
		return nil, fmt.Errorf("unsupported delete failure policy: %q", r.onDeleteFailure)
	}

	return r, nil
}

// Run performs one reconciliation. It scans the source, takes a baseline
// listing of the remote side, then reconciles every local collection in its
// own goroutine and waits for all of them.
//
// A scan or baseline listing failure aborts the run before any task is
// dispatched. Task failures do not affect other tasks; they are aggregated
// into the returned error, which wraps ErrTasksFailed. The report is returned
// in every case.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	report := newReport(r.dryRun)
	logger := r.logger.With("run_id", report.RunID)

	scan, err := r.source.Scan(ctx)
	if err != nil {
		report.finish()
		return report, fmt.Errorf("failed to scan local collections: %w", err)
	}
	report.FilesFound = scan.FilesFound
	report.Collections = len(scan.Collections)

	if len(scan.Collections) == 0 {
		logger.Info("no local collections found, nothing to do")
		report.finish()
		return report, nil
	}

	baseline, err := r.listRemote(ctx)
	if err != nil {
		logger.Error("unable to fetch remote collections",
			"status", postman.StatusCode(err),
			"message", postman.Message(err),
			"error", err,
		)
		report.finish()
		return report, fmt.Errorf("failed to fetch remote collections: %w", err)
	}
	report.RemoteCollections = len(baseline)

	logger.Info("remote collection(s) found",
		"count", len(baseline),
		"ignore_forks", r.ignoreForks,
	)

	logger.Info("reconciling collections",
		"count", len(scan.Collections),
		"listing", r.listing,
		"dry_run", r.dryRun,
	)

	// One goroutine per collection; each writes only its own slot.
	results := make([]*TaskResult, len(scan.Collections))
	var wg sync.WaitGroup
	wg.Add(len(scan.Collections))
	for i, c := range scan.Collections {
		go func() {
			defer wg.Done()
			results[i] = r.reconcile(ctx, logger, c, scan.Index, baseline)
		}()
	}
	wg.Wait()

	report.Results = results
	report.finish()

	logger.Info("reconciliation completed",
		"created", report.Summary.Created,
		"failed", report.Summary.Failed,
		"planned", report.Summary.Planned,
		"duration", report.Duration,
	)

	if err := report.Err(); err != nil {
		logger.Error("errors processing collection(s), see the output above",
			"failed", report.Summary.Failed,
		)
		return report, fmt.Errorf("%w: %w", ErrTasksFailed, err)
	}

	return report, nil
}

// listRemote fetches the remote listing, dropping forks when configured.
func (r *Reconciler) listRemote(ctx context.Context) ([]postman.RemoteCollection, error) {
	remote, err := r.directory.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	if !r.ignoreForks {
		return remote, nil
	}

	filtered := make([]postman.RemoteCollection, 0, len(remote))
	for _, rc := range remote {
		if !rc.IsFork() {
			filtered = append(filtered, rc)
		}
	}
	return filtered, nil
}

// findByName returns the first remote collection whose name equals name
// exactly. Listing order decides between duplicates.
func findByName(remote []postman.RemoteCollection, name string) (postman.RemoteCollection, bool) {
	for _, rc := range remote {
		if rc.Name == name {
			return rc, true
		}
	}
	return postman.RemoteCollection{}, false
}

func elapsed(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}

func newRunID() string {
	return uuid.NewString()
}
