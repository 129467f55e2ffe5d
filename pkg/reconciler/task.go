package reconciler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/postman-sync/pkg/collection"
	"github.com/hashicorp-forge/postman-sync/pkg/postman"
)

// TaskResult is the outcome of reconciling one local collection.
type TaskResult struct {
	Name    string `json:"name" yaml:"name"`
	LocalID string `json:"local_id,omitempty" yaml:"local_id,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	State   State  `json:"state" yaml:"state"`

	// History lists every state entered after pending, in order.
	History []State `json:"-" yaml:"-"`

	// MatchedID is the remote collection found by name, if any.
	MatchedID  string `json:"matched_id,omitempty" yaml:"matched_id,omitempty"`
	DeletedID  string `json:"deleted_id,omitempty" yaml:"deleted_id,omitempty"`
	RemoteID   string `json:"remote_id,omitempty" yaml:"remote_id,omitempty"`
	RemoteName string `json:"remote_name,omitempty" yaml:"remote_name,omitempty"`

	// WrittenTo is the source file rewritten with RemoteID.
	WrittenTo string `json:"written_to,omitempty" yaml:"written_to,omitempty"`

	// DeleteError is set when a delete failed and the task proceeded to
	// create anyway.
	DeleteError string `json:"delete_error,omitempty" yaml:"delete_error,omitempty"`

	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	Err        error  `json:"-" yaml:"-"`
}

// Failed reports whether the task ended in a failure state.
func (t *TaskResult) Failed() bool {
	return t.State.Failed()
}

func (t *TaskResult) fail(state State, err error) *TaskResult {
	t.advance(state)
	t.StatusCode = postman.StatusCode(err)
	t.Err = fmt.Errorf("collection %q (postman id %q): %w", t.Name, t.LocalID, err)
	t.Error = err.Error()
	return t
}

// reconcile runs one task to a terminal state. Failures are recorded on the
// result, never returned.
func (r *Reconciler) reconcile(
	ctx context.Context,
	logger hclog.Logger,
	c *collection.Collection,
	index collection.SourceFileIndex,
	baseline []postman.RemoteCollection,
) *TaskResult {
	result := &TaskResult{
		Name:    c.Name(),
		LocalID: c.ID(),
		Path:    c.Path,
		State:   StatePending,
	}
	log := logger.With("collection", c.Name(), "postman_id", c.ID())

	result.advance(StateListing)
	remote := baseline
	if r.listing == ListingPerTask {
		var err error
		remote, err = r.listRemote(ctx)
		if err != nil {
			log.Error("unable to fetch remote collections",
				"status", postman.StatusCode(err),
				"message", postman.Message(err),
				"error", err,
			)
			return result.fail(StateListFailed, err)
		}
	}

	match, found := findByName(remote, c.Name())
	if found {
		result.advance(StateMatchFound)
		result.MatchedID = match.ID
		log.Info("collection exists", "remote_id", match.ID)

		if r.dryRun {
			log.Info("dry run: would delete and recreate collection", "remote_id", match.ID)
			result.advance(StatePlanned)
			return result
		}

		result.advance(StateDeleting)
		if err := r.deleteRemote(ctx, log, match); err != nil {
			if r.onDeleteFailure == DeleteFailureAbort {
				log.Error("unable to delete existing collection",
					"remote_id", match.ID,
					"status", postman.StatusCode(err),
					"message", postman.Message(err),
					"error", err,
				)
				return result.fail(StateDeleteFailed, err)
			}

			log.Warn("unable to delete existing collection, creating anyway",
				"remote_id", match.ID,
				"status", postman.StatusCode(err),
				"message", postman.Message(err),
			)
			result.DeleteError = err.Error()
		} else {
			result.DeletedID = match.ID
		}
	} else {
		result.advance(StateNoMatch)

		if r.dryRun {
			log.Info("dry run: would create collection")
			result.advance(StatePlanned)
			return result
		}
	}

	created, err := r.directory.CreateCollection(ctx, c, r.workspaceID)
	if err != nil {
		log.Error("unable to create collection",
			"status", postman.StatusCode(err),
			"message", postman.Message(err),
			"error", err,
		)
		return result.fail(StateCreateFailed, err)
	}

	result.RemoteID = created.ID
	result.RemoteName = created.Name
	result.advance(StateCreated)

	log.Info("successfully created collection",
		"name", created.Name,
		"remote_id", created.ID,
	)

	if r.writeBackFs != nil && created.ID != c.ID() {
		result.WrittenTo = r.writeBack(log, c, index, created.ID)
	}

	return result
}

// deleteRemote deletes match, treating 404 as success when configured to.
func (r *Reconciler) deleteRemote(ctx context.Context, log hclog.Logger, match postman.RemoteCollection) error {
	err := r.directory.DeleteCollection(ctx, match.ID)
	if err == nil {
		log.Info("deleted existing collection", "remote_id", match.ID, "name", match.Name)
		return nil
	}

	if r.ignoreMissing && postman.StatusCode(err) == http.StatusNotFound {
		log.Info("existing collection already gone", "remote_id", match.ID)
		return nil
	}

	return err
}

// writeBack records newID in the collection's source file. Failures are
// logged and do not fail the task.
func (r *Reconciler) writeBack(log hclog.Logger, c *collection.Collection, index collection.SourceFileIndex, newID string) string {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	oldID := c.ID()
	path, err := collection.WriteID(r.writeBackFs, index, c, newID)
	if err != nil {
		switch {
		case errors.Is(err, collection.ErrNotIndexed):
			log.Debug("no source file for collection id, skipping write-back")
		case errors.Is(err, collection.ErrIndexedElsewhere):
			log.Warn("collection id is shared with another file, skipping write-back",
				"path", c.Path,
				"error", err,
			)
		default:
			log.Warn("unable to write new id to source file", "error", err)
		}
		return ""
	}

	log.Info("updated local collection id", "path", path, "old_id", oldID, "new_id", newID)
	return path
}
