package postman

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp-forge/postman-sync/pkg/collection"
)

// RemoteCollection is a collection as listed by the service.
type RemoteCollection struct {
	ID    string `json:"id"`
	UID   string `json:"uid,omitempty"`
	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`
	Fork  *Fork  `json:"fork,omitempty"`
}

// Fork is present on collections that were forked from another collection.
type Fork struct {
	Label     string `json:"label"`
	From      string `json:"from"`
	CreatedAt string `json:"createdAt"`
}

// IsFork reports whether the collection is a fork.
func (rc RemoteCollection) IsFork() bool {
	return rc.Fork != nil
}

// ListCollections returns every collection visible to the API key. Any
// failure, including a non-2xx answer, is reported as *UnavailableError.
func (c *Client) ListCollections(ctx context.Context) ([]RemoteCollection, error) {
	const op = "list collections"

	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, "/collections", nil, nil, &raw); err != nil {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			return nil, &UnavailableError{
				Op:         op,
				StatusCode: rejected.StatusCode,
				Message:    rejected.Message,
			}
		}
		var unavailable *UnavailableError
		if errors.As(err, &unavailable) {
			return nil, err
		}
		return nil, &UnavailableError{Op: op, Err: err}
	}

	collections, err := decodeListing(raw)
	if err != nil {
		return nil, &UnavailableError{Op: op, Err: err}
	}

	return collections, nil
}

// decodeListing accepts both {"collections": [...]} and a bare array.
func decodeListing(raw []byte) ([]RemoteCollection, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty listing response")
	}

	switch trimmed[0] {
	case '[':
		var list []RemoteCollection
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to decode listing: %w", err)
		}
		return list, nil
	case '{':
		var envelope struct {
			Collections []RemoteCollection `json:"collections"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode listing: %w", err)
		}
		return envelope.Collections, nil
	default:
		return nil, fmt.Errorf("unexpected listing response: %.40q", trimmed)
	}
}

// CreateCollection creates doc on the service, scoped to workspaceID when it
// is not empty.
func (c *Client) CreateCollection(ctx context.Context, doc *collection.Collection, workspaceID string) (*RemoteCollection, error) {
	const op = "create collection"

	var query url.Values
	if workspaceID != "" {
		query = url.Values{"workspace": []string{workspaceID}}
	}

	requestBody := map[string]any{
		"collection": doc,
	}

	var response struct {
		Collection RemoteCollection `json:"collection"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/collections", query, requestBody, &response); err != nil {
		return nil, err
	}

	if response.Collection.ID == "" {
		return nil, fmt.Errorf("%s: response did not include a collection id", op)
	}

	return &response.Collection, nil
}

// DeleteCollection deletes the collection with the given id. A 404 is
// reported as *RejectedError like any other non-2xx answer.
func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	const op = "delete collection"

	path := "/collections/" + url.PathEscape(id)
	return c.do(ctx, op, http.MethodDelete, path, nil, nil, nil)
}
