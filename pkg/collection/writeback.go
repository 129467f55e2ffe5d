package collection

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// ErrNotIndexed is returned by WriteID when the collection's declared
// identifier has no source file in the index.
var ErrNotIndexed = errors.New("no source file indexed for collection")

// ErrIndexedElsewhere is returned by WriteID when the index maps the
// collection's identifier to a file other than the one it was read from,
// which happens when several files declare the same identifier.
var ErrIndexedElsewhere = errors.New("collection identifier is indexed to another file")

// WriteID stores newID in c and rewrites the source file that the index
// associates with c's previously declared identifier. It returns the path
// written. Nothing is written unless that file is the one c was read from.
func WriteID(fs afero.Fs, index SourceFileIndex, c *Collection, newID string) (string, error) {
	path, ok := index.Path(c.ID())
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotIndexed, c.ID())
	}
	if path != c.Path {
		return "", fmt.Errorf("%w: %q maps to %s, collection was read from %s", ErrIndexedElsewhere, c.ID(), path, c.Path)
	}

	mode := os.FileMode(0o644)
	if info, err := fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	c.SetID(newID)

	data, err := c.Encode()
	if err != nil {
		return "", fmt.Errorf("failed to encode collection: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, mode); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}
