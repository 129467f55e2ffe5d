package collection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"
)

// SchemaV210 is the only collection schema the scanner accepts.
const SchemaV210 = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

// ErrNotCollection is returned by Parse for well-formed JSON that is not a
// v2.1.0 collection.
var ErrNotCollection = errors.New("document is not a v2.1.0 collection")

// Info is the typed view of a collection's "info" block. Only the fields
// needed to identify and match a collection are decoded.
type Info struct {
	PostmanID string `mapstructure:"_postman_id"`
	Name      string `mapstructure:"name"`
	Schema    string `mapstructure:"schema"`
}

// Collection is a local collection document.
//
// Document holds the full decoded JSON object and is what gets transmitted to
// the remote service, so fields this package does not understand survive the
// round trip. Numbers are kept as json.Number for the same reason.
type Collection struct {
	Info     Info
	Document map[string]any

	// Path is the file the collection was read from. Empty for documents
	// parsed from memory.
	Path string
}

// Parse decodes data into a Collection. It returns a JSON syntax error for
// malformed input, including content after the top-level object, and
// ErrNotCollection when info.schema is missing or is not SchemaV210.
func Parse(data []byte) (*Collection, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	rawInfo, ok := doc["info"].(map[string]any)
	if !ok {
		return nil, ErrNotCollection
	}
	if schema, _ := rawInfo["schema"].(string); schema != SchemaV210 {
		return nil, ErrNotCollection
	}

	// Weak typing keeps schema-valid documents whose name or id is not a
	// string, e.g. a boolean name decodes as "1".
	var info Info
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &info,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(rawInfo); err != nil {
		return nil, fmt.Errorf("failed to decode collection info: %w", err)
	}

	return &Collection{
		Info:     info,
		Document: doc,
	}, nil
}

// Name returns info.name, the key collections are matched on.
func (c *Collection) Name() string {
	return c.Info.Name
}

// ID returns the declared info._postman_id, which may be empty or stale.
func (c *Collection) ID() string {
	return c.Info.PostmanID
}

// SetID records a newly assigned identifier in both the typed info and the
// underlying document.
func (c *Collection) SetID(id string) {
	c.Info.PostmanID = id
	if info, ok := c.Document["info"].(map[string]any); ok {
		info["_postman_id"] = id
	}
}

// MarshalJSON encodes the full source document.
func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Document)
}

// Encode renders the document the way collection files are written on disk:
// tab indented with a trailing newline.
func (c *Collection) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(c.Document, "", "\t")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
