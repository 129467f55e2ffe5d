package collection_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/postman-sync/pkg/collection"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  error
		wantName string
		wantID   string
	}{
		{
			name:     "valid collection",
			input:    collectionJSON("abc-123", "Users API"),
			wantName: "Users API",
			wantID:   "abc-123",
		},
		{
			name:    "missing info",
			input:   `{"item": []}`,
			wantErr: collection.ErrNotCollection,
		},
		{
			name:    "other schema",
			input:   `{"info": {"name": "x", "schema": "https://example.com/schema.json"}}`,
			wantErr: collection.ErrNotCollection,
		},
		{
			name:     "non-string name is kept",
			input:    `{"info": {"_postman_id": 42, "name": true, "schema": "` + collection.SchemaV210 + `"}}`,
			wantName: "1",
			wantID:   "42",
		},
		{
			name:    "schema differs by case",
			input:   `{"info": {"name": "x", "schema": "HTTPS://schema.getpostman.com/json/collection/v2.1.0/collection.json"}}`,
			wantErr: collection.ErrNotCollection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := collection.Parse([]byte(tt.input))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantName, c.Name())
			assert.Equal(t, tt.wantID, c.ID())
			assert.Equal(t, collection.SchemaV210, c.Info.Schema)
		})
	}

	malformed := map[string]string{
		"truncated":        `{"info":`,
		"trailing garbage": collectionJSON("abc", "Users API") + ` this is not json`,
		"second value":     collectionJSON("abc", "Users API") + `{}`,
		"trailing bracket": collectionJSON("abc", "Users API") + `]`,
	}
	for name, input := range malformed {
		t.Run("malformed JSON: "+name, func(t *testing.T) {
			_, err := collection.Parse([]byte(input))
			require.Error(t, err)
			assert.False(t, errors.Is(err, collection.ErrNotCollection))
		})
	}

	t.Run("trailing whitespace is accepted", func(t *testing.T) {
		c, err := collection.Parse([]byte(collectionJSON("abc", "Users API") + "\n\n  "))
		require.NoError(t, err)
		assert.Equal(t, "Users API", c.Name())
	})
}

func TestCollection_MarshalJSON(t *testing.T) {
	input := `{
		"info": {"_postman_id": "1", "name": "Big", "schema": "` + collection.SchemaV210 + `"},
		"variable": [{"key": "limit", "value": 9007199254740993}],
		"x-custom": {"kept": true}
	}`

	c, err := collection.Parse([]byte(input))
	require.NoError(t, err)

	out, err := json.Marshal(map[string]any{"collection": c})
	require.NoError(t, err)

	assert.Contains(t, string(out), `"x-custom":{"kept":true}`)
	assert.Contains(t, string(out), `9007199254740993`)
}

func TestWriteID(t *testing.T) {
	t.Run("rewrites the indexed file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{
			"/src/users.json": collectionJSON("old-id", "Users API"),
		})

		s := newScanner(t, fs, "/src")
		result, err := s.Scan(t.Context())
		require.NoError(t, err)
		require.Len(t, result.Collections, 1)

		path, err := collection.WriteID(fs, result.Index, result.Collections[0], "new-id")
		require.NoError(t, err)
		assert.Equal(t, "/src/users.json", path)

		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "\t\"info\": {")

		reparsed, err := collection.Parse(data)
		require.NoError(t, err)
		assert.Equal(t, "new-id", reparsed.ID())
		assert.Equal(t, "Users API", reparsed.Name())
	})

	t.Run("fails when the identifier is not indexed", func(t *testing.T) {
		c, err := collection.Parse([]byte(collectionJSON("", "Anon")))
		require.NoError(t, err)

		_, err = collection.WriteID(afero.NewMemMapFs(), collection.SourceFileIndex{}, c, "new-id")
		require.Error(t, err)
		assert.ErrorIs(t, err, collection.ErrNotIndexed)
		assert.Empty(t, c.ID(), "collection must be left untouched")
	})

	t.Run("never writes into another file sharing the identifier", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{
			"/r/a.json": collectionJSON("dup", "A"),
			"/r/b.json": collectionJSON("dup", "B"),
		})

		result, err := newScanner(t, fs, "/r").Scan(t.Context())
		require.NoError(t, err)
		require.Len(t, result.Collections, 2)

		byName := map[string]*collection.Collection{}
		for _, c := range result.Collections {
			byName[c.Name()] = c
		}

		_, err = collection.WriteID(fs, result.Index, byName["A"], "new-A")
		require.Error(t, err)
		assert.ErrorIs(t, err, collection.ErrIndexedElsewhere)
		assert.Equal(t, "dup", byName["A"].ID(), "collection must be left untouched")

		data, err := afero.ReadFile(fs, "/r/b.json")
		require.NoError(t, err)
		assert.Equal(t, collectionJSON("dup", "B"), string(data))

		path, err := collection.WriteID(fs, result.Index, byName["B"], "new-B")
		require.NoError(t, err)
		assert.Equal(t, "/r/b.json", path)

		data, err = afero.ReadFile(fs, "/r/a.json")
		require.NoError(t, err)
		assert.Equal(t, collectionJSON("dup", "A"), string(data))
	})
}
