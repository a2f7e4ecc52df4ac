package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_OverridePrecedence(t *testing.T) {
	base := Mapping{"NAME": "Alice", "EMAIL": "alice@example.com"}
	overrides := Mapping{"NAME": "Bob"}

	merged := Merge(base, overrides)

	assert.Equal(t, "Bob", merged["NAME"])
	assert.Equal(t, "alice@example.com", merged["EMAIL"])

	// inputs stay untouched
	assert.Equal(t, "Alice", base["NAME"])
}

func TestMerge_NilInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))
	assert.Equal(t, Mapping{"A": "1"}, Merge(Mapping{"A": "1"}, nil))
	assert.Equal(t, Mapping{"A": "1"}, Merge(nil, Mapping{"A": "1"}))
}

func TestParseDefine(t *testing.T) {
	key, value, err := ParseDefine("NAME=Jane Smith")
	require.NoError(t, err)
	assert.Equal(t, "NAME", key)
	assert.Equal(t, "Jane Smith", value)

	// only the first '=' splits, values may contain more
	key, value, err = ParseDefine("QUERY=a=b")
	require.NoError(t, err)
	assert.Equal(t, "QUERY", key)
	assert.Equal(t, "a=b", value)

	// empty value is fine
	_, value, err = ParseDefine("EMPTY=")
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestParseDefine_Malformed(t *testing.T) {
	_, _, err := ParseDefine("NOVALUE")
	require.ErrorIs(t, err, ErrMalformedArgument)
	assert.Contains(t, err.Error(), "NOVALUE")
}

func TestParseDefines(t *testing.T) {
	mapping, err := ParseDefines([]string{"A=1", "B=2", "A=3"})
	require.NoError(t, err)
	assert.Equal(t, Mapping{"A": "3", "B": "2"}, mapping)

	_, err = ParseDefines([]string{"A=1", "broken"})
	assert.ErrorIs(t, err, ErrMalformedArgument)
}

func TestLoadFile_Json(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"NAME":"Jane Smith","EMAIL":"jane@example.com"}`), 0644))

	mapping, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Mapping{"NAME": "Jane Smith", "EMAIL": "jane@example.com"}, mapping)
}

func TestLoadFile_Yaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	require.NoError(t, os.WriteFile(path, []byte("NAME: Jane Smith\nEMAIL: jane@example.com\n"), 0644))

	mapping, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Mapping{"NAME": "Jane Smith", "EMAIL": "jane@example.com"}, mapping)
}

func TestLoadFile_NonStringValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"NAME": 42}`), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
