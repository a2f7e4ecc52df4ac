// Package template builds the placeholder mapping and fills plain text
// templates. The mapping is merged from an optional data file (JSON or YAML)
// and inline KEY=VALUE overrides, the override always wins.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformedArgument is returned for inline definitions which are not of the form KEY=VALUE.
var ErrMalformedArgument = errors.New("malformed argument")

// Mapping binds token names (without delimiters) to their replacement values.
// Keys are case-sensitive and must match the token name exactly.
type Mapping map[string]string

// Merge combines the base mapping with the overrides into a new Mapping.
// Keys present in both take the override's value. Neither input is mutated.
func Merge(base, overrides Mapping) Mapping {
	merged := make(Mapping, len(base)+len(overrides))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}
	return merged
}

// ParseDefine splits an inline definition on the first '='.
// A definition without '=' fails with ErrMalformedArgument naming the offending string.
func ParseDefine(arg string) (key, value string, err error) {
	key, value, ok := strings.Cut(arg, "=")
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not of the form KEY=VALUE", ErrMalformedArgument, arg)
	}
	return key, value, nil
}

// ParseDefines parses all inline definitions into a Mapping.
// A later definition of the same key wins.
func ParseDefines(args []string) (Mapping, error) {
	mapping := make(Mapping, len(args))
	for _, arg := range args {
		key, value, err := ParseDefine(arg)
		if err != nil {
			return nil, err
		}
		mapping[key] = value
	}
	return mapping, nil
}

// LoadFile reads the base mapping from a data file.
// The format is chosen by extension: .yaml/.yml is parsed as YAML, everything
// else as JSON. Keys and values must be strings.
func LoadFile(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}

	var mapping Mapping
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &mapping)
	default:
		err = json.Unmarshal(data, &mapping)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing data file %s: %w", path, err)
	}
	return mapping, nil
}
