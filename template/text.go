package template

import "regexp"

// tokenRegex matches a placeholder literal: '{{' + name + '}}'.
// The name charset is fixed to letters, digits and underscores.
var tokenRegex = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Fill replaces every bound token in text with its mapped value.
// The substitution is a single pass over the input: inserted values are never
// re-scanned for further tokens, and unbound tokens stay verbatim.
func Fill(text string, mapping Mapping) string {
	return tokenRegex.ReplaceAllStringFunc(text, func(token string) string {
		name := token[2 : len(token)-2]
		if value, ok := mapping[name]; ok {
			return value
		}
		return token
	})
}

// Tokens returns the distinct token names found in text, in order of first occurrence.
func Tokens(text string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, match := range tokenRegex.FindAllStringSubmatch(text, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
