// Package organize computes the final output location of a filled document.
package organize

import (
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9.-]+`)

// Sanitize turns an arbitrary string into a safe folder name component.
// Runs of characters outside letters, digits, '.' and '-' collapse into a
// single underscore; leading and trailing underscores are trimmed.
func Sanitize(s string) string {
	return strings.Trim(unsafeChars.ReplaceAllString(s, "_"), "_")
}

// OutputPath derives the final path for the filled document.
// If both role and company are given, the file is placed beneath a
// '<company>_<role>' subfolder next to the base path; otherwise the base
// path is returned unchanged. Pure path computation, no I/O.
func OutputPath(base, role, company string) string {
	if role == "" || company == "" {
		return base
	}

	folder := Sanitize(company) + "_" + Sanitize(role)
	if strings.Trim(folder, "_") == "" {
		return base
	}

	return filepath.Join(filepath.Dir(base), folder, filepath.Base(base))
}
