package docx

import (
	"log/slog"
	"regexp"
	"strings"
)

const (
	// OpenDelimiter defines the opening delimiter of a placeholder token.
	OpenDelimiter = "{{"
	// CloseDelimiter defines the closing delimiter of a placeholder token.
	CloseDelimiter = "}}"
)

var (
	// OpenDelimiterRegex is used to quickly match the opening delimiter and find its positions.
	OpenDelimiterRegex = regexp.MustCompile(`\{\{`)
	// CloseDelimiterRegex is used to quickly match the closing delimiter and find its positions.
	CloseDelimiterRegex = regexp.MustCompile(`\}\}`)
	// TokenRegex matches a complete, well-formed placeholder literal.
	// The token name charset is fixed: letters, digits and underscores.
	TokenRegex = regexp.MustCompile(`^\{\{[A-Za-z0-9_]+\}\}$`)
)

// PlaceholderMap maps token names (without delimiters) to their replacement values.
type PlaceholderMap map[string]string

// Placeholder is the internal representation of a parsed placeholder from the docx-archive.
// A placeholder usually consists of multiple PlaceholderFragments which specify the relative
// byte-offsets of the fragment inside the underlying byte-data.
type Placeholder struct {
	Fragments []*PlaceholderFragment
}

// Text assembles the placeholder fragments using the given docBytes and returns the full placeholder literal.
func (p Placeholder) Text(docBytes []byte) string {
	str := ""
	for _, fragment := range p.Fragments {
		s := fragment.Run.Text.OpenTag.End
		t := docBytes[s+fragment.Position.Start : s+fragment.Position.End]
		str += string(t)
	}
	return str
}

// StartPos returns the absolute start position of the placeholder.
func (p Placeholder) StartPos() int64 {
	return p.Fragments[0].Run.Text.OpenTag.End + p.Fragments[0].Position.Start
}

// EndPos returns the absolute end position of the placeholder.
func (p Placeholder) EndPos() int64 {
	end := len(p.Fragments) - 1
	return p.Fragments[end].Run.Text.OpenTag.End + p.Fragments[end].Position.End
}

// Valid determines whether the placeholder can be used.
// A placeholder is considered valid, if all fragments are valid.
func (p Placeholder) Valid() bool {
	for _, fragment := range p.Fragments {
		if !fragment.Valid() {
			return false
		}
	}
	return true
}

// ParsePlaceholders will, given the document run positions and the bytes, parse out all
// placeholders including their fragments.
//
// A token may span multiple runs ('{{NA' in one run, 'ME}}' in the next), in which case
// the placeholder collects one fragment per run. Reconstruction is best-effort: a
// delimiter that is itself split across two runs is not recognized and the token is
// left as it is. Anything whose assembled literal does not match TokenRegex is
// discarded at the end, which keeps stray braces and never-closed delimiters verbatim
// in the document.
func ParsePlaceholders(runs DocumentRuns, docBytes []byte) (placeholders []*Placeholder, err error) {
	// tmp vars used to preserve state across iterations
	unclosedPlaceholder := new(Placeholder)
	hasOpenPlaceholder := false

	for _, run := range runs.WithText() {
		runText := run.GetText(docBytes)

		openDelimPositions := OpenDelimiterRegex.FindAllStringIndex(runText, -1)
		closeDelimPositions := CloseDelimiterRegex.FindAllStringIndex(runText, -1)

		// FindAllStringIndex returns a [][]int whereas the nested []int has only 2 keys (0 and 1).
		// We're only interested in the first key as that one indicates the position of the delimiter.
		delimPositions := func(positions [][]int) []int {
			var pos []int
			for _, position := range positions {
				pos = append(pos, position[0])
			}
			return pos
		}

		// index all delimiters
		openPos := delimPositions(openDelimPositions)
		closePos := delimPositions(closeDelimPositions)

		// In case there are the same amount of open and close delimiters there are
		// three different sub-cases.
		// Case 1 (default):
		//		'{{foo}}{{bar}}' which is the simplest case to handle
		//
		// Case 2 (special):
		//		'}}foo{{bar}}foo{{' which can easily be detected by checking if 'openPos > endPos'.
		//		The first close delimiter belongs to an unclosed placeholder from a previous
		//		run, if there is one; otherwise it is plain text and stays verbatim.
		//		We can be sure that the first close and the last open delimiters are the odd ones
		//		out, everything in between is correct given the len(openPos)==len(closePos) premise.
		//
		// Case 3 (nested):
		//		'{{foo{{bar}}foo}}' aka placeholder-nesting, which is not supported but needs
		//		to be detected and skipped anyway.
		if (len(openPos) == len(closePos)) && len(openPos) != 0 {

			// isSpecialCase checks if, for any found delimiter pair, startPos > endPos is true (case 2)
			isSpecialCase := func() bool {
				for i := 0; i < len(openPos); i++ {
					start := openPos[i]
					end := closePos[i] + len(CloseDelimiter) // include the closing delimiter in the text
					if start > end {
						return true
					}
				}
				return false
			}

			// isNestedCase checks if there are >1 OpenDelimiters before the first CloseDelimiter.
			// If there is only 1 openPos, this cannot be true (we already know that it's not 0).
			isNestedCase := func() bool {
				if len(openPos) == 1 {
					return false
				}
				if openPos[0] < closePos[0] &&
					openPos[1] < closePos[0] {
					return true
				}
				return false
			}

			// handle case 2
			if isSpecialCase() {

				// handle the easy part, everything between the culprit first '}}' and last '{{'
				validOpenPos := openPos[:len(openPos)-1]
				validClosePos := closePos[1:]
				placeholders = append(placeholders, assembleFullPlaceholders(run, validOpenPos, validClosePos)...)

				// extract the first close and last open delimiter positions as they are the ones causing issues
				lastOpenPos := openPos[len(openPos)-1]
				firstClosePos := closePos[0]

				// everything up to firstClosePos belongs to the currently open placeholder.
				// Without an open placeholder the stray close delimiter is just text
				// (e.g. 'a}}b{{c') and stays verbatim.
				if hasOpenPlaceholder {
					fragment := NewPlaceholderFragment(0, Position{0, int64(firstClosePos + len(CloseDelimiter))}, run)
					unclosedPlaceholder.Fragments = append(unclosedPlaceholder.Fragments, fragment)
					placeholders = append(placeholders, unclosedPlaceholder)
				}

				// a new, unclosed, placeholder starts at lastOpenPos
				fragment := NewPlaceholderFragment(0, Position{int64(lastOpenPos), int64(len(runText))}, run)
				unclosedPlaceholder = new(Placeholder)
				unclosedPlaceholder.Fragments = append(unclosedPlaceholder.Fragments, fragment)
				hasOpenPlaceholder = true

				continue
			}

			// nesting is not supported, skip the run
			if isNestedCase() {
				slog.Warn("skipping run with nested placeholder", "run", run.ID, "text", run.GetText(docBytes))
				continue
			}

			// case 1, assemble and continue
			placeholders = append(placeholders, assembleFullPlaceholders(run, openPos, closePos)...)
			continue
		}

		// More open than closing delimiters, e.g. '{{foo}}{{bar'.
		// This can only mean that a placeholder is left unclosed after this run.
		// So we can be sure that the last position in openPos is the opening tag of the
		// unclosed placeholder.
		if len(openPos) > len(closePos) {
			// merge full placeholders in the run, leaving out the last openPos since
			// we know that that one is left over and must be handled separately below
			placeholders = append(placeholders, assembleFullPlaceholders(run, openPos[:len(openPos)-1], closePos)...)

			// add the unclosed part of the placeholder to a tmp placeholder var
			unclosedOpenPos := openPos[len(openPos)-1]
			fragment := NewPlaceholderFragment(0, Position{int64(unclosedOpenPos), int64(len(runText))}, run)
			unclosedPlaceholder.Fragments = append(unclosedPlaceholder.Fragments, fragment)
			hasOpenPlaceholder = true
			continue
		}

		// More closing than opening delimiters, e.g. '}}{{foo}}'.
		// This can only mean that there must be an unclosed placeholder which
		// is closed in this run.
		if len(openPos) < len(closePos) {
			// merge full placeholders in the run, leaving out the last closePos since
			// we know that that one is left over and must be handled separately below
			placeholders = append(placeholders, assembleFullPlaceholders(run, openPos, closePos[:len(closePos)-1])...)

			// there is only a closePos and no open pos
			if len(closePos) == 1 {
				fragment := NewPlaceholderFragment(0, Position{0, int64(closePos[0] + len(CloseDelimiter))}, run)
				unclosedPlaceholder.Fragments = append(unclosedPlaceholder.Fragments, fragment)
				placeholders = append(placeholders, unclosedPlaceholder)
				unclosedPlaceholder = new(Placeholder)
				hasOpenPlaceholder = false
				continue
			}
			continue
		}

		// No placeholders at all.
		// The run is only relevant if there is an unclosed placeholder from a previous run.
		// In that case it means that the full run-text belongs to the placeholder.
		// For example, if a placeholder has three fragments in total, this represents fragment 2 (see below)
		//	1) '{{foo'
		//	2) 'bar-'
		//	3) '-baz}}'
		if len(openPos) == 0 && len(closePos) == 0 {
			if hasOpenPlaceholder {
				fragment := NewPlaceholderFragment(0, Position{0, int64(len(runText))}, run)
				unclosedPlaceholder.Fragments = append(unclosedPlaceholder.Fragments, fragment)
				continue
			}
		}
	}

	// Make sure that we're dealing with valid and proper placeholders only.
	// Everything else may cause issues like out of bounds errors or any other sort of weird things.
	// The token regex also enforces the name charset, so stray braces, never-closed delimiters and
	// accidental '{{not a token}}' literals are dropped here and thus left verbatim in the document.
	var validPlaceholders []*Placeholder
	for _, placeholder := range placeholders {
		if !placeholder.Valid() {
			continue
		}
		if !TokenRegex.MatchString(placeholder.Text(docBytes)) {
			continue
		}
		validPlaceholders = append(validPlaceholders, placeholder)
	}
	return validPlaceholders, nil
}

// assembleFullPlaceholders will extract all complete placeholders inside the run given the open and close positions.
// The open and close positions are the positions of the delimiters which must already be known at this point.
// openPos and closePos are expected to be symmetrical (e.g. same length), the n-th elements must be
// matching delimiter positions.
func assembleFullPlaceholders(run *Run, openPos, closePos []int) (placeholders []*Placeholder) {
	for i := 0; i < len(openPos); i++ {
		start := openPos[i]
		end := closePos[i] + len(CloseDelimiter) // include the closing delimiter in the text
		fragment := NewPlaceholderFragment(0, Position{int64(start), int64(end)}, run)
		p := &Placeholder{Fragments: []*PlaceholderFragment{fragment}}
		placeholders = append(placeholders, p)
	}
	return placeholders
}

// AddPlaceholderDelimiter will wrap the given string with OpenDelimiter and CloseDelimiter.
// If the given string is already a delimited placeholder, it is returned unchanged.
func AddPlaceholderDelimiter(s string) string {
	if IsDelimitedPlaceholder(s) {
		return s
	}
	return OpenDelimiter + s + CloseDelimiter
}

// RemovePlaceholderDelimiter removes OpenDelimiter and CloseDelimiter from the given text.
// If the given text is not a delimited placeholder, it is returned unchanged.
func RemovePlaceholderDelimiter(s string) string {
	if !IsDelimitedPlaceholder(s) {
		return s
	}
	return strings.TrimSuffix(strings.TrimPrefix(s, OpenDelimiter), CloseDelimiter)
}

// IsDelimitedPlaceholder returns true if the given string is wrapped in the
// OpenDelimiter and CloseDelimiter.
func IsDelimitedPlaceholder(s string) bool {
	if len(s) < len(OpenDelimiter)+len(CloseDelimiter) {
		return false
	}
	return strings.HasPrefix(s, OpenDelimiter) && strings.HasSuffix(s, CloseDelimiter)
}
