package docx

import (
	"bytes"
	"fmt"
)

var runId = 0 // global Run ID counter, incremented by NewRunID()

// Run defines a non-block region of text with a common set of properties.
// It is specified with the <w:r> element.
// In our case the run is specified by four byte positions (start and end tag).
type Run struct {
	ID       int
	OpenTag  Position
	CloseTag Position
	Text     TextRun
	HasText  bool
}

// NewEmptyRun returns a new, empty run which has only an ID set.
func NewEmptyRun() *Run {
	return &Run{
		ID: NewRunID(),
	}
}

// GetText returns the text of the run, if any.
// If the run does not have a text or the given byte slice is too small, an empty string is returned.
func (r *Run) GetText(documentBytes []byte) string {
	if !r.HasText {
		return ""
	}
	startPos := r.Text.OpenTag.End
	endPos := r.Text.CloseTag.Start

	if int64(len(documentBytes)) < startPos || int64(len(documentBytes)) < endPos {
		return ""
	}

	return string(documentBytes[startPos:endPos])
}

// String returns a string representation of the run, given the source bytes.
// It may be helpful in debugging.
func (r *Run) String(bytes []byte) string {
	format := "run %d from offset [%d:%d] '%s' to [%d:%d] '%s'; run-text from [%d:%d] to [%d:%d] '%s'"
	return fmt.Sprintf(format, r.ID,
		r.OpenTag.Start, r.OpenTag.End, bytes[r.OpenTag.Start:r.OpenTag.End],
		r.CloseTag.Start, r.CloseTag.End, bytes[r.CloseTag.Start:r.CloseTag.End],
		r.Text.OpenTag.Start, r.Text.OpenTag.End,
		r.Text.CloseTag.Start, r.Text.CloseTag.End, r.GetText(bytes),
	)
}

// DocumentRuns is a convenience type used to describe a slice of runs.
type DocumentRuns []*Run

// WithText returns all runs with the HasText flag set.
func (dr DocumentRuns) WithText() DocumentRuns {
	var r DocumentRuns
	for _, run := range dr {
		if run.HasText {
			r = append(r, run)
		}
	}
	return r
}

// TextRun defines the <w:t> element which contains the actual literal text data.
// A TextRun is always a child of a Run.
type TextRun struct {
	OpenTag  Position
	CloseTag Position
}

// Position is a generic position of a tag, represented by byte offsets.
type Position struct {
	Start int64
	End   int64
}

// Valid returns true if the offsets are non-negative and the end does not
// come before the start.
func (p Position) Valid() bool {
	return p.Start >= 0 && p.End >= p.Start
}

// ValidatePositions checks that the given runs still line up with the actual
// tags inside the document bytes. Replacing fragment values shifts the byte
// offsets of everything that follows; if any position no longer points where
// it should, the document would end up corrupted on write.
//
// Open tags may carry attributes (e.g. '<w:t xml:space="preserve">'), so for
// them only the closing '>' is checked. Close tags are attribute-free and are
// matched literally.
func ValidatePositions(docBytes []byte, runs []*Run) error {
	length := int64(len(docBytes))
	endsWithBracket := func(pos Position) bool {
		return pos.Valid() && pos.End > 0 && pos.End <= length && docBytes[pos.End-1] == '>'
	}
	tagEquals := func(pos Position, tag string) bool {
		if !pos.Valid() || pos.End > length {
			return false
		}
		return bytes.Equal(docBytes[pos.Start:pos.End], []byte(tag))
	}

	for _, run := range runs {
		if !endsWithBracket(run.OpenTag) {
			return fmt.Errorf("run %d has an invalid open tag position", run.ID)
		}
		// self-closing runs reuse the open tag position as close tag
		if !tagEquals(run.CloseTag, "</w:r>") && run.CloseTag != run.OpenTag {
			return fmt.Errorf("run %d has an invalid close tag position", run.ID)
		}
		if !run.HasText {
			continue
		}
		if !endsWithBracket(run.Text.OpenTag) {
			return fmt.Errorf("run %d has an invalid text open tag position", run.ID)
		}
		if !tagEquals(run.Text.CloseTag, "</w:t>") {
			return fmt.Errorf("run %d has an invalid text close tag position", run.ID)
		}
	}
	return nil
}

// NewRunID returns the next Run.ID
func NewRunID() int {
	runId += 1
	return runId
}

// ResetRunIdCounter will reset the runId counter to 0
func ResetRunIdCounter() {
	runId = 0
}
