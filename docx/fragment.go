package docx

import "fmt"

var fragmentId = 0 // global fragment id counter, incremented on NewPlaceholderFragment

// PlaceholderFragment is a part of a placeholder within the document.xml.
// If the full placeholder is e.g. '{{FOO_BAR}}', WordprocessingML may rip it
// apart into multiple runs (e.g. '{{FOO' and '_BAR}}'). Each of those parts is
// one fragment pointing into its run.
type PlaceholderFragment struct {
	ID       int      // ID is used to identify the fragments globally.
	Position Position // Position of the fragment within the run text, relative to Run.Text.OpenTag.End
	Number   int      // numbering of fragments, scoped to the placeholder
	Run      *Run
}

// NewPlaceholderFragment returns an initialized PlaceholderFragment with a new, auto-incremented, ID.
func NewPlaceholderFragment(number int, pos Position, run *Run) *PlaceholderFragment {
	return &PlaceholderFragment{
		ID:       NewFragmentID(),
		Position: pos,
		Number:   number,
		Run:      run,
	}
}

// ShiftAll moves every position marker of the fragment's run by deltaLength.
// Used when bytes were inserted or removed somewhere before this fragment.
func (p *PlaceholderFragment) ShiftAll(deltaLength int64) {
	p.Run.OpenTag.Start += deltaLength
	p.Run.OpenTag.End += deltaLength
	p.Run.CloseTag.Start += deltaLength
	p.Run.CloseTag.End += deltaLength
	p.Run.Text.OpenTag.Start += deltaLength
	p.Run.Text.OpenTag.End += deltaLength
	p.Run.Text.CloseTag.Start += deltaLength
	p.Run.Text.CloseTag.End += deltaLength
}

// ShiftCut adjusts the position markers after the fragment text has been cut
// out of the document. The text positions collapse (start == end), the tags
// following the text move left by cutLength.
func (p *PlaceholderFragment) ShiftCut(cutLength int64) {
	p.Run.Text.CloseTag.Start -= cutLength
	p.Run.Text.CloseTag.End -= cutLength
	p.Run.CloseTag.Start -= cutLength
	p.Run.CloseTag.End -= cutLength
	p.Position.End = p.Position.Start
}

// ShiftReplace adjusts the position markers after the fragment text has been
// replaced by a value of different length. deltaLength is the difference
// between value length and the original fragment length.
func (p *PlaceholderFragment) ShiftReplace(deltaLength int64) {
	p.Run.Text.CloseTag.Start += deltaLength
	p.Run.Text.CloseTag.End += deltaLength
	p.Run.CloseTag.Start += deltaLength
	p.Run.CloseTag.End += deltaLength
	p.Position.End += deltaLength
}

// StartPos returns the absolute start position of the fragment.
func (p PlaceholderFragment) StartPos() int64 {
	return p.Run.Text.OpenTag.End + p.Position.Start
}

// EndPos returns the absolute end position of the fragment.
func (p PlaceholderFragment) EndPos() int64 {
	return p.Run.Text.OpenTag.End + p.Position.End
}

// Text returns the actual text of the fragment given the source bytes.
// If the given byte slice is not large enough for the offsets, an empty string is returned.
func (p PlaceholderFragment) Text(docBytes []byte) string {
	if int64(len(docBytes)) < p.StartPos() ||
		int64(len(docBytes)) < p.EndPos() {
		return ""
	}
	return string(docBytes[p.StartPos():p.EndPos()])
}

// TextLength returns the actual length of the fragment given a byte source.
func (p PlaceholderFragment) TextLength(docBytes []byte) int64 {
	return int64(len(p.Text(docBytes)))
}

// String spits out the most important bits and pieces of a fragment for debugging.
func (p PlaceholderFragment) String(docBytes []byte) string {
	format := "fragment %d in %s with fragment text-positions: [%d:%d] '%s'"
	return fmt.Sprintf(format, p.ID, p.Run.String(docBytes),
		p.Position.Start, p.Position.End, p.Text(docBytes))
}

// Valid returns true if all positions of the fragment are valid.
func (p PlaceholderFragment) Valid() bool {
	return p.Run.OpenTag.Valid() &&
		p.Run.CloseTag.Valid() &&
		p.Run.Text.OpenTag.Valid() &&
		p.Run.Text.CloseTag.Valid() &&
		p.Position.Valid()
}

// NewFragmentID returns the next PlaceholderFragment.ID
func NewFragmentID() int {
	fragmentId += 1
	return fragmentId
}

// ResetFragmentIdCounter will reset the fragmentId counter to 0
func ResetFragmentIdCounter() {
	fragmentId = 0
}
