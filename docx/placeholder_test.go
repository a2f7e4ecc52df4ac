package docx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T, body string) ([]*Placeholder, []byte) {
	t.Helper()

	docBytes := []byte(wrapBody(body))
	parser := NewRunParser(docBytes)
	require.NoError(t, parser.Execute())

	placeholders, err := ParsePlaceholders(parser.Runs(), docBytes)
	require.NoError(t, err)
	return placeholders, docBytes
}

func placeholderTexts(placeholders []*Placeholder, docBytes []byte) []string {
	var texts []string
	for _, p := range placeholders {
		texts = append(texts, p.Text(docBytes))
	}
	return texts
}

func TestParsePlaceholders_SingleRun(t *testing.T) {
	placeholders, docBytes := parseFixture(t,
		`<w:p><w:r><w:t>{{NAME}} works at {{COMPANY}}</w:t></w:r></w:p>`)

	assert.Equal(t, []string{"{{NAME}}", "{{COMPANY}}"}, placeholderTexts(placeholders, docBytes))
}

func TestParsePlaceholders_SpansRuns(t *testing.T) {
	placeholders, docBytes := parseFixture(t,
		`<w:p><w:r><w:t>{{NA</w:t></w:r><w:r><w:t>ME}}</w:t></w:r></w:p>`)

	require.Len(t, placeholders, 1)
	assert.Len(t, placeholders[0].Fragments, 2)
	assert.Equal(t, "{{NAME}}", placeholders[0].Text(docBytes))
}

func TestParsePlaceholders_SpansThreeRuns(t *testing.T) {
	placeholders, docBytes := parseFixture(t,
		`<w:p><w:r><w:t>{{LO</w:t></w:r><w:r><w:t>NG_</w:t></w:r><w:r><w:t>ONE}}</w:t></w:r></w:p>`)

	require.Len(t, placeholders, 1)
	assert.Len(t, placeholders[0].Fragments, 3)
	assert.Equal(t, "{{LONG_ONE}}", placeholders[0].Text(docBytes))
}

func TestParsePlaceholders_InvalidNamesDropped(t *testing.T) {
	placeholders, docBytes := parseFixture(t,
		`<w:p><w:r><w:t>{{not a token}} {{no-dashes}} {{}} {{VALID_1}}</w:t></w:r></w:p>`)

	assert.Equal(t, []string{"{{VALID_1}}"}, placeholderTexts(placeholders, docBytes))
}

func TestParsePlaceholders_StrayBracesIgnored(t *testing.T) {
	placeholders, docBytes := parseFixture(t,
		`<w:p><w:r><w:t>if (x) { return } {{KEY}}</w:t></w:r></w:p>`)

	assert.Equal(t, []string{"{{KEY}}"}, placeholderTexts(placeholders, docBytes))
}

func TestParsePlaceholders_StrayCloseBeforeOpen(t *testing.T) {
	// a close delimiter before an open one, with nothing open from a previous
	// run, is plain text and must not produce placeholders or an error
	placeholders, docBytes := parseFixture(t,
		`<w:p><w:r><w:t>a}}b{{c</w:t></w:r></w:p>`)

	assert.Empty(t, placeholderTexts(placeholders, docBytes))
}

func TestParsePlaceholders_StrayCloseThenTokenAcrossRuns(t *testing.T) {
	// the dangling open delimiter after the stray close may still start a
	// real token which closes in a later run
	placeholders, docBytes := parseFixture(t,
		`<w:p><w:r><w:t>a}}b{{KE</w:t></w:r><w:r><w:t>Y}}</w:t></w:r></w:p>`)

	require.Len(t, placeholders, 1)
	assert.Equal(t, "{{KEY}}", placeholders[0].Text(docBytes))
}

func TestParsePlaceholders_NeverClosed(t *testing.T) {
	placeholders, docBytes := parseFixture(t,
		`<w:p><w:r><w:t>{{DANGLING and some text</w:t></w:r><w:r><w:t>more text</w:t></w:r></w:p>`)

	assert.Empty(t, placeholderTexts(placeholders, docBytes))
}

func TestDelimiterHelpers(t *testing.T) {
	assert.Equal(t, "{{KEY}}", AddPlaceholderDelimiter("KEY"))
	assert.Equal(t, "{{KEY}}", AddPlaceholderDelimiter("{{KEY}}"))
	assert.Equal(t, "KEY", RemovePlaceholderDelimiter("{{KEY}}"))
	assert.Equal(t, "KEY", RemovePlaceholderDelimiter("KEY"))
	assert.True(t, IsDelimitedPlaceholder("{{KEY}}"))
	assert.False(t, IsDelimitedPlaceholder("{KEY}"))
	assert.False(t, IsDelimitedPlaceholder(""))
}
