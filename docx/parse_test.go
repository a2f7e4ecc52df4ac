package docx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parseTestXml = wrapBody(
	`<w:p>` +
		`<w:r><w:t>TEXT0</w:t></w:r>` +
		`<w:r><w:rPr><w:b></w:b></w:rPr><w:t>TEXT1</w:t></w:r>` +
		`<w:r/>` +
		`</w:p>` +
		`<w:p>` +
		`<w:r><w:t>TEXT2</w:t></w:r>` +
		`<w:r/>` +
		`<w:r><w:t>TEXT3</w:t></w:r>` +
		`</w:p>`)

const (
	totalRunCount = 6
	emptyRunCount = 2
)

var expectedTexts = []string{"TEXT0", "TEXT1", "TEXT2", "TEXT3"}

func TestRunParser_FindRuns(t *testing.T) {
	docBytes := []byte(parseTestXml)

	sut := NewRunParser(docBytes)
	require.NoError(t, sut.findRuns())

	assert.Len(t, sut.Runs(), totalRunCount)
}

func TestRunParser_Execute(t *testing.T) {
	docBytes := []byte(parseTestXml)

	sut := NewRunParser(docBytes)
	require.NoError(t, sut.Execute())

	assert.Len(t, sut.Runs().WithText(), totalRunCount-emptyRunCount)
}

func TestRun_GetText(t *testing.T) {
	docBytes := []byte(parseTestXml)
	sut := NewRunParser(docBytes)
	require.NoError(t, sut.Execute())

	var texts []string
	for _, run := range sut.Runs().WithText() {
		texts = append(texts, run.GetText(docBytes))
	}
	assert.Equal(t, expectedTexts, texts)
}

func TestRunParser_TextWithAttributes(t *testing.T) {
	docBytes := []byte(wrapBody(`<w:p><w:r><w:t xml:space="preserve"> spaced </w:t></w:r></w:p>`))

	sut := NewRunParser(docBytes)
	require.NoError(t, sut.Execute())

	runs := sut.Runs().WithText()
	require.Len(t, runs, 1)
	assert.Equal(t, " spaced ", runs[0].GetText(docBytes))
}

func TestValidatePositions(t *testing.T) {
	docBytes := []byte(parseTestXml)
	sut := NewRunParser(docBytes)
	require.NoError(t, sut.Execute())

	require.NoError(t, ValidatePositions(docBytes, sut.Runs()))

	// breaking a position must be detected
	run := sut.Runs().WithText()[0]
	run.Text.CloseTag.Start += 2
	run.Text.CloseTag.End += 2
	assert.Error(t, ValidatePositions(docBytes, []*Run{run}))
}
