package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeConverter puts a stub soffice script into dir which exits 0
// without doing anything.
func writeFakeConverter(t *testing.T, dir string) {
	t.Helper()
	script := "#!/bin/sh\nexit 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "soffice"), []byte(script), 0755))
}

func TestToPDF_ConverterMissing(t *testing.T) {
	// with an empty PATH the converter binary cannot be found
	t.Setenv("PATH", "")

	_, err := ToPDF(context.Background(), "document.docx")
	assert.ErrorIs(t, err, ErrConversionFailed)
}

func TestToPDF_NoOutputProduced(t *testing.T) {
	dir := t.TempDir()
	writeFakeConverter(t, dir)
	t.Setenv("PATH", dir)

	docPath := filepath.Join(dir, "cv.docx")
	require.NoError(t, os.WriteFile(docPath, []byte("stub"), 0644))

	// the converter exits 0 but never writes the pdf
	_, err := ToPDF(context.Background(), docPath)
	assert.ErrorIs(t, err, ErrConversionFailed)
}

func TestToPDF_Success(t *testing.T) {
	dir := t.TempDir()
	writeFakeConverter(t, dir)
	t.Setenv("PATH", dir)

	docPath := filepath.Join(dir, "cv.docx")
	require.NoError(t, os.WriteFile(docPath, []byte("stub"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cv.pdf"), []byte("%PDF"), 0644))

	pdfPath, err := ToPDF(context.Background(), docPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cv.pdf"), pdfPath)
}
