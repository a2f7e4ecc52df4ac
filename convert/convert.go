// Package convert invokes the external LibreOffice converter to produce a PDF
// from an already written document.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ErrConversionFailed is returned when the external converter is missing or exits non-zero.
// The primary output file is already on disk at that point and stays valid.
var ErrConversionFailed = errors.New("pdf conversion failed")

// converterBinary is the LibreOffice entrypoint used for headless conversion.
const converterBinary = "soffice"

// ToPDF converts the document at docPath to PDF in the same directory and
// returns the path of the generated file. The call blocks until the converter
// exits; cancelling the context kills it.
func ToPDF(ctx context.Context, docPath string) (string, error) {
	bin, err := exec.LookPath(converterBinary)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrConversionFailed, err)
	}

	outDir := filepath.Dir(docPath)
	args := []string{"--headless", "--convert-to", "pdf", "--outdir", outDir, docPath}
	slog.Debug("invoking converter", "command", shellquote.Join(append([]string{bin}, args...)...))

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s: %s", ErrConversionFailed, err, msg)
		}
		return "", fmt.Errorf("%w: %s", ErrConversionFailed, err)
	}

	// soffice can exit 0 without producing anything (e.g. filter problems),
	// so the result is only trusted once the file actually exists
	pdfPath := strings.TrimSuffix(docPath, filepath.Ext(docPath)) + ".pdf"
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("%w: converter did not produce %s", ErrConversionFailed, pdfPath)
	}
	return pdfPath, nil
}
