package docx

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

const contentTypesXml = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`

// wrapBody wraps the given WordprocessingML fragment into a minimal document.xml.
func wrapBody(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body + `</w:body></w:document>`
}

// newDocxBytes assembles an in-memory docx archive from the given files.
// The map key is the path inside the archive.
func newDocxBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	writer := zip.NewWriter(buf)

	if _, ok := files["[Content_Types].xml"]; !ok {
		files["[Content_Types].xml"] = contentTypesXml
	}

	for name, content := range files {
		fw, err := writer.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return buf.Bytes()
}

// openBodyFixture builds a docx containing only the given body fragment and opens it.
func openBodyFixture(t *testing.T, body string) *Document {
	t.Helper()

	doc, err := OpenBytes(newDocxBytes(t, map[string]string{
		DocumentXml: wrapBody(body),
	}))
	require.NoError(t, err)
	return doc
}
