// Package docx fills {{TOKEN}} placeholders inside docx documents.
//
// A docx file is a zip archive containing multiple xml files. The package
// parses the body (word/document.xml) as well as all headers and footers,
// locates the formatting runs by byte position and replaces placeholder
// tokens without merging or splitting any runs, so the formatting of the
// template survives the substitution.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

const (
	// DocumentXml is the relative path where the actual document content resides inside the docx-archive.
	DocumentXml = "word/document.xml"
)

var (
	// HeaderPathRegex matches all header files inside the docx-archive.
	HeaderPathRegex = regexp.MustCompile(`word/header[0-9]*.xml`)
	// FooterPathRegex matches all footer files inside the docx-archive.
	FooterPathRegex = regexp.MustCompile(`word/footer[0-9]*.xml`)
)

var (
	// ErrTemplateNotFound is returned when the template path does not exist or cannot be read.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrUnsupportedFormat is returned when the file exists but cannot be parsed as docx.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrWriteFailed is returned when the filled document cannot be written out.
	ErrWriteFailed = errors.New("write failed")
)

// Document exposes the main API of the package. It represents the actual docx document which
// is going to be modified. Although a docx document actually consists of multiple xml files,
// that fact is not exposed via the Document API. All actions on the Document propagate
// through the files of the docx-zip-archive.
type Document struct {
	path     string
	docxFile *os.File
	zipFile  *zip.Reader

	// all files from the zip archive which we're interested in
	files FileMap
	// paths to all header files inside the zip archive
	headerFiles []string
	// paths to all footer files inside the zip archive
	footerFiles []string
	// every file needs its own parser.
	// the map key is the path of the file inside the archive.
	runParsers map[string]*RunParser

	filePlaceholders map[string][]*Placeholder
	fileReplacers    map[string]*Replacer
}

// Open will open and parse the file pointed to by path.
// The file must be a valid docx file or an error is returned.
func Open(path string) (*Document, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
	}

	rc, err := zip.OpenReader(path)
	if err != nil {
		_ = fh.Close()
		return nil, fmt.Errorf("%w: %s is not a docx archive: %s", ErrUnsupportedFormat, path, err)
	}

	return newDocument(&rc.Reader, path, fh)
}

// OpenBytes allows creating a Document from a byte slice.
// It behaves just like Open().
//
// Note: in this case the docxFile property will be nil!
func OpenBytes(b []byte) (*Document, error) {
	rc, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %s", ErrUnsupportedFormat, err)
	}

	return newDocument(rc, "", nil)
}

// newDocument will create a new document struct given the zipFile.
// The params 'path' and 'docxFile' may be empty/nil in case the document is created from a byte source directly.
//
// newDocument will parse the docx archive and ensure that at least a 'document.xml' exists.
// Then all files are parsed for their runs and placeholders before returning the new document.
func newDocument(zipFile *zip.Reader, path string, docxFile *os.File) (*Document, error) {
	doc := &Document{
		docxFile:         docxFile,
		zipFile:          zipFile,
		path:             path,
		files:            make(FileMap),
		runParsers:       make(map[string]*RunParser),
		filePlaceholders: make(map[string][]*Placeholder),
		fileReplacers:    make(map[string]*Replacer),
	}

	ResetRunIdCounter()
	ResetFragmentIdCounter()

	if err := doc.parseArchive(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, err)
	}

	// a valid docx document should really contain a document.xml :)
	if _, exists := doc.files[DocumentXml]; !exists {
		return nil, fmt.Errorf("%w: %s is missing", ErrUnsupportedFormat, DocumentXml)
	}

	// parse all files
	for name, data := range doc.files {

		// find all runs
		doc.runParsers[name] = NewRunParser(data)
		err := doc.runParsers[name].Execute()
		if err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %s", ErrUnsupportedFormat, name, err)
		}

		// parse placeholders and initialize replacers
		placeholders, err := ParsePlaceholders(doc.runParsers[name].Runs(), data)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %s", ErrUnsupportedFormat, name, err)
		}
		doc.filePlaceholders[name] = placeholders
		doc.fileReplacers[name] = NewReplacer(data, placeholders)
	}

	return doc, nil
}

// ReplaceAll will iterate over all files and replace every placeholder bound in the
// PlaceholderMap. Tokens without a mapping entry are left verbatim in the document.
// An empty map leaves the document unchanged.
func (d *Document) ReplaceAll(placeholderMap PlaceholderMap) error {
	for name := range d.files {
		changedBytes, err := d.replace(placeholderMap, name)
		if err != nil {
			return err
		}

		err = d.SetFile(name, changedBytes)
		if err != nil {
			return err
		}
	}
	return nil
}

// Replace will attempt to replace the given key with the value in every file.
func (d *Document) Replace(key, value string) error {
	for name := range d.files {
		changedBytes, err := d.replace(PlaceholderMap{key: value}, name)
		if err != nil {
			return err
		}
		err = d.SetFile(name, changedBytes)
		if err != nil {
			return err
		}
	}
	return nil
}

// replace hands every bound key to the file's replacer and returns the modified bytes.
func (d *Document) replace(placeholderMap PlaceholderMap, file string) ([]byte, error) {
	if _, ok := d.runParsers[file]; !ok {
		return nil, fmt.Errorf("no parser for file %s", file)
	}
	tokenCount := d.countTokens(file, placeholderMap)
	replacer := d.fileReplacers[file]

	for key, value := range placeholderMap {
		err := replacer.Replace(key, value)
		if err != nil {
			if errors.Is(err, ErrPlaceholderNotFound) {
				continue
			}
			return nil, err
		}
	}

	// A mapped token which occurs in the plaintext but was not parsed as placeholder
	// usually means the delimiter itself was split across runs. Reconstruction of those
	// is best-effort, so this is only reported, not fatal.
	if tokenCount != replacer.ReplaceCount {
		slog.Warn("not all tokens were replaced",
			"file", file, "want", tokenCount, "have", replacer.ReplaceCount)
	}

	return replacer.Bytes(), nil
}

// Tokens returns the distinct token names (without delimiters) found in the document,
// sorted alphabetically.
func (d *Document) Tokens() []string {
	seen := make(map[string]struct{})
	for file, placeholders := range d.filePlaceholders {
		data := d.files[file]
		for _, placeholder := range placeholders {
			name := RemovePlaceholderDelimiter(placeholder.Text(data))
			seen[name] = struct{}{}
		}
	}

	tokens := make([]string, 0, len(seen))
	for name := range seen {
		tokens = append(tokens, name)
	}
	sort.Strings(tokens)
	return tokens
}

// Runs returns all runs from all parsed files.
func (d *Document) Runs() (runs []*Run) {
	for _, parser := range d.runParsers {
		runs = append(runs, parser.Runs()...)
	}
	return runs
}

// Placeholders returns all placeholders from the docx document.
func (d *Document) Placeholders() (placeholders []*Placeholder) {
	for _, p := range d.filePlaceholders {
		placeholders = append(placeholders, p...)
	}
	return placeholders
}

// Plaintext returns the current text of the given file with all tags stripped.
func (d *Document) Plaintext(file string) string {
	data := d.fileReplacers[file].Bytes()
	return stripXmlTags(string(data))
}

// countTokens will return the total count of tokens from the placeholderMap in the given file.
// Reoccurring tokens are counted multiple times.
func (d *Document) countTokens(file string, placeholderMap PlaceholderMap) int {
	data := d.GetFile(file)
	plaintext := stripXmlTags(string(data))
	var tokenCount int
	for key := range placeholderMap {
		token := AddPlaceholderDelimiter(key)

		count := strings.Count(plaintext, token)
		if count > 0 {
			tokenCount += count
		}
	}
	return tokenCount
}

// stripXmlTags drops all xml tags using the html.Tokenizer.
// The returned string is everything except the tags.
func stripXmlTags(data string) string {
	var output strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(data))
loop:
	for {
		tok := tokenizer.Next()
		switch tok {
		case html.ErrorToken:
			break loop // end of the document
		case html.TextToken:
			text := strings.TrimSpace(html.UnescapeString(string(tokenizer.Text())))
			if len(text) > 0 {
				output.WriteString(text)
			}
		}
	}
	return output.String()
}

// GetFile returns the content of the given fileName if it exists.
func (d *Document) GetFile(fileName string) []byte {
	if f, exists := d.files[fileName]; exists {
		return f
	}
	return nil
}

// SetFile allows setting the file contents of the given file.
// The fileName must be known, otherwise an error is returned.
func (d *Document) SetFile(fileName string, fileBytes []byte) error {
	if _, exists := d.files[fileName]; !exists {
		return fmt.Errorf("unregistered file %s", fileName)
	}
	d.files[fileName] = fileBytes
	return nil
}

// parseArchive will go through the docx zip archive and read the relevant files
// into the FileMap. Only the document body, headers and footers can be modified:
//   - word/document.xml
//   - word/header*.xml
//   - word/footer*.xml
func (d *Document) parseArchive() error {
	readZipFile := func(file *zip.File) []byte {
		readCloser, err := file.Open()
		if err != nil {
			return nil
		}
		defer readCloser.Close()
		fileBytes, err := io.ReadAll(readCloser)
		if err != nil {
			return nil
		}
		return fileBytes
	}

	for _, file := range d.zipFile.File {
		if file.Name == DocumentXml {
			d.files[DocumentXml] = readZipFile(file)
		}
		if HeaderPathRegex.MatchString(file.Name) {
			d.files[file.Name] = readZipFile(file)
			d.headerFiles = append(d.headerFiles, file.Name)
		}
		if FooterPathRegex.MatchString(file.Name) {
			d.files[file.Name] = readZipFile(file)
			d.footerFiles = append(d.footerFiles, file.Name)
		}
	}
	return nil
}

// WriteToFile will write the document to a new file.
// It is important to note that the target file cannot be the same as the path of this document.
// If the path is not yet created, the function will attempt to MkdirAll() before creating the file.
func (d *Document) WriteToFile(file string) error {
	if file == d.path && d.path != "" {
		return fmt.Errorf("%w: cannot write into the original docx archive while it is open", ErrWriteFailed)
	}

	err := os.MkdirAll(filepath.Dir(file), 0755)
	if err != nil {
		return fmt.Errorf("%w: unable to ensure path directories: %s", ErrWriteFailed, err)
	}

	target, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrWriteFailed, err)
	}
	defer target.Close()

	if err := d.Write(target); err != nil {
		return fmt.Errorf("%w: %s", ErrWriteFailed, err)
	}
	return nil
}

// Write is responsible for assembling a new .docx file using the modified data as well as all remaining files.
// Files which cannot be modified through this package are just copied from the original archive into the writer.
func (d *Document) Write(writer io.Writer) error {
	zipWriter := zip.NewWriter(writer)
	defer zipWriter.Close()

	// writeModifiedFile will check if the given zipFile is a file which was modified and writes it.
	// If the file is not one of the modified files, false is returned.
	writeModifiedFile := func(writer io.Writer, zipFile *zip.File) (bool, error) {
		if !d.isModifiedFile(zipFile.Name) {
			return false, nil
		}
		if err := d.files.Write(writer, zipFile.Name); err != nil {
			return false, fmt.Errorf("unable to write %s: %s", zipFile.Name, err)
		}
		return true, nil
	}

	// write all files into the zip archive (docx-file)
	for _, zipFile := range d.zipFile.File {
		fw, err := zipWriter.Create(zipFile.Name)
		if err != nil {
			return fmt.Errorf("unable to create writer: %s", err)
		}

		// write all files which might've been modified by us
		written, err := writeModifiedFile(fw, zipFile)
		if err != nil {
			return err
		}
		if written {
			continue
		}

		// all files which we don't touch (e.g. _rels.xml) are copied from the original
		readCloser, err := zipFile.Open()
		if err != nil {
			return fmt.Errorf("unable to open %s: %s", zipFile.Name, err)
		}
		_, err = fw.Write(readBytes(readCloser))
		if err != nil {
			return fmt.Errorf("unable to write file %s: %s", zipFile.Name, err)
		}
		err = readCloser.Close()
		if err != nil {
			return fmt.Errorf("unable to close reader for %s: %s", zipFile.Name, err)
		}
	}
	return nil
}

// isModifiedFile will look through all modified files and check if the searchFileName exists.
func (d *Document) isModifiedFile(searchFileName string) bool {
	allFiles := append([]string{DocumentXml}, d.headerFiles...)
	allFiles = append(allFiles, d.footerFiles...)

	for _, file := range allFiles {
		if searchFileName == file {
			return true
		}
	}
	return false
}

// Close will close the underlying docx file, if the document was opened from one.
func (d *Document) Close() error {
	if d.docxFile != nil {
		return d.docxFile.Close()
	}
	return nil
}

// FileMap is just a convenience type for the map of fileName => fileBytes
type FileMap map[string][]byte

// Write will try to write the bytes from the map into the given writer.
func (fm FileMap) Write(writer io.Writer, filename string) error {
	file, ok := fm[filename]
	if !ok {
		return fmt.Errorf("file not found %s", filename)
	}

	_, err := writer.Write(file)
	if err != nil && err != io.EOF {
		return fmt.Errorf("unable to write '%s': %s", filename, err)
	}
	return nil
}

// readBytes reads an io.Reader into []byte and returns it.
func readBytes(stream io.Reader) []byte {
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(stream)
	return buf.Bytes()
}
