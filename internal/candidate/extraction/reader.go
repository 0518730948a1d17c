package extraction

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnsupportedFormat matches every *UnsupportedFormatError via errors.Is
var ErrUnsupportedFormat = errors.New("unsupported file type")

// UnsupportedFormatError names the rejected extension
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Ext)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// Reader converts one document format into plain text.
// Implementations must be deterministic for a fixed input file.
type Reader interface {
	// CanRead reports whether ext (lower-case, with leading dot) is handled
	CanRead(ext string) bool

	// Read returns the full document text with paragraph/page breaks as newlines
	Read(path string) (string, error)

	// Name returns the reader name for logging
	Name() string
}

// Registry dispatches to a Reader by file extension
type Registry struct {
	readers []Reader
}

// NewRegistry creates a registry that tries readers in registration order
func NewRegistry(readers ...Reader) *Registry {
	return &Registry{readers: readers}
}

// DefaultRegistry handles .pdf, .docx and .txt
func DefaultRegistry() *Registry {
	return NewRegistry(PDFReader{}, DOCXReader{}, TextReader{})
}

// FindReader returns the first reader for ext, or nil
func (r *Registry) FindReader(ext string) Reader {
	ext = strings.ToLower(ext)
	for _, reader := range r.readers {
		if reader.CanRead(ext) {
			return reader
		}
	}
	return nil
}

// ReadText picks a reader from the path's extension and reads the document
func (r *Registry) ReadText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	reader := r.FindReader(ext)
	if reader == nil {
		return "", &UnsupportedFormatError{Ext: ext}
	}
	return reader.Read(path)
}

// PDFReader extracts page text in page order
type PDFReader struct{}

func (PDFReader) Name() string { return "pdf" }

func (PDFReader) CanRead(ext string) bool { return ext == ".pdf" }

func (PDFReader) Read(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		pages = append(pages, pageText(r.Page(i)))
	}
	return strings.Join(pages, "\n"), nil
}

// pageText returns the page's text rows top to bottom, one line per row.
// Pages without a content stream, or whose fonts/streams the pdf package
// cannot decode, give "".
func pageText(p pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	if p.V.IsNull() || p.V.Key("Contents").IsNull() {
		return ""
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		return ""
	}

	// PDF y grows upwards
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position > rows[j].Position })

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := rowText(row.Content); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// rowText joins a row's text runs left to right. Generators often place
// each word with its own positioning operator and no space character, so
// runs that start further right are separated by a space. Runs at the same
// x (pieces of one TJ array) and single-glyph runs (per-glyph placement)
// are joined as is. When the run width is known, only a real horizontal gap
// counts.
func rowText(content pdf.TextHorizontal) string {
	runs := make([]pdf.Text, 0, len(content))
	for _, run := range content {
		if run.S != "" {
			runs = append(runs, run)
		}
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })

	var b strings.Builder
	for i, run := range runs {
		if i > 0 && needsSpace(runs[i-1], run) && !strings.HasSuffix(b.String(), " ") {
			b.WriteByte(' ')
		}
		b.WriteString(run.S)
	}
	return b.String()
}

const wordGapRatio = 0.15

func needsSpace(prev, next pdf.Text) bool {
	if next.X <= prev.X || prev.S == "" || next.S == "" {
		return false
	}
	if strings.HasPrefix(next.S, " ") {
		return false
	}
	if prev.W > 0 {
		return next.X-(prev.X+prev.W) > wordGapRatio*prev.FontSize
	}
	return utf8.RuneCountInString(prev.S) > 1
}

// DOCXReader extracts paragraph text from word/document.xml
type DOCXReader struct{}

func (DOCXReader) Name() string { return "docx" }

func (DOCXReader) CanRead(ext string) bool { return ext == ".docx" }

func (DOCXReader) Read(path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	paragraphs, err := docxParagraphs(doc.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// docxParagraphs walks WordprocessingML and returns the text of every w:p
// in document order. Runs are concatenated; w:tab and w:br become \t and \n.
func docxParagraphs(content string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		paragraphs []string
		current    strings.Builder
		depth      int // nesting of w:p (text boxes can nest paragraphs)
		runDepth   int // w:tab also appears in paragraph properties; only runs count
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				if depth > 0 && runDepth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 && runDepth > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if depth > 0 {
					depth--
					if depth == 0 {
						paragraphs = append(paragraphs, current.String())
					}
				}
			case "r":
				if runDepth > 0 {
					runDepth--
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}

// TextReader reads plain text leniently: a UTF-8 BOM is stripped, invalid
// byte sequences are dropped and CRLF line endings are normalised.
type TextReader struct{}

func (TextReader) Name() string { return "text" }

func (TextReader) CanRead(ext string) bool { return ext == ".txt" }

func (TextReader) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return decodeLenient(data), nil
}

// decodeLenient turns raw .txt bytes into UTF-8 text. UTF-16 files with a
// byte order mark are transcoded, a UTF-8 BOM is stripped, invalid sequences
// and NUL bytes are dropped, and line endings become "\n".
func decodeLenient(data []byte) string {
	if enc := utf16Encoding(data); enc != nil {
		if decoded, _, err := transform.Bytes(enc.NewDecoder(), data); err == nil {
			data = decoded
		}
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	text := strings.ToValidUTF8(string(data), "")
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func utf16Encoding(data []byte) encoding.Encoding {
	switch {
	case bytes.HasPrefix(data, []byte{0xff, 0xfe}):
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case bytes.HasPrefix(data, []byte{0xfe, 0xff}):
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	}
	return nil
}
