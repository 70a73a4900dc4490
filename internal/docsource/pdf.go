package docsource

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFSource extracts page text with the pdf reader library, falling back
// to pdftotext when the library yields nothing usable (scanned or oddly
// encoded documents often defeat in-process extraction).
type PDFSource struct {
	pageStore
	file *os.File
}

// OpenPDF opens and fully extracts a PDF document.
func OpenPDF(path string, opts *Options) (*PDFSource, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, &SourceUnavailableError{Path: path, Err: err}
	}

	src := &PDFSource{file: f}
	src.pages = extractPDFPages(reader)

	if !hasUsableText(src.pages) && opts.PDFFallbackPdftotext {
		if pages, err := extractPdftotext(path); err == nil {
			src.pages = pages
		}
	}

	if len(src.pages) == 0 {
		f.Close()
		return nil, &SourceUnavailableError{Path: path, Err: fmt.Errorf("no pages extracted")}
	}

	return src, nil
}

func (s *PDFSource) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// extractPDFPages pulls text rows from every page. Pages that cannot be
// decoded become empty rather than failing the whole document.
func extractPDFPages(reader *pdflib.Reader) [][]string {
	n := reader.NumPage()
	pages := make([][]string, 0, n)

	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			pages = append(pages, nil)
			continue
		}

		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			lines = append(lines, joinRowText(row))
		}
		pages = append(pages, lines)
	}

	return pages
}

// joinRowText concatenates the text runs of one physical row, inserting a
// space where adjacent runs would otherwise fuse into a single token.
func joinRowText(row *pdflib.Row) string {
	var b strings.Builder
	for _, t := range row.Content {
		if t.S == "" {
			continue
		}
		if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(t.S, " ") {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
	}
	return strings.TrimRight(b.String(), " \t\r")
}

// hasUsableText reports whether extraction produced any non-blank line.
func hasUsableText(pages [][]string) bool {
	for _, page := range pages {
		for _, line := range page {
			if strings.TrimSpace(line) != "" {
				return true
			}
		}
	}
	return false
}

// extractPdftotext shells out to pdftotext -layout and splits the result
// on form feeds, one chunk per page.
func extractPdftotext(path string) ([][]string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	chunks := strings.Split(string(out), "\f")
	pages := make([][]string, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" && len(pages) == len(chunks)-1 {
			// pdftotext terminates the last page with a form feed; don't
			// turn that into a trailing empty page.
			continue
		}
		pages = append(pages, splitLines(chunk))
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no pages")
	}
	return pages, nil
}
