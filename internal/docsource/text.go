package docsource

import (
	"os"
	"strings"
)

// TextSource serves a plain-text document. Form feeds are honored as page
// separators when present; otherwise the text is paginated into fixed-size
// chunks so that page-oriented heuristics still have something to work with.
type TextSource struct {
	pageStore
}

// OpenText reads and paginates a plain-text document.
func OpenText(path string, opts *Options) (*TextSource, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SourceUnavailableError{Path: path, Err: err}
	}

	return &TextSource{pageStore{pages: paginateText(string(data), opts.LinesPerPage)}}, nil
}

func paginateText(text string, linesPerPage int) [][]string {
	if strings.Contains(text, "\f") {
		chunks := strings.Split(text, "\f")
		pages := make([][]string, 0, len(chunks))
		for i, chunk := range chunks {
			if i == len(chunks)-1 && strings.TrimSpace(chunk) == "" {
				continue
			}
			pages = append(pages, splitLines(chunk))
		}
		if len(pages) > 0 {
			return pages
		}
	}
	return paginate(splitLines(text), linesPerPage)
}
