package docsource

import (
	"bytes"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownSource serves a markdown document flattened to plain text lines.
// Headings become single lines carrying their own text, so numbered
// headings like "2.1 Scope" keep the shape the structure rules look for.
// Thematic breaks act as page separators when the document has any;
// otherwise the flattened text is chunked like a plain-text document.
type MarkdownSource struct {
	pageStore
}

// OpenMarkdown reads, flattens, and paginates a markdown document.
func OpenMarkdown(path string, opts *Options) (*MarkdownSource, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &SourceUnavailableError{Path: path, Err: err}
	}

	segments := flattenMarkdown(src)

	var pages [][]string
	if len(segments) > 1 {
		pages = segments
	} else {
		var flat []string
		for _, seg := range segments {
			flat = append(flat, seg...)
		}
		pages = paginate(flat, opts.LinesPerPage)
	}

	return &MarkdownSource{pageStore{pages: pages}}, nil
}

// flattenMarkdown walks the goldmark AST and renders top-level blocks to
// plain lines, splitting into segments at thematic breaks.
func flattenMarkdown(src []byte) [][]string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var segments [][]string
	var current []string

	appendBlock := func(t string) {
		if t == "" {
			return
		}
		if len(current) > 0 {
			current = append(current, "")
		}
		current = append(current, strings.Split(t, "\n")...)
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			appendBlock(string(node.Text(src)))
		case *ast.ThematicBreak:
			segments = append(segments, current)
			current = nil
		default:
			appendBlock(blockText(n, src))
		}
	}
	segments = append(segments, current)

	for i, seg := range segments {
		if seg == nil {
			segments[i] = []string{}
		}
	}
	return segments
}

// blockText gets the plain text content of a goldmark AST node. Raw
// lines are read only for childless blocks (code, HTML); parsed blocks
// keep their lines after inline parsing, so reading both would double
// the text.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(blockText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
