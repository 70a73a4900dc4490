package structure

import (
	"regexp"
	"strings"
)

// bodyHeadingPattern matches section headings in body text: a dotted
// numeric id followed by a capitalized title. Numbered list items ("2. the
// device shall...") do not match because of the dot before the space.
var bodyHeadingPattern = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s+(\p{Lu}.*)$`)

// trailingPageNumber rejects lines that end in a bare page number; those
// are ToC rows, not body headings.
var trailingPageNumber = regexp.MustCompile(`\s\d{1,4}$`)

const maxHeadingLineLen = 150

// scanBodyHeadings walks every page outside the skip range and collects
// heading-shaped lines in reading order. The same scan feeds section
// location, cross-validation, and the degraded-mode fallback, so all three
// see an identical view of the document.
func scanBodyHeadings(src PageSource, skip *TocRange) []BodyHeading {
	var headings []BodyHeading

	for page := 1; page <= src.PageCount(); page++ {
		if skip != nil && page >= skip.StartPage && page <= skip.EndPage {
			continue
		}
		lines, err := src.PageText(page)
		if err != nil {
			continue
		}
		for _, raw := range lines {
			line := strings.TrimSpace(raw)
			if h, ok := parseBodyHeading(line); ok {
				h.Page = page
				headings = append(headings, h)
			}
		}
	}

	return headings
}

// parseBodyHeading tests one trimmed line for heading shape.
func parseBodyHeading(line string) (BodyHeading, bool) {
	if line == "" || len(line) > maxHeadingLineLen {
		return BodyHeading{}, false
	}
	if trailingPageNumber.MatchString(line) {
		return BodyHeading{}, false
	}
	m := bodyHeadingPattern.FindStringSubmatch(line)
	if m == nil {
		return BodyHeading{}, false
	}
	return BodyHeading{SectionID: m[1], Title: strings.TrimSpace(m[2])}, true
}

// headingsByPage groups headings for windowed per-page lookups.
func headingsByPage(headings []BodyHeading) map[int][]BodyHeading {
	byPage := make(map[int][]BodyHeading, len(headings))
	for _, h := range headings {
		byPage[h.Page] = append(byPage[h.Page], h)
	}
	return byPage
}
