package structure

import "strings"

const (
	titleScanPages = 3
	titleScanLines = 10
	titleMinLen    = 10
	titleMaxLen    = 200
)

// ExtractDocTitle scans the first pages for a line that looks like the
// document's title: mid-length, near the top of an early page, and
// carrying one of the configured title keywords. Falls back to the
// configured default when nothing qualifies.
func ExtractDocTitle(src PageSource, cfg *Config) string {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	pages := titleScanPages
	if n := src.PageCount(); pages > n {
		pages = n
	}

	for page := 1; page <= pages; page++ {
		lines, err := src.PageText(page)
		if err != nil {
			continue
		}
		if len(lines) > titleScanLines {
			lines = lines[:titleScanLines]
		}
		for _, raw := range lines {
			line := strings.TrimSpace(raw)
			if len(line) <= titleMinLen || len(line) >= titleMaxLen {
				continue
			}
			lower := strings.ToLower(line)
			for _, kw := range cfg.DocTitleKeywords {
				if strings.Contains(lower, kw) {
					return line
				}
			}
		}
	}

	return cfg.DefaultDocTitle
}
