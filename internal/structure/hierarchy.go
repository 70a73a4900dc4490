package structure

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// HierarchyBuilder converts the flat candidate list into ToCEntry records
// with levels, parent links, paths, and tags, recording construction
// issues instead of failing.
type HierarchyBuilder struct {
	cfg *Config
}

// NewHierarchyBuilder creates a builder with the given configuration.
func NewHierarchyBuilder(cfg *Config) *HierarchyBuilder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &HierarchyBuilder{cfg: cfg}
}

// Build returns entries in reading order plus any construction issues.
// Duplicate ids keep their first occurrence; orphaned children keep their
// derived parent_id and level but are flagged. Declared pages that move
// backwards within the ToC itself are reported here, before any body
// matching happens.
func (b *HierarchyBuilder) Build(cands []Candidate) ([]ToCEntry, []ValidationIssue) {
	var issues []ValidationIssue

	// First pass: resolve duplicates so the id set is known before
	// parent links are checked.
	seen := make(map[string]bool, len(cands))
	kept := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if seen[c.SectionID] {
			issues = append(issues, ValidationIssue{
				Kind:      KindDuplicateID,
				SectionID: c.SectionID,
				Severity:  SeverityError,
				Detail:    fmt.Sprintf("section id %q declared again with title %q; first occurrence kept", c.SectionID, c.Title),
			})
			continue
		}
		seen[c.SectionID] = true
		kept = append(kept, c)
	}

	entries := make([]ToCEntry, 0, len(kept))
	maxDeclared := 0
	for _, c := range kept {
		entry := ToCEntry{
			SectionID:    c.SectionID,
			Title:        c.Title,
			DeclaredPage: c.Page,
			Level:        strings.Count(c.SectionID, ".") + 1,
			FullPath:     c.SectionID + " " + c.Title,
			Tags:         b.tags(c.Title),
		}

		if parent := parentOf(c.SectionID); parent != "" {
			entry.ParentID = &parent
			if !seen[parent] {
				issues = append(issues, ValidationIssue{
					Kind:      KindOrphanedParent,
					SectionID: c.SectionID,
					Severity:  SeverityError,
					Detail:    fmt.Sprintf("parent %q of section %q has no ToC entry of its own", parent, c.SectionID),
				})
			}
		}

		if c.Page != nil {
			if *c.Page < maxDeclared {
				issues = append(issues, ValidationIssue{
					Kind:      KindPageOrderViolation,
					SectionID: c.SectionID,
					Severity:  SeverityWarning,
					Detail:    fmt.Sprintf("declared page %d precedes an earlier entry's declared page %d", *c.Page, maxDeclared),
				})
			} else {
				maxDeclared = *c.Page
			}
		}

		entries = append(entries, entry)
	}

	return entries, issues
}

// tags matches the title against the keyword map and category map,
// case-insensitively. Keyword tags come first in key order, then category
// tags in category order, each at most once.
func (b *HierarchyBuilder) tags(title string) []string {
	lower := strings.ToLower(title)

	var tags []string
	added := make(map[string]bool)
	add := func(tag string) {
		if !added[tag] {
			added[tag] = true
			tags = append(tags, tag)
		}
	}

	keywords := make([]string, 0, len(b.cfg.DomainTagKeywords))
	for kw := range b.cfg.DomainTagKeywords {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			add(b.cfg.DomainTagKeywords[kw])
		}
	}

	categories := make([]string, 0, len(b.cfg.TagCategories))
	for cat := range b.cfg.TagCategories {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		for _, kw := range b.cfg.TagCategories[cat] {
			if strings.Contains(lower, kw) {
				add(cat)
				break
			}
		}
	}

	return tags
}

// parentOf returns the id with its last dotted component removed.
// "1.2.3" yields "1.2"; a top-level id yields "".
func parentOf(id string) string {
	parts := strings.Split(id, ".")
	if len(parts) <= 1 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], ".")
}

// idComponents parses a dotted id into its numeric components. The bool
// is false when any component is non-numeric.
func idComponents(id string) ([]int, bool) {
	parts := strings.Split(id, ".")
	comps := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		comps[i] = n
	}
	return comps, true
}

// compareSectionIDs orders ids by their numeric components, so "2.10"
// sorts after "2.9". Non-numeric ids fall back to lexical order after all
// numeric ones.
func compareSectionIDs(a, b string) int {
	ca, okA := idComponents(a)
	cb, okB := idComponents(b)

	switch {
	case okA && okB:
		for i := 0; i < len(ca) && i < len(cb); i++ {
			if ca[i] != cb[i] {
				if ca[i] < cb[i] {
					return -1
				}
				return 1
			}
		}
		switch {
		case len(ca) < len(cb):
			return -1
		case len(ca) > len(cb):
			return 1
		}
		return 0
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
