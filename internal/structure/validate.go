package structure

import (
	"fmt"
	"sort"
)

// Validator cross-checks the declared ToC tree against the located
// sections. It only accumulates issues; it never halts the pipeline.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator with the given configuration.
func NewValidator(cfg *Config) *Validator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Validator{cfg: cfg}
}

// Validate applies every cross-check and returns the issues in a fixed
// order: body headings absent from the ToC, hierarchy-vs-body order
// violations, range overlaps and gaps, then title mismatches. The checks
// judge the sections as given and do not assume how they were built, so a
// hand-assembled record set is validated the same way as a pipeline one.
func (v *Validator) Validate(entries []ToCEntry, sections []Section, locs []Location, headings []BodyHeading) []ValidationIssue {
	var issues []ValidationIssue

	issues = append(issues, v.missingInToC(entries, headings)...)
	issues = append(issues, v.orderViolations(entries, sections)...)
	issues = append(issues, v.rangeIssues(sections)...)
	issues = append(issues, v.titleMismatches(entries, locs)...)

	return issues
}

// missingInToC reports body headings whose section id has no ToC entry,
// once per id, in reading order.
func (v *Validator) missingInToC(entries []ToCEntry, headings []BodyHeading) []ValidationIssue {
	declared := make(map[string]bool, len(entries))
	for _, e := range entries {
		declared[e.SectionID] = true
	}

	var issues []ValidationIssue
	reported := make(map[string]bool)
	for _, h := range headings {
		if declared[h.SectionID] || reported[h.SectionID] {
			continue
		}
		reported[h.SectionID] = true
		issues = append(issues, ValidationIssue{
			Kind:      KindMissingInToC,
			SectionID: h.SectionID,
			Severity:  SeverityWarning,
			Detail:    fmt.Sprintf("heading %q on page %d has no ToC entry", h.SectionID+" "+h.Title, h.Page),
		})
	}
	return issues
}

// orderViolations compares hierarchy order against located order: an
// entry that precedes its successor in the section-id hierarchy but
// starts later in the document breaks page order.
func (v *Validator) orderViolations(entries []ToCEntry, sections []Section) []ValidationIssue {
	startOf := make(map[string]int, len(sections))
	for _, s := range sections {
		startOf[s.SectionID] = s.ContentStartPage
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := startOf[e.SectionID]; ok {
			ids = append(ids, e.SectionID)
		}
	}
	sort.SliceStable(ids, func(a, b int) bool {
		return compareSectionIDs(ids[a], ids[b]) < 0
	})

	var issues []ValidationIssue
	for i := 0; i+1 < len(ids); i++ {
		cur, next := ids[i], ids[i+1]
		if startOf[cur] > startOf[next] {
			issues = append(issues, ValidationIssue{
				Kind:      KindPageOrderViolation,
				SectionID: cur,
				Severity:  SeverityError,
				Detail: fmt.Sprintf("section %q located at page %d but %q, which follows it in the hierarchy, located earlier at page %d",
					cur, startOf[cur], next, startOf[next]),
			})
		}
	}
	return issues
}

// rangeIssues checks consecutive sections, ordered by start page, for
// overlapping ranges and for page gaps beyond the configured tolerances.
func (v *Validator) rangeIssues(sections []Section) []ValidationIssue {
	ordered := make([]Section, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(a, b int) bool {
		if ordered[a].ContentStartPage != ordered[b].ContentStartPage {
			return ordered[a].ContentStartPage < ordered[b].ContentStartPage
		}
		return compareSectionIDs(ordered[a].SectionID, ordered[b].SectionID) < 0
	})

	var issues []ValidationIssue
	for i := 0; i+1 < len(ordered); i++ {
		cur, next := ordered[i], ordered[i+1]

		gap := next.ContentStartPage - cur.ContentEndPage
		switch {
		case gap < 0:
			issues = append(issues, ValidationIssue{
				Kind:      KindPageOrderViolation,
				SectionID: next.SectionID,
				Severity:  SeverityError,
				Detail: fmt.Sprintf("section %q starts at page %d, inside %q which runs through page %d",
					next.SectionID, next.ContentStartPage, cur.SectionID, cur.ContentEndPage-1),
			})
		case gap > v.cfg.PageGapErrorThreshold:
			issues = append(issues, v.gapIssue(cur, next, gap, SeverityError))
		case gap > v.cfg.PageGapWarningThreshold:
			issues = append(issues, v.gapIssue(cur, next, gap, SeverityWarning))
		}
	}
	return issues
}

func (v *Validator) gapIssue(cur, next Section, gap int, sev Severity) ValidationIssue {
	return ValidationIssue{
		Kind:      KindPageGap,
		SectionID: cur.SectionID,
		Severity:  sev,
		Detail: fmt.Sprintf("gap of %d pages between %q (ends before page %d) and %q (starts at page %d)",
			gap, cur.SectionID, cur.ContentEndPage, next.SectionID, next.ContentStartPage),
	}
}

// titleMismatches compares each declared title with the heading text
// actually found at its located start page.
func (v *Validator) titleMismatches(entries []ToCEntry, locs []Location) []ValidationIssue {
	titleOf := make(map[string]string, len(entries))
	for _, e := range entries {
		titleOf[e.SectionID] = e.Title
	}

	var issues []ValidationIssue
	for _, loc := range locs {
		if !loc.Found || loc.ObservedTitle == "" {
			continue
		}
		declared, ok := titleOf[loc.SectionID]
		if !ok {
			continue
		}
		sim := Similarity(declared, loc.ObservedTitle)
		if sim >= v.cfg.TitleSimilarityThreshold {
			continue
		}
		issues = append(issues, ValidationIssue{
			Kind:      KindTitleMismatch,
			SectionID: loc.SectionID,
			Severity:  SeverityWarning,
			Detail: fmt.Sprintf("ToC declares title %q but page %d has %q (similarity %.2f)",
				declared, loc.StartPage, loc.ObservedTitle, sim),
		})
	}
	return issues
}
