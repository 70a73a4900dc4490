// Package report turns an engine run's in-memory records into the output
// surfaces the tool ships: JSONL record files, an Excel validation
// workbook, and the styled console report. It also re-checks previously
// written outputs for schema and integrity drift.
package report

import (
	"github.com/docstruct/docstruct/internal/structure"
)

// TocRecord is one line of the ToC JSONL file. Nullable fields encode as
// JSON null, never as absent keys, so downstream consumers see a stable
// column set.
type TocRecord struct {
	DocTitle  string   `json:"doc_title"`
	SectionID string   `json:"section_id"`
	Title     string   `json:"title"`
	Page      *int     `json:"page"`
	Level     int      `json:"level"`
	ParentID  *string  `json:"parent_id"`
	FullPath  string   `json:"full_path"`
	Tags      []string `json:"tags"`
}

// SectionRecord is one line of the spec JSONL file: the ToC fields joined
// with the located section's range and content metrics.
type SectionRecord struct {
	DocTitle       string   `json:"doc_title"`
	SectionID      string   `json:"section_id"`
	Title          string   `json:"title"`
	Page           *int     `json:"page"`
	Level          int      `json:"level"`
	ParentID       *string  `json:"parent_id"`
	FullPath       string   `json:"full_path"`
	Tags           []string `json:"tags"`
	ContentStart   int      `json:"content_start"`
	ContentEnd     int      `json:"content_end"`
	HasTables      bool     `json:"has_tables"`
	HasFigures     bool     `json:"has_figures"`
	WordCount      int      `json:"word_count"`
	ContentPreview string   `json:"content_preview"`
}

// BuildTocRecords maps the run's entries, in reading order, to ToC
// records stamped with the document title.
func BuildTocRecords(res *structure.Result) []TocRecord {
	records := make([]TocRecord, 0, len(res.Entries))
	for _, e := range res.Entries {
		records = append(records, TocRecord{
			DocTitle:  res.DocTitle,
			SectionID: e.SectionID,
			Title:     e.Title,
			Page:      e.DeclaredPage,
			Level:     e.Level,
			ParentID:  e.ParentID,
			FullPath:  e.FullPath,
			Tags:      nonNilTags(e.Tags),
		})
	}
	return records
}

// BuildSectionRecords joins each located section, in resolved start-page
// order, with its declaring ToC entry. A section whose id has no entry
// still produces a record carrying what the locator knew; the schema check
// flags it instead of the join dropping it.
func BuildSectionRecords(res *structure.Result) []SectionRecord {
	entryByID := make(map[string]structure.ToCEntry, len(res.Entries))
	for _, e := range res.Entries {
		entryByID[e.SectionID] = e
	}

	records := make([]SectionRecord, 0, len(res.Sections))
	for _, s := range res.Sections {
		rec := SectionRecord{
			DocTitle:       res.DocTitle,
			SectionID:      s.SectionID,
			Tags:           []string{},
			ContentStart:   s.ContentStartPage,
			ContentEnd:     s.ContentEndPage,
			HasTables:      s.HasTables,
			HasFigures:     s.HasFigures,
			WordCount:      s.WordCount,
			ContentPreview: s.ContentPreview,
		}
		if e, ok := entryByID[s.SectionID]; ok {
			rec.Title = e.Title
			rec.Page = e.DeclaredPage
			rec.Level = e.Level
			rec.ParentID = e.ParentID
			rec.FullPath = e.FullPath
			rec.Tags = nonNilTags(e.Tags)
		}
		records = append(records, rec)
	}
	return records
}

// nonNilTags keeps the tags field an array in JSON even when no tag
// matched.
func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
