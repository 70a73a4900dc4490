package structure

import (
	"encoding/json"
	"fmt"
)

// ToCEntry is one declared table-of-contents entry. Entries are created
// once per run and never mutated afterwards; corrections happen by
// re-running, not by patching records.
type ToCEntry struct {
	SectionID    string   `json:"section_id"`              // Dotted numeric id like "2.1.2"
	Title        string   `json:"title"`                   // Declared section title
	DeclaredPage *int     `json:"declared_page,omitempty"` // Page printed in the ToC, nil if unresolved
	Level        int      `json:"level"`                   // Dot-separated component count, >= 1
	ParentID     *string  `json:"parent_id,omitempty"`     // Id with the last component dropped, nil for top level
	FullPath     string   `json:"full_path"`               // "<section_id> <title>"
	Tags         []string `json:"tags,omitempty"`          // Domain keywords matched in the title
}

// Section is the located body counterpart of one ToCEntry. The page range
// is half-open: ContentEndPage is the next section's start page, or the
// document's last page + 1 for the final section.
type Section struct {
	SectionID        string `json:"section_id"`
	ContentStartPage int    `json:"content_start_page"`
	ContentEndPage   int    `json:"content_end_page"`
	HasTables        bool   `json:"has_tables"`
	HasFigures       bool   `json:"has_figures"`
	WordCount        int    `json:"word_count"`
	ContentPreview   string `json:"content_preview,omitempty"`
}

// PageRange returns the half-open page span [start, end) of the section.
func (s Section) PageRange() (int, int) {
	return s.ContentStartPage, s.ContentEndPage
}

// IssueKind identifies the category of a structural discrepancy.
type IssueKind string

const (
	KindMissingInToC       IssueKind = "MissingInToC"
	KindMissingInBody      IssueKind = "MissingInBody"
	KindPageOrderViolation IssueKind = "PageOrderViolation"
	KindPageGap            IssueKind = "PageGap"
	KindTitleMismatch      IssueKind = "TitleMismatch"
	KindOrphanedParent     IssueKind = "OrphanedParent"
	KindDuplicateID        IssueKind = "DuplicateId"
)

// Severity classifies an issue as a hierarchy-breaking error or a
// coverage/cosmetic warning.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ValidationIssue is one recorded discrepancy between declared and
// observed structure. Issues never abort a run.
type ValidationIssue struct {
	Kind      IssueKind `json:"kind"`
	SectionID string    `json:"section_id"`
	Severity  Severity  `json:"severity"`
	Detail    string    `json:"detail"` // Carries both declared and observed values
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", i.Severity, i.Kind, i.SectionID, i.Detail)
}

// DocumentMetadata is the per-run rollup of counts and non-fatal notes.
type DocumentMetadata struct {
	DocTitle         string      `json:"doc_title"`
	TotalPages       int         `json:"total_pages"`
	TotalSections    int         `json:"total_sections"`
	TotalTables      int         `json:"total_tables"`
	TotalFigures     int         `json:"total_figures"`
	MaxLevel         int         `json:"max_level"`
	SectionsByLevel  map[int]int `json:"sections_by_level,omitempty"`
	ParsingTimestamp string      `json:"parsing_timestamp"`
	SourceFileSize   int64       `json:"source_file_size"`
	RunID            string      `json:"run_id,omitempty"`
	DegradedMode     bool        `json:"degraded_mode"`
	TocStartPage     int         `json:"toc_start_page,omitempty"`
	TocEndPage       int         `json:"toc_end_page,omitempty"`
	ExtractionMisses int         `json:"extraction_misses"`
	ParsingErrors    []string    `json:"parsing_errors"`
}

// Candidate is a raw ToC line parse before hierarchy construction.
type Candidate struct {
	SectionID string `json:"section_id"`
	Title     string `json:"title"`
	Page      *int   `json:"page,omitempty"` // nil until declared or interpolated
}

// TocRange is the inclusive page span judged to hold the declared ToC.
type TocRange struct {
	StartPage int
	EndPage   int
}

func (r TocRange) String() string {
	return fmt.Sprintf("pages %d-%d", r.StartPage, r.EndPage)
}

// BodyHeading is a heading-shaped line found in the document body.
type BodyHeading struct {
	Page      int
	SectionID string
	Title     string
}

// Location records where a section's heading was actually found, and what
// the heading text said there.
type Location struct {
	SectionID     string
	StartPage     int
	ObservedTitle string // Heading text at StartPage, empty when not found
	Found         bool
}

// PageSource supplies page-segmented document text to the engine. Pages
// are 1-based. Implementations must be deterministic and side-effect-free;
// the engine treats page fetches as cheap, repeatable reads.
type PageSource interface {
	PageCount() int
	PageText(page int) ([]string, error)
}

// Config holds the heuristic tuning for one engine run. It is passed into
// each component at construction so concurrent runs with different
// settings cannot interfere.
type Config struct {
	// TocSearchPageLimit is the maximum number of leading pages scanned
	// for the declared ToC.
	TocSearchPageLimit int

	// TocScoreThreshold is the per-page score a candidate ToC page must
	// reach; a range opens after two consecutive qualifying pages and
	// closes after two consecutive non-qualifying ones.
	TocScoreThreshold float64

	// TocIndicators are lowercase phrases whose presence marks a page as
	// a weak ToC candidate.
	TocIndicators []string

	// MinTocEntries rejects a located ToC range that yields fewer
	// extracted entries, sending the run into degraded mode.
	MinTocEntries int

	// MaxSectionLevel caps the per-level metadata buckets; deeper entries
	// keep their true level on the record.
	MaxSectionLevel int

	// SectionLocatorWindow is the page radius searched around an entry's
	// declared page for its body heading.
	SectionLocatorWindow int

	// PageGapWarningThreshold and PageGapErrorThreshold classify gaps
	// between consecutive section ranges.
	PageGapWarningThreshold int
	PageGapErrorThreshold   int

	// TitleSimilarityThreshold is the minimum declared-vs-observed title
	// similarity (0..1); below it a TitleMismatch is reported.
	TitleSimilarityThreshold float64

	// StrictMode makes any error-severity issue fail the run verdict.
	StrictMode bool

	// Workers bounds the parallel per-entry section searches; 0 or 1
	// runs them serially.
	Workers int

	// DomainTagKeywords maps a lowercase title keyword to the tag it
	// produces. TagCategories maps a category tag to keywords implying it.
	DomainTagKeywords map[string]string
	TagCategories     map[string][]string

	// DocTitleKeywords gate document-title extraction from the first
	// pages; DefaultDocTitle is used when nothing qualifies.
	DocTitleKeywords []string
	DefaultDocTitle  string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TocSearchPageLimit: 20,
		TocScoreThreshold:  3.0,
		TocIndicators: []string{
			"contents", "table of contents", "toc", "index",
			"overview", "introduction", "specification",
			"requirements", "chapters", "sections",
		},
		MinTocEntries:            3,
		MaxSectionLevel:          5,
		SectionLocatorWindow:     5,
		PageGapWarningThreshold:  0,
		PageGapErrorThreshold:    5,
		TitleSimilarityThreshold: 0.7,
		StrictMode:               false,
		Workers:                  4,
		DomainTagKeywords: map[string]string{
			"power": "power", "delivery": "delivery", "contract": "contract",
			"negotiation": "negotiation", "protocol": "protocol", "state": "state",
			"machine": "machine", "voltage": "voltage", "current": "current",
			"cable": "cable", "source": "source", "sink": "sink",
			"dual-role": "dual-role", "sop": "sop", "collision": "collision",
			"avoidance": "avoidance", "plug": "plug", "usb": "usb",
			"type-c": "type-c", "revision": "revision", "capability": "capability",
			"compatibility": "compatibility", "communication": "communication",
		},
		TagCategories: map[string][]string{
			"overview":       {"overview", "introduction", "background", "scope"},
			"requirements":   {"requirements", "specifications", "standards", "compliance"},
			"implementation": {"implementation", "design", "architecture", "structure"},
			"protocol":       {"protocol", "communication", "signaling", "timing"},
			"hardware":       {"hardware", "cable", "connector", "plug", "port"},
			"software":       {"software", "firmware", "driver", "application"},
		},
		DocTitleKeywords: []string{"specification", "power delivery", "usb"},
		DefaultDocTitle:  "Universal Serial Bus Power Delivery Specification",
	}
}

// String returns a JSON representation of the entry for debugging.
func (e *ToCEntry) String() string {
	b, _ := json.Marshal(e)
	return string(b)
}
