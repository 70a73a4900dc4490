package structure

import "time"

// AggregateInput collects the per-stage outputs the metadata rollup
// consumes. The aggregator adds no heuristics of its own.
type AggregateInput struct {
	DocTitle         string
	TotalPages       int
	SourceFileSize   int64
	RunID            string
	Timestamp        time.Time
	Entries          []ToCEntry
	Sections         []Section
	DegradedMode     bool
	TocRange         *TocRange
	ExtractionMisses int
	ParsingErrors    []string
}

// AggregateMetadata rolls the run's results up into DocumentMetadata.
// Entries deeper than MaxSectionLevel keep their true level on the record
// but are clamped into the deepest per-level bucket.
func AggregateMetadata(in AggregateInput, cfg *Config) DocumentMetadata {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	md := DocumentMetadata{
		DocTitle:         in.DocTitle,
		TotalPages:       in.TotalPages,
		TotalSections:    len(in.Sections),
		MaxLevel:         1,
		SectionsByLevel:  make(map[int]int),
		ParsingTimestamp: in.Timestamp.Format(time.RFC3339),
		SourceFileSize:   in.SourceFileSize,
		RunID:            in.RunID,
		DegradedMode:     in.DegradedMode,
		ExtractionMisses: in.ExtractionMisses,
		ParsingErrors:    make([]string, 0, len(in.ParsingErrors)),
	}
	md.ParsingErrors = append(md.ParsingErrors, in.ParsingErrors...)

	if in.TocRange != nil {
		md.TocStartPage = in.TocRange.StartPage
		md.TocEndPage = in.TocRange.EndPage
	}

	for _, e := range in.Entries {
		level := e.Level
		if e.Level > md.MaxLevel {
			md.MaxLevel = e.Level
		}
		if cfg.MaxSectionLevel > 0 && level > cfg.MaxSectionLevel {
			level = cfg.MaxSectionLevel
		}
		md.SectionsByLevel[level]++
	}

	for _, s := range in.Sections {
		if s.HasTables {
			md.TotalTables++
		}
		if s.HasFigures {
			md.TotalFigures++
		}
	}

	return md
}
