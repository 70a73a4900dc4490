package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/docstruct/docstruct/internal/structure"
)

// Sheet names of the validation workbook.
const (
	sheetSummary    = "Summary"
	sheetComparison = "ToC_vs_Parsed"
	sheetDetailed   = "Detailed_Analysis"
	sheetStatistics = "Statistics"
)

// WriteWorkbook builds and saves the Excel validation report: a run
// summary, the per-entry declared-vs-located comparison, per-section
// content metrics, and aggregate statistics.
func (w *Writer) WriteWorkbook(res *structure.Result) error {
	f, err := BuildWorkbook(res)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(w.WorkbookPath()); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.WorkbookPath(), err)
	}
	return nil
}

// BuildWorkbook assembles the four-sheet validation workbook in memory.
func BuildWorkbook(res *structure.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("naming summary sheet: %w", err)
	}
	for _, name := range []string{sheetComparison, sheetDetailed, sheetStatistics} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	if err := writeSummarySheet(f, res); err != nil {
		return nil, err
	}
	if err := writeComparisonSheet(f, res); err != nil {
		return nil, err
	}
	if err := writeDetailedSheet(f, res); err != nil {
		return nil, err
	}
	if err := writeStatisticsSheet(f, res); err != nil {
		return nil, err
	}

	if idx, err := f.GetSheetIndex(sheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

func writeSummarySheet(f *excelize.File, res *structure.Result) error {
	status := "PASS"
	if res.ErrorCount() > 0 {
		status = "FAIL"
	}

	headers := []any{
		"Document Title", "Run ID", "Total Pages", "ToC Entries", "Sections Located",
		"Tables Detected", "Figures Detected", "Max Section Level",
		"Errors", "Warnings", "Degraded Mode", "Parsing Timestamp", "Validation Status",
	}
	values := []any{
		res.DocTitle, res.Metadata.RunID, res.Metadata.TotalPages, len(res.Entries), len(res.Sections),
		res.Metadata.TotalTables, res.Metadata.TotalFigures, res.Metadata.MaxLevel,
		res.ErrorCount(), res.WarningCount(), res.Metadata.DegradedMode, res.Metadata.ParsingTimestamp, status,
	}

	if err := writeHeaderRow(f, sheetSummary, headers); err != nil {
		return err
	}
	return f.SetSheetRow(sheetSummary, "A2", &values)
}

func writeComparisonSheet(f *excelize.File, res *structure.Result) error {
	headers := []any{
		"Section ID", "ToC Title", "ToC Page", "Level",
		"Located Start", "Located End", "Page Difference", "Status", "Issues",
	}
	if err := writeHeaderRow(f, sheetComparison, headers); err != nil {
		return err
	}

	sectionByID := make(map[string]structure.Section, len(res.Sections))
	for _, s := range res.Sections {
		sectionByID[s.SectionID] = s
	}
	issuesByID := make(map[string][]string)
	for _, issue := range res.Issues {
		issuesByID[issue.SectionID] = append(issuesByID[issue.SectionID], string(issue.Kind))
	}

	for i, e := range res.Entries {
		row := []any{e.SectionID, e.Title, cellOrNA(e.DeclaredPage), e.Level}

		if s, ok := sectionByID[e.SectionID]; ok {
			diff := any("N/A")
			if e.DeclaredPage != nil {
				diff = s.ContentStartPage - *e.DeclaredPage
			}
			status := "MATCH"
			for _, kind := range issuesByID[e.SectionID] {
				if kind == string(structure.KindMissingInBody) {
					status = "NOT LOCATED"
					break
				}
			}
			row = append(row, s.ContentStartPage, s.ContentEndPage, diff, status)
		} else {
			row = append(row, "N/A", "N/A", "N/A", "MISSING")
		}
		row = append(row, strings.Join(issuesByID[e.SectionID], ", "))

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetComparison, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeDetailedSheet(f *excelize.File, res *structure.Result) error {
	headers := []any{
		"Section ID", "Title", "Level", "Parent ID",
		"Content Start", "Content End", "Has Tables", "Has Figures", "Word Count", "Tags",
	}
	if err := writeHeaderRow(f, sheetDetailed, headers); err != nil {
		return err
	}

	entryByID := make(map[string]structure.ToCEntry, len(res.Entries))
	for _, e := range res.Entries {
		entryByID[e.SectionID] = e
	}

	for i, s := range res.Sections {
		e := entryByID[s.SectionID]
		parent := ""
		if e.ParentID != nil {
			parent = *e.ParentID
		}
		row := []any{
			s.SectionID, e.Title, e.Level, parent,
			s.ContentStartPage, s.ContentEndPage, s.HasTables, s.HasFigures, s.WordCount,
			strings.Join(e.Tags, ", "),
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetDetailed, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeStatisticsSheet(f *excelize.File, res *structure.Result) error {
	var level1, level2, level3, level4Plus, withTables, withFigures, totalWords int
	for _, e := range res.Entries {
		switch e.Level {
		case 1:
			level1++
		case 2:
			level2++
		case 3:
			level3++
		default:
			level4Plus++
		}
	}
	for _, s := range res.Sections {
		if s.HasTables {
			withTables++
		}
		if s.HasFigures {
			withFigures++
		}
		totalWords += s.WordCount
	}

	avgWords := 0.0
	if len(res.Sections) > 0 {
		avgWords = float64(totalWords) / float64(len(res.Sections))
	}

	issuesByKind := make(map[structure.IssueKind]int)
	for _, issue := range res.Issues {
		issuesByKind[issue.Kind]++
	}

	headers := []any{
		"Total Sections", "Level 1 Sections", "Level 2 Sections", "Level 3 Sections", "Level 4+ Sections",
		"Sections with Tables", "Sections with Figures", "Average Word Count", "Total Word Count",
		"Missing in Body", "Missing in ToC", "Page Order Violations", "Page Gaps", "Title Mismatches",
	}
	values := []any{
		len(res.Sections), level1, level2, level3, level4Plus,
		withTables, withFigures, avgWords, totalWords,
		issuesByKind[structure.KindMissingInBody], issuesByKind[structure.KindMissingInToC],
		issuesByKind[structure.KindPageOrderViolation], issuesByKind[structure.KindPageGap],
		issuesByKind[structure.KindTitleMismatch],
	}

	if err := writeHeaderRow(f, sheetStatistics, headers); err != nil {
		return err
	}
	return f.SetSheetRow(sheetStatistics, "A2", &values)
}

// writeHeaderRow writes a bold header row across the first row of the
// sheet.
func writeHeaderRow(f *excelize.File, sheet string, headers []any) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func cellOrNA(v *int) any {
	if v == nil {
		return "N/A"
	}
	return *v
}
