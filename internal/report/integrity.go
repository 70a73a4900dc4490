package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CheckReport collects the findings of re-validating previously written
// output files: schema conformance per line, then cross-file integrity.
type CheckReport struct {
	FilesChecked    []string
	RecordCounts    map[string]int
	MissingFiles    []string
	SchemaErrors    []string
	IntegrityErrors []string
}

// OK reports whether every check passed.
func (r *CheckReport) OK() bool {
	return len(r.MissingFiles) == 0 && len(r.SchemaErrors) == 0 && len(r.IntegrityErrors) == 0
}

// Findings returns the total number of problems found.
func (r *CheckReport) Findings() int {
	return len(r.MissingFiles) + len(r.SchemaErrors) + len(r.IntegrityErrors)
}

// CheckOutputs validates the output files under dir written with the
// given prefix. Every JSONL line is checked against its schema, then the
// ToC and section records are cross-checked: sections missing or extra
// relative to the ToC, declared-page disagreement, and unresolved parent
// links. Only unreadable files return an error; findings land in the
// report.
func CheckOutputs(dir, prefix string, logger *slog.Logger) (*CheckReport, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if prefix == "" {
		prefix = "docstruct"
	}

	schemas, err := CompileSchemas()
	if err != nil {
		return nil, err
	}

	rep := &CheckReport{RecordCounts: make(map[string]int)}

	tocPath := filepath.Join(dir, prefix+"_toc.jsonl")
	specPath := filepath.Join(dir, prefix+"_spec.jsonl")
	metaPath := filepath.Join(dir, prefix+"_metadata.jsonl")
	xlsxPath := filepath.Join(dir, prefix+"_validation.xlsx")

	for _, path := range []string{tocPath, specPath, metaPath, xlsxPath} {
		if _, err := os.Stat(path); err != nil {
			rep.MissingFiles = append(rep.MissingFiles, filepath.Base(path))
		}
	}

	var tocRecords, specRecords []map[string]any
	if !contains(rep.MissingFiles, filepath.Base(tocPath)) {
		tocRecords, err = checkJSONLFile(tocPath, schemas.Toc, rep)
		if err != nil {
			return nil, err
		}
	}
	if !contains(rep.MissingFiles, filepath.Base(specPath)) {
		specRecords, err = checkJSONLFile(specPath, schemas.Section, rep)
		if err != nil {
			return nil, err
		}
	}
	if !contains(rep.MissingFiles, filepath.Base(metaPath)) {
		if _, err := checkJSONLFile(metaPath, schemas.Metadata, rep); err != nil {
			return nil, err
		}
	}

	rep.IntegrityErrors = append(rep.IntegrityErrors, crossCheck(tocRecords, specRecords)...)

	logger.Info("output validation finished",
		"files", len(rep.FilesChecked), "findings", rep.Findings())
	return rep, nil
}

// checkJSONLFile validates every line of one JSONL file and returns the
// decoded records for cross-checking.
func checkJSONLFile(path string, schema *jsonschema.Schema, rep *CheckReport) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	base := filepath.Base(path)
	var records []map[string]any

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var doc any
		if err := json.Unmarshal(line, &doc); err != nil {
			rep.SchemaErrors = append(rep.SchemaErrors,
				fmt.Sprintf("%s line %d: invalid JSON: %v", base, lineNum, err))
			continue
		}
		if err := schema.Validate(doc); err != nil {
			rep.SchemaErrors = append(rep.SchemaErrors,
				fmt.Sprintf("%s line %d: %v", base, lineNum, err))
		}
		if m, ok := doc.(map[string]any); ok {
			records = append(records, m)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if lineNum == 0 {
		rep.SchemaErrors = append(rep.SchemaErrors, fmt.Sprintf("%s: file is empty", base))
	}

	rep.FilesChecked = append(rep.FilesChecked, path)
	rep.RecordCounts[path] = len(records)
	return records, nil
}

// crossCheck verifies integrity between the ToC and section record sets.
func crossCheck(tocRecords, specRecords []map[string]any) []string {
	if tocRecords == nil && specRecords == nil {
		return nil
	}

	var errs []string

	tocIDs := make(map[string]map[string]any, len(tocRecords))
	for _, rec := range tocRecords {
		id, _ := rec["section_id"].(string)
		if id == "" {
			continue
		}
		if _, dup := tocIDs[id]; dup {
			errs = append(errs, fmt.Sprintf("duplicate section_id %q in ToC records", id))
			continue
		}
		tocIDs[id] = rec
	}
	specIDs := make(map[string]map[string]any, len(specRecords))
	for _, rec := range specRecords {
		id, _ := rec["section_id"].(string)
		if id == "" {
			continue
		}
		specIDs[id] = rec
	}

	// Missing and extra sections relative to the ToC.
	var missing, extra []string
	for id := range tocIDs {
		if _, ok := specIDs[id]; !ok {
			missing = append(missing, id)
		}
	}
	for id := range specIDs {
		if _, ok := tocIDs[id]; !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	for _, id := range missing {
		errs = append(errs, fmt.Sprintf("ToC entry %q has no section record", id))
	}
	for _, id := range extra {
		errs = append(errs, fmt.Sprintf("section record %q has no ToC entry", id))
	}

	// Declared pages must agree between the two files.
	ids := make([]string, 0, len(tocIDs))
	for id := range tocIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		spec, ok := specIDs[id]
		if !ok {
			continue
		}
		tocPage, tocHas := numberField(tocIDs[id], "page")
		specPage, specHas := numberField(spec, "page")
		if tocHas != specHas || (tocHas && tocPage != specPage) {
			errs = append(errs, fmt.Sprintf("page mismatch for %q: ToC=%v, section=%v",
				id, tocIDs[id]["page"], spec["page"]))
		}
		if start, ok := numberField(spec, "content_start"); ok {
			if end, ok := numberField(spec, "content_end"); ok && end < start {
				errs = append(errs, fmt.Sprintf("section %q content_end %d precedes content_start %d",
					id, int(end), int(start)))
			}
		}
	}

	// Parent links must resolve inside the ToC record set.
	for _, id := range ids {
		parent, ok := tocIDs[id]["parent_id"].(string)
		if !ok || parent == "" {
			continue
		}
		if _, exists := tocIDs[parent]; !exists {
			errs = append(errs, fmt.Sprintf("parent %q not found for %q", parent, id))
		}
	}

	return errs
}

func numberField(rec map[string]any, key string) (float64, bool) {
	v, ok := rec[key].(float64)
	return v, ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
