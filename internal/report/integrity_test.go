package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeValidOutputs produces a complete, schema-clean output set to
// tamper with.
func writeValidOutputs(t *testing.T) (string, *Writer) {
	t.Helper()
	dir := t.TempDir()
	w, err := NewWriter(dir, "test", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteAll(fabricatedResult()); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	return dir, w
}

func rewriteFile(t *testing.T, path, old, new string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), old) {
		t.Fatalf("%s does not contain %q", filepath.Base(path), old)
	}
	if err := os.WriteFile(path, []byte(strings.ReplaceAll(string(data), old, new)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		t.Fatal(err)
	}
}

func checkFindings(t *testing.T, dir string, wantSubstring string, in func(*CheckReport) []string) {
	t.Helper()
	rep, err := CheckOutputs(dir, "test", nil)
	if err != nil {
		t.Fatalf("CheckOutputs failed: %v", err)
	}
	if rep.OK() {
		t.Fatal("tampered outputs passed validation")
	}
	for _, finding := range in(rep) {
		if strings.Contains(finding, wantSubstring) {
			return
		}
	}
	t.Errorf("no finding mentions %q; got missing=%v schema=%v integrity=%v",
		wantSubstring, rep.MissingFiles, rep.SchemaErrors, rep.IntegrityErrors)
}

func schemaFindings(r *CheckReport) []string    { return r.SchemaErrors }
func integrityFindings(r *CheckReport) []string { return r.IntegrityErrors }

func TestCheckOutputsValidSet(t *testing.T) {
	dir, w := writeValidOutputs(t)

	rep, err := CheckOutputs(dir, "test", nil)
	if err != nil {
		t.Fatalf("CheckOutputs failed: %v", err)
	}
	if !rep.OK() {
		t.Fatalf("valid outputs flagged: missing=%v schema=%v integrity=%v",
			rep.MissingFiles, rep.SchemaErrors, rep.IntegrityErrors)
	}
	if len(rep.FilesChecked) != 3 {
		t.Errorf("files checked = %d, want 3 JSONL files", len(rep.FilesChecked))
	}
	if got := rep.RecordCounts[w.TocPath()]; got != 3 {
		t.Errorf("toc record count = %d, want 3", got)
	}
	if got := rep.RecordCounts[w.MetadataPath()]; got != 1 {
		t.Errorf("metadata record count = %d, want 1", got)
	}
	if rep.Findings() != 0 {
		t.Errorf("Findings = %d, want 0", rep.Findings())
	}
}

func TestCheckOutputsMissingDirectory(t *testing.T) {
	rep, err := CheckOutputs(t.TempDir(), "test", nil)
	if err != nil {
		t.Fatalf("CheckOutputs failed: %v", err)
	}
	if len(rep.MissingFiles) != 4 {
		t.Errorf("missing files = %v, want all 4", rep.MissingFiles)
	}
	if rep.OK() {
		t.Error("empty directory passed validation")
	}
}

func TestCheckOutputsMissingWorkbook(t *testing.T) {
	dir, w := writeValidOutputs(t)
	if err := os.Remove(w.WorkbookPath()); err != nil {
		t.Fatal(err)
	}

	rep, err := CheckOutputs(dir, "test", nil)
	if err != nil {
		t.Fatalf("CheckOutputs failed: %v", err)
	}
	want := []string{"test_validation.xlsx"}
	if len(rep.MissingFiles) != 1 || rep.MissingFiles[0] != want[0] {
		t.Errorf("missing files = %v, want %v", rep.MissingFiles, want)
	}
	if len(rep.SchemaErrors) != 0 || len(rep.IntegrityErrors) != 0 {
		t.Errorf("JSONL checks should still pass: schema=%v integrity=%v",
			rep.SchemaErrors, rep.IntegrityErrors)
	}
}

func TestCheckOutputsDetectsInvalidJSON(t *testing.T) {
	dir, w := writeValidOutputs(t)
	appendLine(t, w.TocPath(), `{"section_id": truncated`)
	checkFindings(t, dir, "invalid JSON", schemaFindings)
}

func TestCheckOutputsDetectsSchemaViolation(t *testing.T) {
	dir, w := writeValidOutputs(t)
	rewriteFile(t, w.TocPath(), `"section_id":"2.1"`, `"section_id":"2.x"`)
	checkFindings(t, dir, "test_toc.jsonl line 2", schemaFindings)
}

func TestCheckOutputsDetectsEmptyFile(t *testing.T) {
	dir, w := writeValidOutputs(t)
	if err := os.WriteFile(w.MetadataPath(), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	checkFindings(t, dir, "file is empty", schemaFindings)
}

func TestCheckOutputsDetectsMissingSectionRecord(t *testing.T) {
	dir, w := writeValidOutputs(t)
	lines := readLines(t, w.SpecPath())
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if !strings.Contains(line, `"section_id":"2.1"`) {
			kept = append(kept, line)
		}
	}
	if err := os.WriteFile(w.SpecPath(), []byte(strings.Join(kept, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	checkFindings(t, dir, `ToC entry "2.1" has no section record`, integrityFindings)
}

func TestCheckOutputsDetectsExtraSectionRecord(t *testing.T) {
	dir, w := writeValidOutputs(t)
	lines := readLines(t, w.SpecPath())
	extra := strings.ReplaceAll(lines[2], `"section_id":"3"`, `"section_id":"7"`)
	appendLine(t, w.SpecPath(), extra)
	checkFindings(t, dir, `section record "7" has no ToC entry`, integrityFindings)
}

func TestCheckOutputsDetectsDuplicateTocID(t *testing.T) {
	dir, w := writeValidOutputs(t)
	appendLine(t, w.TocPath(), readLines(t, w.TocPath())[0])
	checkFindings(t, dir, `duplicate section_id "2"`, integrityFindings)
}

func TestCheckOutputsDetectsPageMismatch(t *testing.T) {
	dir, w := writeValidOutputs(t)
	rewriteFile(t, w.SpecPath(), `"page":4`, `"page":9`)
	checkFindings(t, dir, `page mismatch for "2"`, integrityFindings)
}

func TestCheckOutputsDetectsInvertedRange(t *testing.T) {
	dir, w := writeValidOutputs(t)
	rewriteFile(t, w.SpecPath(), `"content_end":5`, `"content_end":3`)
	checkFindings(t, dir, `content_end 3 precedes content_start 4`, integrityFindings)
}

func TestCheckOutputsDetectsUnresolvedParent(t *testing.T) {
	dir, w := writeValidOutputs(t)
	rewriteFile(t, w.TocPath(), `"parent_id":"2"`, `"parent_id":"9"`)
	checkFindings(t, dir, `parent "9" not found for "2.1"`, integrityFindings)
}
