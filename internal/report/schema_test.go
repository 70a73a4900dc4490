package report

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCompileSchemas(t *testing.T) {
	schemas, err := CompileSchemas()
	if err != nil {
		t.Fatalf("CompileSchemas failed: %v", err)
	}
	if schemas.Toc == nil || schemas.Section == nil || schemas.Metadata == nil {
		t.Fatal("compiled schema set incomplete")
	}
}

func TestValidateRecordAcceptsTocRecord(t *testing.T) {
	schemas, err := CompileSchemas()
	if err != nil {
		t.Fatal(err)
	}

	rec := TocRecord{
		DocTitle:  "Sample Spec",
		SectionID: "2.1",
		Title:     "Scope",
		Page:      nil,
		Level:     2,
		ParentID:  strp("2"),
		FullPath:  "2.1 Scope",
		Tags:      []string{},
	}

	data, err := validateRecord(schemas.Toc, rec)
	if err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
	if !strings.Contains(string(data), `"page":null`) {
		t.Errorf("nil page must encode as null, got %s", data)
	}

	want, _ := json.Marshal(rec)
	if string(data) != string(want) {
		t.Error("validateRecord must return the exact marshaled line")
	}
}

func strp(s string) *string { return &s }

func intp(v int) *int { return &v }

func TestValidateRecordRejections(t *testing.T) {
	schemas, err := CompileSchemas()
	if err != nil {
		t.Fatal(err)
	}

	base := func() TocRecord {
		return TocRecord{
			DocTitle:  "Sample Spec",
			SectionID: "2",
			Title:     "Overview",
			Page:      intp(4),
			Level:     1,
			FullPath:  "2 Overview",
			Tags:      []string{},
		}
	}

	tests := []struct {
		name   string
		mutate func(*TocRecord)
	}{
		{"empty title", func(r *TocRecord) { r.Title = "" }},
		{"zero level", func(r *TocRecord) { r.Level = 0 }},
		{"level past the cap", func(r *TocRecord) { r.Level = 9 }},
		{"malformed section id", func(r *TocRecord) { r.SectionID = "2.a" }},
		{"zero page", func(r *TocRecord) { r.Page = intp(0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base()
			tt.mutate(&rec)
			data, err := validateRecord(schemas.Toc, rec)
			if err == nil {
				t.Fatal("expected schema rejection")
			}
			if data == nil {
				t.Error("rejected record must still return its line content")
			}
		})
	}
}

func TestValidateRecordRejectsUnknownFields(t *testing.T) {
	schemas, err := CompileSchemas()
	if err != nil {
		t.Fatal(err)
	}

	rec := map[string]any{
		"doc_title": "Sample Spec", "section_id": "2", "title": "Overview",
		"page": 4, "level": 1, "parent_id": nil, "full_path": "2 Overview",
		"tags": []string{}, "surprise": true,
	}
	if _, err := validateRecord(schemas.Toc, rec); err == nil {
		t.Fatal("additional properties must be rejected")
	}
}

func TestSectionSchemaRequiresRange(t *testing.T) {
	schemas, err := CompileSchemas()
	if err != nil {
		t.Fatal(err)
	}

	rec := map[string]any{
		"doc_title": "Sample Spec", "section_id": "2", "title": "Overview",
		"page": 4, "level": 1, "parent_id": nil, "full_path": "2 Overview",
		"tags": []string{}, "has_tables": false, "has_figures": false,
		"word_count": 10, "content_preview": "",
	}
	if _, err := validateRecord(schemas.Section, rec); err == nil {
		t.Fatal("section record without a page range must be rejected")
	}

	rec["content_start"] = 4
	rec["content_end"] = 6
	if _, err := validateRecord(schemas.Section, rec); err != nil {
		t.Fatalf("complete section record rejected: %v", err)
	}
}
