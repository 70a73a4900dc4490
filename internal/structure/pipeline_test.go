package structure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"
)

// fakeSource serves fixed pages for tests.
type fakeSource struct {
	pages [][]string
}

func (f *fakeSource) PageCount() int { return len(f.pages) }

func (f *fakeSource) PageText(page int) ([]string, error) {
	if page < 1 || page > len(f.pages) {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	return f.pages[page-1], nil
}

// testDocument builds a small document with a two-page ToC on pages 2-3
// and body headings matching every declared entry.
func testDocument() *fakeSource {
	return &fakeSource{pages: [][]string{
		{
			"Acme Widget Interface Specification",
			"Draft for internal review",
		},
		{
			"Table of Contents",
			"",
			"2 Overview ................... 4",
			"2.1 Scope .................... 4",
			"2.1.1 Detail ................. 5",
		},
		{
			"3 Architecture ............... 6",
			"3.1 Components ............... 6",
			"4 Validation Rules ........... 7",
		},
		{
			"2 Overview",
			"The widget interface connects producers to consumers through",
			"a shared exchange fabric. Every widget presented to the fabric",
			"carries a manifest naming its producer and the exchange rules",
			"it expects. Consumers subscribe by manifest pattern and are",
			"delivered widgets in arrival order, one at a time, with no",
			"batching below the fabric layer.",
			"",
			"2.1 Scope",
			"This part covers the interface between producers and the",
			"fabric only. Consumer-side delivery guarantees appear in the",
			"companion part and are referenced here without restating",
			"their normative text in this clause.",
		},
		{
			"2.1.1 Detail",
			"A manifest is a flat list of named fields. Field names are",
			"compared byte-wise after trimming. Producers shall not reuse",
			"a manifest for widgets of a different shape, and the fabric",
			"rejects a manifest whose fields collide with a reserved name",
			"in any position of the list.",
		},
		{
			"3 Architecture",
			"The fabric is a store-and-forward mesh. Nodes accept widgets",
			"on ingress, persist them durably, then forward toward every",
			"matching subscription. Loss of a single node never loses an",
			"acknowledged widget.",
			"",
			"3.1 Components",
			"Each node runs an ingress gate, a durable spool, and a",
			"forwarding planner. The planner recomputes routes whenever",
			"membership changes, and drains the spool in arrival order",
			"toward each destination that remains reachable.",
		},
		{
			"4 Validation Rules",
			"A widget is validated against its manifest before it is",
			"acknowledged. The limits below apply to every field kind.",
			"",
			"Table 2  Field Limits",
			"Kind       Max Size    Repeats",
			"scalar     64 bytes    one",
			"list       4096 bytes  many",
			"",
			"Figure 3 shows the validation pipeline from ingress gate to",
			"acknowledgement, including the rejection path for oversize",
			"fields and reserved-name collisions.",
		},
		{
			"Revision notes: the validation clause was rewritten for this",
			"draft and reviewers should re-read it in full.",
		},
	}}
}

// fixedEngine returns an engine with deterministic clock and run id so
// runs can be compared byte for byte.
func fixedEngine(cfg *Config) *Engine {
	e := NewEngine(cfg, nil)
	e.now = func() time.Time { return time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC) }
	e.newRunID = func() string { return "00000000-0000-0000-0000-000000000000" }
	return e
}

func TestEngineRunFullPipeline(t *testing.T) {
	src := testDocument()
	res, err := fixedEngine(nil).Run(context.Background(), src, SourceInfo{Path: "test.txt", FileSize: 1234})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.DocTitle != "Acme Widget Interface Specification" {
		t.Errorf("doc title = %q, want %q", res.DocTitle, "Acme Widget Interface Specification")
	}

	wantIDs := []string{"2", "2.1", "2.1.1", "3", "3.1", "4"}
	if len(res.Entries) != len(wantIDs) {
		t.Fatalf("got %d entries, want %d", len(res.Entries), len(wantIDs))
	}
	for i, id := range wantIDs {
		if res.Entries[i].SectionID != id {
			t.Errorf("entry %d id = %q, want %q", i, res.Entries[i].SectionID, id)
		}
	}

	if len(res.Sections) != len(wantIDs) {
		t.Fatalf("got %d sections, want %d", len(res.Sections), len(wantIDs))
	}
	// Resolved ranges are contiguous from the first section's start to
	// one past the last page.
	for i := 0; i+1 < len(res.Sections); i++ {
		if res.Sections[i].ContentEndPage != res.Sections[i+1].ContentStartPage {
			t.Errorf("section %q end %d != next start %d",
				res.Sections[i].SectionID, res.Sections[i].ContentEndPage, res.Sections[i+1].ContentStartPage)
		}
	}
	last := res.Sections[len(res.Sections)-1]
	if last.ContentEndPage != src.PageCount()+1 {
		t.Errorf("last section end = %d, want %d", last.ContentEndPage, src.PageCount()+1)
	}

	if len(res.Issues) != 0 {
		t.Errorf("expected clean run, got issues: %v", res.Issues)
	}
	if res.Failed {
		t.Error("clean run must not be marked failed")
	}

	md := res.Metadata
	if md.DegradedMode {
		t.Error("degraded mode set on a document with a ToC")
	}
	if md.TocStartPage != 2 || md.TocEndPage != 3 {
		t.Errorf("toc range = %d-%d, want 2-3", md.TocStartPage, md.TocEndPage)
	}
	if md.MaxLevel != 3 {
		t.Errorf("max level = %d, want 3", md.MaxLevel)
	}
	if md.TotalTables != 1 || md.TotalFigures != 1 {
		t.Errorf("tables/figures = %d/%d, want 1/1", md.TotalTables, md.TotalFigures)
	}
	if md.ExtractionMisses != 1 {
		t.Errorf("extraction misses = %d, want 1 (the ToC header line)", md.ExtractionMisses)
	}
	if md.SourceFileSize != 1234 {
		t.Errorf("source file size = %d, want 1234", md.SourceFileSize)
	}
}

func TestEngineRunDeterminism(t *testing.T) {
	src := testDocument()

	run := func() *Result {
		t.Helper()
		res, err := fixedEngine(nil).Run(context.Background(), src, SourceInfo{Path: "test.txt"})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return res
	}

	first := run()
	second := run()

	if !reflect.DeepEqual(first, second) {
		t.Error("identical input produced different results")
	}

	b1, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b2, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b1) != string(b2) {
		t.Error("serialized results are not byte-identical")
	}
}

func TestEngineParallelMatchesSerial(t *testing.T) {
	src := testDocument()

	serialCfg := DefaultConfig()
	serialCfg.Workers = 1
	parallelCfg := DefaultConfig()
	parallelCfg.Workers = 8

	serial, err := fixedEngine(serialCfg).Run(context.Background(), src, SourceInfo{})
	if err != nil {
		t.Fatalf("serial run failed: %v", err)
	}
	parallel, err := fixedEngine(parallelCfg).Run(context.Background(), src, SourceInfo{})
	if err != nil {
		t.Fatalf("parallel run failed: %v", err)
	}

	if !reflect.DeepEqual(serial.Sections, parallel.Sections) {
		t.Error("parallel section location changed the results")
	}
	if !reflect.DeepEqual(serial.Issues, parallel.Issues) {
		t.Error("parallel section location changed the issues")
	}
}

func TestEngineDegradedMode(t *testing.T) {
	// No ToC anywhere, but headings in the body.
	src := &fakeSource{pages: [][]string{
		{
			"Working notes on the widget fabric, kept in plain prose",
			"without any declared table at the front of the document.",
		},
		{
			"1 Background",
			"The fabric grew out of an internal queueing system whose",
			"delivery rules were never written down in one place before.",
		},
		{
			"2 Current Design",
			"Widgets are spooled per node and forwarded in arrival order",
			"toward every matching subscription that remains reachable.",
		},
	}}

	res, err := fixedEngine(nil).Run(context.Background(), src, SourceInfo{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !res.Metadata.DegradedMode {
		t.Fatal("expected degraded mode without a ToC")
	}
	if len(res.Metadata.ParsingErrors) == 0 {
		t.Error("degraded mode must be recorded in parsing errors")
	}

	wantIDs := []string{"1", "2"}
	if len(res.Entries) != len(wantIDs) {
		t.Fatalf("got %d synthesized entries, want %d", len(res.Entries), len(wantIDs))
	}
	for i, id := range wantIDs {
		if res.Entries[i].SectionID != id {
			t.Errorf("entry %d id = %q, want %q", i, res.Entries[i].SectionID, id)
		}
		if res.Entries[i].DeclaredPage == nil {
			t.Errorf("entry %q has no page from the heading scan", id)
		}
	}
	if res.Metadata.TocStartPage != 0 || res.Metadata.TocEndPage != 0 {
		t.Error("degraded run must not report a ToC range")
	}
}

func TestEngineMinTocEntriesFallback(t *testing.T) {
	// Pages 1-2 look like a ToC (keyword plus numbered lines) but no
	// line parses into an entry, so the located range yields fewer than
	// MinTocEntries candidates.
	src := &fakeSource{pages: [][]string{
		{
			"Table of Contents",
			"Preface ................ 2",
			"Foreword ............... 3",
			"Colophon ............... 9",
		},
		{
			"Table of Contents, continued",
			"Afterword .............. 11",
			"Errata ................. 12",
		},
		{
			"1 Background",
			"This revision collects the errata of the previous printing",
			"into the main text and renumbers nothing in the process.",
		},
		{
			"2 Changes",
			"The colophon moved to the back matter, and the foreword was",
			"shortened at the editor's request without technical impact.",
		},
	}}

	res, err := fixedEngine(nil).Run(context.Background(), src, SourceInfo{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !res.Metadata.DegradedMode {
		t.Fatal("expected fallback to degraded mode below min toc entries")
	}
	if len(res.Entries) != 2 {
		t.Fatalf("got %d entries from body headings, want 2", len(res.Entries))
	}
	found := false
	for _, msg := range res.Metadata.ParsingErrors {
		if msg != "" {
			found = true
		}
	}
	if !found {
		t.Error("fallback reason missing from parsing errors")
	}
}

func TestEngineStrictModeVerdict(t *testing.T) {
	// The duplicate "2.1" entry is an error-severity DuplicateId.
	pages := [][]string{
		{
			"Table of Contents",
			"",
			"2 Overview ................... 3",
			"2.1 Scope .................... 3",
			"2.1 Scope .................... 3",
		},
		{
			"3 Rules ...................... 4",
			"3.1 Limits ................... 4",
		},
		{
			"2 Overview",
			"The interface is described in the clauses that follow, and",
			"conformance language is collected at the end of each clause",
			"rather than in a separate annex, so reviewers can read each",
			"clause as a self-contained unit without cross-references.",
			"",
			"2.1 Scope",
			"Only the producer-facing interface is covered by this part,",
			"and consumer delivery guarantees are deferred to another.",
		},
		{
			"3 Rules",
			"Every widget is validated before acknowledgement, and a",
			"rejected widget is reported back to its producer with the",
			"rule that failed named in the rejection notice itself.",
			"",
			"3.1 Limits",
			"Field limits apply uniformly to every producer, regardless",
			"of the negotiated manifest shape or the node of ingress.",
		},
	}

	strict := DefaultConfig()
	strict.StrictMode = true
	res, err := fixedEngine(strict).Run(context.Background(), &fakeSource{pages: pages}, SourceInfo{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ErrorCount() == 0 {
		t.Fatal("expected an error-severity issue from the duplicate entry")
	}
	if !res.Failed {
		t.Error("strict mode must mark the run failed on error issues")
	}

	lax := DefaultConfig()
	res, err = fixedEngine(lax).Run(context.Background(), &fakeSource{pages: pages}, SourceInfo{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Failed {
		t.Error("non-strict run must not be marked failed")
	}
}

func TestEngineTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fixedEngine(nil).Run(ctx, testDocument(), SourceInfo{})
	if err == nil {
		t.Fatal("expected timeout error from cancelled context")
	}
	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Errorf("expected TimeoutError, got %T: %v", err, err)
	}
}

func TestEngineEmptySource(t *testing.T) {
	_, err := fixedEngine(nil).Run(context.Background(), &fakeSource{}, SourceInfo{Path: "empty.txt"})
	if err == nil {
		t.Fatal("expected error for a source with no pages")
	}
}
