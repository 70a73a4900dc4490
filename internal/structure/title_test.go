package structure

import "testing"

func TestExtractDocTitle(t *testing.T) {
	tests := []struct {
		name  string
		pages [][]string
		want  string
	}{
		{
			name: "title on the first page",
			pages: [][]string{{
				"",
				"Universal Serial Bus",
				"Power Delivery Specification Revision 3.2",
			}},
			want: "Power Delivery Specification Revision 3.2",
		},
		{
			name: "title on a later early page",
			pages: [][]string{
				{"Cover art and nothing else"},
				{"Acme Fabric Specification, Version 2"},
			},
			want: "Acme Fabric Specification, Version 2",
		},
		{
			name: "too short a line never qualifies",
			pages: [][]string{{
				"USB spec",
				"plain prose without the needed words",
			}},
			want: DefaultConfig().DefaultDocTitle,
		},
		{
			name: "keyword past the scanned pages falls back",
			pages: [][]string{
				{"page one"},
				{"page two"},
				{"page three"},
				{"The Real Specification Title Hides Here"},
			},
			want: DefaultConfig().DefaultDocTitle,
		},
		{
			name: "keyword past the scanned lines falls back",
			pages: [][]string{{
				"1", "2", "3", "4", "5", "6", "7", "8", "9", "10",
				"Acme Fabric Specification, buried too deep",
			}},
			want: DefaultConfig().DefaultDocTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDocTitle(&fakeSource{pages: tt.pages}, nil)
			if got != tt.want {
				t.Errorf("title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractDocTitleCustomKeywords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DocTitleKeywords = []string{"interface contract"}
	cfg.DefaultDocTitle = "Untitled Document"

	src := &fakeSource{pages: [][]string{{
		"Widget Interface Contract, Draft 4",
	}}}
	if got := ExtractDocTitle(src, cfg); got != "Widget Interface Contract, Draft 4" {
		t.Errorf("title = %q", got)
	}

	src = &fakeSource{pages: [][]string{{
		"A document about something else entirely",
	}}}
	if got := ExtractDocTitle(src, cfg); got != "Untitled Document" {
		t.Errorf("fallback title = %q", got)
	}
}
