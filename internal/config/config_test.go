package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	// An empty working directory and home, so no docstruct.yaml is
	// picked up from the machine running the tests.
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			t.Fatal(err)
		}
	})
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := Default()
	if cfg.TocSearchPageLimit != want.TocSearchPageLimit {
		t.Errorf("toc_search_page_limit = %d, want %d", cfg.TocSearchPageLimit, want.TocSearchPageLimit)
	}
	if cfg.Workers != want.Workers {
		t.Errorf("workers = %d, want %d", cfg.Workers, want.Workers)
	}
	if cfg.Timeout != want.Timeout {
		t.Errorf("timeout = %s, want %s", cfg.Timeout, want.Timeout)
	}
	if cfg.FilePrefix != want.FilePrefix {
		t.Errorf("file_prefix = %q, want %q", cfg.FilePrefix, want.FilePrefix)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := strings.Join([]string{
		"workers: 9",
		"strict_mode: true",
		"timeout: 90s",
		"output_dir: /tmp/docstruct-out",
		"doc_title_keywords:",
		"  - fabric",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Workers != 9 {
		t.Errorf("workers = %d, want 9", cfg.Workers)
	}
	if !cfg.StrictMode {
		t.Error("strict_mode not picked up from file")
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("timeout = %s, want 90s", cfg.Timeout)
	}
	if cfg.OutputDir != "/tmp/docstruct-out" {
		t.Errorf("output_dir = %q", cfg.OutputDir)
	}
	if len(cfg.DocTitleKeywords) != 1 || cfg.DocTitleKeywords[0] != "fabric" {
		t.Errorf("doc_title_keywords = %v", cfg.DocTitleKeywords)
	}
	// Untouched keys keep their defaults.
	if cfg.MinTocEntries != Default().MinTocEntries {
		t.Errorf("min_toc_entries = %d, want default", cfg.MinTocEntries)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("workers: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DOCSTRUCT_WORKERS", "2")
	t.Setenv("DOCSTRUCT_STRICT_MODE", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("workers = %d, want the environment value 2", cfg.Workers)
	}
	if !cfg.StrictMode {
		t.Error("strict_mode not picked up from environment")
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("workers: [not a number\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("title_similarity_threshold: 3.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero page limit", func(c *Config) { c.TocSearchPageLimit = 0 }},
		{"negative min entries", func(c *Config) { c.MinTocEntries = -1 }},
		{"negative window", func(c *Config) { c.SectionLocatorWindow = -2 }},
		{"similarity above one", func(c *Config) { c.TitleSimilarityThreshold = 1.5 }},
		{"similarity below zero", func(c *Config) { c.TitleSimilarityThreshold = -0.1 }},
		{"gap thresholds inverted", func(c *Config) {
			c.PageGapWarningThreshold = 6
			c.PageGapErrorThreshold = 2
		}},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"zero lines per page", func(c *Config) { c.LinesPerPage = 0 }},
		{"empty file prefix", func(c *Config) { c.FilePrefix = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "docstruct.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	want := Default()
	if cfg.Workers != want.Workers {
		t.Errorf("round-tripped workers = %d, want %d", cfg.Workers, want.Workers)
	}
	if cfg.Timeout != want.Timeout {
		t.Errorf("round-tripped timeout = %s, want %s", cfg.Timeout, want.Timeout)
	}
	if len(cfg.TagCategories["overview"]) == 0 {
		t.Error("tag categories missing from the written file")
	}

	if err := WriteDefault(path); err == nil {
		t.Fatal("expected refusal to overwrite an existing file")
	}
}
