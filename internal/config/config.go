package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of a docstruct run. Values are layered:
// built-in defaults, then an optional YAML config file, then DOCSTRUCT_*
// environment variables.
type Config struct {
	// ToC location and extraction.
	TocSearchPageLimit int `mapstructure:"toc_search_page_limit" yaml:"toc_search_page_limit"`
	MinTocEntries      int `mapstructure:"min_toc_entries" yaml:"min_toc_entries"`
	MaxSectionLevel    int `mapstructure:"max_section_level" yaml:"max_section_level"`

	// Section location and validation thresholds.
	SectionLocatorWindow     int     `mapstructure:"section_locator_window" yaml:"section_locator_window"`
	PageGapWarningThreshold  int     `mapstructure:"page_gap_warning_threshold" yaml:"page_gap_warning_threshold"`
	PageGapErrorThreshold    int     `mapstructure:"page_gap_error_threshold" yaml:"page_gap_error_threshold"`
	TitleSimilarityThreshold float64 `mapstructure:"title_similarity_threshold" yaml:"title_similarity_threshold"`
	StrictMode               bool    `mapstructure:"strict_mode" yaml:"strict_mode"`

	// Run resources.
	Workers int           `mapstructure:"workers" yaml:"workers"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// Text sources.
	LinesPerPage         int  `mapstructure:"lines_per_page" yaml:"lines_per_page"`
	PDFFallbackPdftotext bool `mapstructure:"pdf_fallback_pdftotext" yaml:"pdf_fallback_pdftotext"`

	// Output.
	OutputDir  string `mapstructure:"output_dir" yaml:"output_dir"`
	FilePrefix string `mapstructure:"file_prefix" yaml:"file_prefix"`

	// Document title extraction.
	DocTitleKeywords []string `mapstructure:"doc_title_keywords" yaml:"doc_title_keywords"`
	DefaultDocTitle  string   `mapstructure:"default_doc_title" yaml:"default_doc_title"`

	// Tagging. DomainTagKeywords maps a lowercase keyword found in a title
	// to the tag it produces; TagCategories maps a category tag to the
	// keywords that imply it.
	DomainTagKeywords map[string]string   `mapstructure:"domain_tag_keywords" yaml:"domain_tag_keywords"`
	TagCategories     map[string][]string `mapstructure:"tag_categories" yaml:"tag_categories"`
}

// Default returns the built-in configuration. The values track the original
// deployment profile for USB PD specification documents; everything is
// overridable per run.
func Default() *Config {
	return &Config{
		TocSearchPageLimit: 20,
		MinTocEntries:      3,
		MaxSectionLevel:    5,

		SectionLocatorWindow:     5,
		PageGapWarningThreshold:  0,
		PageGapErrorThreshold:    5,
		TitleSimilarityThreshold: 0.7,
		StrictMode:               false,

		Workers: 4,
		Timeout: 5 * time.Minute,

		LinesPerPage:         50,
		PDFFallbackPdftotext: true,

		OutputDir:  "output",
		FilePrefix: "docstruct",

		DocTitleKeywords: []string{"specification", "power delivery", "usb"},
		DefaultDocTitle:  "Universal Serial Bus Power Delivery Specification",

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
	}
}

// Load builds the effective configuration. cfgFile may be empty, in which
// case ./docstruct.yaml and $HOME/.docstruct/docstruct.yaml are tried; a
// missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v, Default())

	v.SetEnvPrefix("DOCSTRUCT")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("docstruct")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".docstruct"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("toc_search_page_limit", d.TocSearchPageLimit)
	v.SetDefault("min_toc_entries", d.MinTocEntries)
	v.SetDefault("max_section_level", d.MaxSectionLevel)
	v.SetDefault("section_locator_window", d.SectionLocatorWindow)
	v.SetDefault("page_gap_warning_threshold", d.PageGapWarningThreshold)
	v.SetDefault("page_gap_error_threshold", d.PageGapErrorThreshold)
	v.SetDefault("title_similarity_threshold", d.TitleSimilarityThreshold)
	v.SetDefault("strict_mode", d.StrictMode)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("lines_per_page", d.LinesPerPage)
	v.SetDefault("pdf_fallback_pdftotext", d.PDFFallbackPdftotext)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("file_prefix", d.FilePrefix)
	v.SetDefault("doc_title_keywords", d.DocTitleKeywords)
	v.SetDefault("default_doc_title", d.DefaultDocTitle)
	v.SetDefault("domain_tag_keywords", d.DomainTagKeywords)
	v.SetDefault("tag_categories", d.TagCategories)
}

// Validate rejects configurations that would make the heuristics
// meaningless rather than merely unusual.
func (c *Config) Validate() error {
	if c.TocSearchPageLimit < 1 {
		return fmt.Errorf("toc_search_page_limit must be >= 1, got %d", c.TocSearchPageLimit)
	}
	if c.MinTocEntries < 0 {
		return fmt.Errorf("min_toc_entries must be >= 0, got %d", c.MinTocEntries)
	}
	if c.SectionLocatorWindow < 0 {
		return fmt.Errorf("section_locator_window must be >= 0, got %d", c.SectionLocatorWindow)
	}
	if c.TitleSimilarityThreshold < 0 || c.TitleSimilarityThreshold > 1 {
		return fmt.Errorf("title_similarity_threshold must be in [0,1], got %g", c.TitleSimilarityThreshold)
	}
	if c.PageGapErrorThreshold < c.PageGapWarningThreshold {
		return fmt.Errorf("page_gap_error_threshold (%d) must be >= page_gap_warning_threshold (%d)",
			c.PageGapErrorThreshold, c.PageGapWarningThreshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.LinesPerPage < 1 {
		return fmt.Errorf("lines_per_page must be >= 1, got %d", c.LinesPerPage)
	}
	if c.FilePrefix == "" {
		return errors.New("file_prefix must not be empty")
	}
	return nil
}

// defaultConfigHeader opens the file written by `docstruct config init`.
// The scalar values match Default(); the tag maps are appended from the
// same source so the two cannot drift apart.
const defaultConfigHeader = `# docstruct configuration.
# Every value shown is the built-in default. DOCSTRUCT_* environment
# variables override anything set here.

# ToC location and extraction.
toc_search_page_limit: 20
min_toc_entries: 3
max_section_level: 5

# Section location and validation.
section_locator_window: 5
page_gap_warning_threshold: 0
page_gap_error_threshold: 5
title_similarity_threshold: 0.7
strict_mode: false

# Run resources.
workers: 4
timeout: 5m

# Text sources.
lines_per_page: 50
pdf_fallback_pdftotext: true

# Output.
output_dir: output
file_prefix: docstruct

# Document title extraction.
doc_title_keywords:
  - specification
  - power delivery
  - usb
default_doc_title: Universal Serial Bus Power Delivery Specification

# Tagging.
`

// WriteDefault writes the built-in configuration to path as YAML. It
// refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	d := Default()
	tagging, err := yaml.Marshal(struct {
		DomainTagKeywords map[string]string   `yaml:"domain_tag_keywords"`
		TagCategories     map[string][]string `yaml:"tag_categories"`
	}{d.DomainTagKeywords, d.TagCategories})
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	data := append([]byte(defaultConfigHeader), tagging...)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
