package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSON Schemas for the three record files. Every emitted line is checked
// against its schema before writing; a failing record is still written but
// logged and counted, so a schema slip never loses data.
const (
	tocSchemaJSON = `{
  "type": "object",
  "properties": {
    "doc_title": {"type": "string"},
    "section_id": {"type": "string", "pattern": "^\\d+(\\.\\d+)*$"},
    "title": {"type": "string", "minLength": 1},
    "page": {"type": ["integer", "null"], "minimum": 1},
    "level": {"type": "integer", "minimum": 1, "maximum": 8},
    "parent_id": {"type": ["string", "null"]},
    "full_path": {"type": "string", "minLength": 1},
    "tags": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["doc_title", "section_id", "title", "page", "level", "parent_id", "full_path"],
  "additionalProperties": false
}`

	sectionSchemaJSON = `{
  "type": "object",
  "properties": {
    "doc_title": {"type": "string"},
    "section_id": {"type": "string", "pattern": "^\\d+(\\.\\d+)*$"},
    "title": {"type": "string", "minLength": 1},
    "page": {"type": ["integer", "null"], "minimum": 1},
    "level": {"type": "integer", "minimum": 1, "maximum": 8},
    "parent_id": {"type": ["string", "null"]},
    "full_path": {"type": "string", "minLength": 1},
    "tags": {"type": "array", "items": {"type": "string"}},
    "content_start": {"type": "integer", "minimum": 1},
    "content_end": {"type": ["integer", "null"], "minimum": 1},
    "has_tables": {"type": "boolean"},
    "has_figures": {"type": "boolean"},
    "word_count": {"type": "integer", "minimum": 0},
    "content_preview": {"type": "string"}
  },
  "required": ["doc_title", "section_id", "title", "page", "level", "parent_id", "full_path", "content_start", "content_end"],
  "additionalProperties": false
}`

	metadataSchemaJSON = `{
  "type": "object",
  "properties": {
    "doc_title": {"type": "string"},
    "total_pages": {"type": "integer", "minimum": 1},
    "total_sections": {"type": "integer", "minimum": 0},
    "total_tables": {"type": "integer", "minimum": 0},
    "total_figures": {"type": "integer", "minimum": 0},
    "max_level": {"type": "integer", "minimum": 1},
    "sections_by_level": {"type": "object", "additionalProperties": {"type": "integer", "minimum": 0}},
    "parsing_timestamp": {"type": "string", "format": "date-time"},
    "source_file_size": {"type": "integer", "minimum": 0},
    "run_id": {"type": "string"},
    "degraded_mode": {"type": "boolean"},
    "toc_start_page": {"type": "integer", "minimum": 1},
    "toc_end_page": {"type": "integer", "minimum": 1},
    "extraction_misses": {"type": "integer", "minimum": 0},
    "parsing_errors": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["doc_title", "total_pages", "total_sections", "parsing_timestamp"],
  "additionalProperties": false
}`
)

// Schemas holds the compiled record schemas for one writer or checker.
type Schemas struct {
	Toc      *jsonschema.Schema
	Section  *jsonschema.Schema
	Metadata *jsonschema.Schema
}

// CompileSchemas compiles the embedded schema documents. Compilation can
// only fail if the documents themselves are broken, so callers treat an
// error as a programming defect rather than bad input.
func CompileSchemas() (*Schemas, error) {
	compiler := jsonschema.NewCompiler()

	docs := map[string]string{
		"toc.schema.json":      tocSchemaJSON,
		"section.schema.json":  sectionSchemaJSON,
		"metadata.schema.json": metadataSchemaJSON,
	}
	for name, doc := range docs {
		if err := compiler.AddResource(name, strings.NewReader(doc)); err != nil {
			return nil, fmt.Errorf("loading schema %s: %w", name, err)
		}
	}

	var s Schemas
	var err error
	if s.Toc, err = compiler.Compile("toc.schema.json"); err != nil {
		return nil, fmt.Errorf("compiling toc schema: %w", err)
	}
	if s.Section, err = compiler.Compile("section.schema.json"); err != nil {
		return nil, fmt.Errorf("compiling section schema: %w", err)
	}
	if s.Metadata, err = compiler.Compile("metadata.schema.json"); err != nil {
		return nil, fmt.Errorf("compiling metadata schema: %w", err)
	}
	return &s, nil
}

// validateRecord marshals the record and checks it against the schema.
// The returned bytes are the exact line content to write, so validation
// and serialization cannot drift apart.
func validateRecord(schema *jsonschema.Schema, record any) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshaling record: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return data, fmt.Errorf("decoding record for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return data, err
	}
	return data, nil
}
