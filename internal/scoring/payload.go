package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrEmptyContent indicates an extraction payload with no usable text.
var ErrEmptyContent = errors.New("extracted content is empty")

// ChapterContext carries the chapter metadata the extraction collaborator
// attaches to each payload.
type ChapterContext struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SourceText is one extracted input (a document, a transcript) before merging.
type SourceText struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Text   string `json:"text"`
}

// Payload is the structured content produced by the external extraction
// collaborator for one submission. All agents read the same payload.
type Payload struct {
	ChapterContext ChapterContext `json:"chapter_context"`
	CombinedText   string         `json:"combined_text"`
	PerSourceTexts []SourceText   `json:"per_source_texts"`
}

const payloadSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["combined_text"],
  "properties": {
    "chapter_context": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "description": {"type": "string"}
      }
    },
    "combined_text": {"type": "string"},
    "per_source_texts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text"],
        "properties": {
          "source": {"type": "string"},
          "kind": {"type": "string"},
          "text": {"type": "string"}
        }
      }
    }
  }
}`

var payloadSchema = jsonschema.MustCompileString("extraction_payload.json", payloadSchemaJSON)

// ParsePayload validates raw extraction output against the payload schema and
// decodes it. The extraction collaborator is external, so its output is
// treated as untrusted.
func ParsePayload(raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, fmt.Errorf("extraction payload is empty")
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Payload{}, fmt.Errorf("decode extraction payload: %w", err)
	}
	if err := payloadSchema.Validate(generic); err != nil {
		return Payload{}, fmt.Errorf("invalid extraction payload: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Payload{}, fmt.Errorf("decode extraction payload: %w", err)
	}
	return payload, nil
}

// Text returns the trimmed combined text of the payload.
func (p Payload) Text() string {
	return strings.TrimSpace(p.CombinedText)
}
