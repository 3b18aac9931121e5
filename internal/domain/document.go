package domain

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema is the JSON Schema that structured generation output must
// satisfy before it is handed to a rendering adapter. Providers frequently
// return almost-right shapes; validating here keeps rendering simple.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "sections"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "subtitle": {"type": "string"},
    "summary": {"type": "string"},
    "sections": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["heading", "body"],
        "properties": {
          "heading": {"type": "string", "minLength": 1},
          "body": {"type": "string"},
          "items": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var documentSchemaLoader = gojsonschema.NewStringLoader(documentSchema)

// ValidateDocument validates structured generation output against the
// document schema. A nil map is rejected.
func ValidateDocument(m map[string]interface{}) error {
	if m == nil {
		return fmt.Errorf("document is empty")
	}

	res, err := gojsonschema.Validate(documentSchemaLoader, gojsonschema.NewGoLoader(m))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}
