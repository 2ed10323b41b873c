package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Client-originated messages are schema-validated before they touch the
// world loop. Server-originated messages are ours and skip validation.

const helloSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "protocol_version", "player_name"],
  "properties": {
    "type": {"const": "HELLO"},
    "protocol_version": {"type": "string"},
    "player_name": {"type": "string", "minLength": 1, "maxLength": 64}
  }
}`

const inputSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "protocol_version"],
  "properties": {
    "type": {"const": "INPUT"},
    "protocol_version": {"type": "string"},
    "forward": {"type": "number", "minimum": -1, "maximum": 1},
    "strafe": {"type": "number", "minimum": -1, "maximum": 1},
    "jump": {"type": "boolean"},
    "climb": {"type": "boolean"}
  }
}`

var (
	helloSchema = jsonschema.MustCompileString("hello.schema.json", helloSchemaJSON)
	inputSchema = jsonschema.MustCompileString("input.schema.json", inputSchemaJSON)
)

func ValidateHello(raw []byte) error { return validate(helloSchema, raw) }
func ValidateInput(raw []byte) error { return validate(inputSchema, raw) }

func validate(s *jsonschema.Schema, raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("validate message: %w", err)
	}
	return nil
}
