package mola

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const patchSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["width", "height", "elevation"],
  "properties": {
    "minLat": {"type": "number"},
    "maxLat": {"type": "number"},
    "minLon": {"type": "number"},
    "maxLon": {"type": "number"},
    "width": {"type": "integer", "minimum": 1},
    "height": {"type": "integer", "minimum": 1},
    "elevation": {"type": "array", "items": {"type": "number"}},
    "resolution": {"type": "integer"},
    "dataSource": {"type": "string"}
  }
}`

const pointSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["latitude", "longitude", "elevation"],
  "properties": {
    "latitude": {"type": "number", "minimum": -90, "maximum": 90},
    "longitude": {"type": "number"},
    "elevation": {"type": "number"},
    "source": {"type": "string"}
  }
}`

var (
	patchSchema = jsonschema.MustCompileString("mola/patch.json", patchSchemaJSON)
	pointSchema = jsonschema.MustCompileString("mola/point.json", pointSchemaJSON)
)

func validate(s *jsonschema.Schema, body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return s.Validate(v)
}
