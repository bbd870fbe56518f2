package rotator

import (
	"bytes"

	"github.com/prebid/prebid-banners/errortypes"
	"github.com/xeipuuv/gojsonschema"
)

// configSchema describes a banner record after an admin patch has been merged into it.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "type": "object",
  "properties": {
    "href": {"type": "string", "minLength": 1},
    "views": {
      "type": "object",
      "properties": {
        "remains": {"type": "integer", "minimum": 0},
        "max": {"type": "integer", "minimum": 0}
      },
      "required": ["remains", "max"],
      "additionalProperties": false
    },
    "default_count": {"type": "integer", "minimum": 0}
  },
  "required": ["href", "views", "default_count"],
  "additionalProperties": false
}`

var parsedConfigSchema = mustLoadSchema(configSchema)

func mustLoadSchema(schema string) *gojsonschema.Schema {
	loaded, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic("banner config schema does not load: " + err.Error())
	}
	return loaded
}

func validateSchema(record []byte) error {
	result, err := parsedConfigSchema.Validate(gojsonschema.NewBytesLoader(record))
	if err != nil {
		return &errortypes.BadInput{Message: "banner config is not valid JSON: " + err.Error()}
	}
	if !result.Valid() {
		errBuilder := bytes.NewBuffer(make([]byte, 0, 300))
		for i, err := range result.Errors() {
			if i > 0 {
				errBuilder.WriteString("; ")
			}
			errBuilder.WriteString(err.String())
		}
		return &errortypes.BadInput{Message: errBuilder.String()}
	}
	return nil
}
