package api

import (
	"encoding/json"
	"io"

	goerrors "github.com/goliatone/go-errors"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const askRequestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "prompt": {"type": "string"}
  },
  "required": ["prompt"],
  "additionalProperties": false
}`

var askSchema = jsonschema.MustCompileString("https://salesdesk.local/schemas/ask_request.json", askRequestSchema)

// decodeJSON checks the body against schema before decoding it into dst.
func decodeJSON(r io.Reader, schema *jsonschema.Schema, dst any) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read request body").WithTextCode("BAD_JSON")
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").WithTextCode("BAD_JSON")
	}
	if err := schema.Validate(v); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "request body does not match schema").
			WithTextCode("BAD_REQUEST_BODY")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").WithTextCode("BAD_JSON")
	}
	return nil
}
