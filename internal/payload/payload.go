// internal/payload/payload.go
// Package payload validates and decodes the structured content embedded in a
// completion-service response.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/canonry/internal/completion"
)

// FinishReasonStop is the only completion status whose content is trusted.
// Anything else (length truncation, content filtering) can leave the embedded
// JSON cut off mid-document, so it is rejected before decoding.
const FinishReasonStop = "stop"

var (
	// ErrNonSuccessCompletion marks a response whose finish reason was not "stop".
	ErrNonSuccessCompletion = errors.New("payload: completion finished for a non-success reason")
	// ErrMalformedResponse marks content that does not decode into the expected object shape.
	ErrMalformedResponse = errors.New("payload: malformed response content")
	// ErrSchemaMismatch marks decoded rows that do not have exactly two string fields.
	ErrSchemaMismatch = errors.New("payload: row shape mismatch")
)

// Pair is one decoded result row: the original item and its derived value.
type Pair struct {
	Original string
	Derived  string
}

// rowsSchema validates the decoded array: every element must be an array of
// exactly two strings.
var rowsSchema = gojsonschema.NewGoLoader(map[string]any{
	"type": "array",
	"items": map[string]any{
		"type":     "array",
		"items":    map[string]any{"type": "string"},
		"minItems": 2,
		"maxItems": 2,
	},
})

// Decode validates the completion status and decodes the message content as
// one object holding an array of 2-element pairs under the given key. The
// decode is two-stage: the content string is itself a JSON document, and its
// pair array is checked against a schema before any row is accepted.
func Decode(resp completion.Response, key string) ([]Pair, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", ErrMalformedResponse)
	}
	choice := resp.Choices[0]
	if choice.FinishReason != FinishReasonStop {
		return nil, fmt.Errorf("%w: finish_reason=%q", ErrNonSuccessCompletion, choice.FinishReason)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(choice.Message.Content), &envelope); err != nil {
		return nil, fmt.Errorf("%w: content is not a JSON object: %v", ErrMalformedResponse, err)
	}
	raw, ok := envelope[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing key %q", ErrMalformedResponse, key)
	}

	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, fmt.Errorf("%w: key %q does not hold an array: %v", ErrMalformedResponse, key, err)
	}

	result, err := gojsonschema.Validate(rowsSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: schema validation: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrSchemaMismatch, firstSchemaError(result))
	}

	var rows [][]string
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	pairs := make([]Pair, len(rows))
	for i, row := range rows {
		pairs[i] = Pair{Original: row[0], Derived: row[1]}
	}
	return pairs, nil
}

func firstSchemaError(result *gojsonschema.Result) string {
	for _, desc := range result.Errors() {
		return desc.String()
	}
	return "invalid document"
}
