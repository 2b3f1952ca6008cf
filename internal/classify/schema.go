package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/JaimeStill/verbatim/pkg/formatting"
)

const entrySchema = `{
  "type": "object",
  "required": ["id", "results"],
  "properties": {
    "id": {"type": "integer"},
    "results": {"type": "array"}
  }
}`

const resultSchema = `{
  "type": "object",
  "properties": {
    "text": {"type": ["string", "null"]},
    "sentiment": {"type": ["string", "null"]},
    "category": {"type": ["string", "null"]},
    "related_unit": {"type": ["string", "null"]},
    "suggestion": {"type": ["boolean", "null"]}
  }
}`

var (
	entryValidator  = compileSchema("entry.json", entrySchema)
	resultValidator = compileSchema("result.json", resultSchema)
)

func compileSchema(name, source string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
		panic(fmt.Sprintf("load %s: %v", name, err))
	}
	s, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile %s: %v", name, err))
	}
	return s
}

// Decoded is classifier output after validation. Entries and results that
// failed validation are left out of Results and described in Rejected.
type Decoded struct {
	Results  []ItemResult
	Rejected []string
}

// Decode parses classifier output into item results. The content may be a
// bare array or an object wrapping the array under "results", optionally in
// a markdown code fence or surrounded by prose.
//
// Only content that holds no result array fails with ErrMalformed. Each item
// entry and each of its results is validated on its own; invalid ones are
// dropped so the affected items fall through to placeholders downstream.
func Decode(content string) (*Decoded, error) {
	raw, err := formatting.Parse[json.RawMessage](content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if obj, ok := doc.(map[string]any); ok {
		doc = obj["results"]
	}

	entries, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: no result array in response", ErrMalformed)
	}

	decoded := &Decoded{Results: make([]ItemResult, 0, len(entries))}
	for i, entry := range entries {
		result, rejected := decodeEntry(i, entry)
		decoded.Rejected = append(decoded.Rejected, rejected...)
		if result != nil {
			decoded.Results = append(decoded.Results, *result)
		}
	}

	return decoded, nil
}

func decodeEntry(index int, entry any) (*ItemResult, []string) {
	if err := entryValidator.Validate(entry); err != nil {
		return nil, []string{fmt.Sprintf("entry %d: %v", index, err)}
	}

	obj := entry.(map[string]any)
	num, ok := obj["id"].(json.Number)
	if !ok {
		return nil, []string{fmt.Sprintf("entry %d: id is not a number", index)}
	}
	id, err := num.Int64()
	if err != nil {
		return nil, []string{fmt.Sprintf("entry %d: id: %v", index, err)}
	}

	result := &ItemResult{ItemID: id, Results: []Result{}}

	var rejected []string
	for j, tuple := range obj["results"].([]any) {
		r, err := decodeResult(tuple)
		if err != nil {
			rejected = append(rejected, fmt.Sprintf("item %d result %d: %v", id, j, err))
			continue
		}
		result.Results = append(result.Results, r)
	}

	return result, rejected
}

func decodeResult(tuple any) (Result, error) {
	var r Result
	if err := resultValidator.Validate(tuple); err != nil {
		return r, err
	}

	data, err := json.Marshal(tuple)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, err
	}
	return r, nil
}

func logRejected(logger *slog.Logger, rejected []string) {
	if len(rejected) == 0 {
		return
	}
	logger.Warn(
		"dropped invalid classifier entries",
		"count", len(rejected),
		"first", rejected[0],
	)
}
