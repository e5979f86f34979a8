package dataflow

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
)

// readJSON reads a JSON upload into a table of text cells. The contract
// records path (a JSONPath expression, "$" by default) locates the row
// array, so exports that nest their records under an envelope still
// parse.
func readJSON(name, path, recordsPath string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}

	jval, err := jsonpath.Get(recordsPath, doc)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: fmt.Errorf("records path %q: %w", recordsPath, err)}
	}

	records, ok := jval.([]any)
	if !ok {
		return nil, &DecodeError{Name: name, Err: fmt.Errorf("records path %q does not select an array", recordsPath)}
	}

	// Column order is first-seen across records, keys sorted within
	// each record so the resulting artifacts are reproducible.
	var names []string
	seen := make(map[string]bool)
	objects := make([]map[string]any, 0, len(records))
	for i, rec := range records {
		obj, ok := rec.(map[string]any)
		if !ok {
			return nil, &DecodeError{Name: name, Err: fmt.Errorf("record %d is not an object", i)}
		}
		objects = append(objects, obj)
		keys := make([]string, 0, len(obj))
		for key := range obj {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				names = append(names, key)
			}
		}
	}

	t := NewTable()
	for _, col := range names {
		if dropHeader(col) {
			continue
		}
		cells := make([]Value, len(objects))
		for j, obj := range objects {
			cells[j] = jsonCell(obj[col])
		}
		t.AddColumn(col, cells)
	}
	return t, nil
}

// jsonCell renders a decoded JSON scalar as a text cell, so the
// coercion engine sees the same raw strings regardless of the source
// format.
func jsonCell(v any) Value {
	switch x := v.(type) {
	case nil:
		return NullValue(Text)
	case string:
		return cellValue(x)
	case float64:
		return TextValue(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		return TextValue(strconv.FormatBool(x))
	default:
		// Nested arrays/objects are not tabular; keep their JSON text.
		raw, err := json.Marshal(x)
		if err != nil {
			return NullValue(Text)
		}
		return TextValue(string(raw))
	}
}
