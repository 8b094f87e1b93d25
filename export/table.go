package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// fallbackColumn is the single column used when output is not structured
// JSON. The json writer wraps plain text under the same key.
const fallbackColumn = "ai_output"

// Table is the flat form of rewritten output consumed by the csv and xlsx
// writers.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Rows interprets rewritten output as tabular data. A JSON array of objects
// becomes one row per object with columns in first-appearance order, a JSON
// object becomes a single row, and any other JSON value collapses to a
// single cell. Text that is not JSON at all lands unmodified in one
// fallbackColumn cell, so the coercion never fails.
func Rows(output string) Table {
	text := stripFence(strings.TrimSpace(output))
	switch {
	case strings.HasPrefix(text, "["):
		if t, ok := tableFromList(text); ok {
			return t
		}
	case strings.HasPrefix(text, "{"):
		if t, ok := tableFromObject(text); ok {
			return t
		}
	}
	if v, ok := decodeValue(text); ok {
		return Table{Columns: []string{fallbackColumn}, Rows: [][]string{{cell(v)}}}
	}
	return Table{Columns: []string{fallbackColumn}, Rows: [][]string{{output}}}
}

// stripFence removes a surrounding markdown code fence, which chat models
// routinely wrap around JSON they were asked to produce.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	rest := text[3:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return text
	}
	rest = strings.TrimSpace(rest[nl+1:])
	rest = strings.TrimSuffix(rest, "```")
	return strings.TrimSpace(rest)
}

// tableFromList turns a JSON array of objects into a multi-row table. The
// column set is the union of all keys, ordered by first appearance, and
// missing keys leave empty cells. Arrays holding anything besides objects
// report false.
func tableFromList(text string) (Table, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return Table{}, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return Table{}, false
	}

	var (
		columns []string
		index   = make(map[string]int)
		records []map[string]any
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Table{}, false
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return Table{}, false
		}
		vals, keys, err := decodeObjectBody(dec)
		if err != nil {
			return Table{}, false
		}
		for _, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(columns)
				columns = append(columns, k)
			}
		}
		records = append(records, vals)
	}
	if _, err := dec.Token(); err != nil {
		return Table{}, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Table{}, false
	}
	if len(records) == 0 {
		return Table{}, false
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(columns))
		for k, v := range rec {
			row[index[k]] = cell(v)
		}
		rows[i] = row
	}
	return Table{Columns: columns, Rows: rows}, true
}

// tableFromObject turns a single JSON object into a one-row table with
// columns in key order.
func tableFromObject(text string) (Table, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return Table{}, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Table{}, false
	}
	vals, keys, err := decodeObjectBody(dec)
	if err != nil {
		return Table{}, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Table{}, false
	}
	if len(keys) == 0 {
		return Table{}, false
	}

	row := make([]string, len(keys))
	for i, k := range keys {
		row[i] = cell(vals[k])
	}
	return Table{Columns: keys, Rows: [][]string{row}}, true
}

// decodeObjectBody reads object members after the opening brace has been
// consumed, preserving key order. Column layout follows the order keys
// appear in the model's output.
func decodeObjectBody(dec *json.Decoder) (map[string]any, []string, error) {
	vals := make(map[string]any)
	var keys []string
	for dec.More() {
		ktok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		k, ok := ktok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("object key %v", ktok)
		}
		v, err := decodeAny(dec)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := vals[k]; !dup {
			keys = append(keys, k)
		}
		vals[k] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return vals, keys, nil
}

// decodeAny reads one JSON value from dec. Objects and arrays come back as
// map[string]any and []any, leaf tokens pass through as delivered by the
// decoder (string, json.Number, bool, nil).
func decodeAny(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		vals, _, err := decodeObjectBody(dec)
		return vals, err
	case '[':
		var arr []any
		for dec.More() {
			v, err := decodeAny(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", d)
	}
}

// decodeValue parses text as a single complete JSON value with nothing
// trailing. Numbers stay json.Number so cell can render them without float
// conversion.
func decodeValue(text string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return v, true
}

// cell renders one JSON value as a table cell. Strings stay verbatim,
// numbers keep their source representation, composite values collapse to
// compact JSON.
func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
