// Package jsonfmt implements adapter.Adapter for JSON input: a parsed
// object becomes one row of key/value pairs, a one-level array of objects
// flattens to one row per object, and an array of scalars becomes a single
// row of stringified values. As with xmlfmt, and unlike csvfmt and tsvfmt,
// a malformed document is surfaced as an error rather than silently dropped.
package jsonfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Adapter parses a single JSON document.
type Adapter struct{}

// New returns a JSON adapter.
func New() Adapter { return Adapter{} }

type kv struct {
	key string
	val interface{}
}

type object []kv

// Parse implements adapter.Adapter.
func (Adapter) Parse(data []byte) ([][]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	value, err := parseValue(dec)
	if err != nil {
		return nil, fmt.Errorf("jsonfmt: parse: %w", err)
	}

	switch v := value.(type) {
	case object:
		row := make([]string, 0, len(v)*2)
		for _, pair := range v {
			row = append(row, pair.key, stringify(pair.val))
		}
		return [][]string{row}, nil

	case []interface{}:
		return flattenArray(v), nil

	default:
		return [][]string{{stringify(v)}}, nil
	}
}

func flattenArray(arr []interface{}) [][]string {
	if len(arr) == 0 {
		return nil
	}
	if _, ok := arr[0].(object); ok {
		rows := make([][]string, 0, len(arr))
		for _, el := range arr {
			obj, ok := el.(object)
			if !ok {
				continue
			}
			row := make([]string, 0, len(obj))
			for _, pair := range obj {
				row = append(row, stringify(pair.val))
			}
			rows = append(rows, row)
		}
		return rows
	}

	row := make([]string, 0, len(arr))
	for _, el := range arr {
		row = append(row, stringify(el))
	}
	return [][]string{row}
}

func parseValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := object{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			val, err := parseValue(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, kv{key: key, val: val})
		}
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, err
		}
		return obj, nil

	case '[':
		var arr []interface{}
		for dec.More() {
			val, err := parseValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil { // consume ']'
			return nil, err
		}
		return arr, nil

	default:
		return nil, fmt.Errorf("jsonfmt: unexpected delimiter %v", delim)
	}
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case object:
		b, err := json.Marshal(toPlain(t))
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	case []interface{}:
		plain := make([]interface{}, len(t))
		for i, el := range t {
			plain[i] = toPlain(el)
		}
		b, err := json.Marshal(plain)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

func toPlain(v interface{}) interface{} {
	switch t := v.(type) {
	case object:
		m := make(map[string]interface{}, len(t))
		for _, pair := range t {
			m[pair.key] = toPlain(pair.val)
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, el := range t {
			out[i] = toPlain(el)
		}
		return out
	default:
		return t
	}
}
