package aspect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ConversionError reports a payload that could not be converted between
// its stored form and a typed value. Never retried: the data is malformed.
type ConversionError struct {
	Aspect string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert aspect %q: %v", e.Aspect, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Marshal serializes a value to the JSON TEXT stored in the metadata column.
// HTML escaping is disabled so the stored form round-trips byte-identically.
func Marshal(v Value) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", &ConversionError{Aspect: v.AspectName(), Err: err}
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// Unmarshal parses stored JSON TEXT back into the registered type for name.
func Unmarshal(r *Registry, name, data string) (Value, error) {
	v, err := r.New(name)
	if err != nil {
		return nil, &ConversionError{Aspect: name, Err: err}
	}

	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return nil, &ConversionError{Aspect: name, Err: err}
	}
	return v, nil
}

// FieldValue resolves a /-separated path against a value's JSON form and
// returns the leaf as a Go scalar: string, bool, int64 or float64.
// Integral JSON numbers come back as int64, fractional ones as float64,
// so the index can pick its typed column. Paths that do not resolve to a
// scalar return ok=false; that is not an error, the field is just absent.
func FieldValue(v Value, path string) (any, bool) {
	data, err := Marshal(v)
	if err != nil {
		return nil, false
	}

	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, false
	}

	node := root
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment == "" {
			continue
		}
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}

	switch leaf := node.(type) {
	case string:
		return leaf, true
	case bool:
		return leaf, true
	case json.Number:
		if i, err := leaf.Int64(); err == nil {
			return i, true
		}
		if f, err := leaf.Float64(); err == nil {
			return f, true
		}
		return nil, false
	default:
		// Objects, arrays and nulls are not indexable scalars.
		return nil, false
	}
}
