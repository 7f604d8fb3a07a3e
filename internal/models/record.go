// Package models holds the data types shared between the fetcher, the sheet
// writer and the API server.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags the scalar variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	// KindRaw carries a nested object or array as its raw JSON text. Records
	// are expected to be flat, but a nested value must not fail a sync.
	KindRaw
)

// Value is one scalar cell value. Numbers keep their JSON literal so that
// they render back exactly as the API sent them.
type Value struct {
	Kind Kind
	Str  string
	Bool bool
}

func NullValue() Value              { return Value{Kind: KindNull} }
func StringValue(s string) Value    { return Value{Kind: KindString, Str: s} }
func NumberValue(lit string) Value  { return Value{Kind: KindNumber, Str: lit} }
func BoolValue(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func RawValue(rawJSON string) Value { return Value{Kind: KindRaw, Str: rawJSON} }

// String returns the rendering form of the value: null renders empty,
// booleans render as true/false, numbers render their literal.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// Record is one row of fetched tabular data: an ordered mapping from field
// name to scalar value. Field order follows JSON object key order, which is
// what defines the column order of the rendered sheet.
type Record struct {
	keys   []string
	values map[string]Value
}

// Set appends a new field or overwrites an existing one in place.
func (r *Record) Set(name string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = v
}

// Get returns the value of a field and whether the field exists.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Keys returns the field names in insertion order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

func (r Record) Len() int {
	return len(r.keys)
}

// UnmarshalJSON decodes a JSON object preserving key order, which the
// standard map decoding would lose.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}
	r.keys = nil
	r.values = make(map[string]Value)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		v, err := valueFromRaw(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		r.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the record with fields in insertion order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		v := r.values[key]
		switch v.Kind {
		case KindNull:
			buf.WriteString("null")
		case KindString:
			sb, err := json.Marshal(v.Str)
			if err != nil {
				return nil, err
			}
			buf.Write(sb)
		case KindBool:
			buf.WriteString(strconv.FormatBool(v.Bool))
		default: // KindNumber and KindRaw are already valid JSON text
			buf.WriteString(v.Str)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func valueFromRaw(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Value{}, fmt.Errorf("empty value")
	}
	switch trimmed[0] {
	case 'n':
		return NullValue(), nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case '{', '[':
		return RawValue(string(trimmed)), nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return Value{}, err
		}
		return NumberValue(n.String()), nil
	}
}
