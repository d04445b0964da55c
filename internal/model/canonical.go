package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// MarshalMeta produces the canonical JSON stored in the meta column.
//
// Canonical form:
//  1. Object keys sorted (byte order)
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Change values limited to strings and integers
//
// A nil or empty Meta marshals to the empty string.
func MarshalMeta(m *Meta) (string, error) {
	if m == nil || (m.Origin == "" && len(m.Changes) == 0) {
		return "", nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	wrote := false

	if len(m.Changes) > 0 {
		buf.WriteString(`"changes":{`)
		keys := make([]string, 0, len(m.Changes))
		for k := range m.Changes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(&buf, k); err != nil {
				return "", err
			}
			ch := m.Changes[k]
			buf.WriteString(`:{"after":`)
			if err := writeCanonicalScalar(&buf, ch.After); err != nil {
				return "", fmt.Errorf("change %q after: %w", k, err)
			}
			buf.WriteString(`,"before":`)
			if err := writeCanonicalScalar(&buf, ch.Before); err != nil {
				return "", fmt.Errorf("change %q before: %w", k, err)
			}
			buf.WriteByte('}')
		}
		buf.WriteByte('}')
		wrote = true
	}

	if m.Origin != "" {
		if wrote {
			buf.WriteByte(',')
		}
		buf.WriteString(`"origin":`)
		if err := writeCanonicalString(&buf, m.Origin); err != nil {
			return "", err
		}
	}

	buf.WriteByte('}')
	return buf.String(), nil
}

// UnmarshalMeta parses a stored meta column. Empty input yields nil.
// Numbers decode as int64 so threshold changes round-trip exactly.
func UnmarshalMeta(data string) (*Meta, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}

	var raw struct {
		Origin  string `json:"origin"`
		Changes map[string]struct {
			Before json.RawMessage `json:"before"`
			After  json.RawMessage `json:"after"`
		} `json:"changes"`
	}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal meta: %w", err)
	}

	m := &Meta{Origin: raw.Origin}
	if len(raw.Changes) > 0 {
		m.Changes = make(map[string]FieldChange, len(raw.Changes))
		for k, ch := range raw.Changes {
			before, err := decodeScalar(ch.Before)
			if err != nil {
				return nil, fmt.Errorf("unmarshal meta change %q: %w", k, err)
			}
			after, err := decodeScalar(ch.After)
			if err != nil {
				return nil, fmt.Errorf("unmarshal meta change %q: %w", k, err)
			}
			m.Changes[k] = FieldChange{Before: before, After: after}
		}
	}
	return m, nil
}

func writeCanonicalScalar(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case string:
		return writeCanonicalString(buf, val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case int32:
		fmt.Fprintf(buf, "%d", val)
	default:
		return fmt.Errorf("unsupported change value type: %T", v)
	}
	return nil
}

// writeCanonicalString writes s as a JSON string with NFC normalization
// and HTML escaping disabled.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// json.Encoder adds a trailing newline
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

func decodeScalar(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %s", val)
		}
		return n, nil
	case string:
		return val, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported change value %T", v)
	}
}
