package sampvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ToJSON serializes v to the SAMP JSON surface: double-quoted strings
// only, arrays, and objects — no bare numbers, booleans, or null. When
// multiline is true the output is indented two spaces per level for
// readability; otherwise it is compact. Object keys are emitted in the
// mapping's insertion order.
func ToJSON(v Value, multiline bool) ([]byte, error) {
	if err := Validate(v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	if !multiline {
		return buf.Bytes(), nil
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return indented.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch t := v.(type) {
	case String:
		b, err := json.Marshal(string(t))
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	case List:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case *Map:
		buf.WriteByte('{')
		for i, k := range t.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			val, _ := t.Get(k)
			if err := writeJSON(buf, val); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return &MalformedValue{Reason: fmt.Sprintf("unsupported value type %T", v)}
	}
}

// FromJSON parses text as a SAMP value, preserving object key order so
// that Validate(FromJSON(ToJSON(v))) round-trips identically to v. Only
// JSON strings, arrays, and objects are accepted; a bare number,
// boolean, or null anywhere is a MalformedValue.
func FromJSON(text []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	v, err := decodeValue(dec, "$")
	if err != nil {
		return nil, err
	}
	if err := Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder, path string) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON at %s: %w", path, err)
	}
	return decodeFromToken(dec, tok, path)
}

func decodeFromToken(dec *json.Decoder, tok json.Token, path string) (Value, error) {
	switch t := tok.(type) {
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			out := List{}
			i := 0
			for dec.More() {
				v, err := decodeValue(dec, fmt.Sprintf("%s[%d]", path, i))
				if err != nil {
					return nil, err
				}
				out = append(out, v)
				i++
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return out, nil
		case '{':
			out := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, &MalformedValue{Path: path, Reason: "object key is not a string"}
				}
				v, err := decodeValue(dec, path+"."+key)
				if err != nil {
					return nil, err
				}
				out.Set(key, v)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return out, nil
		default:
			return nil, &MalformedValue{Path: path, Reason: fmt.Sprintf("unexpected delimiter %v", t)}
		}
	case nil:
		return nil, &MalformedValue{Path: path, Reason: "null is not a valid SAMP value"}
	default:
		return nil, &MalformedValue{Path: path, Reason: fmt.Sprintf("bare %T is not a valid SAMP value", tok)}
	}
}
