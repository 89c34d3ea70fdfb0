package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Elements is an insertion-ordered map of element key to Element.
// Rendering walks the keys in order, so the order is part of the value.
type Elements struct {
	keys   []string
	values map[string]Element
}

// NewElements creates an empty element map
func NewElements() *Elements {
	return &Elements{values: make(map[string]Element)}
}

// Set stores el under key. New keys are appended; existing keys keep their position.
func (e *Elements) Set(key string, el Element) {
	if e.values == nil {
		e.values = make(map[string]Element)
	}
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = el
}

// Get returns the element stored under key.
func (e *Elements) Get(key string) (Element, bool) {
	if e == nil || e.values == nil {
		return nil, false
	}
	el, ok := e.values[key]
	return el, ok
}

// Delete removes key and reports whether it was present.
func (e *Elements) Delete(key string) bool {
	if _, ok := e.Get(key); !ok {
		return false
	}
	delete(e.values, key)
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i:i], e.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (e *Elements) Keys() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.keys...)
}

// Len returns the number of elements
func (e *Elements) Len() int {
	if e == nil {
		return 0
	}
	return len(e.keys)
}

// Bullets returns the bullets stored under key, if that key holds bullets.
func (e *Elements) Bullets(key string) (*Bullets, bool) {
	el, ok := e.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := el.(*Bullets)
	return b, ok
}

// Clone returns a deep copy.
func (e *Elements) Clone() *Elements {
	out := NewElements()
	if e == nil {
		return out
	}
	data, err := json.Marshal(e)
	if err != nil {
		// Every variant marshals; reaching this is a programming error.
		panic(fmt.Sprintf("model: cloning elements: %v", err))
	}
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("model: cloning elements: %v", err))
	}
	return out
}

// Equal reports whether both maps hold the same keys in the same order with
// identical values.
func (e *Elements) Equal(other *Elements) bool {
	a, errA := json.Marshal(e)
	b, errB := json.Marshal(other)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// MarshalJSON encodes the map as a JSON object in insertion order.
func (e *Elements) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if e != nil {
		for i, key := range e.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			v, err := EncodeElement(e.values[key])
			if err != nil {
				return nil, fmt.Errorf("element %q: %w", key, err)
			}
			buf.Write(v)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the key order of the input.
func (e *Elements) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("elements: expected object")
	}
	e.keys = nil
	e.values = make(map[string]Element)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("elements: expected string key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("element %q: %w", key, err)
		}
		el, err := DecodeElement(raw)
		if err != nil {
			return fmt.Errorf("element %q: %w", key, err)
		}
		e.Set(key, el)
	}
	_, err = dec.Token()
	return err
}

// EncodeElement returns the JSON form of an element: text as a string,
// bullets as an array of {text, level} objects, and every other kind as an
// object carrying a "kind" discriminator.
func EncodeElement(el Element) ([]byte, error) {
	switch v := el.(type) {
	case *Text:
		return json.Marshal(v.Value)
	case *Bullets:
		items := v.Items
		if items == nil {
			items = []BulletItem{}
		}
		return json.Marshal(items)
	case *Table, *Chart, *Image, *Textbox:
		body, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return withKind(el.Kind(), body), nil
	case nil:
		return nil, fmt.Errorf("nil element")
	default:
		return nil, fmt.Errorf("unsupported element type %T", el)
	}
}

func withKind(kind ElementKind, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"kind":"`)
	buf.WriteString(string(kind))
	buf.WriteByte('"')
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// DecodeElement is the inverse of EncodeElement. Bullet arrays may also hold
// plain strings, which decode as level-0 items.
func DecodeElement(raw []byte) (Element, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty element")
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &Text{Value: s}, nil
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, err
		}
		b := &Bullets{Items: make([]BulletItem, 0, len(entries))}
		for i, entry := range entries {
			entry = bytes.TrimSpace(entry)
			var item BulletItem
			if len(entry) > 0 && entry[0] == '"' {
				if err := json.Unmarshal(entry, &item.Text); err != nil {
					return nil, fmt.Errorf("bullet %d: %w", i, err)
				}
			} else if err := json.Unmarshal(entry, &item); err != nil {
				return nil, fmt.Errorf("bullet %d: %w", i, err)
			}
			b.Items = append(b.Items, item)
		}
		return b, nil
	case '{':
		var head struct {
			Kind ElementKind `json:"kind"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, err
		}
		var el Element
		switch head.Kind {
		case KindTable:
			el = &Table{}
		case KindChart:
			el = &Chart{}
		case KindImage:
			el = &Image{}
		case KindTextbox:
			el = &Textbox{}
		default:
			return nil, fmt.Errorf("unknown element kind %q", head.Kind)
		}
		if err := json.Unmarshal(raw, el); err != nil {
			return nil, err
		}
		return el, nil
	default:
		return nil, fmt.Errorf("unsupported element value %s", raw)
	}
}
