// Package document holds the typed representation of a content document and
// the pure functions that merge request input and uploaded files into it.
package document

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Document maps a field key to an arbitrary JSON value.
type Document map[string]any

// Parse decodes a stored payload. Empty or "null" payloads yield an empty
// document; anything that is not a JSON object is an error.
func Parse(raw []byte) (Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Encode serialises the document for storage.
func (d Document) Encode() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// ParseFieldValue interprets a raw form value as JSON, falling back to the
// raw string when it does not parse.
func ParseFieldValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return raw
	}
	return v
}

// Merge returns a new document holding every key of prev, overwritten by
// every key present in incoming. Neither argument is modified.
func Merge(prev, incoming Document) Document {
	out := make(Document, len(prev)+len(incoming))
	for k, v := range prev {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// AppendUploads appends refs to the value held at a field. A missing value
// becomes the list of refs, a scalar is first wrapped into a one-element
// list, and an existing list is extended in order. No deduplication happens.
// With no refs the previous value is returned untouched.
func AppendUploads(prev any, refs []string) any {
	if len(refs) == 0 {
		return prev
	}

	var out []any
	switch v := prev.(type) {
	case nil:
		out = make([]any, 0, len(refs))
	case []any:
		out = make([]any, 0, len(v)+len(refs))
		out = append(out, v...)
	case []string:
		out = make([]any, 0, len(v)+len(refs))
		for _, s := range v {
			out = append(out, s)
		}
	default:
		out = make([]any, 0, 1+len(refs))
		out = append(out, v)
	}
	for _, ref := range refs {
		out = append(out, ref)
	}
	return out
}

// AttachUploads returns a copy of d with every uploaded reference appended
// at its field key. Keys without uploads are left as they are.
func (d Document) AttachUploads(uploads map[string][]string) Document {
	out := d.Clone()
	for key, refs := range uploads {
		if len(refs) == 0 {
			continue
		}
		out[key] = AppendUploads(out[key], refs)
	}
	return out
}
