package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/metaq/metaq/table"
)

// docEntry is one top-level key of a metadata document: a table name
// and either a flat object (one row's fields, in document order) or a
// scalar payload.
type docEntry struct {
	name    string
	row     table.Row
	scalar  table.Value
	flat    bool
	skipped []string
}

// decodeDocument walks a metadata JSON document with the streaming
// decoder so field order survives. encoding/json's map decoding would
// lose it.
func decodeDocument(r io.Reader) ([]docEntry, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("document root must be a JSON object")
	}

	var entries []docEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name := keyTok.(string)

		entry, err := decodeEntry(dec, name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

func decodeEntry(dec *json.Decoder, name string) (docEntry, error) {
	tok, err := dec.Token()
	if err != nil {
		return docEntry{}, err
	}

	if d, ok := tok.(json.Delim); ok {
		if d == '{' {
			return decodeObjectEntry(dec, name)
		}
		// Arrays cannot be represented as a scalar row value.
		if err := skipCompound(dec); err != nil {
			return docEntry{}, err
		}
		return docEntry{name: name, skipped: []string{"(array payload)"}}, nil
	}

	v, err := scalarValue(tok)
	if err != nil {
		return docEntry{}, fmt.Errorf("table %q: %w", name, err)
	}
	return docEntry{name: name, scalar: v}, nil
}

func decodeObjectEntry(dec *json.Decoder, name string) (docEntry, error) {
	entry := docEntry{name: name, flat: true, row: table.NewRow()}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return docEntry{}, err
		}
		field := keyTok.(string)

		tok, err := dec.Token()
		if err != nil {
			return docEntry{}, err
		}
		if _, ok := tok.(json.Delim); ok {
			// Nested objects and arrays have no scalar representation;
			// the field is dropped, the rest of the row survives.
			if err := skipCompound(dec); err != nil {
				return docEntry{}, err
			}
			entry.skipped = append(entry.skipped, field)
			continue
		}

		v, err := scalarValue(tok)
		if err != nil {
			return docEntry{}, fmt.Errorf("table %q field %q: %w", name, field, err)
		}
		entry.row = entry.row.Set(field, v)
	}

	if _, err := dec.Token(); err != nil {
		return docEntry{}, err
	}
	return entry, nil
}

// skipCompound consumes the remainder of an object or array whose
// opening delimiter has already been read.
func skipCompound(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

// scalarValue converts a decoder token to a tagged scalar. Numbers
// without a fraction or exponent become Int, the rest Float.
func scalarValue(tok json.Token) (table.Value, error) {
	switch v := tok.(type) {
	case nil:
		return table.Null(), nil
	case bool:
		return table.Bool(v), nil
	case string:
		return table.String(v), nil
	case json.Number:
		s := v.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := v.Int64(); err == nil {
				return table.Int(i), nil
			}
		}
		f, err := v.Float64()
		if err != nil {
			return table.Null(), fmt.Errorf("invalid number %q", s)
		}
		return table.Float(f), nil
	default:
		return table.Null(), fmt.Errorf("unsupported JSON token %v", tok)
	}
}
