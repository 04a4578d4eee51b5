package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidJSON is returned by Validate when the rendered template does not
// decode as JSON.
var ErrInvalidJSON = errors.New("template does not render to valid JSON")

// ErrTrailingData is returned by Decode when raw holds more than one JSON value.
var ErrTrailingData = errors.New("unexpected data after JSON value")

// Decode unmarshals raw into v keeping numbers as json.Number, so quote ids
// keep their literal form. raw must hold exactly one JSON value.
func Decode(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}

	return nil
}

// Lookup walks data along a dot-separated path such as "data.quote.id".
// Objects are indexed by key and arrays by decimal position. The second
// result is false when any segment is missing or the value is nil.
func Lookup(data any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	current := data

	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}

			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}

			current = node[idx]
		default:
			return nil, false
		}
	}

	if current == nil {
		return nil, false
	}

	return current, true
}

// LookupString resolves path and returns its scalar text. Strings are
// returned as-is and JSON numbers and booleans in their literal form.
// Objects, arrays and empty strings count as absent.
func LookupString(data any, path string) (string, bool) {
	v, ok := Lookup(data, path)
	if !ok {
		return "", false
	}

	var s string

	switch val := v.(type) {
	case string:
		s = val
	case json.Number:
		s = val.String()
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(val)
	default:
		return "", false
	}

	return s, s != ""
}

// Validate renders tmpl with representative values for the whole vocabulary
// and reports whether the result decodes as JSON.
func Validate(tmpl string) error {
	sample := map[string]any{
		"article_id":    1,
		"article_title": "Sample Article",
		"author_email":  "author@example.org",
		"author_name":   "Sample Author",
		"authors":       []map[string]any{{"firstName": "Sample", "lastName": "Author"}},
		"journal_code":  "sample",
		"journal_name":  "Sample Journal",
		"section_name":  "Articles",
		"section_id":    1,
		"callback_url":  "https://example.org/webhook/sample/",
	}

	var out any
	if err := json.Unmarshal([]byte(Render(tmpl, sample)), &out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	return nil
}
