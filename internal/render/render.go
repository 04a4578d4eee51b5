// Package render substitutes {{name}} placeholders in request templates and
// resolves dot paths in decoded JSON responses.
package render

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Vocabulary lists every placeholder a request body template may use.
var Vocabulary = []string{
	"article_id",
	"article_title",
	"author_email",
	"author_name",
	"authors",
	"journal_code",
	"journal_name",
	"section_name",
	"section_id",
	"callback_url",
}

// token is either literal text or a resolved placeholder.
type token struct {
	text   string
	name   string
	quoted bool
}

// Render replaces every {{name}} in tmpl whose name is a key of values.
//
// Scalars are written in their string form and nil as the empty string.
// Slices, maps and structs are JSON encoded; when such a placeholder is
// written as "{{name}}" the surrounding quotes are dropped so the slot holds
// the JSON value itself. Placeholders without a value are left as written.
func Render(tmpl string, values map[string]any) string {
	names := sortedNames(values)
	tokens := tokenize(tmpl, names)

	var b strings.Builder
	b.Grow(len(tmpl))

	for _, tok := range tokens {
		if tok.name == "" {
			b.WriteString(tok.text)
			continue
		}

		s, structured := format(values[tok.name])
		if tok.quoted && !structured {
			s = `"` + s + `"`
		}

		b.WriteString(s)
	}

	return b.String()
}

// tokenize scans tmpl once, left to right. At each "{{" the longest known
// name followed by "}}" wins; quotes directly around a structured slot are
// folded into the token.
func tokenize(tmpl string, names []string) []token {
	var (
		tokens []token
		lit    strings.Builder
	)

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(tmpl); {
		if !strings.HasPrefix(tmpl[i:], openDelim) {
			lit.WriteByte(tmpl[i])
			i++

			continue
		}

		name, ok := matchName(tmpl[i+len(openDelim):], names)
		if !ok {
			lit.WriteString(openDelim)
			i += len(openDelim)

			continue
		}

		end := i + len(openDelim) + len(name) + len(closeDelim)
		quoted := i > 0 && tmpl[i-1] == '"' && end < len(tmpl) && tmpl[end] == '"' &&
			strings.HasSuffix(lit.String(), `"`)

		if quoted {
			// Take the opening quote back out of the pending literal.
			s := lit.String()
			lit.Reset()
			lit.WriteString(s[:len(s)-1])
			end++
		}

		flush()
		tokens = append(tokens, token{name: name, quoted: quoted})
		i = end
	}

	flush()

	return tokens
}

// matchName returns the longest name n such that rest begins with n + "}}".
// names must be sorted longest first.
func matchName(rest string, names []string) (string, bool) {
	for _, n := range names {
		if strings.HasPrefix(rest, n) && strings.HasPrefix(rest[len(n):], closeDelim) {
			return n, true
		}
	}

	return "", false
}

func sortedNames(values map[string]any) []string {
	names := make([]string, 0, len(values))
	for k := range values {
		if k != "" {
			names = append(names, k)
		}
	}

	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}

		return names[i] < names[j]
	})

	return names
}

// format returns the textual form of v and whether it was JSON encoded as a
// structured value. Only nil is empty; zero numbers and false keep their
// literal form so numeric slots stay valid JSON.
func format(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, false
	case json.RawMessage:
		return string(val), true
	case fmt.Stringer:
		return val.String(), false
	case bool:
		return strconv.FormatBool(val), false
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		data, err := json.Marshal(rv.Interface())
		if err != nil {
			return fmt.Sprint(rv.Interface()), false
		}

		return string(data), true
	default:
		return fmt.Sprint(rv.Interface()), false
	}
}
