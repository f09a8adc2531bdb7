// Package jsonptr implements the small subset of RFC 6901 JSON Pointer
// handling shared by the decoder, the rule tree and the translator.
//
// The empty string addresses the whole document. Pointers are rendered for
// humans with a leading '#' (for example "#/links/0/href").
package jsonptr

import (
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
)

var (
	escaper   = strings.NewReplacer("~", "~0", "/", "~1")
	unescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// Escape escapes a single reference token.
func Escape(token string) string { return escaper.Replace(token) }

// Unescape reverses Escape.
func Unescape(token string) string { return unescaper.Replace(token) }

// Join appends a raw (unescaped) token to base.
func Join(base, token string) string { return base + "/" + Escape(token) }

// Index appends an array index to base.
func Index(base string, i int) string { return base + "/" + strconv.Itoa(i) }

// FromTokens builds a pointer from raw tokens.
func FromTokens(tokens []string) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(Escape(t))
	}
	return b.String()
}

// Tokens splits a pointer into raw tokens. A leading '#' is tolerated.
func Tokens(p string) []string {
	p = strings.TrimPrefix(p, "#")
	if p == "" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	out := make([]string, len(parts))
	for i, s := range parts {
		out[i] = Unescape(s)
	}
	return out
}

// Parent returns the pointer one level above p. The root has no parent.
func Parent(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return "", false
	}
	return p[:i], true
}

// Last returns the final raw token of p, or "" for the root.
func Last(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ""
	}
	return Unescape(p[i+1:])
}

// Depth is the number of tokens in p.
func Depth(p string) int {
	if p == "" {
		return 0
	}
	return strings.Count(p, "/")
}

// IsBeneath reports whether p lies strictly below ancestor.
func IsBeneath(p, ancestor string) bool {
	return len(p) > len(ancestor) && strings.HasPrefix(p, ancestor) && p[len(ancestor)] == '/'
}

// Get resolves p against a decoded document (map[string]any / []any).
func Get(doc any, p string) (any, bool) {
	cur := doc
	if p == "" {
		return cur, true
	}
	for _, tok := range Tokens(p) {
		switch t := cur.(type) {
		case map[string]any:
			v, ok := t[tok]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(t) {
				return nil, false
			}
			cur = t[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Display renders p the way findings show it: "#" followed by the pointer.
func Display(p string) string { return "#" + p }

// Render turns a decoded value into the text used in finding values:
// strings are emitted raw, everything else as compact JSON.
func Render(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := gojson.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Describe renders "#<pointer>:<value>" for the value found at p in doc.
func Describe(doc any, p string) string {
	v, ok := Get(doc, p)
	if !ok {
		return Display(p)
	}
	return Display(p) + ":" + Render(v)
}

// Compare orders pointers token by token, comparing array indices
// numerically so that /a/2 sorts before /a/10.
func Compare(a, b string) int {
	ta, tb := Tokens(a), Tokens(b)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		if ta[i] == tb[i] {
			continue
		}
		na, ea := strconv.Atoi(ta[i])
		nb, eb := strconv.Atoi(tb[i])
		if ea == nil && eb == nil {
			if na < nb {
				return -1
			}
			return 1
		}
		if ta[i] < tb[i] {
			return -1
		}
		return 1
	}
	switch {
	case len(ta) < len(tb):
		return -1
	case len(ta) > len(tb):
		return 1
	}
	return 0
}
