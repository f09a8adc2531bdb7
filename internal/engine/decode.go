package engine

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/rdapschema/internal/jsonptr"
)

// Duplicate describes a repeated object key.
//
// FirstValue is the rendered value of the first textual occurrence of Key
// anywhere in the document, not necessarily inside the object that repeats
// it. When a key name recurs at several levels of the hierarchy this
// attribution is an approximation.
type Duplicate struct {
	Key        string
	Pointer    string
	FirstValue string
}

// Document is a decoded JSON value plus what the decoder noticed on the way.
type Document struct {
	Value      any
	Duplicates []Duplicate
}

// DecodeOptions bounds decoding.
type DecodeOptions struct {
	MaxDepth int
}

// Decode parses data as exactly one JSON value. Any syntax problem, invalid
// UTF-8, trailing content or depth overflow is reported as an error wrapping
// ErrSyntax.
// Duplicate keys are not errors: each distinct repeated key name is listed
// once in Document.Duplicates, in order of first repetition.
func Decode(data []byte, opt DecodeOptions) (Document, error) {
	if len(data) == 0 || !gojson.Valid(data) {
		return Document{}, fmt.Errorf("%w: not a well-formed JSON text", ErrSyntax)
	}
	if !utf8.Valid(data) {
		return Document{}, fmt.Errorf("%w: invalid UTF-8", ErrSyntax)
	}

	var (
		order   []string
		pointer = map[string]string{}
	)
	src := WrapWithEnforcement(NewBytes(data), EnforceOptions{
		MaxDepth: opt.MaxDepth,
		OnDuplicate: func(key, p string) {
			if _, ok := pointer[key]; ok {
				return
			}
			pointer[key] = p
			order = append(order, key)
		},
	})
	d := &decoder{src: src, track: true, seen: map[string]bool{}, firsts: map[string]any{}}
	v, err := d.value()
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		return Document{}, fmt.Errorf("%w: trailing data after top-level value", ErrSyntax)
	}

	doc := Document{Value: v}
	for _, k := range order {
		doc.Duplicates = append(doc.Duplicates, Duplicate{
			Key:        k,
			Pointer:    pointer[k],
			FirstValue: jsonptr.Render(d.firsts[k]),
		})
	}
	return doc, nil
}

// DecodeBytes decodes data without duplicate tracking; used for rule-set
// documents where numbers must stay json.Number.
func DecodeBytes(data []byte) (any, error) {
	if !gojson.Valid(data) {
		return nil, fmt.Errorf("%w: not a well-formed JSON text", ErrSyntax)
	}
	return DecodeAnyFromSource(NewBytes(data))
}
