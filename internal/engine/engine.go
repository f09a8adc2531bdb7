package engine

import (
	"encoding/json"
	"errors"
	"io"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// ErrSyntax marks input that is not exactly one well-formed JSON value.
var ErrSyntax = errors.New("engine: invalid JSON")

// DecodeAnyFromSource builds an "any" value from the streaming token source.
// Numbers are kept as json.Number so that schema validation sees the exact
// literal.
func DecodeAnyFromSource(src TokenSource) (any, error) {
	d := &decoder{src: src}
	return d.value()
}

// decoder walks tokens into map[string]any / []any values. When track is
// set it remembers, per key name, whether the key was already seen anywhere
// in the document and the rendered value of its first textual occurrence.
type decoder struct {
	src    TokenSource
	track  bool
	seen   map[string]bool
	firsts map[string]any
}

func (d *decoder) value() (any, error) {
	tok, err := d.src.NextToken()
	if err != nil {
		return nil, err
	}
	return d.decodeValue(tok)
}

func (d *decoder) decodeValue(tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return d.decodeObject()
	case KindBeginArray:
		return d.decodeArray()
	case KindString:
		return tok.String, nil
	case KindNumber:
		return json.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

func (d *decoder) decodeObject() (any, error) {
	m := make(map[string]any)
	for {
		tok, err := d.src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		first := false
		if d.track && !d.seen[tok.String] {
			d.seen[tok.String] = true
			first = true
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		if first {
			d.firsts[tok.String] = v
		}
		// last occurrence wins, as with encoding/json
		m[tok.String] = v
	}
}

func (d *decoder) decodeArray() (any, error) {
	arr := []any{}
	for {
		tok, err := d.src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := d.decodeValue(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}
