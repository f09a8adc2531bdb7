package engine

import (
	"strconv"

	"github.com/reoring/rdapschema/internal/jsonptr"
)

// Enforcement wrapper for TokenSource that tracks JSON pointers, reports
// duplicate object keys and bounds nesting depth while streaming.

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	// MaxDepth bounds container nesting; 0 means unlimited.
	MaxDepth int
	// OnDuplicate receives every repeated key together with the pointer of
	// the repeated member. Nil disables duplicate tracking.
	OnDuplicate func(key, pointer string)
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type dupFrame struct {
	kind         containerKind
	keys         map[string]struct{}
	expectingKey bool
	path         string
	nextIndex    int
	pendingKey   string
}

// DepthError reports input nested deeper than EnforceOptions.MaxDepth.
type DepthError struct {
	Pointer string
	Max     int
}

func (e *DepthError) Error() string {
	return "engine: max depth " + strconv.Itoa(e.Max) + " exceeded at " + jsonptr.Display(e.Pointer)
}

// WrapWithEnforcement returns a TokenSource that enforces duplicate key
// reporting and maximum nesting depth.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	stack []dupFrame
	depth int
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}

	path := e.currentPathForToken(tok)

	switch tok.Kind {
	case KindBeginObject:
		e.stack = append(e.stack, dupFrame{kind: kindObject, keys: make(map[string]struct{}), expectingKey: true, path: path})
		e.depth++
		if e.opt.MaxDepth > 0 && e.depth > e.opt.MaxDepth {
			return Token{}, &DepthError{Pointer: path, Max: e.opt.MaxDepth}
		}
	case KindBeginArray:
		e.stack = append(e.stack, dupFrame{kind: kindArray, path: path})
		e.depth++
		if e.opt.MaxDepth > 0 && e.depth > e.opt.MaxDepth {
			return Token{}, &DepthError{Pointer: path, Max: e.opt.MaxDepth}
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		if e.depth > 0 {
			e.depth--
		}
		e.valueDone()
	case KindKey:
		if n := len(e.stack); n > 0 {
			top := &e.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				if _, ok := top.keys[tok.String]; ok && e.opt.OnDuplicate != nil {
					e.opt.OnDuplicate(tok.String, path)
				}
				top.keys[tok.String] = struct{}{}
				top.expectingKey = false
				top.pendingKey = tok.String
			}
		}
	case KindString, KindNumber, KindBool, KindNull:
		e.valueDone()
	}

	return tok, nil
}

// valueDone flips the enclosing object back to expecting a key once a
// member value has been fully consumed.
func (e *enforcingTokenSource) valueDone() {
	if n := len(e.stack); n > 0 {
		top := &e.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
			top.pendingKey = ""
		}
	}
}

func (e *enforcingTokenSource) currentPathForToken(tok Token) string {
	if len(e.stack) == 0 {
		return ""
	}
	top := &e.stack[len(e.stack)-1]
	switch tok.Kind {
	case KindKey:
		return jsonptr.Join(top.path, tok.String)
	case KindBeginObject, KindBeginArray, KindString, KindNumber, KindBool, KindNull:
		switch top.kind {
		case kindArray:
			p := jsonptr.Index(top.path, top.nextIndex)
			top.nextIndex++
			return p
		case kindObject:
			if !top.expectingKey {
				return jsonptr.Join(top.path, top.pendingKey)
			}
		}
		return top.path
	default:
		return top.path
	}
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }
