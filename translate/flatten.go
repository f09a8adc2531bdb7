package translate

import (
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/reoring/rdapschema/internal/jsonptr"
	"github.com/reoring/rdapschema/ruletree"
)

// Frame is one step of the dynamic schema path that led to a violation.
type Frame struct {
	Location string
	Pointer  string
}

// Leaf is one root-cause violation extracted from a validation error tree.
type Leaf struct {
	// Keyword is the failing keyword ("type", "required", "format", ...).
	Keyword        string
	SchemaLocation string
	Pointer        string
	// Message is the schema library's own rendering, kept for diagnostics.
	Message string
	Kind    jsonschema.ErrorKind
	// Chain runs from the outermost schema to SchemaLocation.
	Chain []Frame
}

// Locations returns the chain's schema locations, outermost first.
func (l Leaf) Locations() []string {
	out := make([]string, len(l.Chain))
	for i, f := range l.Chain {
		out[i] = f.Location
	}
	return out
}

var printer = message.NewPrinter(language.English)

// Flatten turns a validation error tree into leaves. anyOf/oneOf nodes keep
// only their best failing branch, leaves at or below a type mismatch are
// dropped and the result is ordered by document pointer, then keyword.
func Flatten(err *jsonschema.ValidationError) []Leaf {
	if err == nil {
		return nil
	}
	leaves := walk(err, nil)
	leaves = dropBelowTypeMismatch(leaves)
	sort.SliceStable(leaves, func(i, j int) bool {
		if c := jsonptr.Compare(leaves[i].Pointer, leaves[j].Pointer); c != 0 {
			return c < 0
		}
		return leaves[i].Keyword < leaves[j].Keyword
	})
	return leaves
}

func walk(e *jsonschema.ValidationError, chain []Frame) []Leaf {
	f := Frame{Location: ruletree.Normalize(e.SchemaURL), Pointer: jsonptr.FromTokens(e.InstanceLocation)}
	chain = extend(chain, f)
	switch k := e.ErrorKind.(type) {
	case *kind.AnyOf:
		return combinator(e, chain, f)
	case *kind.OneOf:
		// more than one branch matched: nothing to descend into
		if len(e.Causes) == 0 || len(k.Subschemas) > 0 {
			return []Leaf{leafOf(e, chain, f)}
		}
		return combinator(e, chain, f)
	}
	if len(e.Causes) == 0 {
		return []Leaf{leafOf(e, chain, f)}
	}
	var out []Leaf
	for _, c := range e.Causes {
		out = append(out, walk(c, chain)...)
	}
	return out
}

func leafOf(e *jsonschema.ValidationError, chain []Frame, f Frame) Leaf {
	l := Leaf{
		SchemaLocation: f.Location,
		Pointer:        f.Pointer,
		Kind:           e.ErrorKind,
		Chain:          chain,
	}
	if kp := e.ErrorKind.KeywordPath(); len(kp) > 0 {
		l.Keyword = kp[0]
	}
	l.Message = e.ErrorKind.LocalizedString(printer)
	return l
}

// combinator picks the branch that best explains the failure. Branches that
// only disagree on the value's type are alternatives the document did not
// attempt; they are discarded when another branch exists, and merged into a
// single type leaf when every branch is of that kind.
func combinator(e *jsonschema.ValidationError, chain []Frame, f Frame) []Leaf {
	var typeOnly, others [][]Leaf
	for _, c := range e.Causes {
		b := walk(c, chain)
		switch {
		case len(b) == 0:
		case typeOnlyAt(b, f.Pointer):
			typeOnly = append(typeOnly, b)
		default:
			others = append(others, b)
		}
	}
	if len(others) == 0 {
		if len(typeOnly) == 0 {
			return []Leaf{leafOf(e, chain, f)}
		}
		return []Leaf{mergeTypes(typeOnly, chain, f)}
	}
	best := others[0]
	for _, b := range others[1:] {
		if len(b) < len(best) {
			best = b
		}
	}
	return best
}

func typeOnlyAt(b []Leaf, ptr string) bool {
	for _, l := range b {
		if _, ok := l.Kind.(*kind.Type); !ok || l.Pointer != ptr {
			return false
		}
	}
	return true
}

func mergeTypes(branches [][]Leaf, chain []Frame, f Frame) Leaf {
	merged := &kind.Type{}
	seen := map[string]bool{}
	for _, b := range branches {
		for _, l := range b {
			t := l.Kind.(*kind.Type)
			if merged.Got == "" {
				merged.Got = t.Got
			}
			for _, w := range t.Want {
				if !seen[w] {
					seen[w] = true
					merged.Want = append(merged.Want, w)
				}
			}
		}
	}
	return Leaf{
		Keyword:        "type",
		SchemaLocation: f.Location,
		Pointer:        f.Pointer,
		Message:        merged.LocalizedString(printer),
		Kind:           merged,
		Chain:          chain,
	}
}

// dropBelowTypeMismatch keeps the first type leaf per pointer and removes
// every other leaf at or beneath a pointer whose type is already wrong.
func dropBelowTypeMismatch(leaves []Leaf) []Leaf {
	typed := map[string]int{}
	for i, l := range leaves {
		if _, ok := l.Kind.(*kind.Type); ok {
			if _, dup := typed[l.Pointer]; !dup {
				typed[l.Pointer] = i
			}
		}
	}
	if len(typed) == 0 {
		return leaves
	}
	out := leaves[:0:0]
	for i, l := range leaves {
		if j, ok := typed[l.Pointer]; ok && j != i {
			continue
		}
		if covered(l.Pointer, typed) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func covered(p string, typed map[string]int) bool {
	for q := range typed {
		if jsonptr.IsBeneath(p, q) {
			return true
		}
	}
	return false
}

// extend appends f to chain preceded by its lexical ancestors. The schema
// library returns a lone failing cause without wrapping it, so enclosing
// nodes (a named definition around a failing property, say) would otherwise
// be missing from the chain.
func extend(chain []Frame, f Frame) []Frame {
	out := chain[:len(chain):len(chain)]
	for _, a := range append(lexicalAncestors(f), f) {
		if !hasFrame(out, a) {
			out = append(out, a)
		}
	}
	return out
}

func hasFrame(chain []Frame, f Frame) bool {
	for _, c := range chain {
		if c == f {
			return true
		}
	}
	return false
}

var (
	namedChildren = map[string]bool{"properties": true, "patternProperties": true, "$defs": true, "definitions": true, "dependentSchemas": true}
	indexChildren = map[string]bool{"allOf": true, "anyOf": true, "oneOf": true, "prefixItems": true}
	// keywords whose subschema applies one level down in the instance
	descends = map[string]bool{"properties": true, "patternProperties": true, "additionalProperties": true, "items": true, "prefixItems": true, "contains": true, "unevaluatedItems": true, "unevaluatedProperties": true}
)

// lexicalAncestors returns the schema nodes enclosing f within its resource,
// outermost first, stopping at the nearest $defs entry. Each ancestor's
// pointer is f's pointer minus the instance levels the keywords in between
// descend.
func lexicalAncestors(f Frame) []Frame {
	i := strings.IndexByte(f.Location, '#')
	if i < 0 {
		return nil
	}
	base := f.Location[:i+1]
	tokens := jsonptr.Tokens(f.Location[i+1:])

	type pos struct {
		depth   int
		descent int
	}
	var schemaPos []pos
	schemaPos = append(schemaPos, pos{0, 0})
	descent := 0
	for j := 0; j < len(tokens); {
		kw := tokens[j]
		switch {
		case namedChildren[kw] || indexChildren[kw]:
			if j+1 >= len(tokens) {
				return nil
			}
			if kw == "$defs" || kw == "definitions" {
				schemaPos = schemaPos[:0]
				descent = 0
			} else if descends[kw] {
				descent++
			}
			j += 2
		default:
			if descends[kw] {
				descent++
			}
			j++
		}
		schemaPos = append(schemaPos, pos{j, descent})
	}
	ptrTokens := jsonptr.Tokens(f.Pointer)
	var out []Frame
	for _, p := range schemaPos[:len(schemaPos)-1] {
		up := descent - p.descent
		if up > len(ptrTokens) {
			continue
		}
		out = append(out, Frame{
			Location: base + jsonptr.FromTokens(tokens[:p.depth]),
			Pointer:  jsonptr.FromTokens(ptrTokens[:len(ptrTokens)-up]),
		})
	}
	return out
}
