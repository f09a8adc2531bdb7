package ruletree

import (
	"sort"

	"github.com/reoring/rdapschema/internal/jsonptr"
)

// CodeFor returns the code for key at loc or, failing that, at the nearest
// lexically enclosing schema node. The search stops at a $defs entry or the
// resource root: definitions do not inherit codes from wherever they happen
// to be declared.
func (t *Tree) CodeFor(loc, key string) (int, error) {
	if n, ok := t.codeAt(Normalize(loc), key); ok {
		return n, nil
	}
	return 0, &AnnotationError{Location: Normalize(loc), Key: key}
}

// CodeForChain tries CodeFor on each location from last to first and returns
// the first hit. chain is the dynamic path of schema locations that led to a
// violation, outermost first.
func (t *Tree) CodeForChain(chain []string, key string) (int, error) {
	for i := len(chain) - 1; i >= 0; i-- {
		if n, ok := t.codeAt(Normalize(chain[i]), key); ok {
			return n, nil
		}
	}
	loc := ""
	if len(chain) > 0 {
		loc = Normalize(chain[len(chain)-1])
	}
	return 0, &AnnotationError{Location: loc, Key: key}
}

func (t *Tree) codeAt(loc, key string) (int, bool) {
	u, frag := splitLocation(loc)
	tokens := jsonptr.Tokens(frag)
	for depth := len(tokens); depth >= 0; depth-- {
		cur := u + "#" + jsonptr.FromTokens(tokens[:depth])
		if a := t.annotationAt(cur); a != nil {
			if n, ok := a.Codes[key]; ok {
				return n, true
			}
		}
		if depth >= 2 && tokens[depth-2] == "$defs" {
			break
		}
	}
	return 0, false
}

// annotationAt prefers the built node and falls back to parsing the raw
// schema for locations the reachability walk did not record.
func (t *Tree) annotationAt(loc string) *Annotation {
	if n, ok := t.nodes[loc]; ok {
		return n.Annotation
	}
	raw, ok := t.lookup(loc)
	if !ok {
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	if a, ok := m[AnnotationKey]; ok {
		return parseAnnotation(loc, a, &simpleDiag{})
	}
	return nil
}

// RuleNamesUnder returns every distinct value of the string attribute attr
// ("rule", "unique", "dataset", ...) found on reachable nodes, sorted.
func (t *Tree) RuleNamesUnder(attr string) []string {
	set := map[string]struct{}{}
	for _, n := range t.nodes {
		if v := n.Annotation.Attr(attr); v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// RuleNode returns the first node (by location) carrying rule name rule.
func (t *Tree) RuleNode(rule string) (*Node, bool) {
	for _, n := range t.Nodes() {
		if n.Rule() == rule {
			return n, true
		}
	}
	return nil, false
}
