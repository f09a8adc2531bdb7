package ruletree

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/reoring/rdapschema/internal/jsonptr"
)

// Matcher decides whether a value validates against the schema at a branch
// location (see BranchLocations). A nil Matcher follows every branch.
type Matcher interface {
	Matches(loc string, v any) bool
}

// PointersForRule returns every document pointer whose value is validated by
// a node named ruleID: a node whose rule name or $anchor equals ruleID, or
// whose location is ruleID. Schema and document are walked in lockstep;
// anyOf/oneOf branches and if/then/else are only followed where m says the
// value actually validates.
func (t *Tree) PointersForRule(ruleID string, doc any, m Matcher) PointerSet {
	w := &pointerWalk{t: t, rule: ruleID, m: m, seen: map[[2]string]bool{}, out: map[string]struct{}{}}
	w.walk(t.root, doc, "")
	ptrs := make([]string, 0, len(w.out))
	for p := range w.out {
		ptrs = append(ptrs, p)
	}
	return NewPointerSet(ptrs...)
}

type pointerWalk struct {
	t    *Tree
	rule string
	m    Matcher
	seen map[[2]string]bool
	out  map[string]struct{}
}

func (w *pointerWalk) matches(loc string, v any) bool {
	return w.m == nil || w.m.Matches(loc, v)
}

func (w *pointerWalk) walk(loc string, v any, ptr string) {
	k := [2]string{loc, ptr}
	if w.seen[k] {
		return
	}
	w.seen[k] = true
	n, ok := w.t.nodes[loc]
	if !ok {
		return
	}
	if n.Rule() == w.rule || (n.Anchor != "" && n.Anchor == w.rule) || loc == w.rule {
		w.out[ptr] = struct{}{}
	}
	s := n.Schema

	if n.Ref != "" {
		w.walk(n.Ref, v, ptr)
	}
	if arr, ok := s["allOf"].([]any); ok {
		for i := range arr {
			w.walk(loc+"/allOf/"+strconv.Itoa(i), v, ptr)
		}
	}
	for _, kw := range []string{"anyOf", "oneOf"} {
		arr, _ := s[kw].([]any)
		for i := range arr {
			b := loc + "/" + kw + "/" + strconv.Itoa(i)
			if w.matches(b, v) {
				w.walk(b, v, ptr)
			}
		}
	}
	if _, ok := s["if"]; ok {
		if w.matches(loc+"/if", v) {
			if _, ok := s["then"]; ok {
				w.walk(loc+"/then", v, ptr)
			}
		} else if _, ok := s["else"]; ok {
			w.walk(loc+"/else", v, ptr)
		}
	}

	switch val := v.(type) {
	case map[string]any:
		w.walkObject(loc, s, val, ptr)
	case []any:
		prefix, _ := s["prefixItems"].([]any)
		for i, item := range val {
			ip := jsonptr.Index(ptr, i)
			if i < len(prefix) {
				w.walk(loc+"/prefixItems/"+strconv.Itoa(i), item, ip)
				continue
			}
			if _, ok := s["items"]; ok {
				w.walk(loc+"/items", item, ip)
			}
		}
	}
}

func (w *pointerWalk) walkObject(loc string, s map[string]any, val map[string]any, ptr string) {
	props, _ := s["properties"].(map[string]any)
	pats, _ := s["patternProperties"].(map[string]any)
	_, hasAdditional := s["additionalProperties"]
	for _, key := range sortedKeys(val) {
		child := val[key]
		cp := jsonptr.Join(ptr, key)
		matched := false
		if _, ok := props[key]; ok {
			matched = true
			w.walk(loc+"/properties/"+jsonptr.Escape(key), child, cp)
		}
		for _, pat := range sortedKeys(pats) {
			re := w.t.pattern(pat)
			if re != nil && re.MatchString(key) {
				matched = true
				w.walk(loc+"/patternProperties/"+jsonptr.Escape(pat), child, cp)
			}
		}
		if !matched && hasAdditional {
			w.walk(loc+"/additionalProperties", child, cp)
		}
	}
}

// pattern returns the patternProperties key compiled at build time. Keys
// using ECMA-262 features RE2 lacks are nil and never match here; the schema
// engine still enforces them.
func (t *Tree) pattern(p string) *regexp.Regexp { return t.patterns[p] }

// PointerSet is an ordered set of document pointers.
type PointerSet struct {
	ptrs []string
}

// NewPointerSet sorts and deduplicates ptrs (array indices numerically).
func NewPointerSet(ptrs ...string) PointerSet {
	uniq := map[string]struct{}{}
	out := make([]string, 0, len(ptrs))
	for _, p := range ptrs {
		if _, dup := uniq[p]; dup {
			continue
		}
		uniq[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return jsonptr.Compare(out[i], out[j]) < 0 })
	return PointerSet{ptrs: out}
}

// All returns the pointers in order.
func (s PointerSet) All() []string { return append([]string(nil), s.ptrs...) }

// Len is the number of pointers.
func (s PointerSet) Len() int { return len(s.ptrs) }

// Empty reports whether the set has no pointers.
func (s PointerSet) Empty() bool { return len(s.ptrs) == 0 }

// Covers reports whether p, or a pointer nested beneath p, is in the set.
func (s PointerSet) Covers(p string) bool {
	for _, q := range s.ptrs {
		if q == p || jsonptr.IsBeneath(q, p) {
			return true
		}
	}
	return false
}

// Topmost returns the pointers not nested beneath another pointer of the set.
func (s PointerSet) Topmost() []string {
	var out []string
	for _, p := range s.ptrs {
		nested := false
		for _, q := range s.ptrs {
			if jsonptr.IsBeneath(p, q) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, p)
		}
	}
	return out
}

// Shallowest returns the topmost pointer with the fewest tokens, the first
// in order on ties.
func (s PointerSet) Shallowest() (string, bool) {
	best, found := "", false
	for _, p := range s.Topmost() {
		if !found || jsonptr.Depth(p) < jsonptr.Depth(best) {
			best, found = p, true
		}
	}
	return best, found
}

// ParentOfTopmost returns the pointer one level above the shallowest
// topmost pointer. It is false for an empty set or when that pointer is the
// document root.
func (s PointerSet) ParentOfTopmost() (string, bool) {
	p, ok := s.Shallowest()
	if !ok {
		return "", false
	}
	return jsonptr.Parent(p)
}
