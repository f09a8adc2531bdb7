// Package rules implements the cross-cutting checks that plain JSON Schema
// cannot express: uniqueness of a discriminator within one array instance,
// topmost-only placement and category-dispatched sub-validation.
//
// Checkers are bound to annotated rule-tree nodes once, when a rule set is
// loaded, through a registry keyed by rule kind.
package rules

import (
	"fmt"
	"sort"

	"github.com/reoring/rdapschema/findings"
	"github.com/reoring/rdapschema/i18n"
	"github.com/reoring/rdapschema/ruletree"
)

// Rule kinds.
const (
	KindUnique   = "unique"
	KindTopmost  = "topmost"
	KindCategory = "category"
)

// Env is what a checker sees during one validation session.
type Env struct {
	Tree    *ruletree.Tree
	Doc     any
	Matcher ruletree.Matcher
	Msgs    i18n.Translator
	// Reported holds the pointers the schema pass already reported.
	// Checkers skip values at or above them.
	Reported ruletree.PointerSet
}

func (e *Env) msg(key string, data map[string]string) string {
	if e.Msgs == nil {
		return i18n.Default().Message(key, data)
	}
	return e.Msgs.Message(key, data)
}

// Outcome is the result of one checker run.
type Outcome struct {
	// Applied is false when the document holds nothing the rule covers.
	Applied  bool
	Findings []findings.Finding
}

// Checker is a cross-cutting rule bound to one rule-tree node.
type Checker interface {
	// Rule is the rule name used for group bookkeeping.
	Rule() string
	Kind() string
	// Locations lists schema locations the checker needs compiled.
	Locations() []string
	Check(env *Env) (Outcome, error)
}

// Factory binds a checker to node, or returns nil when the node's
// annotation does not ask for this kind.
type Factory func(n *ruletree.Node) (Checker, error)

// Registry maps rule kinds to factories.
type Registry struct {
	kinds map[string]Factory
}

// NewRegistry returns a registry holding the built-in kinds.
func NewRegistry() *Registry {
	return &Registry{kinds: map[string]Factory{
		KindUnique:   newUnique,
		KindTopmost:  newTopmost,
		KindCategory: newCategory,
	}}
}

// Register adds or replaces a kind. Registries are configured before use
// and must not be modified while binding.
func (r *Registry) Register(kind string, f Factory) { r.kinds[kind] = f }

// Kinds lists registered kinds, sorted.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Bind creates every checker the tree's annotations call for, ordered by
// node location then kind.
func (r *Registry) Bind(t *ruletree.Tree) ([]Checker, error) {
	var out []Checker
	kinds := r.Kinds()
	for _, n := range t.Nodes() {
		if n.Annotation == nil {
			continue
		}
		for _, k := range kinds {
			c, err := r.kinds[k](n)
			if err != nil {
				return nil, err
			}
			if c != nil {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// Locations collects the schema locations a set of checkers needs compiled.
func Locations(cs []Checker) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, c := range cs {
		for _, l := range c.Locations() {
			if _, ok := seen[l]; !ok {
				seen[l] = struct{}{}
				out = append(out, l)
			}
		}
	}
	sort.Strings(out)
	return out
}

func ruleName(n *ruletree.Node, kind string) (string, error) {
	if r := n.Rule(); r != "" {
		return r, nil
	}
	if n.Anchor != "" {
		return n.Anchor, nil
	}
	return "", fmt.Errorf("rules: %s: %s annotation needs a rule name or $anchor", n.Location, kind)
}

type base struct {
	rule string
	node *ruletree.Node
}

func (b base) Rule() string        { return b.rule }
func (b base) Locations() []string { return nil }

func (b base) code(env *Env, key string) (int, error) {
	return env.Tree.CodeFor(b.node.Location, key)
}
