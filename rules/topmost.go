package rules

import (
	"github.com/reoring/rdapschema/findings"
	"github.com/reoring/rdapschema/i18n"
	"github.com/reoring/rdapschema/internal/jsonptr"
	"github.com/reoring/rdapschema/ruletree"
)

// topmostChecker enforces that an element kind found below its topmost
// occurrence is accompanied, at the parent of that topmost occurrence, by a
// companion element.
type topmostChecker struct {
	base
	companion string
}

func newTopmost(n *ruletree.Node) (Checker, error) {
	if n.Annotation.Companion == "" {
		return nil, nil
	}
	r, err := ruleName(n, KindTopmost)
	if err != nil {
		return nil, err
	}
	return &topmostChecker{base: base{rule: r, node: n}, companion: n.Annotation.Companion}, nil
}

func (c *topmostChecker) Kind() string { return KindTopmost }

func (c *topmostChecker) Check(env *Env) (Outcome, error) {
	ptrs := env.Tree.PointersForRule(c.rule, env.Doc, env.Matcher)
	out := Outcome{Applied: !ptrs.Empty()}
	top, ok := ptrs.Shallowest()
	if !ok {
		return out, nil
	}
	nested := false
	for _, p := range ptrs.All() {
		if jsonptr.Depth(p) > jsonptr.Depth(top) {
			nested = true
			break
		}
	}
	if !nested {
		return out, nil
	}
	parent, ok := ptrs.ParentOfTopmost()
	if !ok {
		return out, nil
	}
	if obj, isObj := jsonptr.Get(env.Doc, parent); isObj {
		if m, ok := obj.(map[string]any); ok {
			if _, has := m[c.companion]; has {
				return out, nil
			}
		}
	}
	code, err := c.code(env, KindTopmost)
	if err != nil {
		return out, err
	}
	out.Findings = append(out.Findings, findings.New(code, jsonptr.Display(parent),
		env.msg(i18n.KeyTopmost, map[string]string{"element": jsonptr.Last(top), "companion": c.companion})))
	return out, nil
}
