package rules

import (
	"strings"

	"github.com/reoring/rdapschema/findings"
	"github.com/reoring/rdapschema/i18n"
	"github.com/reoring/rdapschema/internal/jsonptr"
	"github.com/reoring/rdapschema/ruletree"
)

// categoryChecker dispatches each item of the arrays validated by its node
// to the sub-schema of the category named by the item's first entry.
// Category names compare case-insensitively.
type categoryChecker struct {
	base
	annotation *ruletree.Annotation
}

func newCategory(n *ruletree.Node) (Checker, error) {
	if len(n.Annotation.Categories) == 0 {
		return nil, nil
	}
	r, err := ruleName(n, KindCategory)
	if err != nil {
		return nil, err
	}
	return &categoryChecker{base: base{rule: r, node: n}, annotation: n.Annotation}, nil
}

func (c *categoryChecker) Kind() string { return KindCategory }

func (c *categoryChecker) Locations() []string {
	out := make([]string, 0, len(c.annotation.Categories))
	for _, name := range c.annotation.CategoryNames() {
		out = append(out, c.annotation.Categories[name])
	}
	return out
}

func (c *categoryChecker) Check(env *Env) (Outcome, error) {
	ptrs := env.Tree.PointersForRule(c.rule, env.Doc, env.Matcher)
	out := Outcome{Applied: !ptrs.Empty()}
	for _, p := range ptrs.All() {
		arr, _ := jsonptr.Get(env.Doc, p)
		items, ok := arr.([]any)
		if !ok {
			continue
		}
		for i, it := range items {
			entry, ok := it.([]any)
			if !ok || len(entry) == 0 {
				continue
			}
			name, ok := entry[0].(string)
			if !ok {
				continue
			}
			name = strings.ToLower(name)
			at := jsonptr.Index(p, i)
			if env.Reported.Covers(at) {
				continue
			}

			key := ""
			loc, known := c.annotation.Categories[name]
			switch {
			case !known:
				key = i18n.KeyCategoryUnknown
			case env.Matcher != nil && !env.Matcher.Matches(loc, entry):
				key = i18n.KeyCategoryInvalid
				if c.annotation.IsStructured(name) && !structuredValue(entry) {
					key = i18n.KeyCategoryStructured
				}
			default:
				continue
			}
			code, err := c.code(env, key)
			if err != nil {
				return out, err
			}
			out.Findings = append(out.Findings, findings.New(code,
				jsonptr.Describe(env.Doc, at),
				env.msg(key, map[string]string{"category": name})))
		}
	}
	return out, nil
}

// structuredValue reports whether the entry's value (fourth element) is an
// array of sub-fields.
func structuredValue(entry []any) bool {
	if len(entry) < 4 {
		return false
	}
	_, ok := entry[3].([]any)
	return ok
}
