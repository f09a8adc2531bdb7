package rules

import (
	"fmt"
	"strings"

	"github.com/reoring/rdapschema/findings"
	"github.com/reoring/rdapschema/i18n"
	"github.com/reoring/rdapschema/internal/jsonptr"
	"github.com/reoring/rdapschema/ruletree"
)

// uniqueChecker flags repeats of a discriminator field inside each array
// instance validated by its node. The first occurrence is never flagged and
// arrays are independent of each other.
type uniqueChecker struct {
	base
	field string
}

func newUnique(n *ruletree.Node) (Checker, error) {
	if n.Annotation.Unique == "" {
		return nil, nil
	}
	r, err := ruleName(n, KindUnique)
	if err != nil {
		return nil, err
	}
	return &uniqueChecker{base: base{rule: r, node: n}, field: n.Annotation.Unique}, nil
}

func (c *uniqueChecker) Kind() string { return KindUnique }

func (c *uniqueChecker) Check(env *Env) (Outcome, error) {
	ptrs := env.Tree.PointersForRule(c.rule, env.Doc, env.Matcher)
	out := Outcome{Applied: !ptrs.Empty()}
	for _, p := range ptrs.All() {
		arr, ok := jsonptr.Get(env.Doc, p)
		if !ok {
			continue
		}
		items, ok := arr.([]any)
		if !ok {
			continue
		}
		seen := map[discriminator]struct{}{}
		for i, it := range items {
			obj, ok := it.(map[string]any)
			if !ok {
				continue
			}
			raw, ok := obj[c.field]
			if !ok {
				continue
			}
			key := discriminator{kind: fmt.Sprintf("%T", raw), text: jsonptr.Render(raw)}
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				continue
			}
			code, err := c.code(env, KindUnique)
			if err != nil {
				return out, err
			}
			at := jsonptr.Join(jsonptr.Index(p, i), c.field)
			out.Findings = append(out.Findings, findings.New(code,
				jsonptr.Describe(env.Doc, at),
				env.msg(i18n.KeyUnique, map[string]string{"field": c.field, "array": c.arrayName(p)})))
		}
	}
	return out, nil
}

// arrayName names the array at p for messages. An array at the document
// root takes the name of the schema definition validating it.
func (c *uniqueChecker) arrayName(p string) string {
	if name := jsonptr.Last(p); name != "" {
		return name
	}
	_, frag, _ := strings.Cut(c.node.Location, "#")
	return jsonptr.Last(frag)
}

// discriminator keys a value by its decoded type and rendering, so the
// string "1" and the number 1 stay distinct.
type discriminator struct {
	kind string
	text string
}
