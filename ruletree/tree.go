// Package ruletree builds the annotation tree of a rule set: every schema
// node reachable from the rule set's root, keyed by absolute schema
// location, together with the typed x-rdap metadata it carries.
//
// A Tree is built once per rule-set name and is read-only afterwards, so
// any number of validation sessions may query it concurrently.
package ruletree

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/reoring/rdapschema/internal/jsonptr"
)

// Node is one schema object of the rule set.
type Node struct {
	// Location is "<resource-url>#<json-pointer>".
	Location string
	Schema   map[string]any
	Anchor   string
	// Ref is the resolved target of the node's $ref, if any.
	Ref        string
	Annotation *Annotation
}

// Rule returns the node's rule name, or "".
func (n *Node) Rule() string {
	if n == nil || n.Annotation == nil {
		return ""
	}
	return n.Annotation.Rule
}

// PropertyNames returns the keys of the node's properties keyword, sorted.
func (n *Node) PropertyNames() []string {
	pm, _ := n.Schema["properties"].(map[string]any)
	out := make([]string, 0, len(pm))
	for k := range pm {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Tree is the annotation tree of one rule set.
type Tree struct {
	root      string
	resources map[string]any
	nodes     map[string]*Node
	anchors   map[string]string
	datasets  map[string]struct{}
	patterns  map[string]*regexp.Regexp
	branches  []string
}

var (
	mapKeywords    = []string{"properties", "patternProperties", "dependentSchemas"}
	singleKeywords = []string{"items", "additionalProperties", "not", "if", "then", "else", "contains", "propertyNames", "unevaluatedItems", "unevaluatedProperties"}
	arrayKeywords  = []string{"allOf", "anyOf", "oneOf", "prefixItems"}
)

// Build walks every schema node reachable from root across resources
// (resource URL to decoded document). Unresolvable references and
// malformed annotations are reported as warnings; a missing root is an
// error.
func Build(root string, resources map[string]any) (*Tree, Diag, error) {
	d := &simpleDiag{}
	t := &Tree{
		root:      Normalize(root),
		resources: resources,
		nodes:     map[string]*Node{},
		anchors:   map[string]string{},
		datasets:  map[string]struct{}{},
		patterns:  map[string]*regexp.Regexp{},
	}
	for u, doc := range resources {
		collectAnchors(u, "", doc, t.anchors)
	}
	raw, ok := t.lookup(t.root)
	if !ok {
		return nil, d, fmt.Errorf("ruletree: root %s not found", t.root)
	}
	if _, ok := raw.(map[string]any); !ok {
		return nil, d, fmt.Errorf("ruletree: root %s is not a schema object", t.root)
	}
	b := &builder{t: t, d: d}
	b.visit(t.root)
	sort.Strings(t.branches)
	return t, d, nil
}

type builder struct {
	t *Tree
	d *simpleDiag
}

func (b *builder) visit(loc string) {
	if _, seen := b.t.nodes[loc]; seen {
		return
	}
	raw, ok := b.t.lookup(loc)
	if !ok {
		b.d.warnf("%s: schema not found", loc)
		return
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return
	}
	n := &Node{Location: loc, Schema: m}
	b.t.nodes[loc] = n

	if a, ok := m["$anchor"].(string); ok {
		n.Anchor = a
	}
	if _, ok := m["$id"]; ok && !strings.HasSuffix(loc, "#") {
		b.d.warnf("%s: embedded $id is not supported", loc)
	}
	if f, ok := m["format"].(string); ok && strings.HasPrefix(f, "dataset:") {
		b.t.datasets[strings.TrimPrefix(f, "dataset:")] = struct{}{}
	}
	if raw, ok := m[AnnotationKey]; ok {
		n.Annotation = parseAnnotation(loc, raw, b.d)
	}
	if a := n.Annotation; a != nil {
		if a.Dataset != "" {
			b.t.datasets[a.Dataset] = struct{}{}
		}
		for c, ref := range a.Categories {
			target, err := b.t.resolve(loc, ref)
			if err != nil {
				b.d.warnf("%s: category %q: %v", loc, c, err)
				delete(a.Categories, c)
				continue
			}
			a.Categories[c] = target
			b.visit(target)
		}
	}

	if pm, ok := m["patternProperties"].(map[string]any); ok {
		for p := range pm {
			re, err := regexp.Compile(p)
			if err != nil {
				b.d.warnf("%s: pattern %q not supported for pointer resolution: %v", loc, p, err)
			}
			b.t.patterns[p] = re
		}
	}
	for _, kw := range mapKeywords {
		pm, _ := m[kw].(map[string]any)
		for _, k := range sortedKeys(pm) {
			b.visit(loc + "/" + kw + "/" + jsonptr.Escape(k))
		}
	}
	for _, kw := range singleKeywords {
		if _, ok := m[kw]; ok {
			b.visit(loc + "/" + kw)
			if kw == "if" {
				b.t.branches = append(b.t.branches, loc+"/if")
			}
		}
	}
	for _, kw := range arrayKeywords {
		arr, _ := m[kw].([]any)
		for i := range arr {
			child := loc + "/" + kw + "/" + strconv.Itoa(i)
			if kw == "anyOf" || kw == "oneOf" {
				b.t.branches = append(b.t.branches, child)
			}
			b.visit(child)
		}
	}
	if ref, ok := m["$ref"].(string); ok {
		target, err := b.t.resolve(loc, ref)
		if err != nil {
			b.d.warnf("%s: %v", loc, err)
			return
		}
		n.Ref = target
		b.visit(target)
	}
}

func collectAnchors(resURL, ptr string, v any, into map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		if a, ok := t["$anchor"].(string); ok {
			into[resURL+"#"+a] = resURL + "#" + ptr
		}
		for k, vv := range t {
			collectAnchors(resURL, jsonptr.Join(ptr, k), vv, into)
		}
	case []any:
		for i, vv := range t {
			collectAnchors(resURL, jsonptr.Index(ptr, i), vv, into)
		}
	}
}

// Normalize puts a schema location in "<url>#<pointer>" form, decoding any
// percent-escapes in the fragment.
func Normalize(loc string) string {
	i := strings.IndexByte(loc, '#')
	if i < 0 {
		return loc + "#"
	}
	frag := loc[i+1:]
	if strings.Contains(frag, "%") {
		if un, err := url.PathUnescape(frag); err == nil {
			frag = un
		}
	}
	return loc[:i+1] + frag
}

func splitLocation(loc string) (string, string) {
	i := strings.IndexByte(loc, '#')
	if i < 0 {
		return loc, ""
	}
	return loc[:i], loc[i+1:]
}

func (t *Tree) lookup(loc string) (any, bool) {
	u, frag := splitLocation(loc)
	doc, ok := t.resources[u]
	if !ok {
		return nil, false
	}
	return jsonptr.Get(doc, frag)
}

func (t *Tree) resolve(from, ref string) (string, error) {
	baseURL, _ := splitLocation(from)
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("bad base %q: %w", baseURL, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("bad $ref %q: %w", ref, err)
	}
	abs := base.ResolveReference(r)
	frag := abs.Fragment
	abs.Fragment, abs.RawFragment = "", ""
	res := abs.String()
	if _, ok := t.resources[res]; !ok {
		return "", fmt.Errorf("$ref %q: unknown resource %s", ref, res)
	}
	if frag == "" || strings.HasPrefix(frag, "/") {
		loc := res + "#" + frag
		if _, ok := t.lookup(loc); !ok {
			return "", fmt.Errorf("$ref %q: no schema at %s", ref, loc)
		}
		return loc, nil
	}
	loc, ok := t.anchors[res+"#"+frag]
	if !ok {
		return "", fmt.Errorf("$ref %q: unknown anchor %q", ref, frag)
	}
	return loc, nil
}

// Root is the location validation starts from.
func (t *Tree) Root() string { return t.root }

// Resources returns the decoded documents the tree was built from.
func (t *Tree) Resources() map[string]any { return t.resources }

// Node returns the node at loc.
func (t *Tree) Node(loc string) (*Node, bool) {
	n, ok := t.nodes[Normalize(loc)]
	return n, ok
}

// Nodes returns every reachable node ordered by location.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

// Datasets lists the dataset names referenced by reachable nodes, sorted.
func (t *Tree) Datasets() []string { return sortedKeys(t.datasets) }

// BranchLocations lists the anyOf/oneOf branches and if-conditions whose
// outcome PointersForRule needs to evaluate.
func (t *Tree) BranchLocations() []string { return append([]string(nil), t.branches...) }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
