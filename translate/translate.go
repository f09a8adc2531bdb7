// Package translate maps schema validation failures onto numbered findings.
//
// A failure tree is flattened into leaves (see Flatten) and every leaf is
// offered to a fixed chain of strategies; the first strategy that claims a
// leaf produces its findings. Leaves no strategy claims are reported as
// diagnostics and never receive a guessed code.
package translate

import (
	"errors"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"

	"github.com/reoring/rdapschema/dataset"
	"github.com/reoring/rdapschema/findings"
	"github.com/reoring/rdapschema/format"
	"github.com/reoring/rdapschema/i18n"
	"github.com/reoring/rdapschema/internal/jsonptr"
	"github.com/reoring/rdapschema/ruletree"
)

// Translator turns validation errors into findings for one rule set. It is
// immutable and safe for concurrent use.
type Translator struct {
	tree *ruletree.Tree
	snap dataset.Snapshot
	msgs i18n.Translator
	log  hclog.Logger
}

// New returns a Translator. A nil msgs uses i18n.Default and a nil logger
// discards diagnostics.
func New(tree *ruletree.Tree, snap dataset.Snapshot, msgs i18n.Translator, log hclog.Logger) *Translator {
	if msgs == nil {
		msgs = i18n.Default()
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Translator{tree: tree, snap: snap, msgs: msgs, log: log}
}

// Result is the outcome of translating one failure tree.
type Result struct {
	Findings []findings.Finding
	// Failed lists the rule names enclosing at least one translated leaf.
	Failed []string
	// Unmatched holds the leaves no strategy claimed.
	Unmatched []Leaf
	// Reported holds the document pointers of the translated leaves.
	Reported ruletree.PointerSet
}

type strategy struct {
	name  string
	apply func(*run, Leaf) ([]findings.Finding, bool, error)
}

// The order is fixed: a leaf that could match several strategies always
// goes to the earliest one.
var strategies = []strategy{
	{"type", (*run).basicType},
	{"enum", (*run).enumOrDataset},
	{"required", (*run).required},
	{"unknown", (*run).unknownKey},
	{"keyword", (*run).annotatedKeyword},
	{"delegate", (*run).delegate},
}

// StrategyNames lists the strategy chain in evaluation order.
func StrategyNames() []string {
	out := make([]string, len(strategies))
	for i, s := range strategies {
		out[i] = s.name
	}
	return out
}

type run struct {
	*Translator
	doc any
}

// Translate flattens verr and maps each leaf to findings. The error is
// non-nil only for rule-set defects such as ErrAnnotationMissing.
func (t *Translator) Translate(verr *jsonschema.ValidationError, doc any) (Result, error) {
	r := &run{Translator: t, doc: doc}
	var res Result
	failed := map[string]struct{}{}
	var reported []string
	for _, l := range Flatten(verr) {
		var (
			fs      []findings.Finding
			matched bool
			err     error
		)
		for _, s := range strategies {
			fs, matched, err = s.apply(r, l)
			if err != nil {
				return res, err
			}
			if matched {
				break
			}
		}
		if !matched {
			res.Unmatched = append(res.Unmatched, l)
			t.log.Warn("untranslated violation", "keyword", l.Keyword, "schema", l.SchemaLocation, "pointer", jsonptr.Display(l.Pointer), "message", l.Message)
			continue
		}
		res.Findings = append(res.Findings, fs...)
		reported = append(reported, l.Pointer)
		for _, f := range l.Chain {
			if n, ok := t.tree.Node(f.Location); ok && n.Rule() != "" {
				failed[n.Rule()] = struct{}{}
			}
		}
	}
	for n := range failed {
		res.Failed = append(res.Failed, n)
	}
	sort.Strings(res.Failed)
	res.Reported = ruletree.NewPointerSet(reported...)
	return res, nil
}

func (r *run) code(l Leaf, key string) (int, error) {
	return r.tree.CodeForChain(l.Locations(), key)
}

func (r *run) finding(l Leaf, key, value, msgKey string, data map[string]string) ([]findings.Finding, bool, error) {
	c, err := r.code(l, key)
	if err != nil {
		return nil, false, err
	}
	return []findings.Finding{findings.New(c, value, r.msgs.Message(msgKey, data))}, true, nil
}

func (r *run) basicType(l Leaf) ([]findings.Finding, bool, error) {
	t, ok := l.Kind.(*kind.Type)
	if !ok {
		return nil, false, nil
	}
	if structured(t.Want) {
		return r.finding(l, "structure", jsonptr.Describe(r.doc, l.Pointer), i18n.KeyStructure,
			map[string]string{"pointer": jsonptr.Display(l.Pointer)})
	}
	return r.finding(l, "type", jsonptr.Describe(r.doc, l.Pointer), i18n.KeyType,
		map[string]string{"types": strings.Join(t.Want, " or ")})
}

func structured(want []string) bool {
	if len(want) == 0 {
		return false
	}
	for _, w := range want {
		if w != "object" && w != "array" {
			return false
		}
	}
	return true
}

func (r *run) enumOrDataset(l Leaf) ([]findings.Finding, bool, error) {
	switch k := l.Kind.(type) {
	case *kind.Enum:
		value := jsonptr.Describe(r.doc, l.Pointer)
		if name := r.datasetOf(l); name != "" {
			return r.finding(l, "enum", value, i18n.KeyDataset, map[string]string{"label": r.label(name)})
		}
		return r.finding(l, "enum", value, i18n.KeyEnum, map[string]string{"values": jsonptr.Render(k.Want)})
	case *kind.Format:
		var v *format.Violation
		if !errors.As(k.Err, &v) {
			return nil, false, nil
		}
		return r.finding(l, v.Key, jsonptr.Describe(r.doc, l.Pointer), v.Key, map[string]string{
			"label":  v.Label,
			"format": formatLabel(v.Format),
		})
	}
	return nil, false, nil
}

func (r *run) datasetOf(l Leaf) string {
	if n, ok := r.tree.Node(l.SchemaLocation); ok && n.Annotation != nil {
		return n.Annotation.Dataset
	}
	return ""
}

func (r *run) label(name string) string {
	if r.snap != nil {
		if d, ok := r.snap.Dataset(name); ok {
			return d.Label()
		}
	}
	return name
}

func formatLabel(f string) string {
	switch f {
	case "ipv4":
		return "IPv4 address"
	case "ipv6":
		return "IPv6 address"
	case "hostname":
		return "host name"
	}
	return f
}

func (r *run) required(l Leaf) ([]findings.Finding, bool, error) {
	k, ok := l.Kind.(*kind.Required)
	if !ok {
		return nil, false, nil
	}
	c, err := r.code(l, "required")
	if err != nil {
		return nil, false, err
	}
	out := make([]findings.Finding, 0, len(k.Missing))
	for _, key := range k.Missing {
		out = append(out, findings.New(c,
			jsonptr.Display(jsonptr.Join(l.Pointer, key)),
			r.msgs.Message(i18n.KeyRequired, map[string]string{"key": key})))
	}
	return out, true, nil
}

func (r *run) unknownKey(l Leaf) ([]findings.Finding, bool, error) {
	var (
		objLoc = l.SchemaLocation
		objPtr = l.Pointer
		keys   []string
	)
	switch k := l.Kind.(type) {
	case *kind.AdditionalProperties:
		keys = k.Properties
	case *kind.FalseSchema:
		if !strings.HasSuffix(objLoc, "/additionalProperties") {
			return nil, false, nil
		}
		objLoc = strings.TrimSuffix(objLoc, "/additionalProperties")
		parent, ok := jsonptr.Parent(objPtr)
		if !ok {
			return nil, false, nil
		}
		keys = []string{jsonptr.Last(objPtr)}
		objPtr = parent
	default:
		return nil, false, nil
	}
	var allowed []string
	if n, ok := r.tree.Node(objLoc); ok {
		allowed = n.PropertyNames()
	}
	c, err := r.code(l, "unknown")
	if err != nil {
		return nil, false, err
	}
	msg := r.msgs.Message(i18n.KeyUnknown, map[string]string{"keys": strings.Join(allowed, ", ")})
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	out := make([]findings.Finding, 0, len(sorted))
	for _, key := range sorted {
		out = append(out, findings.New(c, jsonptr.Describe(r.doc, jsonptr.Join(objPtr, key)), msg))
	}
	return out, true, nil
}

// annotatedKeyword claims leaves whose keyword has a same-named code.
func (r *run) annotatedKeyword(l Leaf) ([]findings.Finding, bool, error) {
	if l.Keyword == "" {
		return nil, false, nil
	}
	c, err := r.code(l, l.Keyword)
	if errors.Is(err, ruletree.ErrAnnotationMissing) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []findings.Finding{findings.New(c, jsonptr.Describe(r.doc, l.Pointer),
		r.msgs.Message(i18n.KeyKeyword, map[string]string{"keyword": l.Keyword}))}, true, nil
}

// delegate reports the leaf against the nearest enclosing named
// sub-schema other than the rule-set root. Every leaf inside the same
// sub-schema instance produces the same finding, so deeper causes collapse
// into one.
func (r *run) delegate(l Leaf) ([]findings.Finding, bool, error) {
	locs := l.Locations()
	for i := len(l.Chain) - 1; i >= 0; i-- {
		f := l.Chain[i]
		if f.Location == r.tree.Root() {
			continue
		}
		n, ok := r.tree.Node(f.Location)
		if !ok || n.Rule() == "" {
			continue
		}
		c, err := r.tree.CodeForChain(locs[:i+1], "validation")
		if err != nil {
			return nil, false, err
		}
		return []findings.Finding{findings.New(c, jsonptr.Describe(r.doc, f.Pointer),
			r.msgs.Message(i18n.KeyValidation, map[string]string{
				"pointer": jsonptr.Display(f.Pointer),
				"rule":    n.Rule(),
			}))}, true, nil
	}
	return nil, false, nil
}
