package rdapschema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/reoring/rdapschema/dataset"
	"github.com/reoring/rdapschema/findings"
	"github.com/reoring/rdapschema/format"
	"github.com/reoring/rdapschema/rules"
	"github.com/reoring/rdapschema/rulesets"
	"github.com/reoring/rdapschema/ruletree"
	"github.com/reoring/rdapschema/translate"
)

// RuleSet is one compiled rule set: its annotation tree, compiled root
// schema, compiled branch and category schemas and bound checkers. It is
// immutable and shared by every session.
type RuleSet struct {
	name       string
	tree       *ruletree.Tree
	schema     *jsonschema.Schema
	branches   map[string]*jsonschema.Schema
	checkers   []rules.Checker
	translator *translate.Translator
	groups     []string
	rootRule   string
}

// Name returns the rule-set name.
func (rs *RuleSet) Name() string { return rs.name }

// Tree returns the annotation tree.
func (rs *RuleSet) Tree() *ruletree.Tree { return rs.tree }

// Groups lists the rule names a session tracks, sorted.
func (rs *RuleSet) Groups() []string { return append([]string(nil), rs.groups...) }

// Checkers lists the bound cross-cutting rules.
func (rs *RuleSet) Checkers() []rules.Checker { return append([]rules.Checker(nil), rs.checkers...) }

// Matches reports whether v validates against the compiled schema at loc.
// Locations that were not precompiled are treated as matching.
func (rs *RuleSet) Matches(loc string, v any) bool {
	sch, ok := rs.branches[loc]
	if !ok {
		return true
	}
	return sch.Validate(v) == nil
}

// Catalog holds compiled rule sets.
type Catalog struct {
	opts Options
	sets map[string]*RuleSet
	log  hclog.Logger
}

// NewCatalog loads the rule-set directory and compiles the requested rule
// sets.
func NewCatalog(opts Options) (*Catalog, error) {
	opts = opts.withDefaults()
	src, err := rulesets.Load(opts.Sources)
	if err != nil {
		return nil, err
	}
	names := opts.RuleSets
	if len(names) == 0 {
		names = src.Names()
	}
	c := &Catalog{opts: opts, sets: map[string]*RuleSet{}, log: opts.Logger.Named("catalog")}
	for _, name := range names {
		rs, err := c.compile(src, name)
		if err != nil {
			return nil, err
		}
		c.sets[name] = rs
	}
	return c, nil
}

func (c *Catalog) compile(src *rulesets.Set, name string) (*RuleSet, error) {
	root, ok := src.RootURL(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleSet, name)
	}
	resources := src.Resources()
	tree, diag, err := ruletree.Build(root, resources)
	if err != nil {
		return nil, fmt.Errorf("rdapschema: rule set %q: %w", name, err)
	}
	for _, w := range diag.Warnings() {
		c.log.Warn("rule set warning", "ruleset", name, "warning", w)
	}
	for _, ds := range tree.Datasets() {
		if _, ok := c.opts.Snapshot.Dataset(ds); !ok {
			return nil, fmt.Errorf("%w: rule set %q needs %s", ErrDatasetMissing, name, ds)
		}
	}

	comp := jsonschema.NewCompiler()
	urls := make([]string, 0, len(resources))
	for u := range resources {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	for _, u := range urls {
		if err := comp.AddResource(u, resources[u]); err != nil {
			return nil, fmt.Errorf("rdapschema: rule set %q: add %s: %w", name, u, err)
		}
	}
	if err := format.Register(comp, c.opts.Snapshot); err != nil {
		return nil, fmt.Errorf("rdapschema: rule set %q: %w", name, err)
	}
	schema, err := comp.Compile(strings.TrimSuffix(root, "#"))
	if err != nil {
		return nil, fmt.Errorf("rdapschema: compile %q: %w", name, err)
	}

	checkers, err := c.opts.Rules.Bind(tree)
	if err != nil {
		return nil, fmt.Errorf("rdapschema: rule set %q: %w", name, err)
	}
	branches := map[string]*jsonschema.Schema{}
	for _, loc := range append(tree.BranchLocations(), rules.Locations(checkers)...) {
		if _, done := branches[loc]; done {
			continue
		}
		sch, err := comp.Compile(loc)
		if err != nil {
			return nil, fmt.Errorf("rdapschema: compile %q at %s: %w", name, loc, err)
		}
		branches[loc] = sch
	}

	rs := &RuleSet{
		name:       name,
		tree:       tree,
		schema:     schema,
		branches:   branches,
		checkers:   checkers,
		translator: translate.New(tree, c.opts.Snapshot, c.opts.Messages, c.opts.Logger.Named("translate").With("ruleset", name)),
		groups:     tree.RuleNamesUnder("rule"),
	}
	if n, ok := tree.Node(tree.Root()); ok {
		rs.rootRule = n.Rule()
	}
	c.log.Debug("rule set compiled", "ruleset", name, "groups", len(rs.groups), "checkers", len(checkers), "branches", len(branches))
	return rs, nil
}

// Names lists the compiled rule sets, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.sets))
	for n := range c.sets {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// RuleSet returns a compiled rule set.
func (c *Catalog) RuleSet(name string) (*RuleSet, error) {
	rs, ok := c.sets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleSet, name)
	}
	return rs, nil
}

// Snapshot returns the dataset snapshot formats were registered against.
func (c *Catalog) Snapshot() dataset.Snapshot { return c.opts.Snapshot }

// NewValidator starts a session against the named rule set.
func (c *Catalog) NewValidator(name string, opts ...SessionOption) (*Validator, error) {
	rs, err := c.RuleSet(name)
	if err != nil {
		return nil, err
	}
	return newValidator(c, rs, opts...), nil
}

// Validate runs doc through a fresh session and returns its findings.
func (c *Catalog) Validate(ctx context.Context, name, doc string, opts ...SessionOption) (bool, findings.List, error) {
	v, err := c.NewValidator(name, opts...)
	if err != nil {
		return false, nil, err
	}
	ok, err := v.Validate(ctx, doc)
	if err != nil {
		return false, nil, err
	}
	return ok, v.Results(), nil
}
