package rdapschema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/reoring/rdapschema/findings"
	"github.com/reoring/rdapschema/i18n"
	"github.com/reoring/rdapschema/internal/engine"
	"github.com/reoring/rdapschema/metrics"
	"github.com/reoring/rdapschema/rules"
	"github.com/reoring/rdapschema/ruletree"
)

// SessionOption configures a Validator.
type SessionOption func(*Validator)

// WithQuery stamps the HTTP query that produced the document onto every
// finding of the session.
func WithQuery(uri, method, accept string, status *int) SessionOption {
	return func(v *Validator) {
		v.stamp = []findings.Option{findings.WithQuery(uri, method, accept, status)}
	}
}

// WithSessionLogger overrides the catalog logger for one session.
func WithSessionLogger(l hclog.Logger) SessionOption {
	return func(v *Validator) {
		if l != nil {
			v.log = l
		}
	}
}

// Validator is one validation session. Its results are private to it; a
// Validator must not run Validate concurrently with itself. Different
// Validators over the same Catalog may run in parallel.
type Validator struct {
	id      string
	rs      *RuleSet
	msgs    i18n.Translator
	log     hclog.Logger
	metrics *metrics.Collector
	depth   int
	stamp   []findings.Option
	results *findings.Results
}

func newValidator(c *Catalog, rs *RuleSet, opts ...SessionOption) *Validator {
	v := &Validator{
		id:      uuid.NewString(),
		rs:      rs,
		msgs:    c.opts.Messages,
		log:     c.opts.Logger,
		metrics: c.opts.Metrics,
		depth:   c.opts.MaxDepth,
		results: findings.NewResults(),
	}
	for _, o := range opts {
		o(v)
	}
	v.log = v.log.Named("session").With("session", v.id, "ruleset", rs.name)
	return v
}

// ID is the session id used in logs.
func (v *Validator) ID() string { return v.id }

// RuleSet returns the rule set the session validates against.
func (v *Validator) RuleSet() *RuleSet { return v.rs }

// Results returns the findings of the last run in insertion order.
func (v *Validator) Results() findings.List { return v.results.All() }

// LastRunGroups returns the rule-group bookkeeping of the last run.
func (v *Validator) LastRunGroups() findings.Groups { return v.results.Groups() }

// Reset forgets the last run.
func (v *Validator) Reset() { v.results.Clear() }

// ValidateReader reads the whole document from r and validates it.
func (v *Validator) ValidateReader(ctx context.Context, r io.Reader) (bool, error) {
	if r == nil {
		return false, ErrNoDocument
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return false, fmt.Errorf("rdapschema: read document: %w", err)
	}
	return v.Validate(ctx, string(b))
}

// Validate checks doc and reports whether it is conformant. Findings from
// any previous run are discarded first. The error is non-nil only for
// rule-set defects or a cancelled context; document defects are findings.
func (v *Validator) Validate(ctx context.Context, doc string) (ok bool, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeConformant
		switch {
		case err != nil:
			outcome = metrics.OutcomeError
			v.log.Error("validation aborted", "error", err)
		case !ok:
			outcome = metrics.OutcomeNonConformant
		}
		v.metrics.RecordValidation(v.rs.name, outcome, time.Since(start))
		v.metrics.RecordFindings(v.rs.name, v.results.All().Codes())
		v.log.Debug("validation finished", "outcome", outcome, "findings", v.results.Len(), "elapsed", time.Since(start))
	}()

	v.results.Clear()
	v.results.RegisterGroups(v.rs.groups...)
	if err := ctx.Err(); err != nil {
		return false, err
	}

	parsed, err := engine.Decode([]byte(doc), engine.DecodeOptions{MaxDepth: v.depth})
	if err != nil {
		v.log.Debug("document is not valid JSON", "error", err)
		return false, v.rootFinding("structure", doc, i18n.KeyDocumentStructure)
	}
	for _, d := range parsed.Duplicates {
		if err := v.rootFinding("duplicate", d.Key+":"+d.FirstValue, i18n.KeyDuplicate); err != nil {
			return false, err
		}
	}

	reported, err := v.schemaPass(parsed.Value)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := v.rulePass(parsed.Value, reported); err != nil {
		return false, err
	}
	v.markEvaluated(parsed.Value)
	return v.results.Len() == 0, nil
}

// rootFinding reports a whole-document defect under the rule set's root
// codes.
func (v *Validator) rootFinding(key, value, msgKey string) error {
	code, err := v.rs.tree.CodeFor(v.rs.tree.Root(), key)
	if err != nil {
		return err
	}
	v.add(findings.New(code, value, v.msgs.Message(msgKey, nil)))
	if v.rs.rootRule != "" {
		v.results.MarkGroupFailed(v.rs.rootRule)
	}
	return nil
}

// schemaPass validates doc against the compiled root schema and returns
// the pointers its findings were reported at.
func (v *Validator) schemaPass(doc any) (ruletree.PointerSet, error) {
	verr := v.rs.schema.Validate(doc)
	if verr == nil {
		return ruletree.PointerSet{}, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(verr, &ve) {
		return ruletree.PointerSet{}, fmt.Errorf("rdapschema: schema validation: %w", verr)
	}
	res, err := v.rs.translator.Translate(ve, doc)
	if err != nil {
		return ruletree.PointerSet{}, err
	}
	for _, f := range res.Findings {
		v.add(f)
	}
	for _, name := range res.Failed {
		v.results.MarkGroupFailed(name)
	}
	v.metrics.RecordUnmatched(v.rs.name, len(res.Unmatched))
	return res.Reported, nil
}

func (v *Validator) rulePass(doc any, reported ruletree.PointerSet) error {
	env := &rules.Env{Tree: v.rs.tree, Doc: doc, Matcher: v.rs, Msgs: v.msgs, Reported: reported}
	for _, c := range v.rs.checkers {
		out, err := c.Check(env)
		if err != nil {
			return fmt.Errorf("rdapschema: %s rule %s: %w", c.Kind(), c.Rule(), err)
		}
		for _, f := range out.Findings {
			v.add(f)
		}
		if len(out.Findings) > 0 {
			v.results.MarkGroupFailed(c.Rule())
		}
	}
	return nil
}

// markEvaluated records every group that validated some part of doc and
// has not failed.
func (v *Validator) markEvaluated(doc any) {
	failed := map[string]struct{}{}
	for _, n := range v.results.Groups().Failed {
		failed[n] = struct{}{}
	}
	for _, g := range v.rs.groups {
		if _, f := failed[g]; f {
			continue
		}
		if !v.rs.tree.PointersForRule(g, doc, v.rs).Empty() {
			v.results.MarkGroupOK(g)
		}
	}
}

func (v *Validator) add(f findings.Finding) {
	if len(v.stamp) > 0 {
		f = findings.New(f.Code, f.Value, f.Message, v.stamp...)
	}
	v.results.Add(f)
}
