package rdapschema

import (
	"io/fs"

	"github.com/hashicorp/go-hclog"

	"github.com/reoring/rdapschema/dataset"
	"github.com/reoring/rdapschema/i18n"
	"github.com/reoring/rdapschema/metrics"
	"github.com/reoring/rdapschema/rules"
	"github.com/reoring/rdapschema/rulesets"
)

// DefaultMaxDepth bounds document nesting.
const DefaultMaxDepth = 256

// Options configures a Catalog. The zero value is usable; missing fields
// fall back to the built-in rule sets, datasets and messages.
type Options struct {
	// RuleSets limits compilation to these names. Empty compiles all.
	RuleSets []string
	// Sources is a rule-set directory (see package rulesets).
	Sources fs.FS
	// Snapshot supplies reference datasets.
	Snapshot dataset.Snapshot
	// Messages renders finding messages.
	Messages i18n.Translator
	// Rules binds cross-cutting checkers to annotations.
	Rules *rules.Registry
	// Logger receives diagnostics, including untranslated violations.
	Logger hclog.Logger
	// Metrics is optional.
	Metrics *metrics.Collector
	// MaxDepth bounds document nesting; deeper documents are reported as
	// structurally invalid. Zero means DefaultMaxDepth, negative disables.
	MaxDepth int
}

// DefaultOptions returns options using the embedded rule sets and
// datasets.
func DefaultOptions() Options {
	return Options{
		Sources:  rulesets.Builtin(),
		Snapshot: dataset.Builtin(),
		Messages: i18n.Default(),
		Rules:    rules.NewRegistry(),
		Logger:   hclog.NewNullLogger(),
		MaxDepth: DefaultMaxDepth,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Sources == nil {
		o.Sources = d.Sources
	}
	if o.Snapshot == nil {
		o.Snapshot = d.Snapshot
	}
	if o.Messages == nil {
		o.Messages = d.Messages
	}
	if o.Rules == nil {
		o.Rules = d.Rules
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	switch {
	case o.MaxDepth == 0:
		o.MaxDepth = d.MaxDepth
	case o.MaxDepth < 0:
		o.MaxDepth = 0
	}
	return o
}
