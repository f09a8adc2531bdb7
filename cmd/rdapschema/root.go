package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/reoring/rdapschema"
	"github.com/reoring/rdapschema/dataset"
	"github.com/reoring/rdapschema/i18n"
	"github.com/reoring/rdapschema/internal/config"
	"github.com/reoring/rdapschema/internal/logging"
)

type app struct {
	stdout, stderr io.Writer

	cfgFile  string
	datasets []string
	dir      string
	lang     string

	cfg *config.Config
	log hclog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "rdapschema [command]",
		Short:         "Check RDAP responses against annotated JSON Schema rule sets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "YAML configuration file")
	pf.StringSliceVar(&a.datasets, "datasets", nil, "dataset bundle files overlaid on the built-in datasets")
	pf.StringVar(&a.dir, "rulesets-dir", "", "rule-set directory replacing the embedded rule sets")
	pf.StringVar(&a.lang, "lang", "", "message language (en, ja)")

	root.AddCommand(newValidateCmd(a), newRuleSetsCmd(a), newGroupsCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	cfg.Datasets = append(cfg.Datasets, a.datasets...)
	if a.dir != "" {
		cfg.RuleSetDir = a.dir
	}
	if a.lang != "" {
		cfg.Language = a.lang
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(cfg.Logger, "rdapschema", a.stderr)
	return nil
}

// catalog builds a catalog from the configuration. names limits
// compilation; empty compiles every rule set.
func (a *app) catalog(names ...string) (*rdapschema.Catalog, error) {
	opts := rdapschema.DefaultOptions()
	opts.RuleSets = names
	opts.Logger = a.log
	opts.Messages = i18n.ForLanguage(a.cfg.Base())
	if a.cfg.MaxDepth != 0 {
		opts.MaxDepth = a.cfg.MaxDepth
	}
	if a.cfg.RuleSetDir != "" {
		opts.Sources = os.DirFS(a.cfg.RuleSetDir)
	}
	snap := dataset.Builtin()
	for _, path := range a.cfg.Datasets {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("datasets: %w", err)
		}
		ds, err := dataset.LoadBundle(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("datasets: %s: %w", path, err)
		}
		a.log.Debug("dataset bundle loaded", "file", path, "datasets", len(ds))
		snap = snap.With(ds...)
	}
	opts.Snapshot = snap
	return rdapschema.NewCatalog(opts)
}
