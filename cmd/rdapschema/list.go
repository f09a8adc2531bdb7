package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reoring/rdapschema/rulesets"
)

func newRuleSetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rulesets",
		Short: "List the available rule sets.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fsys := rulesets.Builtin()
			if a.cfg.RuleSetDir != "" {
				fsys = os.DirFS(a.cfg.RuleSetDir)
			}
			set, err := rulesets.Load(fsys)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			for _, n := range set.Names() {
				e, _ := set.Entry(n)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Root, e.Description)
			}
			return tw.Flush()
		},
	}
}

func newGroupsCmd(a *app) *cobra.Command {
	var ruleset string
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List the rule groups a rule set tracks.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.catalog(ruleset)
			if err != nil {
				return err
			}
			rs, err := cat.RuleSet(ruleset)
			if err != nil {
				return err
			}
			kinds := map[string][]string{}
			for _, c := range rs.Checkers() {
				kinds[c.Rule()] = append(kinds[c.Rule()], c.Kind())
			}
			for _, g := range rs.Groups() {
				if ks := kinds[g]; len(ks) > 0 {
					fmt.Fprintf(a.stdout, "%s\t%v\n", g, ks)
					continue
				}
				fmt.Fprintln(a.stdout, g)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&ruleset, "ruleset", "r", "domain", "rule set to inspect")
	return cmd
}
