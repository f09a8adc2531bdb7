package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/rdapschema"
	"github.com/reoring/rdapschema/findings"
)

var errNonConformant = errors.New("document is not conformant")

type report struct {
	File       string           `json:"file"`
	RuleSet    string           `json:"ruleset"`
	Session    string           `json:"session"`
	Conformant bool             `json:"conformant"`
	Findings   findings.List    `json:"findings"`
	Groups     *findings.Groups `json:"groups,omitempty"`
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		ruleset string
		uri     string
		method  string
		accept  string
		status  int
		groups  bool
	)
	cmd := &cobra.Command{
		Use:   "validate [flags] FILE...",
		Short: "Validate RDAP response documents (\"-\" reads stdin).",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog(ruleset)
			if err != nil {
				return err
			}
			var opts []rdapschema.SessionOption
			if uri != "" || method != "" || accept != "" || cmd.Flags().Changed("status") {
				var sp *int
				if cmd.Flags().Changed("status") {
					sp = &status
				}
				opts = append(opts, rdapschema.WithQuery(uri, method, accept, sp))
			}

			allOK := true
			enc := gojson.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			for _, file := range args {
				data, err := readDoc(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				v, err := cat.NewValidator(ruleset, opts...)
				if err != nil {
					return err
				}
				ok, err := v.Validate(cmd.Context(), string(data))
				if err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
				allOK = allOK && ok
				r := report{File: file, RuleSet: ruleset, Session: v.ID(), Conformant: ok, Findings: v.Results()}
				if r.Findings == nil {
					r.Findings = findings.List{}
				}
				if groups {
					g := v.LastRunGroups()
					r.Groups = &g
				}
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			if !allOK {
				return errNonConformant
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&ruleset, "ruleset", "r", "domain", "rule set to validate against")
	f.StringVar(&uri, "uri", "", "queried URI stamped onto findings")
	f.StringVar(&method, "method", "", "HTTP method stamped onto findings")
	f.StringVar(&accept, "accept", "", "Accept header stamped onto findings")
	f.IntVar(&status, "status", 0, "received HTTP status code stamped onto findings")
	f.BoolVar(&groups, "groups", false, "include rule-group bookkeeping in the report")
	return cmd
}

func readDoc(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(file)
}
