package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_Stdin(t *testing.T) {
	out, err := run(t, `{"objectClassName": "error", "errorCode": 404, "title": "Not Found"}`,
		"validate", "-r", "error", "--uri", "https://rdap.example.net/domain/nope", "--status", "404", "-")
	require.True(t, errors.Is(err, errNonConformant), "%v", err)

	var r report
	require.NoError(t, gojson.Unmarshal([]byte(out), &r))
	assert.False(t, r.Conformant)
	require.Len(t, r.Findings, 1)
	assert.Equal(t, -12107, r.Findings[0].Code)
	assert.Equal(t, "https://rdap.example.net/domain/nope", r.Findings[0].QueriedURI)
	require.NotNil(t, r.Findings[0].HTTPStatusCode)
	assert.Equal(t, 404, *r.Findings[0].HTTPStatusCode)
}

func TestValidate_FileConformant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "help.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
	  "rdapConformance": ["rdap_level_0"],
	  "notices": [{"title": "Help", "description": ["See the documentation."]}]
	}`), 0o644))

	out, err := run(t, "", "validate", "-r", "help", "--groups", path)
	require.NoError(t, err)
	var r report
	require.NoError(t, gojson.Unmarshal([]byte(out), &r))
	assert.True(t, r.Conformant)
	assert.Empty(t, r.Findings)
	require.NotNil(t, r.Groups)
	assert.Contains(t, r.Groups.Evaluated, "stdRdapHelpValidation")
}

func TestValidate_CustomDatasets(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(bundle, []byte(`
datasets:
  - name: rdapExtensions
    label: RDAP extensions
    values: [rdap_level_0]
`), 0o644))
	doc := filepath.Join(dir, "help.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{
	  "rdapConformance": ["rdap_level_0", "cidr0"],
	  "notices": [{"description": ["x"]}]
	}`), 0o644))

	out, err := run(t, "", "validate", "-r", "help", "--datasets", bundle, doc)
	require.True(t, errors.Is(err, errNonConformant), "%v", err)
	assert.Contains(t, out, `"code": -10502`)
}

func TestRuleSetsAndGroups(t *testing.T) {
	out, err := run(t, "", "rulesets")
	require.NoError(t, err)
	for _, n := range []string{"domain", "entity", "nameserver", "help", "error", "links", "events"} {
		assert.Contains(t, out, n)
	}

	out, err = run(t, "", "groups", "-r", "domain")
	require.NoError(t, err)
	assert.Contains(t, out, "stdRdapEventsValidation\t[unique]")
	assert.Contains(t, out, "stdRdapDomainLookupValidation\n")
}

func TestUnknownRuleSet(t *testing.T) {
	_, err := run(t, "{}", "validate", "-r", "autnum", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rule set")
}
