package rulesets_test

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/rdapschema/rulesets"
	"github.com/reoring/rdapschema/ruletree"
)

func TestLoadBuiltin(t *testing.T) {
	s, err := rulesets.LoadBuiltin()
	require.NoError(t, err)
	assert.Equal(t, []string{"domain", "entity", "error", "events", "help", "links", "nameserver"}, s.Names())

	root, ok := s.RootURL("domain")
	require.True(t, ok)
	assert.Equal(t, ruletree.URL("domain.json")+"#", root)

	res := s.Resources()
	for _, f := range []string{"common.json", "domain.json", "entity.json", "nameserver.json", "help.json", "error.json"} {
		assert.Contains(t, res, ruletree.URL(f))
	}
	assert.NotContains(t, res, ruletree.URL(rulesets.IndexFile))

	root, ok = s.RootURL("links")
	require.True(t, ok)
	assert.Equal(t, ruletree.URL("common.json")+"#/$defs/links", root)
}

func TestBuiltinTreesResolve(t *testing.T) {
	s, err := rulesets.LoadBuiltin()
	require.NoError(t, err)
	for _, name := range s.Names() {
		root, _ := s.RootURL(name)
		tree, diag, err := ruletree.Build(root, s.Resources())
		require.NoError(t, err, name)
		assert.Empty(t, diag.Warnings(), name)
		keys := []string{"structure", "duplicate", "validation"}
		if e, _ := s.Entry(name); !strings.Contains(e.Root, "#") {
			// document rule sets also cover their own members
			keys = append(keys, "required", "unknown")
		}
		for _, key := range keys {
			_, err := tree.CodeFor(tree.Root(), key)
			assert.NoError(t, err, "%s: root code %s", name, key)
		}
	}
}

func TestLoad_YAMLResources(t *testing.T) {
	fsys := fstest.MapFS{
		"index.yaml": {Data: []byte("rulesets:\n  - name: tiny\n    root: tiny.yaml\n")},
		"tiny.yaml":  {Data: []byte("type: object\nx-rdap:\n  codes:\n    structure: -1\n")},
		"README.md":  {Data: []byte("ignored")},
	}
	s, err := rulesets.Load(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"tiny"}, s.Names())
	assert.Len(t, s.Resources(), 1)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"no index": {"a.json": {Data: []byte(`{}`)}},
		"bad root": {"index.yaml": {Data: []byte("rulesets:\n  - name: x\n    root: missing.json\n")}},
		"no name":  {"index.yaml": {Data: []byte("rulesets:\n  - root: a.json\n")}, "a.json": {Data: []byte(`{}`)}},
		"bad json": {"index.yaml": {Data: []byte("rulesets: []\n")}, "a.json": {Data: []byte(`{`)}},
		"duplicate": {
			"index.yaml": {Data: []byte("rulesets:\n  - {name: x, root: a.json}\n  - {name: x, root: a.json}\n")},
			"a.json":     {Data: []byte(`{}`)},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := rulesets.Load(fsys)
			var le *rulesets.LoadError
			require.Error(t, err)
			assert.True(t, errors.As(err, &le), "%v", err)
		})
	}
}
