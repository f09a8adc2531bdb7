// Package rulesets ships the RDAP rule-set documents and loads rule-set
// directories.
//
// A directory holds an index.yaml naming the rule sets and their root files.
// Every other .json, .yaml or .yml file is a shared resource that roots may
// reference by relative URL (for example "common.json#/$defs/links").
package rulesets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/reoring/rdapschema/ruletree"
)

//go:embed index.yaml *.json
var builtin embed.FS

// IndexFile is the name of the directory index.
const IndexFile = "index.yaml"

// Builtin returns the embedded rule-set directory.
func Builtin() fs.FS { return builtin }

// Entry describes one named rule set.
type Entry struct {
	Name        string `yaml:"name"`
	Root        string `yaml:"root"`
	Description string `yaml:"description"`
}

type index struct {
	RuleSets []Entry `yaml:"rulesets"`
}

// LoadError reports a file that could not be read or decoded.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rulesets: %s: %s: %v", e.File, e.Message, e.Cause)
	}
	return fmt.Sprintf("rulesets: %s: %s", e.File, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Set is a loaded rule-set directory. It is read-only after Load.
type Set struct {
	entries   map[string]Entry
	resources map[string]any
}

// Load reads the index and every resource in fsys.
func Load(fsys fs.FS) (*Set, error) {
	raw, err := fs.ReadFile(fsys, IndexFile)
	if err != nil {
		return nil, &LoadError{File: IndexFile, Message: "failed to read index", Cause: err}
	}
	var idx index
	if err := yaml.Unmarshal(raw, &idx); err != nil {
		return nil, &LoadError{File: IndexFile, Message: "YAML parsing failed", Cause: err}
	}

	s := &Set{entries: map[string]Entry{}, resources: map[string]any{}}
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || p == IndexFile {
			return nil
		}
		var decode func([]byte) (any, error)
		switch strings.ToLower(path.Ext(p)) {
		case ".json":
			decode = ruletree.LoadJSON
		case ".yaml", ".yml":
			decode = ruletree.LoadYAML
		default:
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return &LoadError{File: p, Message: "failed to read file", Cause: err}
		}
		if !utf8.Valid(data) {
			return &LoadError{File: p, Message: "file contains invalid UTF-8 encoding"}
		}
		doc, err := decode(data)
		if err != nil {
			return &LoadError{File: p, Message: "decode failed", Cause: err}
		}
		s.resources[ruletree.URL(p)] = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, e := range idx.RuleSets {
		switch {
		case e.Name == "":
			return nil, &LoadError{File: IndexFile, Message: "rule set without a name"}
		case e.Root == "":
			return nil, &LoadError{File: IndexFile, Message: fmt.Sprintf("rule set %q has no root", e.Name)}
		}
		if _, dup := s.entries[e.Name]; dup {
			return nil, &LoadError{File: IndexFile, Message: fmt.Sprintf("rule set %q listed twice", e.Name)}
		}
		file, _, _ := strings.Cut(e.Root, "#")
		if _, ok := s.resources[ruletree.URL(file)]; !ok {
			return nil, &LoadError{File: IndexFile, Message: fmt.Sprintf("rule set %q: root file %s not found", e.Name, file)}
		}
		s.entries[e.Name] = e
	}
	return s, nil
}

// LoadBuiltin loads the embedded directory.
func LoadBuiltin() (*Set, error) { return Load(builtin) }

// Names lists the rule sets, sorted.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.entries))
	for n := range s.entries {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Entry returns the index entry for name.
func (s *Set) Entry(name string) (Entry, bool) {
	e, ok := s.entries[name]
	return e, ok
}

// RootURL is the schema location a rule set is compiled from.
func (s *Set) RootURL(name string) (string, bool) {
	e, ok := s.entries[name]
	if !ok {
		return "", false
	}
	return ruletree.Normalize(ruletree.URL(e.Root)), true
}

// Resources maps resource URLs to decoded documents. Callers must not
// modify the returned documents.
func (s *Set) Resources() map[string]any {
	out := make(map[string]any, len(s.resources))
	for k, v := range s.resources {
		out[k] = v
	}
	return out
}
