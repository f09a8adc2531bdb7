package dataset

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// bundleFile is the on-disk layout of a dataset bundle:
//
//	datasets:
//	  - name: linkRelations
//	    label: link relations
//	    fold: true
//	    values: [self, related]
//	  - name: specialIPv4Addresses
//	    label: special IPv4 addresses
//	    prefixes: [10.0.0.0/8]
//	    invalidWhenMember: true
type bundleFile struct {
	Datasets []bundleEntry `yaml:"datasets"`
}

type bundleEntry struct {
	Name              string   `yaml:"name"`
	Label             string   `yaml:"label"`
	Fold              bool     `yaml:"fold"`
	Values            []string `yaml:"values"`
	Prefixes          []string `yaml:"prefixes"`
	InvalidWhenMember bool     `yaml:"invalidWhenMember"`
}

// LoadBundle reads a YAML dataset bundle. Fetching and parsing the upstream
// registries that feed a bundle is the job of a separate collaborator.
func LoadBundle(r io.Reader) ([]Dataset, error) {
	var f bundleFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("dataset: decode bundle: %w", err)
	}
	out := make([]Dataset, 0, len(f.Datasets))
	for i, e := range f.Datasets {
		if e.Name == "" {
			return nil, fmt.Errorf("dataset: bundle entry %d has no name", i)
		}
		label := e.Label
		if label == "" {
			label = e.Name
		}
		switch {
		case len(e.Prefixes) > 0 && len(e.Values) > 0:
			return nil, fmt.Errorf("dataset: %s: values and prefixes are exclusive", e.Name)
		case len(e.Prefixes) > 0:
			p, err := NewPrefixes(e.Name, label, e.InvalidWhenMember, e.Prefixes...)
			if err != nil {
				return nil, fmt.Errorf("dataset: %s: %w", e.Name, err)
			}
			out = append(out, p)
		default:
			out = append(out, NewSet(e.Name, label, e.Fold, e.Values...))
		}
	}
	return out, nil
}
