package format

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/reoring/rdapschema/dataset"
)

// Format names understood by rule sets.
const (
	IPv4          = "ipv4-rdap"
	IPv6          = "ipv6-rdap"
	HostnameRDAP  = "hostname-rdap"
	DatasetPrefix = "dataset:"
)

// Register installs the RDAP formats on c and turns format assertion on.
// It fails with ErrDatasetMissing when the snapshot lacks a dataset the
// address formats depend on.
func Register(c *jsonschema.Compiler, snap dataset.Snapshot) error {
	for _, n := range []string{
		dataset.IPv4AddressSpace, dataset.SpecialIPv4Addresses,
		dataset.IPv6AddressSpace, dataset.SpecialIPv6Addresses,
	} {
		if _, ok := snap.Dataset(n); !ok {
			return fmt.Errorf("%w: %s", ErrDatasetMissing, n)
		}
	}

	c.RegisterFormat(&jsonschema.Format{Name: IPv4, Validate: func(v any) error {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		return asError(CheckIPv4(snap, s))
	}})
	c.RegisterFormat(&jsonschema.Format{Name: IPv6, Validate: func(v any) error {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		return asError(CheckIPv6(snap, s))
	}})
	c.RegisterFormat(&jsonschema.Format{Name: HostnameRDAP, Validate: func(v any) error {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		return asError(Hostname(s))
	}})
	for _, name := range snap.Names() {
		name := name
		c.RegisterFormat(&jsonschema.Format{Name: DatasetPrefix + name, Validate: func(v any) error {
			s, ok := scalarText(v)
			if !ok {
				return nil
			}
			viol, err := Membership(snap, name, s)
			if err != nil {
				return err
			}
			return asError(viol)
		}})
	}
	c.AssertFormat()
	return nil
}

// asError keeps a nil *Violation from becoming a non-nil error.
func asError(v *Violation) error {
	if v == nil {
		return nil
	}
	return v
}

// scalarText lets dataset formats apply to numeric registries as well.
func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	}
	return "", false
}
