// Package format implements the value predicates behind RDAP-specific
// string formats: address syntax and allocation, hostname validity and
// dataset membership.
//
// Predicates are pure. They return a *Violation describing why a value is
// rejected (or nil) and never record findings themselves; the translator
// turns violations raised through the schema library into findings.
package format

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"golang.org/x/net/idna"

	"github.com/reoring/rdapschema/dataset"
)

// Violation keys. A rule-set node annotates each with its own code.
const (
	KeySyntax     = "syntax"
	KeyAllocation = "allocation"
	KeySpecial    = "special"
	KeyDataset    = "dataset"
)

// ErrDatasetMissing is returned when a format needs a dataset the snapshot
// does not provide. It is a configuration defect, not a document defect.
var ErrDatasetMissing = errors.New("format: dataset missing from snapshot")

// Violation describes a rejected value.
type Violation struct {
	// Key is one of KeySyntax, KeyAllocation, KeySpecial or KeyDataset.
	Key string
	// Format is the format name that rejected the value.
	Format  string
	Dataset string
	// Label is the dataset's human name, empty for syntax violations.
	Label string
	Value string
}

func (v *Violation) Error() string {
	switch v.Key {
	case KeySyntax:
		return fmt.Sprintf("%q is not a syntactically valid %s", v.Value, v.Format)
	case KeyDataset:
		return fmt.Sprintf("%q is not included in the %s dataset", v.Value, v.Label)
	default:
		return fmt.Sprintf("%q fails %s check against %s", v.Value, v.Key, v.Label)
	}
}

// IPv4Syntax reports whether s is a dot-decimal IPv4 address.
func IPv4Syntax(s string) bool {
	a, err := netip.ParseAddr(s)
	return err == nil && a.Is4()
}

// IPv6Syntax reports whether s is a colon-hex IPv6 address without zone.
func IPv6Syntax(s string) bool {
	if !strings.Contains(s, ":") {
		return false
	}
	a, err := netip.ParseAddr(s)
	return err == nil && a.Is6() && a.Zone() == ""
}

// CheckIPv4 runs syntax, allocation and special-purpose checks in that order
// and reports the first failure.
func CheckIPv4(snap dataset.Snapshot, s string) *Violation {
	return checkIP(snap, s, "ipv4", IPv4Syntax, dataset.IPv4AddressSpace, dataset.SpecialIPv4Addresses)
}

// CheckIPv6 is CheckIPv4 for colon-hex addresses.
func CheckIPv6(snap dataset.Snapshot, s string) *Violation {
	return checkIP(snap, s, "ipv6", IPv6Syntax, dataset.IPv6AddressSpace, dataset.SpecialIPv6Addresses)
}

func checkIP(snap dataset.Snapshot, s, name string, syntax func(string) bool, space, special string) *Violation {
	if !syntax(s) {
		return &Violation{Key: KeySyntax, Format: name, Value: s}
	}
	if d, ok := snap.Dataset(space); ok && d.IsInvalid(s) {
		return &Violation{Key: KeyAllocation, Format: name, Dataset: space, Label: d.Label(), Value: s}
	}
	if d, ok := snap.Dataset(special); ok && d.IsInvalid(s) {
		return &Violation{Key: KeySpecial, Format: name, Dataset: special, Label: d.Label(), Value: s}
	}
	return nil
}

// Hostname checks label lengths (1-63 octets), total length (at most 253),
// label count (at least two) and label encoding. U-labels are converted to
// A-labels first; a single trailing dot is accepted.
func Hostname(s string) *Violation {
	bad := &Violation{Key: KeySyntax, Format: "hostname", Value: s}
	name := strings.TrimSuffix(s, ".")
	if name == "" {
		return bad
	}
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return bad
	}
	if len(ascii) > 253 {
		return bad
	}
	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return bad
	}
	for _, l := range labels {
		if !ldhLabel(l) {
			return bad
		}
	}
	return nil
}

func ldhLabel(l string) bool {
	if len(l) < 1 || len(l) > 63 {
		return false
	}
	if l[0] == '-' || l[len(l)-1] == '-' {
		return false
	}
	for i := 0; i < len(l); i++ {
		c := l[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

// Membership reports a dataset violation when v is invalid for the named
// dataset. A dataset absent from the snapshot yields ErrDatasetMissing.
func Membership(snap dataset.Snapshot, name, v string) (*Violation, error) {
	d, ok := snap.Dataset(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetMissing, name)
	}
	if d.IsInvalid(v) {
		return &Violation{Key: KeyDataset, Format: DatasetPrefix + name, Dataset: name, Label: d.Label(), Value: v}, nil
	}
	return nil, nil
}
