// Package dataset holds the immutable reference registries that format checks
// consult: address allocation space, special-purpose address blocks and the
// IANA-style value registries used by RDAP responses.
//
// A Snapshot is built once per process (or per run) and shared read-only by
// every validation session.
package dataset

import (
	"net/netip"
	"sort"
	"strings"
)

// Well-known dataset names referenced from rule sets.
const (
	IPv4AddressSpace       = "ipv4AddressSpace"
	IPv6AddressSpace       = "ipv6AddressSpace"
	SpecialIPv4Addresses   = "specialIPv4Addresses"
	SpecialIPv6Addresses   = "specialIPv6Addresses"
	RDAPExtensions         = "rdapExtensions"
	LinkRelations          = "linkRelations"
	MediaTypes             = "mediaTypes"
	EventActions           = "eventActions"
	Statuses               = "statuses"
	Roles                  = "roles"
	VariantRelations       = "variantRelations"
	NoticeAndRemarkTypes   = "noticeAndRemarkTypes"
	DNSSECAlgorithmNumbers = "dnsSecAlgorithmNumbers"
)

// Dataset is a named membership registry.
type Dataset interface {
	Name() string
	// Label is the human name used in finding messages.
	Label() string
	Contains(v string) bool
	// IsInvalid reports whether v must be rejected by checks backed by this
	// dataset. For value registries it is !Contains; for special-purpose
	// address registries membership itself is the defect.
	IsInvalid(v string) bool
}

// Snapshot exposes datasets by name.
type Snapshot interface {
	Dataset(name string) (Dataset, bool)
	Names() []string
}

// Set is a value registry.
type Set struct {
	name, label string
	fold        bool
	values      map[string]struct{}
}

// NewSet builds a value registry. When fold is true membership ignores ASCII
// case.
func NewSet(name, label string, fold bool, values ...string) *Set {
	s := &Set{name: name, label: label, fold: fold, values: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.values[s.norm(v)] = struct{}{}
	}
	return s
}

func (s *Set) norm(v string) string {
	if s.fold {
		return strings.ToLower(v)
	}
	return v
}

func (s *Set) Name() string  { return s.name }
func (s *Set) Label() string { return s.label }

func (s *Set) Contains(v string) bool {
	_, ok := s.values[s.norm(v)]
	return ok
}

func (s *Set) IsInvalid(v string) bool { return !s.Contains(v) }

// Values returns the registry content sorted.
func (s *Set) Values() []string {
	out := make([]string, 0, len(s.values))
	for v := range s.values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Prefixes is an address-block registry.
type Prefixes struct {
	name, label string
	// invalidWhenMember marks registries whose members are rejected
	// (special-purpose blocks) rather than required (allocation space).
	invalidWhenMember bool
	prefixes          []netip.Prefix
}

// NewPrefixes builds an address-block registry from CIDR strings.
func NewPrefixes(name, label string, invalidWhenMember bool, cidrs ...string) (*Prefixes, error) {
	p := &Prefixes{name: name, label: label, invalidWhenMember: invalidWhenMember}
	for _, c := range cidrs {
		pfx, err := netip.ParsePrefix(c)
		if err != nil {
			return nil, err
		}
		p.prefixes = append(p.prefixes, pfx.Masked())
	}
	return p, nil
}

func mustPrefixes(name, label string, invalidWhenMember bool, cidrs ...string) *Prefixes {
	p, err := NewPrefixes(name, label, invalidWhenMember, cidrs...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Prefixes) Name() string  { return p.name }
func (p *Prefixes) Label() string { return p.label }

// Contains reports whether v parses as an address inside one of the blocks.
func (p *Prefixes) Contains(v string) bool {
	addr, err := netip.ParseAddr(v)
	if err != nil || addr.Zone() != "" {
		return false
	}
	return p.ContainsAddr(addr)
}

// ContainsAddr is Contains for an already parsed address.
func (p *Prefixes) ContainsAddr(addr netip.Addr) bool {
	for _, pfx := range p.prefixes {
		if pfx.Contains(addr) {
			return true
		}
	}
	return false
}

func (p *Prefixes) IsInvalid(v string) bool {
	if p.invalidWhenMember {
		return p.Contains(v)
	}
	return !p.Contains(v)
}

// Memory is the in-memory Snapshot. It is immutable once returned.
type Memory struct {
	byName map[string]Dataset
}

// NewSnapshot indexes the given datasets. Later entries replace earlier ones
// with the same name.
func NewSnapshot(ds ...Dataset) *Memory {
	m := &Memory{byName: make(map[string]Dataset, len(ds))}
	for _, d := range ds {
		m.byName[d.Name()] = d
	}
	return m
}

// With returns a new snapshot overlaying ds on m.
func (m *Memory) With(ds ...Dataset) *Memory {
	all := make([]Dataset, 0, len(m.byName)+len(ds))
	for _, n := range m.Names() {
		all = append(all, m.byName[n])
	}
	return NewSnapshot(append(all, ds...)...)
}

func (m *Memory) Dataset(name string) (Dataset, bool) {
	d, ok := m.byName[name]
	return d, ok
}

func (m *Memory) Names() []string {
	out := make([]string, 0, len(m.byName))
	for n := range m.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
