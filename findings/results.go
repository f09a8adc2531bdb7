package findings

import (
	"sort"
	"sync"
)

// Results is the per-session finding set plus rule-group bookkeeping.
//
// Add has set semantics on the finding identity; insertion order is kept
// for display. A Results value belongs to exactly one validation session.
// Clear must not race with Add.
type Results struct {
	mu     sync.Mutex
	order  []Finding
	index  map[key]struct{}
	known  map[string]struct{}
	ok     map[string]struct{}
	failed map[string]struct{}
}

// Groups is a snapshot of rule-group bookkeeping. All slices are sorted.
type Groups struct {
	// Known lists every rule name registered before the run.
	Known []string
	// Evaluated lists rules that applied to the document (passed or failed).
	Evaluated []string
	// Failed lists rules with at least one finding attributed to them.
	Failed []string
}

// NotEvaluated lists the known rules that never applied.
func (g Groups) NotEvaluated() []string {
	ev := make(map[string]struct{}, len(g.Evaluated))
	for _, n := range g.Evaluated {
		ev[n] = struct{}{}
	}
	var out []string
	for _, n := range g.Known {
		if _, ok := ev[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// NewResults returns an empty aggregator.
func NewResults() *Results {
	r := &Results{}
	r.reset()
	return r
}

func (r *Results) reset() {
	r.order = nil
	r.index = map[key]struct{}{}
	r.known = map[string]struct{}{}
	r.ok = map[string]struct{}{}
	r.failed = map[string]struct{}{}
}

// Add inserts f unless an identical finding is present. It reports whether
// the set changed.
func (r *Results) Add(f Finding) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := f.key()
	if _, dup := r.index[k]; dup {
		return false
	}
	r.index[k] = struct{}{}
	r.order = append(r.order, f)
	return true
}

// AddAll adds every finding and returns how many were new.
func (r *Results) AddAll(fs ...Finding) int {
	n := 0
	for _, f := range fs {
		if r.Add(f) {
			n++
		}
	}
	return n
}

// All returns a copy of the findings in insertion order.
func (r *Results) All() List {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(List(nil), r.order...)
}

// Len is the number of distinct findings.
func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Contains reports whether a finding with the same identity is present.
func (r *Results) Contains(f Finding) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.index[f.key()]
	return ok
}

// RegisterGroups seeds the universe of rule names for the run.
func (r *Results) RegisterGroups(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		r.known[n] = struct{}{}
	}
}

// MarkGroupOK records that a rule applied and passed. A rule already marked
// failed stays failed.
func (r *Results) MarkGroupOK(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[name] = struct{}{}
	if _, failed := r.failed[name]; !failed {
		r.ok[name] = struct{}{}
	}
}

// MarkGroupFailed records that a rule applied and failed.
func (r *Results) MarkGroupFailed(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[name] = struct{}{}
	delete(r.ok, name)
	r.failed[name] = struct{}{}
}

// Groups returns the bookkeeping snapshot.
func (r *Results) Groups() Groups {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := Groups{
		Known:  sortedKeys(r.known),
		Failed: sortedKeys(r.failed),
	}
	ev := make(map[string]struct{}, len(r.ok)+len(r.failed))
	for n := range r.ok {
		ev[n] = struct{}{}
	}
	for n := range r.failed {
		ev[n] = struct{}{}
	}
	g.Evaluated = sortedKeys(ev)
	return g
}

// Clear resets findings and group bookkeeping.
func (r *Results) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
