package findings

import (
	"fmt"
	"strings"
)

// Finding is a single conformance defect.
//
// Code is a stable negative identifier taken from the rule set; callers must
// not renumber it. Identity is the (Code, Value, Message) tuple; the HTTP
// fields describe the query that produced the document and do not take part
// in equality.
type Finding struct {
	Code    int    `json:"code"`
	Value   string `json:"value"`
	Message string `json:"message"`

	HTTPStatusCode *int   `json:"receivedHttpStatusCode,omitempty"`
	AcceptHeader   string `json:"acceptHeader,omitempty"`
	QueriedURI     string `json:"queriedURI,omitempty"`
	HTTPMethod     string `json:"httpMethod,omitempty"`
}

// Option decorates a Finding at construction time.
type Option func(*Finding)

// New builds a Finding. Options are applied once; the returned value is not
// meant to be mutated afterwards.
func New(code int, value, message string, opts ...Option) Finding {
	f := Finding{Code: code, Value: value, Message: message}
	for _, o := range opts {
		o(&f)
	}
	return f
}

// WithQuery stamps the HTTP query metadata.
func WithQuery(uri, method, accept string, status *int) Option {
	return func(f *Finding) {
		f.QueriedURI = uri
		f.HTTPMethod = method
		f.AcceptHeader = accept
		if status != nil {
			s := *status
			f.HTTPStatusCode = &s
		}
	}
}

type key struct {
	code    int
	value   string
	message string
}

func (f Finding) key() key { return key{f.Code, f.Value, f.Message} }

// Same reports whether two findings have the same identity.
func (f Finding) Same(o Finding) bool { return f.key() == o.key() }

func (f Finding) String() string {
	return fmt.Sprintf("%d %s: %s", f.Code, f.Value, f.Message)
}

// List is an ordered slice of findings.
type List []Finding

// Codes returns the codes of the list in order.
func (l List) Codes() []int {
	out := make([]int, len(l))
	for i, f := range l {
		out[i] = f.Code
	}
	return out
}

// WithCode filters the list by code.
func (l List) WithCode(code int) List {
	var out List
	for _, f := range l {
		if f.Code == code {
			out = append(out, f)
		}
	}
	return out
}

// Summary renders the first few findings on one line.
func (l List) Summary() string {
	if len(l) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(l), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%d at %s", l[i].Code, l[i].Value)
	}
	if len(l) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(l))
	}
	return b.String()
}
