package rdapschema

import (
	"errors"

	"github.com/reoring/rdapschema/format"
	"github.com/reoring/rdapschema/ruletree"
)

var (
	// ErrAnnotationMissing reports a rule set that lacks a code the engine
	// needs. Use errors.As with *ruletree.AnnotationError for details.
	ErrAnnotationMissing = ruletree.ErrAnnotationMissing
	// ErrDatasetMissing reports a rule set referencing a dataset the
	// snapshot does not carry.
	ErrDatasetMissing = format.ErrDatasetMissing
	// ErrUnknownRuleSet is returned for a rule-set name the catalog does not
	// hold.
	ErrUnknownRuleSet = errors.New("rdapschema: unknown rule set")
	// ErrNoDocument is returned when no document source was supplied.
	ErrNoDocument = errors.New("rdapschema: no document")
)

// IsConfigError reports whether err signals a rule-set or configuration
// defect rather than an I/O or cancellation problem.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrAnnotationMissing) ||
		errors.Is(err, ErrDatasetMissing) ||
		errors.Is(err, ErrUnknownRuleSet)
}
