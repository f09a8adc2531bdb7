package ruletree

import (
	"errors"
	"fmt"
)

// ErrAnnotationMissing is returned when a schema location carries no code
// for the requested key. It signals a rule-set defect, never a document
// defect.
var ErrAnnotationMissing = errors.New("ruletree: annotation missing")

// AnnotationError names the location and key of a failed lookup.
type AnnotationError struct {
	Location string
	Key      string
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("%v: no %q code at or above %s", ErrAnnotationMissing, e.Key, e.Location)
}

func (e *AnnotationError) Unwrap() error { return ErrAnnotationMissing }

// Diag carries non-fatal warnings produced while building a tree.
type Diag interface {
	HasWarnings() bool
	Warnings() []string
}

type simpleDiag struct{ ws []string }

func (d *simpleDiag) HasWarnings() bool        { return len(d.ws) > 0 }
func (d *simpleDiag) Warnings() []string       { return append([]string(nil), d.ws...) }
func (d *simpleDiag) warnf(f string, a ...any) { d.ws = append(d.ws, fmt.Sprintf(f, a...)) }
