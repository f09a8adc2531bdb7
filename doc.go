// Package rdapschema checks RDAP responses for conformance.
//
// A Catalog compiles annotated JSON Schema rule sets once. Each Validator
// is one session against a rule set: it parses the document, runs schema
// validation, translates failures into numbered findings, applies the
// cross-cutting rules and records which rule groups passed or failed.
//
// Design policy:
//   - Document defects are findings. Errors are reserved for rule-set and
//     configuration defects (ErrAnnotationMissing, ErrDatasetMissing).
//   - Catalogs, rule trees, compiled schemas and dataset snapshots are
//     immutable and shared; findings live only in a session.
//   - Codes come from the rule set's x-rdap annotations, never from engine
//     logic.
//
// Typical usage:
//
//	cat, err := rdapschema.NewCatalog(rdapschema.DefaultOptions())
//	v, err := cat.NewValidator("domain")
//	ok, err := v.Validate(ctx, body)
//	for _, f := range v.Results() { ... }
package rdapschema
