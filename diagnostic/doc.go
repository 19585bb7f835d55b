// Package diagnostic models diagnostics collected from a target (log files,
// crash reports) and the pure query/format transforms applied to them before
// reporting. Transforms never mutate their inputs; each one returns a new
// Diagnostic value.
package diagnostic
