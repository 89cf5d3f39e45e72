// Package diag defines the diagnostic model shared by all resolution phases:
// severities, stable error codes, the Diagnostic value itself, the bounded Bag
// accumulator and the Reporter contract used by phases to emit diagnostics
// without knowing where they end up.
package diag
