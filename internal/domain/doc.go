// Package domain contains the quiz aggregate, its append-only drafts, the
// generation lifecycle and the pure content transformations applied by
// workers and draft patches. Nothing in this package performs I/O.
package domain
