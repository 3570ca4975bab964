// Package generation defines the AI capabilities the workers depend on
// (architecture design, question building, scoped edits, translation and
// document retrieval), the error taxonomy used to decide retries, and the
// fixed set of user-safe messages derived from it. Implementations live in
// internal/platform.
package generation
