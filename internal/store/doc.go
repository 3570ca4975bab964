// Package store defines the persistence interfaces for quizzes and their
// draft snapshots, and the shared store errors. Stores accept a DBTX so
// callers may run them inside their own transaction via WithTx.
// Implementations live in internal/platform/postgres.
package store
