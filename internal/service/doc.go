// Package service contains the application use cases behind the HTTP API:
// creating and managing quizzes, editing drafts, dispatching scoped AI
// edits and translating drafts.
//
// Services receive their stores, job queue and generation capabilities
// through constructor injection and never depend on concrete
// infrastructure. Long-running work is never done here; it is enqueued for
// the workers in internal/task.
//
// Every operation is scoped to the calling user. A quiz owned by someone
// else is reported as ErrNotOwned, which the API maps to 403.
package service
