// Package task runs the asynchronous side of quiz generation: the durable
// job queue abstraction, the worker pools that consume it, and the two job
// handlers. Generation jobs drive a quiz from queued to draft; minion jobs
// perform one scoped edit and hand the result back through the result cache
// and the event broker.
package task
