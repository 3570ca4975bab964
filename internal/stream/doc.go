// Package stream delivers quiz status updates and minion results to HTTP
// observers as server-sent events.
//
// Both bridges subscribe before re-reading the persisted state, so an event
// published between the first read and the subscription is never lost. The
// subscription is released exactly once on every exit path, and observers
// never influence the jobs they watch.
package stream
