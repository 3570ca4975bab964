// Package events defines the messages workers publish to observers, the
// channel and cache key naming, and the broker and result cache contracts.
//
// The in-memory Broker and ResultCache serve single-process deployments and
// tests; the redis-backed implementations live in internal/platform/redis.
package events
