// Package api handles incoming HTTP requests, request validation and
// response formatting. It adapts HTTP to the services in internal/service
// and streams generation progress and edit results over server-sent events
// through internal/stream.
package api
