// Package redis backs the job queues, the pub/sub broker and the minion
// result cache with Redis, so API processes and workers can run separately.
package redis
