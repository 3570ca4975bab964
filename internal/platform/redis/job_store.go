package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/task"
)

// DefaultKeyPrefix namespaces every key written by JobStore.
const DefaultKeyPrefix = "quizzer:jobs"

// deadListCap bounds each queue's dead list.
const deadListCap = 1000

// reserveScript promotes due delayed jobs, pops the next waiting id and
// marks it active in one round trip.
//
// KEYS: delayed, waiting, active. ARGV: now in unix milliseconds.
var reserveScript = goredis.NewScript(`
local ready = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, id in ipairs(ready) do
	redis.call('RPUSH', KEYS[2], id)
end
if #ready > 0 then
	redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
end
local id = redis.call('LPOP', KEYS[2])
if not id then
	return false
end
redis.call('ZADD', KEYS[3], ARGV[1], id)
return id
`)

// JobStore implements task.JobStore on Redis. Per queue it keeps a list of
// waiting ids, a sorted set of delayed ids scored by ready time, a sorted set
// of active ids scored by reservation time, a hash of job bodies and a list
// of buried job bodies.
type JobStore struct {
	rdb    goredis.UniversalClient
	prefix string
	closed atomic.Bool
	now    func() time.Time
	logger *slog.Logger
}

// NewJobStore creates a job store over rdb.
func NewJobStore(rdb goredis.UniversalClient, log *slog.Logger) *JobStore {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &JobStore{
		rdb:    rdb,
		prefix: DefaultKeyPrefix,
		now:    time.Now,
		logger: log.With("component", "redis_job_store"),
	}
}

var _ task.JobStore = (*JobStore)(nil)

type queueKeys struct {
	waiting, delayed, active, data, dead string
}

func (s *JobStore) keys(queue string) queueKeys {
	base := s.prefix + ":" + queue
	return queueKeys{
		waiting: base + ":waiting",
		delayed: base + ":delayed",
		active:  base + ":active",
		data:    base + ":data",
		dead:    base + ":dead",
	}
}

// Enqueue implements task.Enqueuer.
func (s *JobStore) Enqueue(ctx context.Context, queue string, payload any, opts task.EnqueueOptions) (uuid.UUID, error) {
	if s.closed.Load() {
		return uuid.Nil, task.ErrQueueClosed
	}

	now := s.now()
	job, err := task.NewJob(queue, payload, opts, now)
	if err != nil {
		return uuid.Nil, err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode job: %w", err)
	}

	k := s.keys(queue)
	id := job.ID.String()
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, k.data, id, body)
		if opts.Delay > 0 {
			p.ZAdd(ctx, k.delayed, goredis.Z{Score: score(now.Add(opts.Delay)), Member: id})
		} else {
			p.RPush(ctx, k.waiting, id)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to enqueue %s job: %w", queue, err)
	}

	s.logger.Debug("job enqueued", "job_id", job.ID, "queue", queue, "max_attempts", job.MaxAttempts)
	return job.ID, nil
}

// Reserve implements task.JobStore.
func (s *JobStore) Reserve(ctx context.Context, queue string) (*task.Job, error) {
	if s.closed.Load() {
		return nil, task.ErrQueueClosed
	}

	now := s.now()
	k := s.keys(queue)
	id, err := reserveScript.Run(ctx, s.rdb, []string{k.delayed, k.waiting, k.active}, score(now)).Text()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reserve %s job: %w", queue, err)
	}

	job, err := s.load(ctx, k, id)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			s.logger.Warn("reserved job has no body, dropping it", "job_id", id, "queue", queue)
			s.rdb.ZRem(ctx, k.active, id)
			return nil, nil
		}
		return nil, err
	}

	job.Attempts++
	reservedAt := now.UTC()
	job.ReservedAt = &reservedAt
	if err := s.save(ctx, k, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Complete implements task.JobStore.
func (s *JobStore) Complete(ctx context.Context, job *task.Job) error {
	k := s.keys(job.Queue)
	if err := s.takeActive(ctx, k, job); err != nil {
		return err
	}
	if err := s.rdb.HDel(ctx, k.data, job.ID.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", job.ID, err)
	}
	return nil
}

// Retry implements task.JobStore.
func (s *JobStore) Retry(ctx context.Context, job *task.Job, delay time.Duration, lastErr string) error {
	k := s.keys(job.Queue)
	if err := s.takeActive(ctx, k, job); err != nil {
		return err
	}

	stored := *job
	stored.LastError = lastErr
	stored.ReservedAt = nil
	body, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	id := job.ID.String()
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, k.data, id, body)
		if delay > 0 {
			p.ZAdd(ctx, k.delayed, goredis.Z{Score: score(s.now().Add(delay)), Member: id})
		} else {
			p.RPush(ctx, k.waiting, id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to requeue job %s: %w", job.ID, err)
	}
	return nil
}

// Bury implements task.JobStore.
func (s *JobStore) Bury(ctx context.Context, job *task.Job, lastErr string) error {
	k := s.keys(job.Queue)
	if err := s.takeActive(ctx, k, job); err != nil {
		return err
	}

	stored := *job
	stored.LastError = lastErr
	stored.ReservedAt = nil
	body, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HDel(ctx, k.data, job.ID.String())
		p.LPush(ctx, k.dead, body)
		p.LTrim(ctx, k.dead, 0, deadListCap-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to bury job %s: %w", job.ID, err)
	}
	return nil
}

// RequeueStale implements task.JobStore.
func (s *JobStore) RequeueStale(ctx context.Context, queue string, olderThan time.Duration) (int, error) {
	k := s.keys(queue)
	cutoff := s.now().Add(-olderThan)

	ids, err := s.rdb.ZRangeByScore(ctx, k.active, &goredis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatFloat(score(cutoff), 'f', -1, 64),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to scan active %s jobs: %w", queue, err)
	}

	var stale []*task.Job
	for _, id := range ids {
		// another monitor may have claimed it first
		removed, err := s.rdb.ZRem(ctx, k.active, id).Result()
		if err != nil {
			return len(stale), fmt.Errorf("failed to release job %s: %w", id, err)
		}
		if removed == 0 {
			continue
		}
		job, err := s.load(ctx, k, id)
		if err != nil {
			s.logger.Warn("stale job has no body, dropping it", "job_id", id, "queue", queue)
			continue
		}
		stale = append(stale, job)
	}

	sort.Slice(stale, func(i, j int) bool { return stale[i].EnqueuedAt.Before(stale[j].EnqueuedAt) })
	for _, job := range stale {
		job.ReservedAt = nil
		job.LastError = "requeued after stalling"
		if err := s.save(ctx, k, job); err != nil {
			return 0, err
		}
		if err := s.rdb.RPush(ctx, k.waiting, job.ID.String()).Err(); err != nil {
			return 0, fmt.Errorf("failed to requeue job %s: %w", job.ID, err)
		}
	}
	return len(stale), nil
}

// DeadJobs implements task.JobStore.
func (s *JobStore) DeadJobs(ctx context.Context, queue string, limit int) ([]*task.Job, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	bodies, err := s.rdb.LRange(ctx, s.keys(queue).dead, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list dead %s jobs: %w", queue, err)
	}

	jobs := make([]*task.Job, 0, len(bodies))
	for _, body := range bodies {
		var job task.Job
		if err := json.Unmarshal([]byte(body), &job); err != nil {
			return nil, fmt.Errorf("failed to decode dead job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}

// Close rejects further enqueues and reservations. The client stays open.
func (s *JobStore) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *JobStore) takeActive(ctx context.Context, k queueKeys, job *task.Job) error {
	removed, err := s.rdb.ZRem(ctx, k.active, job.ID.String()).Result()
	if err != nil {
		return fmt.Errorf("failed to release job %s: %w", job.ID, err)
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", task.ErrJobNotActive, job.ID)
	}
	return nil
}

func (s *JobStore) load(ctx context.Context, k queueKeys, id string) (*task.Job, error) {
	body, err := s.rdb.HGet(ctx, k.data, id).Bytes()
	if err != nil {
		return nil, err
	}
	var job task.Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	return &job, nil
}

func (s *JobStore) save(ctx context.Context, k queueKeys, job *task.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := s.rdb.HSet(ctx, k.data, job.ID.String(), body).Err(); err != nil {
		return fmt.Errorf("failed to store job %s: %w", job.ID, err)
	}
	return nil
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
