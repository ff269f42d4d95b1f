// Package redis provides a Redis-backed job ledger shared by several replicas.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// DefaultKeyPrefix namespaces ledger keys.
const DefaultKeyPrefix = "triagem:job:"

// timeLayout is used for the created_at and updated_at hash fields.
const timeLayout = time.RFC3339Nano

// createScript inserts a job hash unless the key exists.
// KEYS[1] = job key
// ARGV[1] = channel, ARGV[2] = state, ARGV[3] = created_at, ARGV[4] = updated_at
// ARGV[5] = ttl in milliseconds (0 keeps the key forever)
var createScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
    return 0
end
redis.call("HSET", KEYS[1], "channel", ARGV[1], "state", ARGV[2], "created_at", ARGV[3], "updated_at", ARGV[4])
local ttl = tonumber(ARGV[5])
if ttl > 0 then
    redis.call("PEXPIRE", KEYS[1], ttl)
end
return 1
`)

// transitionScript is a compare-and-set on the state field.
// KEYS[1] = job key
// ARGV[1] = expected state, ARGV[2] = new state, ARGV[3] = updated_at
// Returns {0, ""} when missing, {1, from} on success, {2, current} on mismatch.
var transitionScript = redis.NewScript(`
local state = redis.call("HGET", KEYS[1], "state")
if not state then
    return {0, ""}
end
if state ~= ARGV[1] then
    return {2, state}
end
redis.call("HSET", KEYS[1], "state", ARGV[2], "updated_at", ARGV[3])
return {1, state}
`)

// Options configures the Redis job store.
type Options struct {
	// Address is the host:port of the Redis server. Ignored when URL is set.
	Address string

	// URL is a redis:// or rediss:// connection URL.
	URL string

	// Password authenticates with the server.
	Password string

	// DB is the database index to select.
	DB int

	// TTL expires job keys. Zero keeps them forever.
	TTL time.Duration

	// KeyPrefix overrides DefaultKeyPrefix.
	KeyPrefix string
}

// JobStore is a Redis implementation of driven.JobStore.
// Transitions run as Lua scripts so replicas sharing the server cannot both
// claim the same job.
type JobStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewJobStore connects to Redis and verifies the connection with PING.
func NewJobStore(ctx context.Context, opts Options) (*JobStore, error) {
	var ropts *redis.Options
	if opts.URL != "" {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: redis url: %w", domain.ErrInvalidInput, err)
		}
		ropts = parsed
	} else {
		if opts.Address == "" {
			return nil, fmt.Errorf("%w: redis address is required", domain.ErrInvalidInput)
		}
		ropts = &redis.Options{
			Addr:     opts.Address,
			Password: opts.Password,
			DB:       opts.DB,
		}
	}

	client := redis.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", ropts.Addr, err)
	}
	return NewJobStoreWithClient(client, opts), nil
}

// NewJobStoreWithClient wraps an existing client.
func NewJobStoreWithClient(client redis.UniversalClient, opts Options) *JobStore {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &JobStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
		now:    time.Now,
	}
}

func (s *JobStore) key(id string) string {
	return s.prefix + id
}

// Create records a new job.
func (s *JobStore) Create(ctx context.Context, rec domain.JobRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: job id is required", domain.ErrInvalidInput)
	}

	now := s.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}

	created, err := createScript.Run(ctx, s.client, []string{s.key(rec.ID)},
		string(rec.Channel), string(rec.State),
		rec.CreatedAt.Format(timeLayout), rec.UpdatedAt.Format(timeLayout),
		s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("creating job: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("%w: job %s", domain.ErrAlreadyExists, rec.ID)
	}
	return nil
}

// Transition moves a job from one state to another atomically.
func (s *JobStore) Transition(ctx context.Context, id string, from, to domain.JobState) error {
	if err := domain.CheckTransition(from, to); err != nil {
		return err
	}

	res, err := transitionScript.Run(ctx, s.client, []string{s.key(id)},
		string(from), string(to), s.now().UTC().Format(timeLayout),
	).Slice()
	if err != nil {
		return fmt.Errorf("updating job state: %w", err)
	}
	if len(res) != 2 {
		return fmt.Errorf("invalid response from transition script: %v", res)
	}

	status, _ := res[0].(int64)
	current, _ := res[1].(string)
	switch status {
	case 0:
		return fmt.Errorf("%w: job %s", domain.ErrNotFound, id)
	case 1:
		return nil
	default:
		return domain.StateMismatch(id, domain.JobState(current), from)
	}
}

// Get retrieves a job record by ID.
func (s *JobStore) Get(ctx context.Context, id string) (*domain.JobRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return recordFromHash(id, fields), nil
}

// Close closes the client.
func (s *JobStore) Close() error {
	err := s.client.Close()
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}

func recordFromHash(id string, fields map[string]string) *domain.JobRecord {
	rec := &domain.JobRecord{
		ID:      id,
		Channel: domain.Channel(fields["channel"]),
		State:   domain.JobState(fields["state"]),
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, fields["created_at"])
	rec.UpdatedAt, _ = time.Parse(timeLayout, fields["updated_at"])
	return rec
}
