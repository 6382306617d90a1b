package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"employee-export/internal/config"
	"employee-export/internal/core/domain"
)

// transitionScript overwrites a job and moves it between status indexes,
// but only if the stored status equals ARGV[1] (empty matches anything).
// Returns -1 if the job is missing, 0 on a status mismatch, 1 on success.
var transitionScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
  return -1
end
local status = cjson.decode(current)['status']
if ARGV[1] ~= '' and status ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('ZREM', ARGV[5] .. status, ARGV[3])
redis.call('ZADD', ARGV[5] .. ARGV[6], ARGV[4], ARGV[3])
return 1
`)

// RedisExportJobRepository stores each job as a JSON string. Sorted sets
// scored by creation time index jobs globally, per owner and per status.
type RedisExportJobRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisClient connects to the configured Redis and verifies it responds.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func NewRedisExportJobRepository(client *redis.Client, keyPrefix string) *RedisExportJobRepository {
	return &RedisExportJobRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RedisExportJobRepository) jobKey(referenceID string) string {
	return fmt.Sprintf("%sexport:%s", r.keyPrefix, referenceID)
}

func (r *RedisExportJobRepository) allKey() string {
	return fmt.Sprintf("%sexports", r.keyPrefix)
}

func (r *RedisExportJobRepository) ownerKey(ownerID string) string {
	return fmt.Sprintf("%sowner:%s:exports", r.keyPrefix, ownerID)
}

func (r *RedisExportJobRepository) statusKeyPrefix() string {
	return r.keyPrefix + "status:"
}

func (r *RedisExportJobRepository) statusKey(status domain.ExportStatus) string {
	return r.statusKeyPrefix() + string(status)
}

func score(job domain.ExportJob) float64 {
	return float64(job.CreatedAt.UnixMicro())
}

func (r *RedisExportJobRepository) Create(ctx context.Context, job domain.ExportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal export job: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.jobKey(job.ReferenceID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create export job: %w", err)
	}
	if !created {
		return domain.ErrExportExists
	}

	member := redis.Z{Score: score(job), Member: job.ReferenceID}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, r.allKey(), member)
		pipe.ZAdd(ctx, r.ownerKey(job.OwnerID), member)
		pipe.ZAdd(ctx, r.statusKey(job.Status), member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index export job: %w", err)
	}
	return nil
}

func (r *RedisExportJobRepository) Update(ctx context.Context, job domain.ExportJob) error {
	return r.transition(ctx, "", job)
}

func (r *RedisExportJobRepository) TransitionStatus(ctx context.Context, from domain.ExportStatus, job domain.ExportJob) error {
	if err := domain.CheckTransition(from, job.Status); err != nil {
		return err
	}
	return r.transition(ctx, from, job)
}

func (r *RedisExportJobRepository) transition(ctx context.Context, from domain.ExportStatus, job domain.ExportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal export job: %w", err)
	}

	result, err := transitionScript.Run(ctx, r.client,
		[]string{r.jobKey(job.ReferenceID)},
		string(from), data, job.ReferenceID, score(job), r.statusKeyPrefix(), string(job.Status),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to update export job: %w", err)
	}

	switch result {
	case -1:
		return domain.ErrExportNotFound
	case 0:
		return domain.ErrStatusConflict
	default:
		return nil
	}
}

func (r *RedisExportJobRepository) FindByReferenceID(ctx context.Context, referenceID string) (domain.ExportJob, error) {
	data, err := r.client.Get(ctx, r.jobKey(referenceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ExportJob{}, domain.ErrExportNotFound
	}
	if err != nil {
		return domain.ExportJob{}, fmt.Errorf("failed to get export job: %w", err)
	}

	var job domain.ExportJob
	if err := json.Unmarshal(data, &job); err != nil {
		return domain.ExportJob{}, fmt.Errorf("failed to unmarshal export job: %w", err)
	}
	return job, nil
}

func (r *RedisExportJobRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.ExportJob, error) {
	return r.findIndexed(ctx, r.ownerKey(ownerID))
}

func (r *RedisExportJobRepository) FindAll(ctx context.Context) ([]domain.ExportJob, error) {
	return r.findIndexed(ctx, r.allKey())
}

func (r *RedisExportJobRepository) FindByStatus(ctx context.Context, status domain.ExportStatus) ([]domain.ExportJob, error) {
	return r.findIndexed(ctx, r.statusKey(status))
}

func (r *RedisExportJobRepository) CountByStatus(ctx context.Context, status domain.ExportStatus) (int, error) {
	count, err := r.client.ZCard(ctx, r.statusKey(status)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count export jobs: %w", err)
	}
	return int(count), nil
}

// findIndexed loads the jobs listed in a sorted set, oldest first.
func (r *RedisExportJobRepository) findIndexed(ctx context.Context, indexKey string) ([]domain.ExportJob, error) {
	ids, err := r.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", indexKey, err)
	}
	if len(ids) == 0 {
		return []domain.ExportJob{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.jobKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load export jobs: %w", err)
	}

	jobs := make([]domain.ExportJob, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			log.Debugf("RedisExportJobRepository - index %s references missing job %s", indexKey, ids[i])
			continue
		}
		var job domain.ExportJob
		if err := json.Unmarshal([]byte(s), &job); err != nil {
			log.Warnf("RedisExportJobRepository - skipping unreadable job %s: %v", ids[i], err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
