package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/poslytics/backend/internal/config"
	"github.com/poslytics/backend/internal/domain"
)

const importStatusKeyPrefix = "import:status"

// JobState is the lifecycle of one asynchronous import job.
type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// ImportJobStatus is the externally visible progress of one queued upload.
// Aggregates are never cached; only this transient job bookkeeping is.
type ImportJobStatus struct {
	JobID     string               `json:"job_id"`
	FileName  string               `json:"file_name"`
	State     JobState             `json:"state"`
	Error     string               `json:"error,omitempty"`
	Result    *domain.ImportResult `json:"result,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// ImportStatusCache stores job progress across requests. The noop variant
// keeps single-process deployments working without redis; polling then
// reports jobs as unknown.
type ImportStatusCache interface {
	Get(ctx context.Context, jobID string) (*ImportJobStatus, bool, error)
	Set(ctx context.Context, status *ImportJobStatus) error
	Delete(ctx context.Context, jobID string) error
}

type redisImportStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopImportStatusCache struct{}

func NewImportStatusCache(cfg config.CacheConfig) (ImportStatusCache, error) {
	if !cfg.Enabled {
		return &noopImportStatusCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisImportStatusCache{client: client, ttl: ttl}, nil
}

func NewNoopImportStatusCache() ImportStatusCache {
	return &noopImportStatusCache{}
}

func (c *redisImportStatusCache) Get(ctx context.Context, jobID string) (*ImportJobStatus, bool, error) {
	payload, err := c.client.Get(ctx, importStatusKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var status ImportJobStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, false, fmt.Errorf("decode import status cache: %w", err)
	}
	return &status, true, nil
}

func (c *redisImportStatusCache) Set(ctx context.Context, status *ImportJobStatus) error {
	status.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode import status cache: %w", err)
	}
	if err := c.client.Set(ctx, importStatusKey(status.JobID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisImportStatusCache) Delete(ctx context.Context, jobID string) error {
	return c.client.Del(ctx, importStatusKey(jobID)).Err()
}

func (n *noopImportStatusCache) Get(ctx context.Context, jobID string) (*ImportJobStatus, bool, error) {
	return nil, false, nil
}

func (n *noopImportStatusCache) Set(ctx context.Context, status *ImportJobStatus) error {
	return nil
}

func (n *noopImportStatusCache) Delete(ctx context.Context, jobID string) error {
	return nil
}

func importStatusKey(jobID string) string {
	return fmt.Sprintf("%s:%s", importStatusKeyPrefix, jobID)
}
