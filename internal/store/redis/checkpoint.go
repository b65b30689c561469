package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Checkpoint stores serialized controller snapshots in Redis so a run
// can restart on another host without losing the active control state.
type Checkpoint struct {
	client *redis.Client
}

func NewCheckpoint(url string) (*Checkpoint, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Checkpoint{client: client}, nil
}

func (c *Checkpoint) Close() error {
	return c.client.Close()
}

// Save overwrites the snapshot for one run/horizon pair. Snapshots have
// no TTL: a checkpoint must survive arbitrarily long queue waits between
// restarts.
func (c *Checkpoint) Save(ctx context.Context, runID uuid.UUID, horizon string, snapshot []byte) error {
	if err := c.client.Set(ctx, checkpointKey(runID, horizon), snapshot, 0).Err(); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or nil when none exists.
func (c *Checkpoint) Load(ctx context.Context, runID uuid.UUID, horizon string) ([]byte, error) {
	data, err := c.client.Get(ctx, checkpointKey(runID, horizon)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return data, nil
}

func checkpointKey(runID uuid.UUID, horizon string) string {
	return "sizecontrol:checkpoint:" + runID.String() + ":" + horizon
}
