package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/hydroseries/drought"
)

const keyPrefix = "hydroseries:drought:"

// RedisStore persists models as JSON in Redis so a restarted service can
// restore its model without refitting from history.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Save(ctx context.Context, model *drought.Model) error {
	if model == nil {
		return errors.New("save model: nil model")
	}
	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("encode model %s: %w", model.Name(), err)
	}
	if err := s.client.Set(ctx, keyPrefix+model.Name(), data, 0).Err(); err != nil {
		return fmt.Errorf("save model %s: %w", model.Name(), err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, name string) (*drought.Model, error) {
	data, err := s.client.Get(ctx, keyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	var model drought.Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", name, err)
	}
	return &model, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
