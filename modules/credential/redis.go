package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

const keyPrefix = "recruitapi:credential:"

// RedisBackend persists the credential in Redis via rueidis, so separate
// processes (e.g. successive CLI runs) share one session per profile.
type RedisBackend struct {
	client rueidis.Client
	key    string
	ttl    time.Duration
}

// RedisOptions contains configuration for Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds how long a saved credential survives; zero keeps it until cleared.
	TTL time.Duration
}

// NewRedisBackend creates a backend for profile over an existing rueidis client.
func NewRedisBackend(client rueidis.Client, profile string, ttl time.Duration) *RedisBackend {
	if profile == "" {
		profile = "default"
	}
	return &RedisBackend{
		client: client,
		key:    keyPrefix + profile,
		ttl:    ttl,
	}
}

// NewRedisBackendFromOptions dials Redis and creates a backend for profile.
func NewRedisBackendFromOptions(opts RedisOptions, profile string) (*RedisBackend, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return NewRedisBackend(client, profile, opts.TTL), nil
}

// Close closes the Redis client connection.
func (r *RedisBackend) Close() {
	r.client.Close()
}

func (r *RedisBackend) Load(ctx context.Context) (*Credential, error) {
	cmd := r.client.B().Get().Key(r.key).Build()
	result, err := r.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get credential from redis: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(result), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

func (r *RedisBackend) Save(ctx context.Context, cred *Credential) error {
	if cred == nil {
		return ErrNilCredential
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	var cmd rueidis.Completed
	if secs := int64(r.ttl.Seconds()); secs > 0 {
		cmd = r.client.B().Set().Key(r.key).Value(string(data)).ExSeconds(secs).Build()
	} else {
		cmd = r.client.B().Set().Key(r.key).Value(string(data)).Build()
	}
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save credential to redis: %w", err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context) error {
	cmd := r.client.B().Del().Key(r.key).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete credential from redis: %w", err)
	}
	return nil
}
