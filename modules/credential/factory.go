package credential

import (
	"fmt"
	"strings"
)

// BackendType represents the type of credential backend.
type BackendType string

const (
	// BackendMemory keeps the credential for the life of the process.
	BackendMemory BackendType = "memory"
	// BackendRedis shares the credential through Redis.
	BackendRedis BackendType = "redis"
)

// Config contains configuration for creating a backend.
type Config struct {
	Type    BackendType
	Profile string
	Redis   RedisOptions
}

// NewBackend creates a backend from configuration.
func NewBackend(config Config) (Backend, error) {
	switch config.Type {
	case BackendMemory, "":
		return NewMemoryBackend(), nil
	case BackendRedis:
		return NewRedisBackendFromOptions(config.Redis, config.Profile)
	default:
		return nil, fmt.Errorf("unsupported credential backend: %s", config.Type)
	}
}

// ParseBackendType parses a string into a BackendType.
// Returns BackendMemory for unrecognized inputs.
func ParseBackendType(s string) BackendType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "redis":
		return BackendRedis
	default:
		return BackendMemory
	}
}

func (t BackendType) String() string {
	return string(t)
}
