package config

import (
	"fmt"
	"strings"
)

// StorageMode selects the durable credential tier.
type StorageMode string

const (
	// StorageModeFile keeps the durable credential in a JSON file on disk.
	StorageModeFile StorageMode = "file"
	// StorageModeRedis keeps it in Redis, shared across instances, with
	// clear notices broadcast over pub/sub.
	StorageModeRedis StorageMode = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageMode.
func (s *StorageMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "file", "redis":
		*s = StorageMode(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageMode: %q (valid options: file, redis)", v)
	}
}

// RedisConfig contains Redis connection settings for the redis storage mode.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
	// KeyPrefix namespaces the credential keys and the clear channel.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"laf"`
}

// StorageConfig groups credential storage configuration.
type StorageConfig struct {
	// Mode determines which durable tier backs the credential store.
	Mode StorageMode `env:"STORAGE_MODE" envDefault:"file"`

	// FilePath is the credential document location for the file mode.
	FilePath string `env:"FILE_PATH" envDefault:".laf/credential.json"`

	// Redis settings (used when Mode=redis).
	Redis RedisConfig `envPrefix:"REDIS_"`
}

// Sanitize applies guardrails to storage configuration values.
func (s *StorageConfig) Sanitize() {
	s.FilePath = strings.TrimSpace(s.FilePath)
	if s.FilePath == "" {
		s.FilePath = ".laf/credential.json"
	}
}
