package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fedefazz/laf-dashboard/config"
	"github.com/fedefazz/laf-dashboard/internal/adapters/filetier"
	"github.com/fedefazz/laf-dashboard/internal/adapters/localbus"
	"github.com/fedefazz/laf-dashboard/internal/adapters/memtier"
	"github.com/fedefazz/laf-dashboard/internal/adapters/redistier"
	"github.com/fedefazz/laf-dashboard/internal/credstore"
	"github.com/fedefazz/laf-dashboard/internal/ports"
	"github.com/fedefazz/laf-dashboard/internal/service"
)

// CredentialDeps is the assembled credential storage stack.
type CredentialDeps struct {
	Store *credstore.Store
	Bus   ports.ClearBus

	// Close releases the redis client in redis mode; nil otherwise.
	Close func() error
}

// BuildCredentialStore assembles the two-tier credential store from config.
// The file mode pairs the disk tier with an in-process bus; the redis mode
// shares the durable tier and clear notices across instances.
func BuildCredentialStore(cfg config.StorageConfig, logger *slog.Logger) (*CredentialDeps, error) {
	origin := uuid.NewString()

	switch cfg.Mode {
	case config.StorageModeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		bus := redistier.NewBus(client, cfg.Redis.KeyPrefix+":credential:cleared", logger)
		store, err := credstore.New(credstore.StoreOptions{
			Memory:  memtier.New(),
			Durable: redistier.NewTierWithPrefix(client, cfg.Redis.KeyPrefix+":credential:"),
			Bus:     bus,
			Origin:  origin,
		})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("build redis credential store: %w", err)
		}
		logger.Info("credential store ready", "mode", "redis", "addr", cfg.Redis.Addr, "origin", origin)
		return &CredentialDeps{Store: store, Bus: bus, Close: client.Close}, nil

	case config.StorageModeFile:
		fallthrough
	default:
		durable, err := filetier.New(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("build file credential tier: %w", err)
		}
		bus := localbus.New()
		store, err := credstore.New(credstore.StoreOptions{
			Memory:  memtier.New(),
			Durable: durable,
			Bus:     bus,
			Origin:  origin,
		})
		if err != nil {
			return nil, fmt.Errorf("build file credential store: %w", err)
		}
		logger.Info("credential store ready", "mode", "file", "path", cfg.FilePath, "origin", origin)
		return &CredentialDeps{Store: store, Bus: bus}, nil
	}
}

// BuildSessionManager wires the session manager onto the credential store,
// the backend identity surface, and the clear bus.
func BuildSessionManager(deps *CredentialDeps, provider ports.IdentityProvider, logger *slog.Logger) (*service.SessionManager, error) {
	manager, err := service.NewSessionManager(service.SessionManagerOptions{
		Store:    deps.Store,
		Provider: provider,
		Bus:      deps.Bus,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build session manager: %w", err)
	}
	return manager, nil
}
