package research

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"research-chatter/internal/assistant"
	"research-chatter/internal/config"
	"research-chatter/internal/logging"
	"research-chatter/internal/storage"
)

// OpenSlot returns the persistent slot selected by the configuration and its closer.
func OpenSlot(cfg *config.Config) (storage.Slot, func() error, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		slot, err := storage.NewSQLiteSlot(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return slot, slot.Close, nil
	default:
		slot, err := storage.NewFileSlot(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return slot, func() error { return nil }, nil
	}
}

// Open builds a ready App from the configuration: slot, store, knowledge base and
// assistant. The session slot lives in memory, so a new process is a new session.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, func() error, error) {
	logger = logging.OrNop(logger)

	slot, closeSlot, err := OpenSlot(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}

	store := storage.NewStore(slot, storage.NewMemorySlot(),
		storage.WithLogger(logger.Named("storage")),
		storage.WithKeys(cfg.StateKey, cfg.SessionKey),
		storage.WithUUIDSessions(cfg.UUIDSessions))
	if err := store.Load(ctx); err != nil {
		_ = closeSlot()
		return nil, nil, err
	}

	kb, err := assistant.LoadKnowledgeBase(cfg.KnowledgeBasePath)
	if err != nil {
		_ = closeSlot()
		return nil, nil, err
	}
	bot := assistant.New(kb,
		assistant.WithDelay(cfg.ReplyDelayMin, cfg.ReplyDelayMax),
		assistant.WithLogger(logger.Named("assistant")))

	app := New(store, bot, kb, WithLogger(logger.Named("research")))
	if cfg.SeedSample && app.SeedSample(ctx) {
		logger.Info("sample conversation seeded")
	}
	return app, closeSlot, nil
}
