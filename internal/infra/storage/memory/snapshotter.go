package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"reva/internal/infra/storage/snapshot"
)

type exporter interface {
	export() any
}

// Snapshotter writes whole collections to a snapshot.Store.
type Snapshotter struct {
	store  snapshot.Store
	logger *slog.Logger

	mu          sync.Mutex
	collections map[string]exporter
}

func NewSnapshotter(store snapshot.Store, logger *slog.Logger) *Snapshotter {
	if store == nil {
		return nil
	}
	return &Snapshotter{store: store, logger: logger, collections: make(map[string]exporter)}
}

func (s *Snapshotter) register(name string, col exporter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = col
}

// Persist serializes and saves the named collections. Saves are serialized so an older
// export never overwrites a newer one.
func (s *Snapshotter) Persist(ctx context.Context, names ...string) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		col, ok := s.collections[name]
		if !ok {
			continue
		}
		payload, err := json.Marshal(col.export())
		if err != nil {
			return fmt.Errorf("memory: encode %s: %w", name, err)
		}
		if err := s.store.Save(ctx, name, payload); err != nil {
			return fmt.Errorf("memory: save %s: %w", name, err)
		}
		if s.logger != nil {
			s.logger.Debug("collection snapshot saved", "collection", name, "bytes", len(payload))
		}
	}
	return nil
}

// load decodes a stored collection into out. found is false when nothing was saved yet.
func (s *Snapshotter) load(ctx context.Context, name string, out any) (bool, error) {
	if s == nil {
		return false, nil
	}
	payload, found, err := s.store.Load(ctx, name)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("memory: decode %s: %w", name, err)
	}
	return true, nil
}
