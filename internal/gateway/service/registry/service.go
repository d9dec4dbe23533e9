package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"blockvibe/internal/blocks"
	kvrepo "blockvibe/internal/gateway/repository/kv"
	"blockvibe/internal/util/jsonutil"
)

// DefaultKey is the storage slot holding the serialized collection.
const DefaultKey = "blockVibeCustomBlocks"

const idPrefix = "custom_"

var (
	ErrNotFound    = errors.New("registry: block not found")
	ErrDuplicateID = errors.New("registry: block id already registered")
)

// Palette receives a shape and generator for every registered definition.
type Palette interface {
	Register(def blocks.Definition)
	Unregister(id string)
	Reset()
}

// Service owns the ordered collection of custom block definitions and its
// persisted snapshot. Mutations are serialized so that every snapshot
// written reflects all mutations that completed before it.
type Service struct {
	mu      sync.Mutex
	store   kvrepo.Store
	key     string
	palette Palette
	logger  *zap.Logger
	now     func() time.Time

	defs   []blocks.Definition
	lastID int64

	events hub
}

func New(store kvrepo.Store, palette Palette, key string, logger *zap.Logger) *Service {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		key:     key,
		palette: palette,
		logger:  logger.Named("registry"),
		now:     time.Now,
	}
}

// Create appends def, assigning an id when it has none, and persists the
// whole collection before registering the block with the palette.
func (s *Service) Create(ctx context.Context, def blocks.Definition) (blocks.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def.ID = strings.TrimSpace(def.ID)
	if def.ID == "" {
		def.ID = s.nextIDLocked()
	} else if s.indexLocked(def.ID) >= 0 {
		return blocks.Definition{}, fmt.Errorf("%w: %s", ErrDuplicateID, def.ID)
	} else {
		s.observeIDLocked(def.ID)
	}

	s.defs = append(s.defs, def)
	if err := s.persistLocked(ctx); err != nil {
		s.defs = s.defs[:len(s.defs)-1]
		return blocks.Definition{}, err
	}
	if s.palette != nil {
		s.palette.Register(def)
	}
	s.logger.Info("block created", zap.String("id", def.ID), zap.String("name", def.Name), zap.String("kind", string(def.Kind)))
	created := def
	s.events.publish(Event{Type: EventCreated, Block: &created, ID: def.ID, Count: len(s.defs)})
	return def, nil
}

// List returns the definitions in insertion order.
func (s *Service) List() []blocks.Definition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]blocks.Definition(nil), s.defs...)
}

func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.defs)
}

func (s *Service) Get(id string) (blocks.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(strings.TrimSpace(id))
	if i < 0 {
		return blocks.Definition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.defs[i], nil
}

// Remove deletes one definition and persists the remaining collection.
func (s *Service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = strings.TrimSpace(id)
	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := s.defs[i]
	s.defs = append(s.defs[:i:i], s.defs[i+1:]...)
	if err := s.persistLocked(ctx); err != nil {
		s.defs = append(s.defs[:i:i], append([]blocks.Definition{removed}, s.defs[i:]...)...)
		return err
	}
	if s.palette != nil {
		s.palette.Unregister(id)
	}
	s.logger.Info("block removed", zap.String("id", id))
	s.events.publish(Event{Type: EventRemoved, ID: id, Count: len(s.defs)})
	return nil
}

// Persist writes the whole collection to the storage slot.
func (s *Service) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Service) persistLocked(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("registry store is nil")
	}
	out := s.defs
	if out == nil {
		out = []blocks.Definition{}
	}
	raw, err := jsonutil.MarshalNoEscape(out)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := s.store.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("persist registry: %w", err)
	}
	return nil
}

// Reload replaces the in-memory collection with the persisted snapshot. A
// snapshot that does not decode resets the registry to empty and removes the
// slot; a partial load never happens.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return fmt.Errorf("registry store is nil")
	}

	raw, err := s.store.Get(ctx, s.key)
	switch {
	case errors.Is(err, kvrepo.ErrNotFound):
		raw = nil
	case err != nil:
		return fmt.Errorf("load registry: %w", err)
	}

	var loaded []blocks.Definition
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &loaded); err != nil {
			s.logger.Warn("stored blocks are corrupt, resetting", zap.String("key", s.key), zap.Error(err))
			loaded = nil
			if err := s.store.Delete(ctx, s.key); err != nil {
				return fmt.Errorf("remove corrupt registry: %w", err)
			}
		}
	}

	s.defs = nil
	s.lastID = 0
	for _, def := range loaded {
		s.defs = append(s.defs, s.repairLocked(def))
	}
	if s.palette != nil {
		s.palette.Reset()
		for _, def := range s.defs {
			s.palette.Register(def)
		}
	}
	s.logger.Info("registry reloaded", zap.Int("blocks", len(s.defs)))
	s.events.publish(Event{Type: EventReloaded, Count: len(s.defs)})
	return nil
}

// repairLocked coerces a stored definition back into a usable one.
func (s *Service) repairLocked(def blocks.Definition) blocks.Definition {
	def.ID = strings.TrimSpace(def.ID)
	if def.ID == "" || s.indexLocked(def.ID) >= 0 {
		def.ID = s.nextIDLocked()
	} else {
		s.observeIDLocked(def.ID)
	}
	def.Kind = blocks.ParseKind(string(def.Kind))
	if !blocks.ValidColor(def.Color) {
		def.Color = blocks.DefaultColor
	}
	if strings.TrimSpace(def.Name) == "" {
		def.Name = blocks.DefaultName
	}
	def.Code = blocks.NormalizeCode(def.Code)
	return def
}

// ClearAll empties the registry, removes the slot and resets the palette.
func (s *Service) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return fmt.Errorf("registry store is nil")
	}
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear registry: %w", err)
	}
	s.defs = nil
	if s.palette != nil {
		s.palette.Reset()
	}
	s.logger.Info("registry cleared")
	s.events.publish(Event{Type: EventCleared})
	return nil
}

// Subscribe streams change events until ctx is done.
func (s *Service) Subscribe(ctx context.Context) <-chan Event {
	return s.events.subscribe(ctx)
}

func (s *Service) indexLocked(id string) int {
	for i, d := range s.defs {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// nextIDLocked derives a millisecond id, bumping past any id already handed
// out so ids stay strictly increasing within the process.
func (s *Service) nextIDLocked() string {
	ms := s.now().UnixMilli()
	if ms <= s.lastID {
		ms = s.lastID + 1
	}
	for s.indexLocked(idPrefix+strconv.FormatInt(ms, 10)) >= 0 {
		ms++
	}
	s.lastID = ms
	return idPrefix + strconv.FormatInt(ms, 10)
}

func (s *Service) observeIDLocked(id string) {
	if !strings.HasPrefix(id, idPrefix) {
		return
	}
	ms, err := strconv.ParseInt(strings.TrimPrefix(id, idPrefix), 10, 64)
	if err == nil && ms > s.lastID {
		s.lastID = ms
	}
}
