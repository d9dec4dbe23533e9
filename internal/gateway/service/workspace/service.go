package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"blockvibe/internal/blocks"
)

var (
	ErrNotFound         = errors.New("workspace: block not found")
	ErrEmptyDescription = errors.New("workspace: block description is empty")
	ErrUnknownCategory  = errors.New("workspace: unknown block category")
)

// Instance is one block placed on the drag-and-drop workspace. Instances live
// only in memory.
type Instance struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
	Description string `json:"description"`
	Code        string `json:"code"`
	Generated   bool   `json:"generated"`
}

// Executable reports whether the instance has generated code to run.
func (i Instance) Executable() bool {
	return i.Generated && strings.TrimSpace(i.Code) != ""
}

// CodeGenerator produces code for a category and a free-text description.
type CodeGenerator interface {
	GenerateCode(ctx context.Context, category, description string) (string, error)
}

type Service struct {
	mu      sync.Mutex
	blocks  []Instance
	counter int
	gen     CodeGenerator
	logger  *zap.Logger
}

func New(gen CodeGenerator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gen: gen, logger: logger.Named("workspace")}
}

// Add appends a new empty instance of the given category.
func (s *Service) Add(category string) (Instance, error) {
	cat, ok := blocks.LookupCategory(category)
	if !ok {
		return Instance{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inst := Instance{
		ID:          fmt.Sprintf("block-%d", s.counter),
		Type:        cat.Name,
		Label:       cat.Label,
		Placeholder: cat.Placeholder,
	}
	s.counter++
	s.blocks = append(s.blocks, inst)
	return inst, nil
}

// List returns the instances in workspace order.
func (s *Service) List() []Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Instance(nil), s.blocks...)
}

// Executable returns the instances that have generated code, in order.
func (s *Service) Executable() []Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Instance, 0, len(s.blocks))
	for _, b := range s.blocks {
		if b.Executable() {
			out = append(out, b)
		}
	}
	return out
}

func (s *Service) Get(id string) (Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Instance{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.blocks[i], nil
}

// Describe sets the free-text description of an instance.
func (s *Service) Describe(id, description string) (Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Instance{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.blocks[i].Description = description
	return s.blocks[i], nil
}

// Generate asks for code matching the instance description. The model call
// happens outside the lock; an instance deleted meanwhile is reported as not
// found and the code is discarded.
func (s *Service) Generate(ctx context.Context, id string) (Instance, error) {
	inst, err := s.Get(id)
	if err != nil {
		return Instance{}, err
	}
	if strings.TrimSpace(inst.Description) == "" {
		return Instance{}, ErrEmptyDescription
	}
	if s.gen == nil {
		return Instance{}, fmt.Errorf("code generator is not configured")
	}

	code, err := s.gen.GenerateCode(ctx, inst.Type, inst.Description)
	if err != nil {
		return Instance{}, fmt.Errorf("generate code for %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Instance{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.blocks[i].Code = code
	s.blocks[i].Generated = true
	s.logger.Info("workspace block generated", zap.String("id", id), zap.String("type", inst.Type))
	return s.blocks[i], nil
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
	return nil
}

// Reorder moves the dragged instance to the position the target occupied
// before the move.
func (s *Service) Reorder(draggedID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.indexLocked(draggedID)
	to := s.indexLocked(targetID)
	if from < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, draggedID)
	}
	if to < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, targetID)
	}
	if from == to {
		return nil
	}
	moved := s.blocks[from]
	rest := append(s.blocks[:from:from], s.blocks[from+1:]...)
	out := make([]Instance, 0, len(s.blocks))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	s.blocks = out
	return nil
}

// Clear removes every instance and restarts id numbering.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = nil
	s.counter = 0
}

func (s *Service) indexLocked(id string) int {
	id = strings.TrimSpace(id)
	for i, b := range s.blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}
