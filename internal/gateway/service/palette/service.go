package palette

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"blockvibe/internal/blocks"
)

// CustomCategory is the toolbox category holding synthesized blocks.
const CustomCategory = "Custom Blocks"

// InputFieldName is the Blockly field carrying the single user value.
const InputFieldName = "INPUT"

var ErrUnknownBlock = errors.New("palette: block type is not registered")

var (
	jsonNull    = json.RawMessage("null")
	jsonBoolean = json.RawMessage(`"Boolean"`)
)

// Shape is the declarative Blockly block definition consumed by jsonInit.
type Shape struct {
	Type              string           `json:"type"`
	Message0          string           `json:"message0"`
	Args0             []Arg            `json:"args0"`
	Colour            string           `json:"colour"`
	Tooltip           string           `json:"tooltip"`
	HelpURL           string           `json:"helpUrl"`
	PreviousStatement *json.RawMessage `json:"previousStatement,omitempty"`
	NextStatement     *json.RawMessage `json:"nextStatement,omitempty"`
	Output            *json.RawMessage `json:"output,omitempty"`
}

type Arg struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// ToolboxEntry is one block listed in the custom toolbox category.
type ToolboxEntry struct {
	Kind  string `json:"kind"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	Color string `json:"colour"`
}

type Toolbox struct {
	Name     string         `json:"name"`
	Contents []ToolboxEntry `json:"contents"`
}

// Placement is one top-level block instance on the palette workspace.
type Placement struct {
	ID    string `json:"id"`
	Input string `json:"input,omitempty"`
}

// Service is the palette host adapter: it keeps a shape and a generator for
// every registered definition, in registration order.
type Service struct {
	mu    sync.RWMutex
	order []string
	defs  map[string]blocks.Definition
}

func New() *Service {
	return &Service{defs: make(map[string]blocks.Definition)}
}

// Register installs or replaces the shape and generator for def.
func (s *Service) Register(def blocks.Definition) {
	if s == nil || strings.TrimSpace(def.ID) == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defs[def.ID]; !ok {
		s.order = append(s.order, def.ID)
	}
	s.defs[def.ID] = def
}

func (s *Service) Unregister(id string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defs[id]; !ok {
		return
	}
	delete(s.defs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Reset drops every registration.
func (s *Service) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.defs = make(map[string]blocks.Definition)
}

func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Service) lookup(id string) (blocks.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.defs[id]
	if !ok {
		return blocks.Definition{}, fmt.Errorf("%w: %s", ErrUnknownBlock, id)
	}
	return def, nil
}

// Shape returns the Blockly JSON definition for a registered block type.
func (s *Service) Shape(id string) (Shape, error) {
	def, err := s.lookup(id)
	if err != nil {
		return Shape{}, err
	}
	return ShapeOf(def), nil
}

// Shapes returns every registered shape in registration order.
func (s *Service) Shapes() []Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Shape, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, ShapeOf(s.defs[id]))
	}
	return out
}

// ShapeOf derives the connection shape from the definition kind.
func ShapeOf(def blocks.Definition) Shape {
	shape := Shape{
		Type:     def.ID,
		Message0: def.Name,
		Args0:    []Arg{},
		Colour:   def.Color,
		Tooltip:  def.Description,
		HelpURL:  "",
	}
	if def.HasInput {
		shape.Message0 += " %1"
		shape.Args0 = []Arg{{Type: "field_input", Name: InputFieldName, Text: "input"}}
	}
	switch def.Kind {
	case blocks.KindValue:
		shape.Output = &jsonNull
	case blocks.KindBoolean:
		shape.Output = &jsonBoolean
	default:
		shape.PreviousStatement = &jsonNull
		shape.NextStatement = &jsonNull
	}
	return shape
}

// Generate runs the generator callback for one placed instance.
func (s *Service) Generate(id, input string) (blocks.Snippet, error) {
	def, err := s.lookup(id)
	if err != nil {
		return blocks.Snippet{}, err
	}
	return blocks.Instantiate(def, input), nil
}

func (s *Service) Toolbox() Toolbox {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tb := Toolbox{Name: CustomCategory, Contents: make([]ToolboxEntry, 0, len(s.order))}
	for _, id := range s.order {
		def := s.defs[id]
		tb.Contents = append(tb.Contents, ToolboxEntry{
			Kind:  "block",
			Type:  def.ID,
			Name:  def.Name,
			Color: def.Color,
		})
	}
	return tb
}

// Compose renders the placements as one program, top to bottom. Top-level
// expressions are terminated so the result is always a statement sequence.
func (s *Service) Compose(placements []Placement) (string, error) {
	var b strings.Builder
	for i, p := range placements {
		snippet, err := s.Generate(strings.TrimSpace(p.ID), p.Input)
		if err != nil {
			return "", fmt.Errorf("placement %d: %w", i, err)
		}
		b.WriteString(snippet.Statement())
	}
	return b.String(), nil
}
