package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"blockvibe/internal/blocks"
	"blockvibe/internal/llm"
)

var ErrEmptyDescription = errors.New("synthesis: description is required")

// Reason names why a synthesis used the fallback definition.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonConfiguration Reason = "configuration"
	ReasonNetwork       Reason = "network"
	ReasonParse         Reason = "parse"
)

// Request is a block synthesis request. Kind and HasInput are preferences
// handed to the model, not constraints on the reply.
type Request struct {
	Description string `json:"description"`
	Kind        string `json:"kind,omitempty"`
	HasInput    bool   `json:"hasInput,omitempty"`
}

type Result struct {
	Definition blocks.Definition `json:"block"`
	Fallback   bool              `json:"fallback"`
	Reason     Reason            `json:"reason,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type Registry interface {
	Create(ctx context.Context, def blocks.Definition) (blocks.Definition, error)
}

type Service struct {
	client   llm.ChatClient
	registry Registry
	logger   *zap.Logger
	inFlight atomic.Int32
}

func New(client llm.ChatClient, registry Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, registry: registry, logger: logger.Named("synthesis")}
}

// Busy reports whether any synthesis call is in flight.
func (s *Service) Busy() bool { return s.inFlight.Load() > 0 }

func (s *Service) InFlight() int { return int(s.inFlight.Load()) }

// ProviderName returns the name of the configured model client.
func (s *Service) ProviderName() string {
	if s.client == nil {
		return ""
	}
	return s.client.Name()
}

func (s *Service) acquire() func() {
	s.inFlight.Add(1)
	return func() { s.inFlight.Add(-1) }
}

// Generate asks the model for one definition without registering it. On a
// reply that does not parse it returns the default definition together with
// an error wrapping blocks.ErrParseFailure.
func (s *Service) Generate(ctx context.Context, req Request) (blocks.Definition, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return blocks.Definition{}, ErrEmptyDescription
	}
	if s.client == nil {
		return blocks.Definition{}, llm.ErrConfiguration
	}
	defer s.acquire()()

	prompt := blocks.BuildDefinitionPrompt(description, blocks.Kind(strings.TrimSpace(req.Kind)), req.HasInput)
	started := time.Now()
	reply, err := s.client.Chat(ctx, []llm.Message{llm.System(prompt.System), llm.User(prompt.User)})
	if err != nil {
		return blocks.Definition{}, err
	}

	def, defaulted, err := blocks.ParseResponse(reply)
	if err != nil {
		s.logger.Warn("model reply did not parse", zap.Int("reply_bytes", len(reply)), zap.Error(err))
		return blocks.DefaultDefinition(), err
	}
	for _, d := range defaulted {
		s.logger.Debug("field defaulted", zap.String("field", d.Field), zap.String("value", d.Value))
	}
	s.logger.Debug("definition generated", zap.String("name", def.Name), zap.Duration("elapsed", time.Since(started)))
	return def, nil
}

// Synthesize runs one attempt and registers the outcome. Provider, network
// and parse failures all register the deterministic fallback instead; the
// returned error is reserved for an empty description or a registry failure.
func (s *Service) Synthesize(ctx context.Context, req Request) (Result, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return Result{}, ErrEmptyDescription
	}

	res := Result{}
	def, err := s.Generate(ctx, req)
	if err != nil {
		res = Result{
			Definition: blocks.Fallback(description),
			Fallback:   true,
			Reason:     Classify(err),
			Error:      err.Error(),
		}
		s.logger.Warn("synthesis fell back", zap.String("reason", string(res.Reason)), zap.Error(err))
	} else {
		res.Definition = def
	}

	if s.registry == nil {
		return res, nil
	}
	created, err := s.registry.Create(ctx, res.Definition)
	if err != nil {
		return Result{}, fmt.Errorf("register block: %w", err)
	}
	res.Definition = created
	return res, nil
}

// Classify maps a generation error to a fallback reason.
func Classify(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, llm.ErrConfiguration):
		return ReasonConfiguration
	case errors.Is(err, blocks.ErrParseFailure), errors.Is(err, llm.ErrEmptyReply):
		return ReasonParse
	default:
		return ReasonNetwork
	}
}
