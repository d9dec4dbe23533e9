package synthesis

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"blockvibe/internal/blocks"
	"blockvibe/internal/llm"
)

// GenerateCode is the code-only variant used by the workspace: the category
// persona drives the prompt and the reply is returned as normalized code.
// Unlike Synthesize, errors propagate to the caller.
func (s *Service) GenerateCode(ctx context.Context, category, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrEmptyDescription
	}
	if s.client == nil {
		return "", llm.ErrConfiguration
	}
	defer s.acquire()()

	prompt := blocks.BuildCodePrompt(category, description)
	reply, err := s.client.Chat(ctx, []llm.Message{llm.System(prompt.System), llm.User(prompt.User)})
	if err != nil {
		s.logger.Warn("code generation failed", zap.String("category", category), zap.Error(err))
		return "", err
	}
	return WrapFunction(blocks.NormalizeCode(reply)), nil
}

// WrapFunction wraps code in a blockCode function unless it already declares
// a function or an arrow function.
func WrapFunction(code string) string {
	if strings.Contains(code, "function") || strings.Contains(code, "=>") {
		return code
	}
	return "function blockCode() {\n" + code + "\n}"
}
