// Package llm adapts chat-completion providers to the intent pipeline.
package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nexa-assistant/nexa/internal/intent"
	"github.com/nexa-assistant/nexa/internal/provider"
)

// Function-model sampling. The low temperature keeps the call text
// deterministic; the stop sequence truncates models trained to emit an
// explicit end-of-turn marker.
var (
	functionTemperature = 0.001
	functionStop        = []string{"<bot_end>"}
)

// Service produces call text and conversational answers. The function
// model and the answer model may live on different providers.
type Service struct {
	functionProvider provider.Provider
	answerProvider   provider.Provider
	functionModel    provider.ModelRef
	answerModel      provider.ModelRef
	registry         *intent.Registry
	logger           *zap.Logger
}

func NewService(functionProvider, answerProvider provider.Provider, functionModel, answerModel provider.ModelRef, registry *intent.Registry, logger *zap.Logger) *Service {
	return &Service{
		functionProvider: functionProvider,
		answerProvider:   answerProvider,
		functionModel:    functionModel,
		answerModel:      answerModel,
		registry:         registry,
		logger:           logger,
	}
}

// InferCall asks the function model to translate an utterance into call
// text. The returned string is trimmed but otherwise unvalidated; the
// parser decides whether it is acceptable.
func (s *Service) InferCall(ctx context.Context, utterance string) (string, error) {
	prompt := intent.BuildCallPrompt(s.registry, utterance)

	resp, err := s.functionProvider.Complete(ctx, &provider.CompletionRequest{
		Model:       s.functionModel.Model(),
		Messages:    []provider.Message{{Role: provider.RoleUser, Content: prompt}},
		Temperature: &functionTemperature,
		Stop:        functionStop,
	})
	if err != nil {
		return "", fmt.Errorf("function model completion: %w", err)
	}

	call := strings.TrimSpace(resp.Content)
	s.logger.Debug("function model replied",
		zap.String("model", s.functionModel.String()),
		zap.String("call", call),
		zap.Int("output_tokens", resp.Usage.OutputTokens))
	return call, nil
}

// InferAnswer asks the answer model for user-facing text. systemRole
// sets the assistant's persona; an empty role sends no system message.
func (s *Service) InferAnswer(ctx context.Context, prompt, systemRole string) (string, error) {
	var messages []provider.Message
	if systemRole != "" {
		messages = append(messages, provider.Message{Role: provider.RoleSystem, Content: systemRole})
	}
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: prompt})

	resp, err := s.answerProvider.Complete(ctx, &provider.CompletionRequest{
		Model:    s.answerModel.Model(),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("answer model completion: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
