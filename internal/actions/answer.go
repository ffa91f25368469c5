package actions

import (
	"context"
	"fmt"

	"github.com/nexa-assistant/nexa/internal/intent"
)

// askTheAI answers a general question with the answer model, under the
// current personality role.
func (s *Service) askTheAI(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	prompt := fmt.Sprintf("Answer the following question in a short, spoken-friendly way.\n\nQuestion: %s", query)

	answer, err := s.llm.InferAnswer(ctx, prompt, s.personality.Role())
	if err != nil {
		return "", &intent.DomainError{Op: "answering query", Err: err}
	}
	return answer, nil
}

// webSearch delegates to the configured searcher.
func (s *Service) webSearch(ctx context.Context, args map[string]any) (string, error) {
	result, err := s.searcher.Search(ctx, stringArg(args, "search"))
	if err != nil {
		return "", &intent.DomainError{Op: "searching the web", Err: err}
	}
	return result, nil
}

// StubSearcher is the placeholder web search backend.
type StubSearcher struct{}

func (StubSearcher) Search(context.Context, string) (string, error) {
	return "That is not supported for now.", nil
}
