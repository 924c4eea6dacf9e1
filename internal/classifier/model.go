package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kb-chat/internal/domain"
)

// classifyMaxTokens bounds the verdict to a single word.
const classifyMaxTokens = 10

type modelInvoker interface {
	Invoke(ctx context.Context, system string, messages []domain.ChatMessage, maxTokens int) (string, error)
}

// Model delegates classification to the chat model. Callers are expected
// to degrade to generic when Classify returns an error.
type Model struct {
	llm         modelInvoker
	productName string
}

// NewModel creates the model-backed policy.
func NewModel(llm modelInvoker, productName string) (*Model, error) {
	if llm == nil {
		return nil, errors.New("classifier: invoker must not be nil")
	}
	if strings.TrimSpace(productName) == "" {
		return nil, errors.New("classifier: product name must not be empty")
	}
	return &Model{llm: llm, productName: productName}, nil
}

func (m *Model) Classify(ctx context.Context, query string) (domain.Category, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return domain.CategoryGeneric, nil
	}

	raw, err := m.llm.Invoke(ctx, classificationPrompt(m.productName), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: q},
	}, classifyMaxTokens)
	if err != nil {
		return domain.CategoryGeneric, fmt.Errorf("classifier: model call: %w", err)
	}
	return parseVerdict(raw), nil
}

func classificationPrompt(productName string) string {
	return fmt.Sprintf(`Classify user input into:
"Product" - for %s specific queries
"Generic" - for general questions.
Only respond with category.
Just Product or Generic, nothing more or less.`, productName)
}

// parseVerdict reads the one-word model verdict. Anything that is not
// recognizably "Product" counts as generic.
func parseVerdict(raw string) domain.Category {
	v := strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(v, "product") {
		return domain.CategoryProduct
	}
	return domain.CategoryGeneric
}
