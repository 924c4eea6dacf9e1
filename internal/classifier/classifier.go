// Package classifier decides whether a user query is about the configured
// product and therefore eligible for knowledge-base-backed answering.
package classifier

import (
	"context"

	"kb-chat/internal/domain"
)

// Classifier is the pluggable classification policy consumed by the chat
// service. Implementations must treat empty input as generic and must not
// call out for it.
type Classifier interface {
	Classify(ctx context.Context, query string) (domain.Category, error)
}
