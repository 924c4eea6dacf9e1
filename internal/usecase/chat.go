package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/smithy-go"

	"kb-chat/internal/domain"
)

const defaultTimeout = 30 * time.Second

type Classifier interface {
	Classify(ctx context.Context, query string) (domain.Category, error)
}

type KnowledgeBase interface {
	Query(ctx context.Context, text, sessionID string) (domain.KnowledgeBaseResult, error)
}

// ChatService classifies a query and dispatches it either to the
// knowledge-base service or to the fixed product fallback.
type ChatService struct {
	classifier  Classifier
	kb          KnowledgeBase
	productName string
	timeout     time.Duration
	logger      *slog.Logger
}

type RespondInput struct {
	Query string
	// KBSessionID carries the knowledge-base session from earlier turns
	// of the same chat session; empty on the first turn.
	KBSessionID string
}

type RespondOutput struct {
	Answer      domain.Answer
	KBSessionID string
}

func NewChatService(cl Classifier, kb KnowledgeBase, productName string, timeout time.Duration, logger *slog.Logger) (*ChatService, error) {
	if cl == nil {
		return nil, errors.New("usecase: classifier must not be nil")
	}
	if kb == nil {
		return nil, errors.New("usecase: knowledge base must not be nil")
	}
	if strings.TrimSpace(productName) == "" {
		return nil, errors.New("usecase: product name must not be empty")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		classifier:  cl,
		kb:          kb,
		productName: productName,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// Respond handles one query to completion. Generic queries never reach
// the external service; classification failures degrade to generic.
func (s *ChatService) Respond(ctx context.Context, in RespondInput) (RespondOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return s.fallback(domain.CategoryGeneric, in.KBSessionID), nil
	}

	// One timeout budget covers the whole dispatch, including a
	// model-backed classification call.
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	category, err := s.classifier.Classify(ctx, query)
	if err != nil {
		s.logger.Warn("classification failed, treating query as generic", "err", err)
		category = domain.CategoryGeneric
	}
	if category != domain.CategoryProduct {
		return s.fallback(category, in.KBSessionID), nil
	}

	res, err := s.kb.Query(ctx, query, in.KBSessionID)
	if err != nil {
		s.logger.Error("knowledge base query failed", "err", err)
		switch {
		case isThrottle(err):
			return RespondOutput{}, newError(ErrorRateLimited, "bedrock_throttled", err)
		case errors.Is(err, context.DeadlineExceeded):
			return RespondOutput{}, newError(ErrorUpstream, "knowledge_base_timeout", err)
		default:
			return RespondOutput{}, newError(ErrorUpstream, "knowledge_base_error", err)
		}
	}

	return RespondOutput{
		Answer: domain.Answer{
			Text:     res.Text,
			Source:   domain.SourceKnowledgeBase,
			Category: domain.CategoryProduct,
			Citation: res.Citation,
		},
		KBSessionID: res.SessionID,
	}, nil
}

func (s *ChatService) fallback(category domain.Category, kbSessionID string) RespondOutput {
	return RespondOutput{
		Answer: domain.Answer{
			Text:     FallbackMessage(s.productName),
			Source:   domain.SourceFallback,
			Category: category,
		},
		KBSessionID: kbSessionID,
	}
}

// FallbackMessage is the deterministic answer for generic queries. Same
// product name, same text.
func FallbackMessage(productName string) string {
	return fmt.Sprintf("I can only answer questions about %s. Try asking about %s features, pricing, or policies.", productName, productName)
}

// isThrottle reports whether the error is a Bedrock throttling or quota
// fault as surfaced by the AWS SDK.
func isThrottle(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ThrottlingException", "TooManyRequestsException", "ServiceQuotaExceededException":
		return true
	}
	return false
}
