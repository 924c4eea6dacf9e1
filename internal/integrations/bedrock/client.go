package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"kb-chat/internal/domain"
)

const (
	schemaVersion = "messages-v1"
	contentType   = "application/json"

	defaultTopP        = 0.9
	defaultTopK        = 20
	defaultTemperature = 0.7
)

// runtimeAPI is the minimal Bedrock Runtime interface required by Client.
// *bedrockruntime.Client from aws-sdk-go-v2 satisfies this interface.
type runtimeAPI interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Invoker is the interface consumers (e.g. the model classifier) should
// depend on rather than the concrete *Client.
type Invoker interface {
	Invoke(ctx context.Context, system string, messages []domain.ChatMessage, maxTokens int) (string, error)
}

// contentBlock is a single text block in the messages-v1 schema.
type contentBlock struct {
	Text string `json:"text"`
}

type chatMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type inferenceConfig struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	TopP         float64 `json:"top_p"`
	TopK         int     `json:"top_k"`
	Temperature  float64 `json:"temperature"`
}

// invokeRequest is the messages-v1 request body accepted by the Nova chat models.
type invokeRequest struct {
	SchemaVersion   string          `json:"schemaVersion"`
	Messages        []chatMessage   `json:"messages"`
	System          []contentBlock  `json:"system"`
	InferenceConfig inferenceConfig `json:"inferenceConfig"`
}

// invokeResponse is the minimal response shape returned by InvokeModel.
type invokeResponse struct {
	Output struct {
		Message struct {
			Role    string         `json:"role"`
			Content []contentBlock `json:"content"`
		} `json:"message"`
	} `json:"output"`
}

// Client wraps the Bedrock Runtime InvokeModel operation for a fixed model.
type Client struct {
	api     runtimeAPI
	modelID string
}

// New creates a Client bound to the given model identifier.
func New(api runtimeAPI, modelID string) (*Client, error) {
	if api == nil {
		return nil, errors.New("bedrock: api must not be nil")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("bedrock: model id must not be empty")
	}
	return &Client{api: api, modelID: modelID}, nil
}

// Invoke sends one messages-v1 request to the configured model and returns
// the concatenated text of the assistant reply.
func (c *Client) Invoke(ctx context.Context, system string, messages []domain.ChatMessage, maxTokens int) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("bedrock: messages must not be empty")
	}

	req := invokeRequest{
		SchemaVersion: schemaVersion,
		System:        []contentBlock{{Text: system}},
		InferenceConfig: inferenceConfig{
			MaxNewTokens: maxTokens,
			TopP:         defaultTopP,
			TopK:         defaultTopK,
			Temperature:  defaultTemperature,
		},
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{
			Role:    m.Role,
			Content: []contentBlock{{Text: m.Content}},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("bedrock: marshal request: %w", err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        body,
		Accept:      aws.String(contentType),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("bedrock: invoke model %q: %w", c.modelID, err)
	}
	if out == nil || len(out.Body) == 0 {
		return "", errors.New("bedrock: empty response body")
	}

	var payload invokeResponse
	if err := json.Unmarshal(out.Body, &payload); err != nil {
		return "", fmt.Errorf("bedrock: decode response: %w", err)
	}
	if len(payload.Output.Message.Content) == 0 {
		return "", errors.New("bedrock: no content in response")
	}

	var sb strings.Builder
	for _, block := range payload.Output.Message.Content {
		sb.WriteString(block.Text)
	}
	return sb.String(), nil
}
