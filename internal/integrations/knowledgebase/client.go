package knowledgebase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"

	"kb-chat/internal/domain"
)

// agentAPI is the minimal Bedrock Agent Runtime interface required by Client.
// *bedrockagentruntime.Client from aws-sdk-go-v2 satisfies this interface.
type agentAPI interface {
	RetrieveAndGenerate(ctx context.Context, in *bedrockagentruntime.RetrieveAndGenerateInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error)
}

// Client wraps the RetrieveAndGenerate operation against one knowledge base.
type Client struct {
	api             agentAPI
	knowledgeBaseID string
	modelArn        string
}

// New creates a Client bound to the given knowledge base and model ARN.
func New(api agentAPI, knowledgeBaseID, modelArn string) (*Client, error) {
	if api == nil {
		return nil, errors.New("knowledgebase: api must not be nil")
	}
	if strings.TrimSpace(knowledgeBaseID) == "" {
		return nil, errors.New("knowledgebase: knowledge base id must not be empty")
	}
	if strings.TrimSpace(modelArn) == "" {
		return nil, errors.New("knowledgebase: model arn must not be empty")
	}
	return &Client{api: api, knowledgeBaseID: knowledgeBaseID, modelArn: modelArn}, nil
}

// Query issues one retrieve-and-generate request carrying the query text.
// A non-empty sessionID lets the managed service reuse conversational
// context from earlier turns of the same chat session.
func (c *Client) Query(ctx context.Context, text, sessionID string) (domain.KnowledgeBaseResult, error) {
	in := &bedrockagentruntime.RetrieveAndGenerateInput{
		Input: &types.RetrieveAndGenerateInput{
			Text: aws.String(text),
		},
		RetrieveAndGenerateConfiguration: &types.RetrieveAndGenerateConfiguration{
			Type: types.RetrieveAndGenerateTypeKnowledgeBase,
			KnowledgeBaseConfiguration: &types.KnowledgeBaseRetrieveAndGenerateConfiguration{
				KnowledgeBaseId: aws.String(c.knowledgeBaseID),
				ModelArn:        aws.String(c.modelArn),
			},
		},
	}
	if strings.TrimSpace(sessionID) != "" {
		in.SessionId = aws.String(sessionID)
	}

	out, err := c.api.RetrieveAndGenerate(ctx, in)
	if err != nil {
		return domain.KnowledgeBaseResult{}, fmt.Errorf("knowledgebase: retrieve and generate: %w", err)
	}
	if out == nil || out.Output == nil || out.Output.Text == nil {
		return domain.KnowledgeBaseResult{}, errors.New("knowledgebase: response missing output text")
	}

	res := domain.KnowledgeBaseResult{Text: *out.Output.Text}
	if out.SessionId != nil {
		res.SessionID = *out.SessionId
	}
	res.Citation = firstCitation(out.Citations)
	return res, nil
}

// firstCitation extracts the first retrieved reference, matching what the
// chat surface displays alongside the answer.
func firstCitation(citations []types.Citation) *domain.Citation {
	for _, c := range citations {
		for _, ref := range c.RetrievedReferences {
			cit := &domain.Citation{}
			if ref.Content != nil && ref.Content.Text != nil {
				cit.Content = *ref.Content.Text
			}
			if ref.Location != nil && ref.Location.S3Location != nil && ref.Location.S3Location.Uri != nil {
				cit.SourceURI = *ref.Location.S3Location.Uri
			}
			if cit.Content == "" && cit.SourceURI == "" {
				continue
			}
			return cit
		}
	}
	return nil
}
