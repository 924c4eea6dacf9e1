package knowledgebase

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/stretchr/testify/require"
)

// fakeAgent is a minimal agentAPI fake capturing the last input.
type fakeAgent struct {
	out       *bedrockagentruntime.RetrieveAndGenerateOutput
	err       error
	lastInput *bedrockagentruntime.RetrieveAndGenerateInput
}

func (f *fakeAgent) RetrieveAndGenerate(_ context.Context, in *bedrockagentruntime.RetrieveAndGenerateInput, _ ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error) {
	f.lastInput = in
	return f.out, f.err
}

const testModelArn = "arn:aws:bedrock:us-east-1::foundation-model/amazon.nova-lite-v1:0"

func answerOutput(text string) *bedrockagentruntime.RetrieveAndGenerateOutput {
	return &bedrockagentruntime.RetrieveAndGenerateOutput{
		Output:    &types.RetrieveAndGenerateOutput{Text: aws.String(text)},
		SessionId: aws.String("kb-session-1"),
	}
}

func mustNewClient(t *testing.T, api agentAPI) *Client {
	t.Helper()
	c, err := New(api, "KB12345", testModelArn)
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "KB12345", testModelArn)
	require.Error(t, err)

	_, err = New(&fakeAgent{}, " ", testModelArn)
	require.Error(t, err)

	_, err = New(&fakeAgent{}, "KB12345", "")
	require.Error(t, err)
}

func TestQuery_HappyPath(t *testing.T) {
	api := &fakeAgent{out: answerOutput("Returns accepted within 30 days.")}
	c := mustNewClient(t, api)

	res, err := c.Query(context.Background(), "What is the return policy?", "")
	require.NoError(t, err)
	require.Equal(t, "Returns accepted within 30 days.", res.Text)
	require.Equal(t, "kb-session-1", res.SessionID)
	require.Nil(t, res.Citation)

	require.NotNil(t, api.lastInput)
	require.Equal(t, "What is the return policy?", *api.lastInput.Input.Text)
	kbCfg := api.lastInput.RetrieveAndGenerateConfiguration
	require.Equal(t, types.RetrieveAndGenerateTypeKnowledgeBase, kbCfg.Type)
	require.Equal(t, "KB12345", *kbCfg.KnowledgeBaseConfiguration.KnowledgeBaseId)
	require.Equal(t, testModelArn, *kbCfg.KnowledgeBaseConfiguration.ModelArn)
	require.Nil(t, api.lastInput.SessionId)
}

func TestQuery_ReplaysSessionID(t *testing.T) {
	api := &fakeAgent{out: answerOutput("Yes, shipping is free.")}
	c := mustNewClient(t, api)

	_, err := c.Query(context.Background(), "Is shipping free?", "kb-session-1")
	require.NoError(t, err)
	require.NotNil(t, api.lastInput.SessionId)
	require.Equal(t, "kb-session-1", *api.lastInput.SessionId)
}

func TestQuery_FirstCitation(t *testing.T) {
	out := answerOutput("Returns accepted within 30 days.")
	out.Citations = []types.Citation{
		{
			RetrievedReferences: []types.RetrievedReference{
				{
					Content: &types.RetrievalResultContent{Text: aws.String("Return policy: 30 days.")},
					Location: &types.RetrievalResultLocation{
						Type:       types.RetrievalResultLocationTypeS3,
						S3Location: &types.RetrievalResultS3Location{Uri: aws.String("s3://acme-docs/policies.pdf")},
					},
				},
				{
					Content: &types.RetrievalResultContent{Text: aws.String("second reference, ignored")},
				},
			},
		},
	}
	c := mustNewClient(t, &fakeAgent{out: out})

	res, err := c.Query(context.Background(), "What is the return policy?", "")
	require.NoError(t, err)
	require.NotNil(t, res.Citation)
	require.Equal(t, "Return policy: 30 days.", res.Citation.Content)
	require.Equal(t, "s3://acme-docs/policies.pdf", res.Citation.SourceURI)
}

func TestQuery_CitationWithoutReferences(t *testing.T) {
	out := answerOutput("answer")
	out.Citations = []types.Citation{{}}
	c := mustNewClient(t, &fakeAgent{out: out})

	res, err := c.Query(context.Background(), "q", "")
	require.NoError(t, err)
	require.Nil(t, res.Citation)
}

func TestQuery_EmptyReferenceSkipped(t *testing.T) {
	out := answerOutput("answer")
	out.Citations = []types.Citation{
		{RetrievedReferences: []types.RetrievedReference{{}}},
		{RetrievedReferences: []types.RetrievedReference{
			{Content: &types.RetrievalResultContent{Text: aws.String("useful context")}},
		}},
	}
	c := mustNewClient(t, &fakeAgent{out: out})

	res, err := c.Query(context.Background(), "q", "")
	require.NoError(t, err)
	require.NotNil(t, res.Citation)
	require.Equal(t, "useful context", res.Citation.Content)
	require.Empty(t, res.Citation.SourceURI)
}

func TestQuery_APIError(t *testing.T) {
	c := mustNewClient(t, &fakeAgent{err: errors.New("ThrottlingException")})

	_, err := c.Query(context.Background(), "q", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "retrieve and generate")
	require.Contains(t, err.Error(), "ThrottlingException")
}

func TestQuery_MissingOutputText(t *testing.T) {
	c := mustNewClient(t, &fakeAgent{out: &bedrockagentruntime.RetrieveAndGenerateOutput{}})

	_, err := c.Query(context.Background(), "q", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing output text")
}
