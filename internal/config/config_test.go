package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var requiredVars = map[string]string{
	"AWS_REGION":            "us-east-1",
	"AWS_ACCESS_KEY_ID":     "AKIA-test",
	"AWS_SECRET_ACCESS_KEY": "secret-test",
	"MODEL_ID":              "amazon.nova-lite-v1:0",
	"KNOWLEDGE_BASE_ID":     "KB12345",
	"PRODUCT_NAME":          "Acme Widgets",
	"APP_TITLE":             "Acme Widgets Assistant",
}

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range requiredVars {
		t.Setenv(k, v)
	}
}

func TestLoad_HappyPath(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "us-east-1", cfg.Region)
	require.Equal(t, "Acme Widgets", cfg.ProductName)
	require.Equal(t, "KB12345", cfg.KnowledgeBaseID)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "30s", cfg.RequestTimeout.String())
	require.Equal(t, ClassifierKeyword, cfg.Classifier)
	require.Empty(t, cfg.DomainKeywords)
	require.Empty(t, cfg.LogFile)
}

func TestLoad_MissingRequired(t *testing.T) {
	for missing := range requiredVars {
		t.Run(missing, func(t *testing.T) {
			for k, v := range requiredVars {
				if k == missing {
					t.Setenv(k, "")
					continue
				}
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoad_WhitespaceOnlyRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("PRODUCT_NAME", "   ")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "PRODUCT_NAME")
}

func TestLoad_InvalidClassifier(t *testing.T) {
	setRequired(t)
	t.Setenv("CLASSIFIER", "oracle")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "CLASSIFIER")
}

func TestLoad_ModelClassifier(t *testing.T) {
	setRequired(t)
	t.Setenv("CLASSIFIER", "model")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ClassifierModel, cfg.Classifier)
}

func TestLoad_DomainKeywords(t *testing.T) {
	setRequired(t)
	t.Setenv("DOMAIN_KEYWORDS", "gadget,sprocket")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"gadget", "sprocket"}, cfg.DomainKeywords)
}

func TestLoad_RequestTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("REQUEST_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "45s", cfg.RequestTimeout.String())
}

func TestModelArn(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "arn:aws:bedrock:us-east-1::foundation-model/amazon.nova-lite-v1:0", cfg.ModelArn())
}
