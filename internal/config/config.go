package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	ClassifierKeyword = "keyword"
	ClassifierModel   = "model"
)

// Config holds all deployment parameters, read once from the process
// environment at startup and immutable afterwards.
type Config struct {
	Region          string `envconfig:"AWS_REGION" required:"true"`
	AccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID" required:"true"`
	SecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY" required:"true"`
	ModelID         string `envconfig:"MODEL_ID" required:"true"`
	KnowledgeBaseID string `envconfig:"KNOWLEDGE_BASE_ID" required:"true"`
	ProductName     string `envconfig:"PRODUCT_NAME" required:"true"`
	AppTitle        string `envconfig:"APP_TITLE" required:"true"`

	Port           string        `envconfig:"PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	Classifier     string        `envconfig:"CLASSIFIER" default:"keyword"`
	DomainKeywords []string      `envconfig:"DOMAIN_KEYWORDS"`
	LogFile        string        `envconfig:"LOG_FILE"`
}

// Load reads the configuration from the environment and validates it.
// A missing or empty required value is fatal for the caller.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	required := []struct {
		key string
		val string
	}{
		{"AWS_REGION", c.Region},
		{"AWS_ACCESS_KEY_ID", c.AccessKeyID},
		{"AWS_SECRET_ACCESS_KEY", c.SecretAccessKey},
		{"MODEL_ID", c.ModelID},
		{"KNOWLEDGE_BASE_ID", c.KnowledgeBaseID},
		{"PRODUCT_NAME", c.ProductName},
		{"APP_TITLE", c.AppTitle},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.Classifier != ClassifierKeyword && c.Classifier != ClassifierModel {
		return fmt.Errorf("config: CLASSIFIER must be %q or %q, got %q", ClassifierKeyword, ClassifierModel, c.Classifier)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("config: REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// ModelArn returns the foundation-model ARN used by the knowledge-base
// service, derived from the configured region and model identifier.
func (c *Config) ModelArn() string {
	return fmt.Sprintf("arn:aws:bedrock:%s::foundation-model/%s", c.Region, c.ModelID)
}
