package domain

// Category is the classification verdict for a user query.
type Category string

const (
	CategoryProduct Category = "product"
	CategoryGeneric Category = "generic"
)

// AnswerSource records where an answer came from.
type AnswerSource string

const (
	SourceKnowledgeBase AnswerSource = "knowledge_base"
	SourceFallback      AnswerSource = "fallback"
)

// Citation is the first retrieved reference backing a knowledge-base answer.
type Citation struct {
	Content   string `json:"content"`
	SourceURI string `json:"sourceUri"`
}

// KnowledgeBaseResult is one grounded answer from the external service.
type KnowledgeBaseResult struct {
	Text      string
	Citation  *Citation
	SessionID string
}

// Answer is the dispatcher result for one query.
type Answer struct {
	Text     string       `json:"text"`
	Source   AnswerSource `json:"source"`
	Category Category     `json:"category"`
	Citation *Citation    `json:"citation,omitempty"`
}
