package builtins

import (
	"github.com/dmarx/chat2obs/internal/annotator"
	"github.com/dmarx/chat2obs/internal/store"
)

var (
	highConfidence     = 0.85
	moderateConfidence = 0.5
)

// WikiCandidateAnnotator flags assistant responses that read like wiki-style
// articles based on wiki-link density (§4.8).
type WikiCandidateAnnotator struct{}

func NewWikiCandidateAnnotator() WikiCandidateAnnotator { return WikiCandidateAnnotator{} }

func (WikiCandidateAnnotator) Metadata() annotator.Metadata {
	return annotator.Metadata{
		Name:          "wiki_candidate",
		EntityKind:    store.EntityPromptResponse,
		AnnotationKey: "exchange_type",
		ValueKind:     "string",
		Priority:      80,
		Version:       "1",
		Source:        "builtin",
	}
}

func (a WikiCandidateAnnotator) Annotate(e annotator.PromptResponseEntity) ([]annotator.AnnotationResult, error) {
	if e.ResponseRole != string(store.RoleAssistant) {
		return nil, nil
	}

	n := len(wikiLinkPattern.FindAllString(e.ResponseText, -1))
	if n == 0 {
		return nil, nil
	}

	confidence := moderateConfidence
	if n >= 3 {
		confidence = highConfidence
	}

	return []annotator.AnnotationResult{
		{Key: "exchange_type", ValueKind: "string", Value: "wiki_article", Confidence: &confidence},
	}, nil
}
