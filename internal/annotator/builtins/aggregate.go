package builtins

import (
	"github.com/dmarx/chat2obs/internal/annotator"
	"github.com/dmarx/chat2obs/internal/store"
)

// HasCodeAnnotator rolls up content-part-level code evidence to the
// response as a whole (§4.8). Its input, Evidence, is assembled by the
// runtime from prior content_part annotations, keeping Annotate itself a
// pure function of its argument.
type HasCodeAnnotator struct{}

func NewHasCodeAnnotator() HasCodeAnnotator { return HasCodeAnnotator{} }

func (HasCodeAnnotator) Metadata() annotator.Metadata {
	return annotator.Metadata{
		Name:          "has_code",
		EntityKind:    store.EntityPromptResponse,
		AnnotationKey: "has_code",
		ValueKind:     "flag",
		Priority:      50,
		Version:       "1",
		Source:        "builtin",
	}
}

func (a HasCodeAnnotator) Annotate(e annotator.PromptResponseEntity) ([]annotator.AnnotationResult, error) {
	if !e.Evidence.HasCodeBlock {
		return nil, nil
	}
	results := []annotator.AnnotationResult{{Key: "has_code", ValueKind: "flag"}}
	for _, lang := range e.Evidence.CodeLanguages {
		results = append(results, annotator.AnnotationResult{Key: "code_evidence", ValueKind: "string", Value: lang})
	}
	return results, nil
}

// HasLatexAnnotator rolls up content-part-level LaTeX evidence to the
// response as a whole (§4.8).
type HasLatexAnnotator struct{}

func NewHasLatexAnnotator() HasLatexAnnotator { return HasLatexAnnotator{} }

func (HasLatexAnnotator) Metadata() annotator.Metadata {
	return annotator.Metadata{
		Name:          "has_latex",
		EntityKind:    store.EntityPromptResponse,
		AnnotationKey: "has_latex",
		ValueKind:     "flag",
		Priority:      50,
		Version:       "1",
		Source:        "builtin",
	}
}

func (a HasLatexAnnotator) Annotate(e annotator.PromptResponseEntity) ([]annotator.AnnotationResult, error) {
	if !e.Evidence.HasLatex {
		return nil, nil
	}
	results := []annotator.AnnotationResult{{Key: "has_latex", ValueKind: "flag"}}
	for _, t := range e.Evidence.LatexTypes {
		results = append(results, annotator.AnnotationResult{Key: "latex_type", ValueKind: "string", Value: t})
	}
	return results, nil
}
