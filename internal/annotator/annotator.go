// Package annotator implements the Annotator Runtime (C7): a declarative,
// cursor-driven scheduler that streams entities past a priority-ordered set
// of annotators (§4.7).
package annotator

import (
	"github.com/dmarx/chat2obs/internal/store"
)

// KV is a (key, value) pair used by requires_strings/skip_if_strings, where
// an empty Value means "any value for this key" (§4.7).
type KV struct {
	Key   string
	Value string
}

// Metadata is the fixed-per-class declaration every annotator carries (§4.7).
type Metadata struct {
	Name            string
	EntityKind      store.EntityKind
	AnnotationKey   string
	ValueKind       string // "flag", "string", "numeric", "json"
	Priority        int
	Version         string
	Source          string
	RequiresFlags   []string
	RequiresStrings []KV
	SkipIfFlags     []string
	SkipIfStrings   []KV
}

// AnnotationResult is the value object an annotate function returns (§4.7.2).
// Equality is structural over (Key, Value, ValueKind); flag results carry no
// value.
type AnnotationResult struct {
	Key        string
	Value      any
	ValueKind  string
	Confidence *float64
	Reason     *string
}

// ContentPartEntity is the pure-data view a content_part annotator receives.
type ContentPartEntity struct {
	ID       string
	Text     string
	PartType string
}

// ContentPartAnnotator targets content_part entities.
type ContentPartAnnotator interface {
	Metadata() Metadata
	Annotate(e ContentPartEntity) ([]AnnotationResult, error)
}

// ResponseEvidence is the precomputed view of what content-part-level
// annotators already found in a response message's content parts. The
// runtime assembles this (it does the I/O); aggregate annotators stay pure
// functions of the assembled data (§4.7: "no I/O").
type ResponseEvidence struct {
	HasCodeBlock  bool
	CodeLanguages []string
	HasLatex      bool
	LatexTypes    []string
}

// PromptResponseEntity is the pure-data view a prompt_response annotator
// receives.
type PromptResponseEntity struct {
	ID           string
	PromptText   string
	ResponseText string
	PromptRole   string
	ResponseRole string
	Evidence     ResponseEvidence
}

// PromptResponseAnnotator targets prompt_response entities.
type PromptResponseAnnotator interface {
	Metadata() Metadata
	Annotate(e PromptResponseEntity) ([]AnnotationResult, error)
}

// Annotator is the union marker interface accepted by Runtime.Register; a
// registered value must also implement ContentPartAnnotator or
// PromptResponseAnnotator matching its declared Metadata().EntityKind.
type Annotator interface {
	Metadata() Metadata
}
