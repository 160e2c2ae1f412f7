// Package builtins implements the representative annotator set of §4.8,
// each a concrete instantiation of the annotator.Annotator contract.
package builtins

import (
	"regexp"
	"strings"

	"github.com/dmarx/chat2obs/internal/annotator"
	"github.com/dmarx/chat2obs/internal/store"
)

// fencePattern matches a triple-backtick fence, capturing an optional
// language tag on the opening line.
var fencePattern = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\\n.*?```")

// CodeBlockAnnotator detects fenced code blocks within a content part (§4.8).
type CodeBlockAnnotator struct{}

func NewCodeBlockAnnotator() CodeBlockAnnotator { return CodeBlockAnnotator{} }

func (CodeBlockAnnotator) Metadata() annotator.Metadata {
	return annotator.Metadata{
		Name:          "code_block",
		EntityKind:    store.EntityContentPart,
		AnnotationKey: "has_code_block",
		ValueKind:     "flag",
		Priority:      100,
		Version:       "1",
		Source:        "builtin",
	}
}

func (a CodeBlockAnnotator) Annotate(e annotator.ContentPartEntity) ([]annotator.AnnotationResult, error) {
	matches := fencePattern.FindAllStringSubmatch(e.Text, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	results := []annotator.AnnotationResult{
		{Key: "has_code_block", ValueKind: "flag"},
		{Key: "code_block_count", ValueKind: "numeric", Value: float64(len(matches))},
	}

	seen := make(map[string]bool)
	for _, m := range matches {
		lang := strings.ToLower(strings.TrimSpace(m[1]))
		if lang == "" || seen[lang] {
			continue
		}
		seen[lang] = true
		results = append(results, annotator.AnnotationResult{
			Key: "code_languages", ValueKind: "string", Value: lang,
		})
	}
	return results, nil
}
