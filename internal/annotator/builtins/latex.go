package builtins

import (
	"regexp"

	"github.com/dmarx/chat2obs/internal/annotator"
	"github.com/dmarx/chat2obs/internal/store"
)

var (
	displayMathPattern = regexp.MustCompile(`(?s)\$\$.+?\$\$`)
	inlineMathPattern    = regexp.MustCompile(`\$([^\s$](?:[^$\n]*[^\s$])?)\$`)
	currencyOnlyPattern  = regexp.MustCompile(`^[0-9][0-9.,]*$`)
	latexCommandPattern  = regexp.MustCompile(`\\(frac|sum|int|alpha|beta|gamma|sqrt|partial|nabla|infty|cdot|times|leq|geq|neq|approx|begin\{[a-zA-Z*]+\})`)
)

// LatexContentAnnotator detects LaTeX math markup within a content part
// (§4.8).
type LatexContentAnnotator struct{}

func NewLatexContentAnnotator() LatexContentAnnotator { return LatexContentAnnotator{} }

func (LatexContentAnnotator) Metadata() annotator.Metadata {
	return annotator.Metadata{
		Name:          "latex_content",
		EntityKind:    store.EntityContentPart,
		AnnotationKey: "has_latex",
		ValueKind:     "flag",
		Priority:      100,
		Version:       "1",
		Source:        "builtin",
	}
}

func (a LatexContentAnnotator) Annotate(e annotator.ContentPartEntity) ([]annotator.AnnotationResult, error) {
	var types []string

	if displayMathPattern.MatchString(e.Text) {
		types = append(types, "display")
	}
	if isLikelyInlineMath(e.Text) {
		types = append(types, "inline")
	}
	if latexCommandPattern.MatchString(e.Text) {
		types = append(types, "commands")
	}

	if len(types) == 0 {
		return nil, nil
	}

	results := []annotator.AnnotationResult{{Key: "has_latex", ValueKind: "flag"}}
	for _, t := range types {
		results = append(results, annotator.AnnotationResult{Key: "latex_type", ValueKind: "string", Value: t})
	}
	return results, nil
}

// isLikelyInlineMath reports whether text contains a $...$ span whose inner
// content is not simply a currency amount like "$5.00".
func isLikelyInlineMath(text string) bool {
	for _, m := range inlineMathPattern.FindAllStringSubmatch(text, -1) {
		if !currencyOnlyPattern.MatchString(m[1]) {
			return true
		}
	}
	return false
}
