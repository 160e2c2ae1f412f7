package builtins

import (
	"regexp"
	"strings"

	"github.com/orsinium-labs/stopwords"

	"github.com/dmarx/chat2obs/internal/annotator"
	"github.com/dmarx/chat2obs/internal/store"
)

var (
	headingPattern   = regexp.MustCompile(`^#{1,3}\s+(.+)$`)
	boldTitlePattern = regexp.MustCompile(`^\*\*([^*]+)\*\*(?:\s*(?:—|--|-)\s*(.+))?$`)

	stopwordChecker = stopwords.MustGet("en")

	// maxHeadinglessTitleWords bounds the fallback to short, title-shaped
	// lines; anything longer reads as a sentence, not a heading.
	maxHeadinglessTitleWords = 12
)

// NaiveTitleAnnotator proposes a title for a response already classified as
// a wiki_article exchange, reading only its first non-empty line (§4.8).
type NaiveTitleAnnotator struct{}

func NewNaiveTitleAnnotator() NaiveTitleAnnotator { return NaiveTitleAnnotator{} }

func (NaiveTitleAnnotator) Metadata() annotator.Metadata {
	return annotator.Metadata{
		Name:          "naive_title",
		EntityKind:    store.EntityPromptResponse,
		AnnotationKey: "proposed_title",
		ValueKind:     "string",
		Priority:      70,
		Version:       "1",
		Source:        "builtin",
		RequiresStrings: []annotator.KV{
			{Key: "exchange_type", Value: "wiki_article"},
		},
	}
}

func (a NaiveTitleAnnotator) Annotate(e annotator.PromptResponseEntity) ([]annotator.AnnotationResult, error) {
	line := firstNonEmptyLine(e.ResponseText)
	if line == "" {
		return nil, nil
	}

	if m := headingPattern.FindStringSubmatch(line); m != nil {
		title := strings.TrimSpace(m[1])
		if title == "" {
			return nil, nil
		}
		return []annotator.AnnotationResult{{Key: "proposed_title", ValueKind: "string", Value: title}}, nil
	}

	if m := boldTitlePattern.FindStringSubmatch(line); m != nil {
		title := strings.TrimSpace(m[1])
		if title == "" {
			return nil, nil
		}
		return []annotator.AnnotationResult{{Key: "proposed_title", ValueKind: "string", Value: title}}, nil
	}

	if title := headinglessTitle(line); title != "" {
		return []annotator.AnnotationResult{{Key: "proposed_title", ValueKind: "string", Value: title}}, nil
	}

	return nil, nil
}

// headinglessTitle handles a response whose first line is neither a markdown
// heading nor a bolded line: a short line with no sentence-ending
// punctuation is treated as an implicit title, trimming any leading
// stopwords so "The Quantum Entanglement Problem" and "Quantum Entanglement
// Problem" both extract to the same title.
func headinglessTitle(line string) string {
	if strings.HasSuffix(line, ".") || strings.HasSuffix(line, "?") || strings.HasSuffix(line, "!") {
		return ""
	}

	words := strings.Fields(line)
	if len(words) == 0 || len(words) > maxHeadinglessTitleWords {
		return ""
	}

	i := 0
	for i < len(words)-1 && stopwordChecker.Contains(strings.ToLower(words[i])) {
		i++
	}

	return strings.Join(words[i:], " ")
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
