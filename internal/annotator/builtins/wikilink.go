package builtins

import (
	"regexp"

	"github.com/dmarx/chat2obs/internal/annotator"
	"github.com/dmarx/chat2obs/internal/store"
)

var wikiLinkPattern = regexp.MustCompile(`\[\[[^\[\]]+\]\]`)

// WikiLinkContentAnnotator detects [[wiki link]] markup within a content
// part (§4.8).
type WikiLinkContentAnnotator struct{}

func NewWikiLinkContentAnnotator() WikiLinkContentAnnotator { return WikiLinkContentAnnotator{} }

func (WikiLinkContentAnnotator) Metadata() annotator.Metadata {
	return annotator.Metadata{
		Name:          "wiki_link_content",
		EntityKind:    store.EntityContentPart,
		AnnotationKey: "has_wiki_links",
		ValueKind:     "flag",
		Priority:      100,
		Version:       "1",
		Source:        "builtin",
	}
}

func (a WikiLinkContentAnnotator) Annotate(e annotator.ContentPartEntity) ([]annotator.AnnotationResult, error) {
	n := len(wikiLinkPattern.FindAllString(e.Text, -1))
	if n == 0 {
		return nil, nil
	}
	return []annotator.AnnotationResult{
		{Key: "has_wiki_links", ValueKind: "flag"},
		{Key: "wiki_link_count", ValueKind: "numeric", Value: float64(n)},
	}, nil
}
