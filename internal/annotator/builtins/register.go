package builtins

import "github.com/dmarx/chat2obs/internal/annotator"

// All returns the representative built-in annotator set, in no particular
// order — Runtime.RunAll sorts by priority before execution (§4.8).
func All() []annotator.Annotator {
	return []annotator.Annotator{
		NewCodeBlockAnnotator(),
		NewScriptHeaderAnnotator(),
		NewLatexContentAnnotator(),
		NewWikiLinkContentAnnotator(),
		NewWikiCandidateAnnotator(),
		NewNaiveTitleAnnotator(),
		NewHasCodeAnnotator(),
		NewHasLatexAnnotator(),
	}
}
