package builtins

import (
	"strings"

	"github.com/coregx/ahocorasick"

	"github.com/dmarx/chat2obs/internal/annotator"
	"github.com/dmarx/chat2obs/internal/store"
)

// scriptHeaderPatterns and scriptHeaderTypes are parallel slices: the
// pattern at index i classifies as scriptHeaderTypes[i] (§4.8's fixed
// {python, bash, c, cpp, php} vocabulary; "c" is refined to "cpp" below when
// the surrounding text carries C++-only markers).
var (
	scriptHeaderPatterns = []string{
		"#!/bin/bash", "#!/bin/sh", "#!/usr/bin/env bash", "#!/usr/bin/env sh",
		"#!/usr/bin/env python", "#!/usr/bin/python", "#!/usr/bin/python3",
		"#include <", `#include "`,
		"<?php",
	}
	scriptHeaderTypes = []string{
		"bash", "bash", "bash", "bash",
		"python", "python", "python",
		"c", "c",
		"php",
	}
	scriptHeaderAutomaton = mustBuildAutomaton(scriptHeaderPatterns)
)

func mustBuildAutomaton(patterns []string) *ahocorasick.Automaton {
	automaton, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		panic("builtins: failed to build automaton: " + err.Error())
	}
	return automaton
}

// ScriptHeaderAnnotator detects shebang lines, C/C++ includes, and PHP open
// tags via a single Aho-Corasick scan, classifying the content part into a
// fixed script_type vocabulary (§4.8).
type ScriptHeaderAnnotator struct{}

func NewScriptHeaderAnnotator() ScriptHeaderAnnotator { return ScriptHeaderAnnotator{} }

func (ScriptHeaderAnnotator) Metadata() annotator.Metadata {
	return annotator.Metadata{
		Name:          "script_header",
		EntityKind:    store.EntityContentPart,
		AnnotationKey: "has_script_header",
		ValueKind:     "flag",
		Priority:      100,
		Version:       "1",
		Source:        "builtin",
	}
}

func (a ScriptHeaderAnnotator) Annotate(e annotator.ContentPartEntity) ([]annotator.AnnotationResult, error) {
	matches := scriptHeaderAutomaton.FindAllOverlapping([]byte(e.Text))
	if len(matches) == 0 {
		return nil, nil
	}

	scriptType := scriptHeaderTypes[matches[0].PatternID]
	if scriptType == "c" && looksLikeCpp(e.Text) {
		scriptType = "cpp"
	}

	return []annotator.AnnotationResult{
		{Key: "has_script_header", ValueKind: "flag"},
		{Key: "script_type", ValueKind: "string", Value: scriptType},
	}, nil
}

func looksLikeCpp(text string) bool {
	return strings.Contains(text, "std::") || strings.Contains(text, "iostream") ||
		strings.Contains(text, "namespace ") || strings.Contains(text, ".hpp")
}
