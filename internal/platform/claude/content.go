package claude

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dmarx/chat2obs/internal/platform"
)

// contentParts maps one message's tagged content blocks to ContentPart
// variants (§4.4.2): text, thinking, tool_use, tool_result, image.
func contentParts(blocks []exportContentBlock) ([]platform.RawContentPart, error) {
	out := make([]platform.RawContentPart, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case "text":
			text := b.Text
			out = append(out, platform.RawContentPart{PartType: "text", Text: &text})
		case "thinking":
			text := b.Text
			out = append(out, platform.RawContentPart{PartType: "thinking", Text: &text})
		case "tool_use":
			name := b.Name
			toolUseID := b.ToolUseID
			input := string(b.Input)
			out = append(out, platform.RawContentPart{
				PartType:  "tool_use",
				ToolName:  &name,
				ToolUseID: &toolUseID,
				ToolInput: &input,
			})
		case "tool_result":
			toolUseID := b.ToolUseID
			text := toolResultText(b.Content)
			isError := b.IsError
			out = append(out, platform.RawContentPart{
				PartType:  "tool_result",
				ToolUseID: &toolUseID,
				Text:      &text,
				IsError:   &isError,
			})
		case "image":
			if b.Source != nil {
				mediaType := b.Source.MediaType
				url := b.Source.URL
				out = append(out, platform.RawContentPart{PartType: "image", MediaType: &mediaType, URL: &url})
			} else {
				raw := "{}"
				out = append(out, platform.RawContentPart{PartType: "unknown", SourceJSON: &raw})
			}
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				return nil, err
			}
			rawStr := string(raw)
			out = append(out, platform.RawContentPart{PartType: "unknown", SourceJSON: &rawStr})
		}
	}
	return out, nil
}

// toolResultText concatenates the textual children of a tool_result's
// content, which may be a bare string or a heterogeneous list (§4.4.2).
func toolResultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []exportContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return string(raw)
	}
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func rfc3339Millis(s string) (int64, bool) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}
