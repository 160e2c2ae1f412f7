package chatgpt

import (
	"encoding/json"
	"fmt"

	"github.com/dmarx/chat2obs/internal/platform"
)

// contentParts maps one message's content object to ContentPart variants
// per the content_type discriminator (§4.4.1).
func contentParts(c exportContent) ([]platform.RawContentPart, error) {
	switch c.ContentType {
	case "text":
		return textParts(c.Parts)
	case "code":
		lang := c.Language
		text := c.Text
		return []platform.RawContentPart{{
			PartType: "code",
			Text:     &text,
			Language: &lang,
		}}, nil
	case "multimodal_text":
		return multimodalParts(c.Parts)
	default:
		raw, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("marshal unknown content: %w", err)
		}
		rawStr := string(raw)
		return []platform.RawContentPart{{
			PartType:   "unknown",
			SourceJSON: &rawStr,
		}}, nil
	}
}

func textParts(parts []json.RawMessage) ([]platform.RawContentPart, error) {
	out := make([]platform.RawContentPart, 0, len(parts))
	for _, raw := range parts {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue // non-string entry in a "text" content_type is malformed; skip per §7 malformed-input policy
		}
		text := s
		out = append(out, platform.RawContentPart{PartType: "text", Text: &text})
	}
	return out, nil
}

func multimodalParts(parts []json.RawMessage) ([]platform.RawContentPart, error) {
	out := make([]platform.RawContentPart, 0, len(parts))
	for _, raw := range parts {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			text := s
			out = append(out, platform.RawContentPart{PartType: "text", Text: &text})
			continue
		}

		var mm multimodalPart
		if err := json.Unmarshal(raw, &mm); err != nil {
			rawStr := string(raw)
			out = append(out, platform.RawContentPart{PartType: "unknown", SourceJSON: &rawStr})
			continue
		}
		ptr := mm.AssetPointer
		switch {
		case mm.ContentType == "image_asset_pointer" || hasPrefix(mm.ContentType, "image"):
			out = append(out, platform.RawContentPart{PartType: "image", URL: &ptr, MediaType: &mm.ContentType})
		case hasPrefix(mm.ContentType, "audio"):
			out = append(out, platform.RawContentPart{PartType: "audio", URL: &ptr, MediaType: &mm.ContentType})
		case hasPrefix(mm.ContentType, "video"):
			out = append(out, platform.RawContentPart{PartType: "video", URL: &ptr, MediaType: &mm.ContentType})
		default:
			rawStr := string(raw)
			out = append(out, platform.RawContentPart{PartType: "unknown", SourceJSON: &rawStr})
		}
	}
	return out, nil
}

// canvasContentPart builds the synthetic "canvas" content part for a message
// carrying canvas metadata (§4.4.1).
func canvasContentPart(c *exportCanvas) platform.RawContentPart {
	title := c.Title
	return platform.RawContentPart{PartType: "canvas", Text: &title}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
