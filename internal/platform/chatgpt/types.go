package chatgpt

import "encoding/json"

// exportDialogue mirrors one conversation object from a ChatGPT data export:
// a flat node-id-keyed map with parent/children pointers (§4.4.1).
type exportDialogue struct {
	Title      string                `json:"title"`
	CreateTime *float64              `json:"create_time"`
	UpdateTime *float64              `json:"update_time"`
	Mapping    map[string]exportNode `json:"mapping"`
	ID         string                `json:"conversation_id"`
}

type exportNode struct {
	ID       string          `json:"id"`
	Parent   *string         `json:"parent"`
	Children []string        `json:"children"`
	Message  *exportMessage  `json:"message"`
}

type exportMessage struct {
	ID         string          `json:"id"`
	Author     exportAuthor    `json:"author"`
	CreateTime *float64        `json:"create_time"`
	UpdateTime *float64        `json:"update_time"`
	Content    exportContent   `json:"content"`
	Status     string          `json:"status"`
	EndTurn    *bool           `json:"end_turn"`
	Weight     *float64        `json:"weight"`
	Recipient  string          `json:"recipient"`
	Metadata   exportMetadata  `json:"metadata"`
}

type exportAuthor struct {
	Role     string         `json:"role"`
	Name     *string        `json:"name"`
	Metadata map[string]any `json:"metadata"`
}

// exportContent carries the content_type discriminator (§4.4.1). Parts is
// left as raw JSON since its element shape depends on content_type.
type exportContent struct {
	ContentType string            `json:"content_type"`
	Parts       []json.RawMessage `json:"parts"`
	Text        string            `json:"text"`
	Language    string            `json:"language"`
}

// exportMetadata collects the platform-extension fields this adapter
// recognizes. Real exports carry many more fields; unrecognized ones are
// dropped at parse time, and the dialogue's stored raw JSON, which is
// re-encoded from these parsed structs, does not keep them either.
type exportMetadata struct {
	ModelSlug      *string             `json:"model_slug"`
	SearchResults  []exportSearchGroup `json:"search_result_groups"`
	CodeExecutions []exportCodeExec    `json:"code_executions"`
	DalleGens      []exportDalleGen    `json:"dalle_generations"`
	Canvas         *exportCanvas       `json:"canvas"`
}

type exportSearchGroup struct {
	Query   string             `json:"query"`
	Entries []exportSearchItem `json:"entries"`
}

type exportSearchItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type exportCodeExec struct {
	Language string             `json:"language"`
	Code     string             `json:"code"`
	Outputs  []exportCodeOutput `json:"outputs"`
}

type exportCodeOutput struct {
	Stream string `json:"stream"`
	Text   string `json:"text"`
}

type exportDalleGen struct {
	Prompt       string `json:"prompt"`
	AssetPointer string `json:"asset_pointer"`
}

type exportCanvas struct {
	TextdocID string `json:"textdoc_id"`
	Title     string `json:"title"`
	Version   int    `json:"version"`
}

// multimodalPart is the shape of one element of a multimodal_text parts[]
// array when it is not a bare string.
type multimodalPart struct {
	ContentType  string `json:"content_type"`
	AssetPointer string `json:"asset_pointer"`
}
