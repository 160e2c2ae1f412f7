package store

// EntityKind is the set of entities the annotation matrix is keyed by.
type EntityKind string

const (
	EntityContentPart   EntityKind = "content_part"
	EntityMessage       EntityKind = "message"
	EntityPromptResponse EntityKind = "prompt_response"
	EntityDialogue      EntityKind = "dialogue"
)

// Role enumerates the normalized message roles (§3.1).
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// PartType enumerates the ContentPart tagged-variant discriminator (§3.1, §9).
type PartType string

const (
	PartText       PartType = "text"
	PartCode       PartType = "code"
	PartImage      PartType = "image"
	PartAudio      PartType = "audio"
	PartVideo      PartType = "video"
	PartToolUse    PartType = "tool_use"
	PartToolResult PartType = "tool_result"
	PartThinking   PartType = "thinking"
	PartCanvas     PartType = "canvas"
	PartUnknown    PartType = "unknown"
)

// Source is a static catalog entry describing one export platform.
type Source struct {
	ID              string
	DisplayName     string
	HasNativeTrees  bool
	RoleVocabulary  []string
}

// Dialogue is one conversation from one source.
type Dialogue struct {
	ID               string
	SourceID         string
	ExternalID       string
	Title            string
	RawJSON          string
	SourceCreatedAt  *int64
	SourceUpdatedAt  *int64
	CreatedAt        int64
	UpdatedAt        int64
}

// Message is a single authored turn within a dialogue.
type Message struct {
	ID              string
	DialogueID      string
	ExternalID      string
	ParentID        *string
	Role            Role
	AuthorJSON      string
	ContentHash     string
	SourceCreatedAt *int64
	SourceUpdatedAt *int64
	DeletedAt       *int64
	CreatedAt       int64
	UpdatedAt       int64
}

// ContentPart is a typed, ordered fragment of a message.
type ContentPart struct {
	ID          string
	MessageID   string
	Sequence    int
	PartType    PartType
	Text        *string
	Language    *string
	MediaType   *string
	URL         *string
	ToolName    *string
	ToolUseID   *string
	ToolInput   *string // JSON-encoded
	IsError     *bool
	SourceJSON  *string
	CreatedAt   int64
}

// PromptResponse is a derived pairing of a user message to the response it elicited.
type PromptResponse struct {
	ID                 string
	DialogueID         string
	PromptMessageID    string
	ResponseMessageID  string
	PromptPosition     int
	ResponsePosition   int
	PromptRole         Role
	ResponseRole       Role
	CreatedAt          int64
}

// PromptResponseContent carries the aggregated text/word-count view of a pair.
type PromptResponseContent struct {
	PromptResponseID  string
	PromptText        string
	ResponseText      string
	PromptWordCount   int
	ResponseWordCount int
}

// AnnotatorCursor tracks per-annotator incremental progress (§4.7.1).
type AnnotatorCursor struct {
	AnnotatorName     string
	AnnotatorVersion  string
	EntityKind        EntityKind
	HighWaterMark     int64
	EntitiesProcessed int64
	LastRunAt         *int64
}

// CanvasDoc represents a ChatGPT canvas document derived from a message.
type CanvasDoc struct {
	ID            string
	MessageID     string
	ContentPartID string
	TextdocID     string
	Title         string
	Version       int
	IsLatest      bool
}
