// Package store provides SQLite-backed persistence for chat2obs.
// Uses ncruces/go-sqlite3/driver, a pure-Go (wazero) database/sql driver —
// no cgo, matching the teacher's WASM-compatible storage layer.
package store

// schema defines every raw.* and derived.* table from the data model.
// Applied idempotently: every statement is CREATE ... IF NOT EXISTS.
const schema = `
-- ============================================================================
-- raw.* — normalized export data
-- ============================================================================

CREATE TABLE IF NOT EXISTS sources (
    id                TEXT PRIMARY KEY,
    display_name      TEXT NOT NULL,
    has_native_trees  INTEGER NOT NULL DEFAULT 0,
    role_vocabulary   TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS dialogues (
    id                  TEXT PRIMARY KEY,
    source_id           TEXT NOT NULL,
    external_id         TEXT NOT NULL,
    title               TEXT,
    raw_json            TEXT,
    source_created_at   INTEGER,
    source_updated_at   INTEGER,
    created_at          INTEGER NOT NULL,
    updated_at          INTEGER NOT NULL,
    UNIQUE (source_id, external_id)
);

CREATE TABLE IF NOT EXISTS messages (
    id                  TEXT PRIMARY KEY,
    dialogue_id         TEXT NOT NULL,
    external_id         TEXT NOT NULL,
    parent_id           TEXT,
    role                TEXT NOT NULL,
    author_json         TEXT,
    content_hash        TEXT NOT NULL,
    source_created_at   INTEGER,
    source_updated_at   INTEGER,
    deleted_at          INTEGER,
    created_at          INTEGER NOT NULL,
    updated_at          INTEGER NOT NULL,
    UNIQUE (dialogue_id, external_id)
);

CREATE INDEX IF NOT EXISTS idx_messages_dialogue ON messages(dialogue_id);
CREATE INDEX IF NOT EXISTS idx_messages_parent ON messages(parent_id);
CREATE INDEX IF NOT EXISTS idx_messages_ordering ON messages(dialogue_id, source_created_at, id);

CREATE TABLE IF NOT EXISTS content_parts (
    id            TEXT PRIMARY KEY,
    message_id    TEXT NOT NULL,
    sequence      INTEGER NOT NULL,
    part_type     TEXT NOT NULL,
    text_content  TEXT,
    language      TEXT,
    media_type    TEXT,
    url           TEXT,
    tool_name     TEXT,
    tool_use_id   TEXT,
    tool_input    TEXT,
    is_error      INTEGER,
    source_json   TEXT,
    created_at    INTEGER NOT NULL DEFAULT 0,
    UNIQUE (message_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_content_parts_message ON content_parts(message_id);
CREATE INDEX IF NOT EXISTS idx_content_parts_ordering ON content_parts(created_at, id);

CREATE TABLE IF NOT EXISTS citations (
    id          TEXT PRIMARY KEY,
    message_id  TEXT NOT NULL,
    payload     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_citations_message ON citations(message_id);

CREATE TABLE IF NOT EXISTS attachments (
    id          TEXT PRIMARY KEY,
    message_id  TEXT NOT NULL,
    payload     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attachments_message ON attachments(message_id);

-- ChatGPT platform extensions ------------------------------------------------

CREATE TABLE IF NOT EXISTS chatgpt_message_meta (
    message_id  TEXT PRIMARY KEY,
    model_slug  TEXT,
    status      TEXT,
    end_turn    INTEGER,
    weight      REAL,
    recipient   TEXT
);

CREATE TABLE IF NOT EXISTS chatgpt_search_groups (
    id          TEXT PRIMARY KEY,
    message_id  TEXT NOT NULL,
    query       TEXT
);

CREATE INDEX IF NOT EXISTS idx_chatgpt_search_groups_message ON chatgpt_search_groups(message_id);

CREATE TABLE IF NOT EXISTS chatgpt_search_entries (
    id        TEXT PRIMARY KEY,
    group_id  TEXT NOT NULL,
    title     TEXT,
    url       TEXT,
    snippet   TEXT
);

CREATE INDEX IF NOT EXISTS idx_chatgpt_search_entries_group ON chatgpt_search_entries(group_id);

CREATE TABLE IF NOT EXISTS chatgpt_code_executions (
    id           TEXT PRIMARY KEY,
    message_id   TEXT NOT NULL,
    language     TEXT,
    code         TEXT
);

CREATE INDEX IF NOT EXISTS idx_chatgpt_code_executions_message ON chatgpt_code_executions(message_id);

CREATE TABLE IF NOT EXISTS chatgpt_code_outputs (
    id            TEXT PRIMARY KEY,
    execution_id  TEXT NOT NULL,
    stream        TEXT,
    text_content  TEXT
);

CREATE INDEX IF NOT EXISTS idx_chatgpt_code_outputs_execution ON chatgpt_code_outputs(execution_id);

CREATE TABLE IF NOT EXISTS chatgpt_dalle_generations (
    id            TEXT PRIMARY KEY,
    message_id    TEXT NOT NULL,
    prompt        TEXT,
    asset_pointer TEXT
);

CREATE INDEX IF NOT EXISTS idx_chatgpt_dalle_generations_message ON chatgpt_dalle_generations(message_id);

CREATE TABLE IF NOT EXISTS chatgpt_canvas_docs (
    id               TEXT PRIMARY KEY,
    message_id       TEXT NOT NULL,
    content_part_id  TEXT NOT NULL,
    textdoc_id       TEXT NOT NULL,
    title            TEXT,
    version          INTEGER NOT NULL,
    is_latest        INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_chatgpt_canvas_docs_message ON chatgpt_canvas_docs(message_id);
CREATE INDEX IF NOT EXISTS idx_chatgpt_canvas_docs_textdoc ON chatgpt_canvas_docs(textdoc_id);

-- Claude platform extensions --------------------------------------------------

CREATE TABLE IF NOT EXISTS claude_message_meta (
    message_id  TEXT PRIMARY KEY,
    model       TEXT,
    stop_reason TEXT
);

-- ============================================================================
-- derived.* — builder + annotation output
-- ============================================================================

CREATE TABLE IF NOT EXISTS prompt_responses (
    id                   TEXT PRIMARY KEY,
    dialogue_id          TEXT NOT NULL,
    prompt_message_id    TEXT NOT NULL,
    response_message_id  TEXT NOT NULL UNIQUE,
    prompt_position      INTEGER NOT NULL,
    response_position    INTEGER NOT NULL,
    prompt_role          TEXT NOT NULL,
    response_role        TEXT NOT NULL,
    created_at           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prompt_responses_dialogue ON prompt_responses(dialogue_id);
CREATE INDEX IF NOT EXISTS idx_prompt_responses_prompt ON prompt_responses(prompt_message_id);

CREATE TABLE IF NOT EXISTS prompt_response_content (
    prompt_response_id   TEXT PRIMARY KEY,
    prompt_text          TEXT NOT NULL DEFAULT '',
    response_text        TEXT NOT NULL DEFAULT '',
    prompt_word_count    INTEGER NOT NULL DEFAULT 0,
    response_word_count  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS annotator_cursors (
    annotator_name     TEXT NOT NULL,
    annotator_version  TEXT NOT NULL,
    entity_kind        TEXT NOT NULL,
    high_water_mark    INTEGER NOT NULL DEFAULT 0,
    entities_processed INTEGER NOT NULL DEFAULT 0,
    last_run_at        INTEGER,
    PRIMARY KEY (annotator_name, annotator_version, entity_kind)
);

-- 16-table annotation matrix --------------------------------------------------
` + annotationTablesDDL("content_part") +
	annotationTablesDDL("message") +
	annotationTablesDDL("prompt_response") +
	annotationTablesDDL("dialogue")

// annotationTablesDDL emits the four value-kind tables for one entity kind.
func annotationTablesDDL(entityKind string) string {
	return `
CREATE TABLE IF NOT EXISTS ` + entityKind + `_annotations_flag (
    entity_id       TEXT NOT NULL,
    key             TEXT NOT NULL,
    confidence      REAL,
    reason          TEXT,
    source          TEXT NOT NULL,
    source_version  TEXT,
    created_at      INTEGER NOT NULL,
    PRIMARY KEY (entity_id, key)
);

CREATE TABLE IF NOT EXISTS ` + entityKind + `_annotations_string (
    entity_id        TEXT NOT NULL,
    key              TEXT NOT NULL,
    annotation_value TEXT NOT NULL,
    confidence       REAL,
    reason           TEXT,
    source           TEXT NOT NULL,
    source_version   TEXT,
    created_at       INTEGER NOT NULL,
    PRIMARY KEY (entity_id, key, annotation_value)
);

CREATE TABLE IF NOT EXISTS ` + entityKind + `_annotations_numeric (
    entity_id        TEXT NOT NULL,
    key              TEXT NOT NULL,
    annotation_value REAL NOT NULL,
    confidence       REAL,
    reason           TEXT,
    source           TEXT NOT NULL,
    source_version   TEXT,
    created_at       INTEGER NOT NULL,
    PRIMARY KEY (entity_id, key, annotation_value)
);

CREATE TABLE IF NOT EXISTS ` + entityKind + `_annotations_json (
    entity_id        TEXT NOT NULL,
    key              TEXT NOT NULL,
    annotation_value TEXT NOT NULL,
    confidence       REAL,
    reason           TEXT,
    source           TEXT NOT NULL,
    source_version   TEXT,
    created_at       INTEGER NOT NULL,
    PRIMARY KEY (entity_id, key)
);

CREATE INDEX IF NOT EXISTS idx_` + entityKind + `_ann_flag_key ON ` + entityKind + `_annotations_flag(key);
CREATE INDEX IF NOT EXISTS idx_` + entityKind + `_ann_string_key ON ` + entityKind + `_annotations_string(key);
CREATE INDEX IF NOT EXISTS idx_` + entityKind + `_ann_numeric_key ON ` + entityKind + `_annotations_numeric(key);
CREATE INDEX IF NOT EXISTS idx_` + entityKind + `_ann_json_key ON ` + entityKind + `_annotations_json(key);
`
}
