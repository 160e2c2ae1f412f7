package hashing

import "testing"

func TestContentHashStableAcrossKeyOrder(t *testing.T) {
	a := map[string]any{"role": "user", "text": "hello", "n": 1}
	b := map[string]any{"n": 1, "text": "hello", "role": "user"}

	hashA, err := ContentHash(a)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hashB, err := ContentHash(b)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if hashA != hashB {
		t.Fatalf("expected equal hashes regardless of key order, got %s vs %s", hashA, hashB)
	}
}

func TestContentHashDiffersOnValueChange(t *testing.T) {
	a := map[string]any{"text": "hello"}
	b := map[string]any{"text": "hello there"}

	hashA, _ := ContentHash(a)
	hashB, _ := ContentHash(b)
	if hashA == hashB {
		t.Fatalf("expected different hashes for different content")
	}
}

func TestContentHashHandlesNestedStructures(t *testing.T) {
	a := map[string]any{
		"parts": []any{
			map[string]any{"type": "text", "value": "a"},
			map[string]any{"type": "code", "value": "b", "lang": "go"},
		},
	}
	b := map[string]any{
		"parts": []any{
			map[string]any{"value": "a", "type": "text"},
			map[string]any{"lang": "go", "value": "b", "type": "code"},
		},
	}
	hashA, err := ContentHash(a)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hashB, err := ContentHash(b)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if hashA != hashB {
		t.Fatalf("expected nested map key order to be irrelevant, got %s vs %s", hashA, hashB)
	}
}

func TestContentHashStructInput(t *testing.T) {
	type msg struct {
		Role string `json:"role"`
		Text string `json:"text"`
	}
	h, err := ContentHash(msg{Role: "user", Text: "hi"})
	if err != nil {
		t.Fatalf("hash struct: %v", err)
	}
	if h == "" {
		t.Fatalf("expected non-empty hash")
	}
}
