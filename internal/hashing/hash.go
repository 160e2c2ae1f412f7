// Package hashing implements the Content Hasher: a deterministic digest over
// a message's normalized JSON representation, used to detect edits on
// re-import independent of map key ordering or number formatting.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// ContentHash canonicalizes v and returns its SHA-256 hex digest. Two calls
// with structurally equal but differently ordered maps produce the same hash.
func ContentHash(v any) (string, error) {
	canon, err := Canonicalize(v)
	if err != nil {
		return "", fmt.Errorf("hashing: canonicalize: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// Canonicalize serializes v to JSON with object keys sorted at every level
// and no insignificant whitespace. v is round-tripped through
// encoding/json first so arbitrary Go values (structs, maps, slices) and
// already-decoded interface{} trees are handled uniformly.
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("hashing: marshal: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("hashing: unmarshal: %w", err)
	}
	var buf []byte
	buf, err = appendCanonical(buf, decoded)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func appendCanonical(buf []byte, v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case bool:
		if val {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case string:
		encoded, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("hashing: marshal string: %w", err)
		}
		return append(buf, encoded...), nil
	case float64:
		encoded, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("hashing: marshal number: %w", err)
		}
		return append(buf, encoded...), nil
	case []any:
		buf = append(buf, '[')
		for i, elem := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendCanonical(buf, elem)
			if err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return nil, fmt.Errorf("hashing: marshal key: %w", err)
			}
			buf = append(buf, keyJSON...)
			buf = append(buf, ':')
			buf, err = appendCanonical(buf, val[k])
			if err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	default:
		return nil, fmt.Errorf("hashing: unsupported type %T", v)
	}
}
