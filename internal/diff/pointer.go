package diff

import (
	"fmt"
	"strconv"
	"strings"
)

// escapeToken encodes a single reference token per RFC 6901.
func escapeToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// unescapeToken decodes a single reference token per RFC 6901.
func unescapeToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// splitPointer breaks a JSON pointer into its reference tokens.
// The empty pointer addresses the whole document.
func splitPointer(pointer string) ([]string, error) {
	if pointer == "" {
		return nil, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("invalid JSON pointer %q", pointer)
	}

	raw := strings.Split(pointer[1:], "/")
	tokens := make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = unescapeToken(t)
	}
	return tokens, nil
}

// childPath extends a pointer with an object key token.
func childPath(path, key string) string {
	return path + "/" + escapeToken(key)
}

// indexPath extends a pointer with an array index token.
func indexPath(path string, index int) string {
	return path + "/" + strconv.Itoa(index)
}

// arrayIndex parses a reference token as an array index bounded by length.
// When insert is true, length itself is a valid index (append position).
func arrayIndex(token string, length int, insert bool) (int, error) {
	idx, err := strconv.Atoi(token)
	if err != nil || (len(token) > 1 && token[0] == '0') {
		return 0, fmt.Errorf("invalid array index %q", token)
	}

	limit := length
	if insert {
		limit = length + 1
	}
	if idx < 0 || idx >= limit {
		return 0, fmt.Errorf("array index %d out of bounds (length %d)", idx, length)
	}
	return idx, nil
}
