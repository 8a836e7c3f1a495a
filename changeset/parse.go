package changeset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/meysamhadeli/dappai/apperrors"
)

// rawEntry uses pointers so a missing field is distinguishable from an empty one.
type rawEntry struct {
	Path    *string `json:"path"`
	Content *string `json:"content"`
}

// Parse extracts the change set from a model reply. An empty array is a valid
// "no changes" answer.
func Parse(reply string) ([]ChangeEntry, error) {
	entries, _, err := ParseWithExplanation(reply)
	return entries, err
}

// ParseWithExplanation extracts the change set and returns any prose that
// follows the JSON array as the explanation.
//
// The first array opener is the change set unless it turns out to be a
// bracketed aside, in which case later openers past its closing bracket are
// tried. Only the first candidate may be an empty array.
func ParseWithExplanation(reply string) ([]ChangeEntry, string, error) {
	var syntaxErr, shapeErr error
	first := true
	offset := 0
	for {
		start := nextOpener(reply, offset)
		if start < 0 {
			break
		}

		raw, end, err := decodeArray(reply[start:])
		if err != nil {
			if syntaxErr == nil {
				syntaxErr = err
			}
			closing := matchingBracket(reply[start:])
			if closing < 0 {
				// Unterminated, so every later bracket belongs to it.
				break
			}
			offset = start + closing
			first = false
			continue
		}
		offset = start + end

		if len(raw) == 0 && !first {
			continue
		}
		first = false

		entries, err := validate(raw)
		if err != nil {
			if shapeErr == nil {
				shapeErr = err
			}
			continue
		}

		return entries, cleanExplanation(reply[start+end:]), nil
	}

	if shapeErr != nil {
		return nil, "", shapeErr
	}
	if syntaxErr == nil {
		return nil, "", apperrors.ErrMalformedResponse("no JSON array found")
	}
	return nil, "", apperrors.ErrMalformedResponse("could not parse a JSON array").WithCause(syntaxErr)
}

// nextOpener returns the index of the next '[' at or after offset that can
// start a JSON array. Brackets glued to an identifier, as in uint256[] or
// owners[i], are type or index syntax and are skipped.
func nextOpener(s string, offset int) int {
	for offset < len(s) {
		idx := strings.IndexByte(s[offset:], '[')
		if idx < 0 {
			return -1
		}
		at := offset + idx
		if at == 0 || !isIdentByte(s[at-1]) {
			return at
		}
		offset = at + 1
	}
	return -1
}

func isIdentByte(b byte) bool {
	return b == '_' || b == ')' || b == ']' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// matchingBracket returns the offset just past the bracket closing s[0],
// skipping JSON string literals, or -1 when s ends first.
func matchingBracket(s string) int {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// decodeArray decodes exactly one JSON array from the start of s and returns
// the byte offset just past it.
func decodeArray(s string) ([]json.RawMessage, int, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, 0, err
	}
	return raw, int(dec.InputOffset()), nil
}

func validate(raw []json.RawMessage) ([]ChangeEntry, error) {
	entries := make([]ChangeEntry, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, apperrors.ErrMalformedResponse(fmt.Sprintf("element %d is not an object", i))
		}

		var r rawEntry
		if err := json.Unmarshal(item, &r); err != nil {
			return nil, apperrors.ErrMalformedResponse(fmt.Sprintf("element %d: %v", i, err))
		}
		if r.Path == nil || r.Content == nil {
			return nil, apperrors.ErrMalformedResponse(fmt.Sprintf("element %d is missing path or content", i))
		}

		clean, err := cleanPath(*r.Path)
		if err != nil {
			return nil, apperrors.ErrMalformedResponse(fmt.Sprintf("element %d: %v", i, err))
		}

		entries = append(entries, ChangeEntry{Path: clean, Content: *r.Content})
	}
	return entries, nil
}

// cleanPath keeps edits inside the project root.
func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.HasPrefix(p, "/") || (len(p) > 1 && p[1] == ':') {
		return "", fmt.Errorf("absolute path %q", p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path %q escapes the project", p)
	}
	return clean, nil
}

func cleanExplanation(rest string) string {
	rest = strings.TrimSpace(rest)
	// Closing fence of a ```json block that wrapped the array.
	if strings.HasPrefix(rest, "```") {
		rest = strings.TrimPrefix(rest, "```")
	}
	return strings.TrimSpace(rest)
}
