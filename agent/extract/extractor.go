// Package extract rewrites structured UI markers in raw agent output into
// placeholder tokens plus a parallel list of element descriptors.
//
// The marker grammar is fixed: {{<namespace>:<provider>}}, matched
// case-insensitively and scanned left to right. Extraction is pure: ids
// restart at 1 every call and placeholder tokens are only unique within a
// single call.
package extract

import (
	"fmt"
	"strings"

	"github.com/hirecj/agentsim/types"
)

// namespaces maps a marker namespace to the element type it produces and
// the placeholder stem used for its tokens. The set is closed: markers with
// an unregistered namespace pass through untouched so a new namespace shows
// up loudly in review instead of silently rendering.
var namespaces = map[string]namespaceSpec{
	"oauth": {elementType: "oauth_button", placeholderStem: "OAUTH_BUTTON"},
}

type namespaceSpec struct {
	elementType     string
	placeholderStem string
}

// Extract scans text for UI markers and returns the clean text plus the
// extracted elements in occurrence order. Text without markers is returned
// unchanged with a nil element list.
func Extract(text string) (string, []types.UIElement) {
	var (
		elements []types.UIElement
		sb       strings.Builder
		pos      int
	)

	for pos < len(text) {
		open := strings.Index(text[pos:], "{{")
		if open < 0 {
			break
		}
		open += pos

		close := strings.Index(text[open+2:], "}}")
		if close < 0 {
			// Unterminated marker: leave the rest as-is.
			break
		}
		close += open + 2

		spec, provider, ok := parseMarker(text[open+2 : close])
		if !ok {
			// Not a recognized marker; emit the opening braces literally
			// and keep scanning after them so nested "{{" still match.
			sb.WriteString(text[pos : open+2])
			pos = open + 2
			continue
		}

		id := len(elements) + 1
		placeholder := fmt.Sprintf("__%s_%d__", spec.placeholderStem, id)
		elements = append(elements, types.UIElement{
			ID:          id,
			Type:        spec.elementType,
			Provider:    provider,
			Placeholder: placeholder,
		})

		sb.WriteString(text[pos:open])
		sb.WriteString(placeholder)
		pos = close + 2
	}

	if elements == nil {
		return text, nil
	}
	sb.WriteString(text[pos:])
	return sb.String(), elements
}

// parseMarker validates the inner body of a {{...}} pair. The body must be
// exactly <namespace>:<provider> with a registered namespace and a
// non-empty provider containing no whitespace or brace characters.
func parseMarker(body string) (namespaceSpec, string, bool) {
	colon := strings.IndexByte(body, ':')
	if colon <= 0 || colon == len(body)-1 {
		return namespaceSpec{}, "", false
	}

	ns := strings.ToLower(body[:colon])
	spec, ok := namespaces[ns]
	if !ok {
		return namespaceSpec{}, "", false
	}

	provider := body[colon+1:]
	if strings.ContainsAny(provider, " \t\n{}:") {
		return namespaceSpec{}, "", false
	}
	return spec, strings.ToLower(provider), true
}
