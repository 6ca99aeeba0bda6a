// ABOUTME: Markdown to HTML rendering for stored idea bodies
// ABOUTME: Used by the idea viewer endpoint

package ideas

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// RenderIdeaHTML converts an idea's markdown body to HTML. The title is
// prepended as a level-one heading.
func RenderIdeaHTML(title, body string) (string, error) {
	md := fmt.Sprintf("# %s\n\n%s", title, body)

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}
