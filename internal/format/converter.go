// Package format converts message bodies into text suitable for previews.
package format

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

type Converter struct{}

// HTMLToMarkdown renders an HTML body as Markdown after flattening layout tables.
func (Converter) HTMLToMarkdown(src string) (string, error) {
	md, err := htmltomarkdown.ConvertString(UnwrapLayoutTables(src))
	if err != nil {
		return "", fmt.Errorf("htmltomarkdown.ConvertString failed: %w", err)
	}
	return strings.TrimSpace(md), nil
}
