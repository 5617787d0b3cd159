package services

import (
	"regexp"
	"strings"
)

var (
	mdCodeFence   = regexp.MustCompile("(?m)^```[^\n]*$")
	mdInlineCode  = regexp.MustCompile("`([^`]+)`")
	mdImage       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	mdLink        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdBlockquote  = regexp.MustCompile(`(?m)^>\s*`)
	mdRule        = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	mdListMarker  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdNumbered    = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	mdTableBorder = regexp.MustCompile(`(?m)^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?\s*$`)
	mdEmphasis    = regexp.MustCompile(`(\*\*|__|\*|~~)`)
)

// stripMarkdown reduces lightweight markdown to its plain text.
// Code and image alt text are kept since drug names and doses often
// appear inside them.
func stripMarkdown(content string) string {
	content = mdCodeFence.ReplaceAllString(content, "")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdImage.ReplaceAllString(content, "$1")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdTableBorder.ReplaceAllString(content, "")
	content = mdRule.ReplaceAllString(content, "")
	content = mdListMarker.ReplaceAllString(content, "")
	content = mdNumbered.ReplaceAllString(content, "")
	content = mdEmphasis.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "|", " ")

	return strings.TrimSpace(content)
}
