// Package markup rewrites the markdown used in catalog descriptions into Slack mrkdwn.
package markup

import (
	"regexp"
	"strings"
)

// boldMark temporarily stands in for bold delimiters so the italic pass cannot re-match them.
const boldMark = "\u0002"

var (
	linkRe      = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	boldStarRe  = regexp.MustCompile(`\*\*(.*?)\*\*`)
	boldUnderRe = regexp.MustCompile(`__(.*?)__`)
	italicRe    = regexp.MustCompile(`\*([^*]+)\*`)
	strikeRe    = regexp.MustCompile(`~~(.*?)~~`)
	headingRe   = regexp.MustCompile(`(?m)^#+\s*(.*)$`)
)

// Translate converts markdown text to Slack mrkdwn. Empty input is returned as is.
func Translate(text string) string {
	if text == "" {
		return text
	}

	out := linkRe.ReplaceAllString(text, "<$2|$1>")

	out = boldStarRe.ReplaceAllString(out, boldMark+"${1}"+boldMark)
	out = boldUnderRe.ReplaceAllString(out, boldMark+"${1}"+boldMark)

	out = italicRe.ReplaceAllString(out, "_${1}_")

	out = strings.ReplaceAll(out, boldMark, "*")

	out = strikeRe.ReplaceAllString(out, "~${1}~")

	return headingRe.ReplaceAllString(out, "*${1}*")
}
