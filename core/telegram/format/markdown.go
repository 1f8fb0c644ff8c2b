package format

import (
	"fmt"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram legacy Markdown.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram MarkdownV2.
	MarkdownV2 = 2
)

var (
	mdV1Escaper = escaperFor("_*`[")
	mdV2Escaper = escaperFor("_*[]()~`>#+-=|{}.!\\")
)

func escaperFor(specials string) *strings.Replacer {
	pairs := make([]string, 0, len(specials)*2)
	for _, r := range specials {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}

// EscapeMarkdown escapes user-supplied text for the given Markdown version.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Escaper.Replace(text), nil
	case MarkdownV2:
		return mdV2Escaper.Replace(text), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// MD escapes text for legacy Markdown, the mode used by the bot's replies.
func MD(text string) string {
	s, _ := EscapeMarkdown(text, MarkdownV1)
	return s
}
