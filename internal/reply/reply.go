// Package reply post-processes raw model output into prose plus an
// optional extracted code snippet.
package reply

import (
	"regexp"
	"strings"

	"github.com/astra-labs/astra/internal/chat"
)

// Reply is the structured form of one model response.
type Reply struct {
	Content string
	Code    *chat.CodeBlock
}

var fenceRe = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)```")

// Parse normalises raw model text. Double-asterisk emphasis markers are
// stripped throughout. The first fenced code block becomes the Code
// snippet (language defaults to "text"); every fence occurrence is
// removed from the prose, which is then trimmed. With no fence the
// emphasis-stripped text is returned as-is.
func Parse(raw string) Reply {
	text := strings.ReplaceAll(raw, "**", "")

	match := fenceRe.FindStringSubmatch(text)
	if match == nil {
		return Reply{Content: text}
	}

	language := match[1]
	if language == "" {
		language = "text"
	}
	return Reply{
		Content: strings.TrimSpace(fenceRe.ReplaceAllString(text, "")),
		Code: &chat.CodeBlock{
			Code:     strings.TrimSpace(match[2]),
			Language: language,
		},
	}
}
