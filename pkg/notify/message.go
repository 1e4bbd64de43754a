package notify

import (
	"fmt"
	"unicode/utf8"

	goslack "github.com/slack-go/slack"

	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

const maxBlockTextLength = 2900

var severityEmoji = map[string]string{
	"error": ":x:",
	"warn":  ":warning:",
	"info":  ":information_source:",
}

// BuildErrorMessage creates Block Kit blocks for one system_notification
// event of severity "error". roomID is empty for notifications that aren't
// scoped to a room.
func BuildErrorMessage(roomID values.RoomID, message string) []goslack.Block {
	emoji := severityEmoji["error"]
	header := fmt.Sprintf("%s *System error*", emoji)
	if roomID != "" {
		header += fmt.Sprintf(" in room `%s`", roomID)
	}

	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, header, false, false),
			nil, nil,
		),
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForWebhook(message), false, false),
			nil, nil,
		),
	}
}

func truncateForWebhook(text string) string {
	if utf8.RuneCountInString(text) <= maxBlockTextLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxBlockTextLength]) + "\n\n_... (truncated)_"
}
