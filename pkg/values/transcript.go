package values

import (
	"fmt"
	"strings"
	"time"
)

// FormatTranscript renders a context window as an IRC-style transcript:
// timestamped "<name> content" lines, with system events marked "***"
// (spec §4.3 "RespondToMessage"). topic, when non-empty, is prefixed as a
// single header line.
func FormatTranscript(topic string, messages []ChatMessage) string {
	var b strings.Builder
	if topic != "" {
		fmt.Fprintf(&b, "*** topic: %s\n", topic)
	}
	for _, m := range messages {
		ts := time.UnixMilli(m.TimestampMS).UTC().Format("15:04:05")
		switch m.Type {
		case MessageJoin, MessageLeave, MessageSystem:
			fmt.Fprintf(&b, "%s *** %s\n", ts, m.Content)
		default:
			fmt.Fprintf(&b, "%s <%s> %s\n", ts, m.SenderName, m.Content)
		}
	}
	return b.String()
}
