package logctx

import (
	"strings"
	"time"
)

// RFC 3339 with the fraction never trimmed, so stamps stay one width
const timestampLayout string = "2006-01-02T15:04:05.000000000Z07:00"

// Renders "[time] [tag/tag] [severity] message", skipping absent parts.
// Newlines belong to the message author.
func (event Event) Format() (text string) {
	var line strings.Builder
	appendPart := func(part string) {
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(part)
	}

	if !event.Timestamp.IsZero() {
		appendPart("[" + fixedWidthTimestamp(event.Timestamp) + "]")
	}
	if len(event.Tags) > 0 {
		appendPart("[" + strings.Join(event.Tags, "/") + "]")
	}
	if event.Severity != "" {
		appendPart("[" + event.Severity + "]")
	}
	if event.Message != "" {
		appendPart(event.Message)
	}

	text = line.String()
	return
}

func fixedWidthTimestamp(timestamp time.Time) (formatted string) {
	formatted = timestamp.Format(timestampLayout)
	return
}
