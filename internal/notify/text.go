package notify

import "strings"

// PlainText renders fragments as plain-text messages of at most limit
// characters each. Titles become bold lines and mention prefixes are omitted.
func PlainText(fragments []Fragment, limit int) []string {
	if limit <= 0 {
		limit = MaxPlainTextLength
	}

	var messages []string
	for _, f := range fragments {
		var b strings.Builder
		if f.Title != "" {
			b.WriteString("*" + f.Title + "*\n")
		}
		b.WriteString(strings.ReplaceAll(f.Body, "**", "*"))
		messages = append(messages, Split(b.String(), limit)...)
	}
	return messages
}
