package notify

import (
	"strings"
	"unicode/utf8"
)

// Split packs whole lines of text into chunks of at most limit characters.
// A single line longer than limit is cut at the limit with no regard for
// word boundaries. Empty text yields no chunks.
func Split(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	open := false

	flush := func() {
		if open {
			chunks = append(chunks, current.String())
		}
		current.Reset()
		currentLen = 0
		open = false
	}

	for _, line := range strings.Split(text, "\n") {
		lineLen := utf8.RuneCountInString(line)

		if lineLen > limit {
			flush()
			parts := hardSplit(line, limit)
			chunks = append(chunks, parts[:len(parts)-1]...)
			last := parts[len(parts)-1]
			current.WriteString(last)
			currentLen = utf8.RuneCountInString(last)
			open = true
			continue
		}

		if !open {
			current.WriteString(line)
			currentLen = lineLen
			open = true
			continue
		}

		if currentLen+1+lineLen <= limit {
			current.WriteByte('\n')
			current.WriteString(line)
			currentLen += 1 + lineLen
			continue
		}

		flush()
		current.WriteString(line)
		currentLen = lineLen
		open = true
	}
	flush()

	return chunks
}

// hardSplit cuts s into pieces of at most limit runes
func hardSplit(s string, limit int) []string {
	runes := []rune(s)
	parts := make([]string, 0, len(runes)/limit+1)
	for len(runes) > limit {
		parts = append(parts, string(runes[:limit]))
		runes = runes[limit:]
	}
	return append(parts, string(runes))
}

// Length returns the length of s in characters
func Length(s string) int {
	return utf8.RuneCountInString(s)
}
