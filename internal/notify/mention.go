package notify

import "strings"

// NormalizeMention renders a recipient token as a chat mention:
// "<@...>" passes through, "@name" becomes a role mention and a bare
// identifier becomes a user mention.
func NormalizeMention(token string) string {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return ""
	case strings.HasPrefix(token, "<@") && strings.HasSuffix(token, ">"):
		return token
	case strings.HasPrefix(token, "@"):
		return "<@&" + strings.TrimPrefix(token, "@") + ">"
	default:
		return "<@" + token + ">"
	}
}

// MentionPrefix joins normalized tokens with spaces, keeping whole tokens
// while the result stays within limit. Tokens that do not fit are returned
// as dropped.
func MentionPrefix(tokens []string, limit int) (prefix string, dropped []string) {
	var b strings.Builder
	length := 0
	seen := make(map[string]struct{}, len(tokens))

	for _, token := range tokens {
		mention := NormalizeMention(token)
		if mention == "" {
			continue
		}
		if _, ok := seen[mention]; ok {
			continue
		}
		seen[mention] = struct{}{}

		need := Length(mention)
		if length > 0 {
			need++
		}
		if limit > 0 && length+need > limit {
			dropped = append(dropped, token)
			continue
		}

		if length > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(mention)
		length += need
	}

	return b.String(), dropped
}
