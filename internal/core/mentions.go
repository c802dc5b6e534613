package core

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/adamavenir/confab/internal/types"
)

var wireTokenRe = regexp.MustCompile(`@\{(meeting|project|file)\}\{([^{}\n]+)\}`)

// WireToken is a mention token found in plain text.
// Start and End are rune offsets; End is exclusive.
type WireToken struct {
	Mention types.Mention
	Start   int
	End     int
}

// Length returns the token length in runes.
func (t WireToken) Length() int {
	return t.End - t.Start
}

// Occurrence converts the token into the occurrence shape sent to the server.
func (t WireToken) Occurrence() types.MentionOccurrence {
	return types.MentionOccurrence{
		EntityType:  t.Mention.Type,
		EntityID:    t.Mention.ID,
		OffsetStart: t.Start,
		OffsetEnd:   t.End,
		Length:      t.Length(),
	}
}

// FormatToken renders the canonical wire token for a mention.
func FormatToken(m types.Mention) string {
	return "@{" + string(m.Type) + "}{" + SanitizeMentionName(m.Name) + "}"
}

// FormatShort renders the compact display form of a mention.
func FormatShort(m types.Mention) string {
	return "@" + SanitizeMentionName(m.Name)
}

// SanitizeMentionName strips characters that would break the wire token.
func SanitizeMentionName(name string) string {
	if !strings.ContainsAny(name, "{}\r\n") {
		return name
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '{', '}':
			return -1
		case '\r', '\n':
			return ' '
		}
		return r
	}, name)
}

// ParseWireTokens finds well-formed @{type}{name} tokens in text.
// Malformed tokens are left alone; the wire format carries no separate id, so
// the mention id is the name.
func ParseWireTokens(text string) []WireToken {
	matches := wireTokenRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]WireToken, 0, len(matches))
	runeCursor := 0
	byteCursor := 0
	for _, match := range matches {
		runeCursor += utf8.RuneCountInString(text[byteCursor:match[0]])
		start := runeCursor
		token := text[match[0]:match[1]]
		runeCursor += utf8.RuneCountInString(token)
		byteCursor = match[1]

		name := text[match[4]:match[5]]
		tokens = append(tokens, WireToken{
			Mention: types.Mention{
				ID:   name,
				Name: name,
				Type: types.MentionType(text[match[2]:match[3]]),
			},
			Start: start,
			End:   runeCursor,
		})
	}
	return tokens
}

// ReplaceWireTokens rewrites every well-formed token in content with
// format(mention), leaving the rest of the text untouched.
func ReplaceWireTokens(content string, format func(types.Mention) string) string {
	tokens := ParseWireTokens(content)
	if len(tokens) == 0 {
		return content
	}
	runes := []rune(content)
	var b strings.Builder
	cursor := 0
	for _, tok := range tokens {
		b.WriteString(string(runes[cursor:tok.Start]))
		b.WriteString(format(tok.Mention))
		cursor = tok.End
	}
	b.WriteString(string(runes[cursor:]))
	return b.String()
}
