package command

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adamavenir/confab/internal/core"
	"github.com/adamavenir/confab/internal/types"
	"github.com/dustin/go-humanize"
)

var (
	noColor = os.Getenv("NO_COLOR") != ""

	dim   = ansiCode("\x1b[2m")
	bold  = ansiCode("\x1b[1m")
	cyan  = ansiCode("\x1b[36m")
	green = ansiCode("\x1b[32m")
	red   = ansiCode("\x1b[31m")
	reset = ansiCode("\x1b[0m")
)

func ansiCode(code string) string {
	if noColor {
		return ""
	}
	return code
}

// conversationTitle returns a display title for a conversation.
func conversationTitle(conv types.Conversation) string {
	if title := strings.TrimSpace(conv.Title); title != "" {
		return title
	}
	return "Untitled"
}

// FormatConversation formats one conversation row.
func FormatConversation(conv types.Conversation, now time.Time) string {
	updated := "never"
	if !conv.UpdatedAt.IsZero() {
		updated = humanize.RelTime(conv.UpdatedAt, now, "ago", "from now")
	}
	count := "1 message"
	if conv.MessageCount != 1 {
		count = fmt.Sprintf("%s messages", humanize.Comma(int64(conv.MessageCount)))
	}
	return fmt.Sprintf("%s%s%s  %s  %s(%s, updated %s)%s",
		dim, conv.ID, reset, bold+conversationTitle(conv)+reset, dim, count, updated, reset)
}

// FormatMessage formats a message for display, showing mentions as @Name.
func FormatMessage(msg types.Message) string {
	var author string
	switch msg.Type {
	case types.MessageTypeAssistant:
		author = green + "assistant" + reset
	case types.MessageTypeSystem:
		author = dim + "system" + reset
	default:
		author = cyan + "you" + reset
	}
	stamp := ""
	if !msg.CreatedAt.IsZero() {
		stamp = dim + "[" + msg.CreatedAt.Local().Format("2006-01-02 15:04") + "]" + reset + " "
	}
	body := core.ReplaceWireTokens(msg.Content, func(m types.Mention) string {
		return bold + core.FormatShort(m) + reset
	})
	suffix := ""
	if msg.Error {
		suffix = " " + red + "(failed)" + reset
	}
	return fmt.Sprintf("%s%s: %s%s", stamp, author, body, suffix)
}
