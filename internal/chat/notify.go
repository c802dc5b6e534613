package chat

import (
	"strings"

	"github.com/gen2brain/beeep"

	"github.com/adamavenir/confab/internal/core"
	"github.com/adamavenir/confab/internal/types"
)

const notifyPreviewLen = 120

// NotificationText returns the title and body of a desktop notification for
// an assistant reply.
func NotificationText(conversationTitle string, msg types.Message) (string, string) {
	title := "confab"
	if strings.TrimSpace(conversationTitle) != "" {
		title = "confab · " + conversationTitle
	}
	body := core.ReplaceWireTokens(msg.Content, core.FormatShort)
	body = strings.Join(strings.Fields(body), " ")
	if runes := []rune(body); len(runes) > notifyPreviewLen {
		body = string(runes[:notifyPreviewLen-1]) + "…"
	}
	return title, body
}

// SendNotification shows a desktop notification.
func SendNotification(title, body string) error {
	return beeep.Notify(title, body, "")
}
