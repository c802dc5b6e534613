package chat

import (
	"github.com/atotto/clipboard"

	"github.com/adamavenir/confab/internal/core"
)

func (m *Model) copyLastReply() {
	reply, ok := m.lastReply()
	if !ok {
		m.status = "nothing to copy"
		return
	}
	if err := clipboard.WriteAll(core.ReplaceWireTokens(reply.Content, core.FormatShort)); err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = "copied reply to clipboard"
}
