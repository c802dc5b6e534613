package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const popoverMaxWidth = 48

func suggestionZone(i int) string {
	return fmt.Sprintf("suggest-%d", i)
}

// renderSuggestions draws the mention popover above the input, indented to
// the caret column.
func (m *Model) renderSuggestions() string {
	st := m.popover
	if !st.Open && !st.Loading {
		return ""
	}
	inner := popoverMaxWidth - 4
	var rows []string
	switch {
	case st.Loading && len(st.Items) == 0:
		rows = append(rows, m.spinner.View()+dimStyle.Render(" searching "+st.Query))
	case len(st.Items) == 0:
		rows = append(rows, dimStyle.Render("no matches for "+st.Query))
	}
	for i, item := range st.Items {
		label := "@" + item.Title
		if item.Type != "" {
			label += dimStyle.Render(" " + string(item.Type))
		}
		if item.Subtitle != "" {
			label += dimStyle.Render(" · " + item.Subtitle)
		}
		label = ansi.Truncate(label, inner, "…")
		if i == st.FocusedIndex {
			label = popoverFocusStyle.Width(inner).Render(label)
		}
		rows = append(rows, m.zoneManager.Mark(suggestionZone(i), label))
	}
	box := popoverStyle.Render(strings.Join(rows, "\n"))

	indent := 0
	if st.Position != nil {
		indent = st.Position.X
	}
	if limit := m.mainWidth() - ansi.StringWidth(strings.SplitN(box, "\n", 2)[0]); indent > limit {
		indent = limit
	}
	if indent <= 0 {
		return box
	}
	pad := strings.Repeat(" ", indent)
	lines := strings.Split(box, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}
