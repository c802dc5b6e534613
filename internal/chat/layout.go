package chat

const inputMaxHeight = 8
const inputPadding = 1
const sidebarFullWidth = 28

func (m *Model) sidebarWidth() int {
	if !m.sidebarOpen || m.width < 60 {
		return 0
	}
	return sidebarFullWidth
}

func (m *Model) mainWidth() int {
	if m.width == 0 {
		return 0
	}
	width := m.width - m.sidebarWidth()
	if width < 10 {
		width = 10
	}
	return width
}

// resize lays out the viewport around the input, popover and status line.
func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	inputLines, _ := renderSurface(m.surface, -1, m.loop.Now(), m.mainWidth()-2*inputPadding)
	inputHeight := len(inputLines)
	if inputHeight > inputMaxHeight {
		inputHeight = inputMaxHeight
	}
	// input padding rows, margin and status line
	chrome := inputHeight + 2 + 1 + 1
	if popover := m.renderSuggestions(); popover != "" {
		chrome += lineCount(popover)
	}
	height := m.height - chrome
	if height < 1 {
		height = 1
	}
	width := m.mainWidth()
	if width != m.renderedWidth {
		m.rendered = make(map[string]string)
		m.renderedWidth = width
	}
	m.viewport.Width = width
	m.viewport.Height = height
	m.refreshViewport()
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	count := 1
	for _, r := range s {
		if r == '\n' {
			count++
		}
	}
	return count
}
