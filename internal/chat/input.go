package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/adamavenir/confab/internal/editor"
	"github.com/adamavenir/confab/internal/suggest"
)

// caretCell is the caret's row and column within the rendered input.
type caretCell struct {
	row int
	col int
}

// surfaceWriter accumulates styled input lines and wraps them at width cells.
type surfaceWriter struct {
	width int
	lines []string
	line  strings.Builder
	col   int
}

func (w *surfaceWriter) write(styled string, cells int) {
	if w.width > 0 && w.col > 0 && w.col+cells > w.width {
		w.newline()
	}
	w.line.WriteString(styled)
	w.col += cells
}

func (w *surfaceWriter) newline() {
	w.lines = append(w.lines, w.line.String())
	w.line.Reset()
	w.col = 0
}

// renderSurface draws the surface with chips styled and the caret at the
// linear offset caret (negative hides it). Lines wrap at width cells.
func renderSurface(s *editor.Surface, caret int, now time.Time, width int) ([]string, caretCell) {
	w := &surfaceWriter{width: width}
	var cell caretCell
	mark := func(cells int) {
		if w.width > 0 && w.col > 0 && w.col+cells > w.width {
			w.newline()
		}
		cell = caretCell{row: len(w.lines), col: w.col}
	}

	offset := 0
	for i, block := range s.Blocks() {
		if i > 0 {
			offset++
			w.newline()
		}
		for _, n := range s.Inline(block) {
			switch n.Kind {
			case editor.KindText:
				for _, r := range n.Text {
					cells := runewidth.RuneWidth(r)
					if offset == caret {
						mark(cells)
						w.write(caretStyle.Render(string(r)), cells)
					} else {
						w.write(string(r), cells)
					}
					offset++
				}
			case editor.KindChip:
				label := editor.ChipLabel(n.Mention, n.Display)
				cells := runewidth.StringWidth(label)
				if offset == caret {
					mark(1)
					w.write(caretStyle.Render("▏"), 1)
				}
				style := chipStyle
				if s.Highlighted(n.ID, now) {
					style = chipFreshStyle
				}
				w.write(style.Render(label), cells)
				offset++
			}
		}
		if offset == caret {
			mark(1)
			w.write(caretStyle.Render(" "), 1)
		}
	}
	w.newline()
	return w.lines, cell
}

func (m *Model) caretOffset() int {
	off, err := m.surface.Offset(m.sel.Focus())
	if err != nil {
		return -1
	}
	return off
}

// anchor places the popover at the caret's column.
func (m *Model) anchor(sel editor.Selection) *suggest.Point {
	off, err := m.surface.Offset(sel.Focus())
	if err != nil {
		return nil
	}
	_, cell := renderSurface(m.surface, off, m.loop.Now(), m.mainWidth()-2*inputPadding)
	return &suggest.Point{X: cell.col + inputPadding, Y: cell.row}
}

func (m *Model) renderInput() string {
	width := m.mainWidth()
	lines, cell := renderSurface(m.surface, m.caretOffset(), m.loop.Now(), width-2*inputPadding)
	if m.surface.IsEmpty() {
		lines = []string{caretStyle.Render(" ") + dimStyle.Render("message · @ to mention")}
	}
	// keep the caret row visible
	if len(lines) > inputMaxHeight {
		start := cell.row - inputMaxHeight + 1
		if start < 0 {
			start = 0
		}
		lines = lines[start : start+inputMaxHeight]
	}
	style := lipgloss.NewStyle().Background(inputBg).Padding(0, inputPadding)
	if width > 0 {
		style = style.Width(width)
	}
	blank := style.Render("")
	parts := []string{blank}
	for _, line := range lines {
		parts = append(parts, style.Render(line))
	}
	parts = append(parts, blank)
	return strings.Join(parts, "\n")
}
