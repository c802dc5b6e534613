package editor

import (
	"strings"
	"unicode/utf8"

	"github.com/adamavenir/confab/internal/core"
)

// InsertText replaces the selection with text and returns the caret after it.
// Newlines split the current block.
func (s *Surface) InsertText(sel Selection, text string) (Selection, error) {
	off, err := s.collapse(sel)
	if err != nil {
		return sel, err
	}
	off = s.insertLines(off, text)
	return Caret(s.positionAt(off)), nil
}

// Paste inserts text like InsertText but turns well-formed wire tokens into
// chips.
func (s *Surface) Paste(sel Selection, text string, mode DisplayMode) (Selection, error) {
	off, err := s.collapse(sel)
	if err != nil {
		return sel, err
	}
	runes := []rune(normalizeNewlines(text))
	cursor := 0
	for _, tok := range core.ParseWireTokens(string(runes)) {
		off = s.insertLines(off, string(runes[cursor:tok.Start]))
		_, off = s.insertChipAt(off, s.CreateChip(tok.Mention, mode))
		cursor = tok.End
	}
	off = s.insertLines(off, string(runes[cursor:]))
	return Caret(s.positionAt(off)), nil
}

// DeleteRange removes everything between r.Start and r.End. Chips are removed
// whole whenever the range touches them.
func (s *Surface) DeleteRange(r Range) (Selection, error) {
	a, err := s.offsetOf(r.Start)
	if err != nil {
		return Selection{}, err
	}
	b, err := s.offsetOf(r.End)
	if err != nil {
		return Selection{}, err
	}
	if a > b {
		a, b = b, a
	}
	s.deleteOffsets(a, b)
	return Caret(s.positionAt(a)), nil
}

// Backspace deletes the selection, or the unit before a collapsed caret: one
// rune, one whole chip, or the boundary with the previous block.
func (s *Surface) Backspace(sel Selection) (Selection, error) {
	if !sel.Collapsed() {
		off, err := s.collapse(sel)
		if err != nil {
			return sel, err
		}
		return Caret(s.positionAt(off)), nil
	}
	off, err := s.offsetOf(sel.Focus())
	if err != nil {
		return sel, err
	}
	if off == 0 {
		return Caret(s.positionAt(0)), nil
	}
	s.deleteOffsets(off-1, off)
	return Caret(s.positionAt(off - 1)), nil
}

// Delete removes the selection, or the unit after a collapsed caret.
func (s *Surface) Delete(sel Selection) (Selection, error) {
	if !sel.Collapsed() {
		off, err := s.collapse(sel)
		if err != nil {
			return sel, err
		}
		return Caret(s.positionAt(off)), nil
	}
	off, err := s.offsetOf(sel.Focus())
	if err != nil {
		return sel, err
	}
	if off < s.length() {
		s.deleteOffsets(off, off+1)
	}
	return Caret(s.positionAt(off)), nil
}

// MoveLeft moves the caret one unit left; chips are stepped over whole.
func (s *Surface) MoveLeft(sel Selection) (Selection, error) {
	return s.move(sel, -1)
}

// MoveRight moves the caret one unit right.
func (s *Surface) MoveRight(sel Selection) (Selection, error) {
	return s.move(sel, 1)
}

// Clear empties the surface and returns the caret at its start.
func (s *Surface) Clear() Selection {
	for _, block := range s.Blocks() {
		s.removeNode(block)
	}
	s.appendChild(s.root, s.alloc(KindBlock))
	return Caret(s.positionAt(0))
}

func (s *Surface) move(sel Selection, delta int) (Selection, error) {
	a, err := s.offsetOf(sel.Anchor())
	if err != nil {
		return sel, err
	}
	b, err := s.offsetOf(sel.Focus())
	if err != nil {
		return sel, err
	}
	if a != b {
		if (delta < 0) == (a < b) {
			return Caret(s.positionAt(a)), nil
		}
		return Caret(s.positionAt(b)), nil
	}
	return Caret(s.positionAt(b + delta)), nil
}

// collapse deletes a non-empty selection and returns the resulting caret
// offset.
func (s *Surface) collapse(sel Selection) (int, error) {
	a, err := s.offsetOf(sel.Anchor())
	if err != nil {
		return 0, err
	}
	b, err := s.offsetOf(sel.Focus())
	if err != nil {
		return 0, err
	}
	if a == b {
		return a, nil
	}
	if a > b {
		a, b = b, a
	}
	s.deleteOffsets(a, b)
	return a, nil
}

func (s *Surface) insertLines(off int, text string) int {
	for i, line := range strings.Split(normalizeNewlines(text), "\n") {
		if i > 0 {
			off = s.splitBlockAt(off)
		}
		off = s.insertTextAt(off, line)
	}
	return off
}

func (s *Surface) insertTextAt(off int, text string) int {
	if text == "" {
		return off
	}
	pos := s.positionAt(off)
	n := s.nodes[pos.Node]
	switch n.kind {
	case KindText:
		runes := []rune(n.text)
		at := clamp(pos.Offset, 0, len(runes))
		n.text = string(runes[:at]) + text + string(runes[at:])
	case KindBlock:
		idx := pos.Offset
		switch {
		case idx > 0 && s.nodes[n.children[idx-1]].kind == KindText:
			prev := s.nodes[n.children[idx-1]]
			prev.text += text
		case idx < len(n.children) && s.nodes[n.children[idx]].kind == KindText:
			next := s.nodes[n.children[idx]]
			next.text = text + next.text
		default:
			s.insertChild(n.id, idx, s.newText(text))
		}
	}
	return off + utf8.RuneCountInString(text)
}

func (s *Surface) insertChipAt(off int, chip NodeID) (NodeID, int) {
	block, idx := s.boundaryAt(off)
	s.insertChild(block, idx, chip)
	s.normalize(block)
	return chip, off + 1
}

func (s *Surface) splitBlockAt(off int) int {
	block, idx := s.boundaryAt(off)
	b := s.nodes[block]
	moved := append([]NodeID(nil), b.children[idx:]...)
	b.children = b.children[:idx]

	next := s.alloc(KindBlock)
	for _, id := range moved {
		s.appendChild(next, id)
	}
	s.insertChild(s.root, s.indexOf(s.root, block)+1, next)
	s.normalize(block)
	s.normalize(next)
	return off + 1
}

// boundaryAt returns the block and child index at which content inserted at
// off belongs, splitting a text node when off falls inside it.
func (s *Surface) boundaryAt(off int) (NodeID, int) {
	pos := s.positionAt(off)
	n := s.nodes[pos.Node]
	if n.kind != KindText {
		return pos.Node, pos.Offset
	}
	block := n.parent
	idx := s.indexOf(block, n.id)
	runes := []rune(n.text)
	switch {
	case pos.Offset <= 0:
		return block, idx
	case pos.Offset >= len(runes):
		return block, idx + 1
	}
	n.text = string(runes[:pos.Offset])
	s.insertChild(block, idx+1, s.newText(string(runes[pos.Offset:])))
	return block, idx + 1
}

// deleteOffsets removes the linear span [a, b).
func (s *Surface) deleteOffsets(a, b int) {
	a = clamp(a, 0, s.length())
	b = clamp(b, 0, s.length())
	if a >= b {
		return
	}

	endBlock, endIdx := s.boundaryAt(b)
	var marker NodeID
	if children := s.nodes[endBlock].children; endIdx < len(children) {
		marker = children[endIdx]
	}
	startBlock, startIdx := s.boundaryAt(a)
	endIdx = len(s.nodes[endBlock].children)
	if marker != 0 {
		endIdx = s.indexOf(endBlock, marker)
	}

	if startBlock == endBlock {
		s.dropChildren(startBlock, startIdx, endIdx)
		s.normalize(startBlock)
		return
	}

	s.dropChildren(startBlock, startIdx, len(s.nodes[startBlock].children))
	blocks := s.nodes[s.root].children
	from := s.indexOf(s.root, startBlock)
	to := s.indexOf(s.root, endBlock)
	for _, id := range append([]NodeID(nil), blocks[from+1:to]...) {
		s.removeNode(id)
	}
	s.dropChildren(endBlock, 0, endIdx)
	for _, id := range append([]NodeID(nil), s.nodes[endBlock].children...) {
		s.appendChild(startBlock, id)
	}
	s.nodes[endBlock].children = nil
	s.removeNode(endBlock)
	s.normalize(startBlock)
}

func (s *Surface) dropChildren(parent NodeID, from, to int) {
	p := s.nodes[parent]
	if from >= to {
		return
	}
	for _, id := range p.children[from:to] {
		s.forget(id)
	}
	p.children = append(p.children[:from], p.children[to:]...)
}

// normalize merges adjacent text nodes and drops empty ones.
func (s *Surface) normalize(block NodeID) {
	b := s.nodes[block]
	out := b.children[:0]
	var prev *node
	for _, id := range b.children {
		n := s.nodes[id]
		if n.kind == KindText {
			if n.text == "" {
				s.forget(id)
				continue
			}
			if prev != nil && prev.kind == KindText {
				prev.text += n.text
				s.forget(id)
				continue
			}
		}
		out = append(out, id)
		prev = n
	}
	b.children = out
}

func normalizeNewlines(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	return strings.ReplaceAll(value, "\r", "\n")
}
