package editor

import "unicode"

// Trigger is an @-prefixed span left of the caret that should drive mention
// suggestions.
type Trigger struct {
	Range Range
	Query string
}

// FindTrigger looks left of the caret, within the caret's text run, for the
// nearest '@' that sits at the start of the run or after a non-word rune.
// It reports false when the caret is outside s, inside a chip, or when the
// nearest '@' is glued to a preceding word (foo@bar).
func FindTrigger(s *Surface, sel Selection) (Trigger, bool) {
	if s == nil {
		return Trigger{}, false
	}
	textID, offset, ok := s.caretText(sel.Focus())
	if !ok {
		return Trigger{}, false
	}
	runes := []rune(s.nodes[textID].text)
	if offset > len(runes) {
		offset = len(runes)
	}
	for i := offset - 1; i >= 0; i-- {
		switch runes[i] {
		case '\n':
			return Trigger{}, false
		case '@':
			if i > 0 && isWordRune(runes[i-1]) {
				return Trigger{}, false
			}
			return Trigger{
				Range: Range{
					Start: Position{Node: textID, Offset: i},
					End:   Position{Node: textID, Offset: offset},
				},
				Query: string(runes[i+1 : offset]),
			}, true
		}
	}
	return Trigger{}, false
}

// caretText resolves pos to a text node and rune offset without changing the
// surface. A caret in a block resolves to the end of the text run before it.
func (s *Surface) caretText(pos Position) (NodeID, int, bool) {
	n, ok := s.nodes[pos.Node]
	if !ok {
		return 0, 0, false
	}
	switch n.kind {
	case KindText:
		if parent := s.nodes[n.parent]; parent == nil || parent.kind != KindBlock {
			return 0, 0, false
		}
		return n.id, pos.Offset, true
	case KindBlock:
		idx := pos.Offset
		if idx <= 0 || idx > len(n.children) {
			return 0, 0, false
		}
		prev := s.nodes[n.children[idx-1]]
		if prev.kind != KindText {
			return 0, 0, false
		}
		return prev.id, len([]rune(prev.text)), true
	}
	return 0, 0, false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
