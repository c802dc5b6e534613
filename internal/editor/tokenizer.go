package editor

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/adamavenir/confab/internal/core"
	"github.com/adamavenir/confab/internal/types"
)

// Serialized is the wire form of a surface.
type Serialized struct {
	Content  string
	Mentions []types.MentionOccurrence
}

// CreateChip builds a detached chip for m. The chip shows the wire token in
// DisplayFull mode and @name in DisplayShort mode.
func (s *Surface) CreateChip(m types.Mention, mode DisplayMode) NodeID {
	id := s.alloc(KindChip)
	chip := s.nodes[id]
	chip.mention = m
	chip.display = mode
	s.appendChild(id, s.newText(chipLabel(m, mode)))
	return id
}

// ChipLabel returns the text a chip displays for m.
func ChipLabel(m types.Mention, mode DisplayMode) string {
	return chipLabel(m, mode)
}

func chipLabel(m types.Mention, mode DisplayMode) string {
	if mode == DisplayShort {
		return core.FormatShort(m)
	}
	return core.FormatToken(m)
}

// InsertAtRange replaces r with a new chip for m followed by a single space and
// returns the caret after that space. The chip is highlighted for
// HighlightDuration.
func (s *Surface) InsertAtRange(r Range, m types.Mention, mode DisplayMode) (Selection, NodeID, error) {
	a, err := s.offsetOf(r.Start)
	if err != nil {
		return Selection{}, 0, err
	}
	b, err := s.offsetOf(r.End)
	if err != nil {
		return Selection{}, 0, err
	}
	if a > b {
		a, b = b, a
	}
	s.deleteOffsets(a, b)
	chip, off := s.insertChipAt(a, s.CreateChip(m, mode))
	off = s.insertTextAt(off, " ")
	s.highlights[chip] = s.now().Add(HighlightDuration)
	return Caret(s.positionAt(off)), chip, nil
}

// Serialize walks the surface and produces wire content plus the offset of
// every chip's token in it. Offsets are rune offsets into the trimmed content.
func (s *Surface) Serialize() Serialized {
	var (
		b        strings.Builder
		size     int
		mentions []types.MentionOccurrence
	)
	write := func(text string) {
		b.WriteString(text)
		size += utf8.RuneCountInString(text)
	}
	newline := func() {
		out := b.String()
		if strings.HasSuffix(out, "\n\n") {
			return
		}
		write("\n")
	}

	for i, block := range s.nodes[s.root].children {
		if i > 0 && !strings.HasSuffix(b.String(), "\n") {
			newline()
		}
		children := s.nodes[block].children
		if len(children) == 0 && i > 0 {
			newline()
			continue
		}
		for _, id := range children {
			n := s.nodes[id]
			switch n.kind {
			case KindText:
				write(n.text)
			case KindChip:
				token := core.FormatToken(n.mention)
				start := size
				write(token)
				mentions = append(mentions, types.MentionOccurrence{
					EntityType:  n.mention.Type,
					EntityID:    n.mention.ID,
					OffsetStart: start,
					OffsetEnd:   size,
					Length:      size - start,
				})
			}
		}
	}

	raw := b.String()
	left := strings.TrimLeftFunc(raw, unicode.IsSpace)
	shift := utf8.RuneCountInString(raw) - utf8.RuneCountInString(left)
	content := strings.TrimRightFunc(left, unicode.IsSpace)
	for i := range mentions {
		mentions[i].OffsetStart -= shift
		mentions[i].OffsetEnd -= shift
	}
	return Serialized{Content: content, Mentions: mentions}
}

// FromSerialized rebuilds a surface from wire content and its occurrences.
// An occurrence whose span is not a well-formed token is kept as literal text.
func FromSerialized(content string, mentions []types.MentionOccurrence, mode DisplayMode) *Surface {
	s := New()
	runes := []rune(normalizeNewlines(content))
	ordered := append([]types.MentionOccurrence(nil), mentions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OffsetStart < ordered[j].OffsetStart
	})

	off, cursor := 0, 0
	for _, occ := range ordered {
		if occ.OffsetStart < cursor || occ.OffsetEnd > len(runes) || occ.OffsetStart >= occ.OffsetEnd {
			continue
		}
		span := string(runes[occ.OffsetStart:occ.OffsetEnd])
		tokens := core.ParseWireTokens(span)
		if len(tokens) != 1 || tokens[0].Start != 0 || tokens[0].End != occ.OffsetEnd-occ.OffsetStart {
			continue
		}
		m := tokens[0].Mention
		if occ.EntityID != "" {
			m.ID = occ.EntityID
		}
		off = s.insertLines(off, string(runes[cursor:occ.OffsetStart]))
		_, off = s.insertChipAt(off, s.CreateChip(m, mode))
		cursor = occ.OffsetEnd
	}
	s.insertLines(off, string(runes[cursor:]))
	return s
}

// FromText rebuilds a surface from plain text, turning well-formed wire tokens
// into chips.
func FromText(text string, mode DisplayMode) *Surface {
	s := New()
	_, _ = s.Paste(Caret(s.Start()), text, mode)
	return s
}

// Display returns the surface as it reads on screen: blocks joined by newlines
// and chips replaced by their labels.
func (s *Surface) Display() string {
	var b strings.Builder
	for i, block := range s.nodes[s.root].children {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, id := range s.nodes[block].children {
			n := s.nodes[id]
			switch n.kind {
			case KindText:
				b.WriteString(n.text)
			case KindChip:
				b.WriteString(chipLabel(n.mention, n.display))
			}
		}
	}
	return b.String()
}
