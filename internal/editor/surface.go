// Package editor holds the message input surface: an explicit tree of blocks,
// text runs and mention chips with stable node ids, plus the operations that
// edit it, serialize it to wire format, and detect mention triggers.
package editor

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/adamavenir/confab/internal/types"
)

// ErrInvalidPosition is returned when a position does not address a node of
// the surface.
var ErrInvalidPosition = errors.New("editor: invalid position")

// NodeID identifies a node for the lifetime of the surface. Zero is never
// assigned.
type NodeID int

// NodeKind is the type of a surface node.
type NodeKind int

const (
	KindRoot NodeKind = iota
	KindBlock
	KindText
	KindChip
)

func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindBlock:
		return "block"
	case KindText:
		return "text"
	case KindChip:
		return "chip"
	}
	return "unknown"
}

// DisplayMode selects how a chip renders its mention.
type DisplayMode int

const (
	// DisplayFull shows the wire token, @{type}{name}.
	DisplayFull DisplayMode = iota
	// DisplayShort shows @name.
	DisplayShort
)

// HighlightDuration is how long a freshly inserted chip stays highlighted.
const HighlightDuration = 600 * time.Millisecond

// Node is a snapshot of one surface node.
type Node struct {
	ID       NodeID
	Kind     NodeKind
	Parent   NodeID
	Children []NodeID
	Text     string
	Mention  types.Mention
	Display  DisplayMode
}

// Position addresses a caret location. In a text node Offset counts runes; in
// a block or root it is a child index, as in a DOM range boundary.
type Position struct {
	Node   NodeID
	Offset int
}

// Selection is the editing selection. Anchor is where it started and Focus is
// where the caret is.
type Selection struct {
	AnchorNode   NodeID
	AnchorOffset int
	FocusNode    NodeID
	FocusOffset  int
}

// Caret returns a collapsed selection at pos.
func Caret(pos Position) Selection {
	return Selection{AnchorNode: pos.Node, AnchorOffset: pos.Offset, FocusNode: pos.Node, FocusOffset: pos.Offset}
}

// Anchor returns the anchor position.
func (s Selection) Anchor() Position { return Position{Node: s.AnchorNode, Offset: s.AnchorOffset} }

// Focus returns the focus (caret) position.
func (s Selection) Focus() Position { return Position{Node: s.FocusNode, Offset: s.FocusOffset} }

// Collapsed reports whether anchor and focus coincide.
func (s Selection) Collapsed() bool {
	return s.AnchorNode == s.FocusNode && s.AnchorOffset == s.FocusOffset
}

// Range is a span between two positions.
type Range struct {
	Start Position
	End   Position
}

// Surface is the editable tree. The root holds blocks (lines); blocks hold text
// and chip nodes; a chip holds a single label text node. Surface is not safe
// for concurrent use.
type Surface struct {
	nodes      map[NodeID]*node
	root       NodeID
	next       NodeID
	highlights map[NodeID]time.Time
	now        func() time.Time
}

type node struct {
	id       NodeID
	kind     NodeKind
	parent   NodeID
	children []NodeID
	text     string
	mention  types.Mention
	display  DisplayMode
}

// New returns a surface holding one empty block.
func New() *Surface {
	s := &Surface{
		nodes:      make(map[NodeID]*node),
		highlights: make(map[NodeID]time.Time),
		now:        time.Now,
	}
	s.root = s.alloc(KindRoot)
	s.appendChild(s.root, s.alloc(KindBlock))
	return s
}

// SetClock replaces the clock used to stamp chip highlights.
func (s *Surface) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Root returns the root node id.
func (s *Surface) Root() NodeID { return s.root }

// Node returns a snapshot of the node with the given id.
func (s *Surface) Node(id NodeID) (Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return Node{
		ID:       n.id,
		Kind:     n.kind,
		Parent:   n.parent,
		Children: append([]NodeID(nil), n.children...),
		Text:     n.text,
		Mention:  n.mention,
		Display:  n.display,
	}, true
}

// Contains reports whether id belongs to this surface.
func (s *Surface) Contains(id NodeID) bool {
	_, ok := s.nodes[id]
	return ok
}

// Blocks returns the block ids in document order.
func (s *Surface) Blocks() []NodeID {
	return append([]NodeID(nil), s.nodes[s.root].children...)
}

// Inline returns snapshots of a block's children.
func (s *Surface) Inline(block NodeID) []Node {
	b, ok := s.nodes[block]
	if !ok {
		return nil
	}
	out := make([]Node, 0, len(b.children))
	for _, id := range b.children {
		n, _ := s.Node(id)
		out = append(out, n)
	}
	return out
}

// ChipMention returns the mention carried by a chip node.
func (s *Surface) ChipMention(id NodeID) (types.Mention, bool) {
	n, ok := s.nodes[id]
	if !ok || n.kind != KindChip {
		return types.Mention{}, false
	}
	return n.mention, true
}

// Chips returns the chip ids in document order.
func (s *Surface) Chips() []NodeID {
	var out []NodeID
	for _, block := range s.nodes[s.root].children {
		for _, id := range s.nodes[block].children {
			if s.nodes[id].kind == KindChip {
				out = append(out, id)
			}
		}
	}
	return out
}

// Highlighted reports whether a chip's insertion highlight is still showing.
func (s *Surface) Highlighted(id NodeID, now time.Time) bool {
	until, ok := s.highlights[id]
	return ok && now.Before(until)
}

// ExpireHighlights forgets highlights that ended before now and reports
// whether any are still showing.
func (s *Surface) ExpireHighlights(now time.Time) bool {
	for id, until := range s.highlights {
		if !now.Before(until) {
			delete(s.highlights, id)
		}
	}
	return len(s.highlights) > 0
}

// IsEmpty reports whether the surface holds no text and no chips.
func (s *Surface) IsEmpty() bool {
	for _, block := range s.nodes[s.root].children {
		if s.blockLen(block) > 0 {
			return false
		}
	}
	return true
}

// Start returns the caret position at the beginning of the surface.
func (s *Surface) Start() Position {
	return s.positionAt(0)
}

// End returns the caret position at the end of the surface.
func (s *Surface) End() Position {
	return s.positionAt(s.length())
}

// Offset returns the linear caret offset of pos: text runes count one, chips
// count one, and each block boundary counts one.
func (s *Surface) Offset(pos Position) (int, error) {
	return s.offsetOf(pos)
}

// PositionAt returns the canonical position for a linear caret offset,
// clamped to the surface.
func (s *Surface) PositionAt(offset int) Position {
	return s.positionAt(offset)
}

func (s *Surface) alloc(kind NodeKind) NodeID {
	s.next++
	id := s.next
	s.nodes[id] = &node{id: id, kind: kind}
	return id
}

func (s *Surface) newText(text string) NodeID {
	id := s.alloc(KindText)
	s.nodes[id].text = text
	return id
}

func (s *Surface) appendChild(parent, child NodeID) {
	p := s.nodes[parent]
	p.children = append(p.children, child)
	s.nodes[child].parent = parent
}

func (s *Surface) insertChild(parent NodeID, index int, child NodeID) {
	p := s.nodes[parent]
	if index < 0 {
		index = 0
	}
	if index > len(p.children) {
		index = len(p.children)
	}
	p.children = append(p.children, 0)
	copy(p.children[index+1:], p.children[index:])
	p.children[index] = child
	s.nodes[child].parent = parent
}

func (s *Surface) indexOf(parent, child NodeID) int {
	for i, id := range s.nodes[parent].children {
		if id == child {
			return i
		}
	}
	return -1
}

// removeNode detaches id from its parent and forgets it and its subtree.
func (s *Surface) removeNode(id NodeID) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	if parent, ok := s.nodes[n.parent]; ok {
		if idx := s.indexOf(n.parent, id); idx >= 0 {
			parent.children = append(parent.children[:idx], parent.children[idx+1:]...)
		}
	}
	s.forget(id)
}

func (s *Surface) forget(id NodeID) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	for _, child := range n.children {
		s.forget(child)
	}
	delete(s.nodes, id)
	delete(s.highlights, id)
}

func (s *Surface) inlineLen(id NodeID) int {
	n := s.nodes[id]
	switch n.kind {
	case KindText:
		return utf8.RuneCountInString(n.text)
	case KindChip:
		return 1
	}
	return 0
}

func (s *Surface) blockLen(block NodeID) int {
	total := 0
	for _, id := range s.nodes[block].children {
		total += s.inlineLen(id)
	}
	return total
}

func (s *Surface) length() int {
	blocks := s.nodes[s.root].children
	total := 0
	for i, block := range blocks {
		if i > 0 {
			total++
		}
		total += s.blockLen(block)
	}
	return total
}

// blockStart returns the linear offset at which block begins.
func (s *Surface) blockStart(block NodeID) int {
	total := 0
	for i, id := range s.nodes[s.root].children {
		if i > 0 {
			total++
		}
		if id == block {
			return total
		}
		total += s.blockLen(id)
	}
	return -1
}

func (s *Surface) offsetOf(pos Position) (int, error) {
	n, ok := s.nodes[pos.Node]
	if !ok {
		return 0, ErrInvalidPosition
	}
	switch n.kind {
	case KindRoot:
		blocks := n.children
		idx := clamp(pos.Offset, 0, len(blocks))
		if idx == len(blocks) {
			return s.length(), nil
		}
		return s.blockStart(blocks[idx]), nil
	case KindBlock:
		idx := clamp(pos.Offset, 0, len(n.children))
		local := 0
		for _, id := range n.children[:idx] {
			local += s.inlineLen(id)
		}
		return s.blockStart(n.id) + local, nil
	case KindChip:
		base, err := s.inlineStart(n.id)
		if err != nil {
			return 0, err
		}
		if pos.Offset <= 0 {
			return base, nil
		}
		return base + 1, nil
	case KindText:
		if parent := s.nodes[n.parent]; parent != nil && parent.kind == KindChip {
			return s.offsetOf(Position{Node: parent.id, Offset: pos.Offset})
		}
		base, err := s.inlineStart(n.id)
		if err != nil {
			return 0, err
		}
		return base + clamp(pos.Offset, 0, utf8.RuneCountInString(n.text)), nil
	}
	return 0, ErrInvalidPosition
}

// inlineStart returns the linear offset where an inline node begins.
func (s *Surface) inlineStart(id NodeID) (int, error) {
	n := s.nodes[id]
	block, ok := s.nodes[n.parent]
	if !ok || block.kind != KindBlock {
		return 0, ErrInvalidPosition
	}
	start := s.blockStart(block.id)
	if start < 0 {
		return 0, ErrInvalidPosition
	}
	for _, sibling := range block.children {
		if sibling == id {
			return start, nil
		}
		start += s.inlineLen(sibling)
	}
	return 0, ErrInvalidPosition
}

// positionAt maps a linear offset to a canonical position. Text positions are
// preferred; a caret between two chips or at a chip edge with no adjacent text
// is expressed as a block child index.
func (s *Surface) positionAt(offset int) Position {
	blocks := s.nodes[s.root].children
	offset = clamp(offset, 0, s.length())
	for i, block := range blocks {
		if i > 0 {
			offset--
		}
		size := s.blockLen(block)
		if offset > size && i < len(blocks)-1 {
			offset -= size
			continue
		}
		children := s.nodes[block].children
		for idx, id := range children {
			n := s.nodes[id]
			if n.kind == KindText {
				runes := utf8.RuneCountInString(n.text)
				if offset <= runes {
					return Position{Node: id, Offset: offset}
				}
				offset -= runes
				continue
			}
			if offset == 0 {
				return Position{Node: block, Offset: idx}
			}
			offset--
		}
		return Position{Node: block, Offset: len(children)}
	}
	return Position{Node: s.root, Offset: 0}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
