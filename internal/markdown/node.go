// Package markdown converts between flat markdown text and the structured
// block tree the editor works on. Parsing goes through a goldmark-based
// tokenizer adapter; serialization is the hand-written inverse.
package markdown

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// NodeType identifies the structural kind of a tree node.
type NodeType string

// Block node types.
const (
	TypeDoc            NodeType = "doc"
	TypeParagraph      NodeType = "paragraph"
	TypeHeading        NodeType = "heading"
	TypeBulletList     NodeType = "bulletList"
	TypeOrderedList    NodeType = "orderedList"
	TypeListItem       NodeType = "listItem"
	TypeTaskList       NodeType = "taskList"
	TypeTaskItem       NodeType = "taskItem"
	TypeBlockquote     NodeType = "blockquote"
	TypeCodeBlock      NodeType = "codeBlock"
	TypeHorizontalRule NodeType = "horizontalRule"
	TypeTable          NodeType = "table"
	TypeTableRow       NodeType = "tableRow"
	TypeTableCell      NodeType = "tableCell"
	TypeTableHeader    NodeType = "tableHeader"
	TypeImage          NodeType = "image"
)

// Inline node types.
const (
	TypeText      NodeType = "text"
	TypeHardBreak NodeType = "hardBreak"
)

// MarkType identifies an inline text decoration.
type MarkType string

const (
	MarkBold        MarkType = "bold"
	MarkItalic      MarkType = "italic"
	MarkStrike      MarkType = "strike"
	MarkUnderline   MarkType = "underline"
	MarkHighlight   MarkType = "highlight"
	MarkSubscript   MarkType = "subscript"
	MarkSuperscript MarkType = "superscript"
	MarkCode        MarkType = "code"
	MarkLink        MarkType = "link"
)

// Mark is an inline decoration attached to a text run. Href is set only for
// link marks.
type Mark struct {
	Type MarkType `json:"type"`
	Href string   `json:"href,omitempty"`
}

// Attrs holds type-specific node attributes. A nil Attrs means all defaults.
type Attrs struct {
	Level           int    `json:"level,omitempty"`    // heading
	Language        string `json:"language,omitempty"` // codeBlock
	Checked         bool   `json:"checked,omitempty"`  // taskItem
	Src             string `json:"src,omitempty"`      // image
	Alt             string `json:"alt,omitempty"`      // image
	Pending         string `json:"pending,omitempty"`  // editorial status on leaf blocks
	PendingOriginal string `json:"pendingOriginal,omitempty"`
}

// Node is a single node of the document tree: either a block, an inline text
// run (Text + Marks), or an inline marker (hard break, image).
type Node struct {
	Type     NodeType `json:"type"`
	ID       string   `json:"id,omitempty"`
	Attrs    *Attrs   `json:"attrs,omitempty"`
	Text     string   `json:"text,omitempty"`
	Marks    []Mark   `json:"marks,omitempty"`
	Children []*Node  `json:"content,omitempty"`
}

// NewDoc returns a document root wrapping the given blocks.
func NewDoc(blocks ...*Node) *Node {
	return &Node{Type: TypeDoc, Children: blocks}
}

// newID returns a short random node identifier. Identifiers are not stable
// across independent parses of the same text.
func newID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// EnsureAttrs returns the node's Attrs, allocating them if absent.
func (n *Node) EnsureAttrs() *Attrs {
	if n.Attrs == nil {
		n.Attrs = &Attrs{}
	}
	return n.Attrs
}

// PlainText returns the concatenated text of the node and its descendants.
func (n *Node) PlainText() string {
	var sb strings.Builder
	n.appendText(&sb)
	return sb.String()
}

func (n *Node) appendText(sb *strings.Builder) {
	sb.WriteString(n.Text)
	for _, c := range n.Children {
		c.appendText(sb)
	}
}

// leafBlockTypes are the block types that directly carry text or media
// rather than other blocks.
var leafBlockTypes = map[NodeType]bool{
	TypeParagraph:      true,
	TypeHeading:        true,
	TypeCodeBlock:      true,
	TypeHorizontalRule: true,
	TypeTable:          true,
	TypeImage:          true,
}

// IsLeafBlock reports whether the node is a leaf block.
func (n *Node) IsLeafBlock() bool {
	return leafBlockTypes[n.Type]
}

// LeafBlocks returns the document's leaf blocks in document order. Leaf
// blocks nested inside lists, quotes, or table cells are included; the
// containing table itself counts as a single leaf.
func LeafBlocks(doc *Node) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeafBlock() {
			out = append(out, n)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, b := range doc.Children {
		walk(b)
	}
	return out
}

// WordCount counts whitespace-separated words in s after trimming.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// dedupMarks removes duplicate marks while preserving first-seen order.
// Links are distinguished by href; all other marks by kind alone.
func dedupMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	seen := make(map[Mark]struct{}, len(marks))
	out := make([]Mark, 0, len(marks))
	for _, m := range marks {
		key := m
		if m.Type != MarkLink {
			key.Href = ""
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}

func marksEqual(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mergeAdjacentText collapses consecutive text runs carrying identical marks
// into a single run. The tokenizer splits literal brackets and entities into
// separate segments; downstream logic (checkbox detection, fingerprinting)
// wants one run per styled span. Input nodes are not mutated.
func mergeAdjacentText(nodes []*Node) []*Node {
	if len(nodes) < 2 {
		return nodes
	}
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == TypeText && len(out) > 0 {
			last := out[len(out)-1]
			if last.Type == TypeText && marksEqual(last.Marks, n.Marks) {
				merged := *last
				merged.Text += n.Text
				out[len(out)-1] = &merged
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
