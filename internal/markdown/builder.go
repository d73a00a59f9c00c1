package markdown

import (
	"regexp"
	"strings"

	gast "github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
)

// ParseResult holds the output of parsing a markdown document.
type ParseResult struct {
	Title    string
	Metadata map[string]any
	Body     string // markdown body after the frontmatter block
	Doc      *Node
}

// sentinels that survive raw-HTML passthrough.
const (
	emptyParagraphSentinel = "<!-- -- -->"
	hardBreakSentinel      = "<br>"
)

var checkboxRe = regexp.MustCompile(`^\[([ xX])\] ?`)

// Parse converts markdown text (with optional frontmatter) into a block
// tree. It never fails: bad frontmatter is treated as absent and constructs
// the tokenizer does not recognize are skipped.
func Parse(data []byte) *ParseResult {
	meta, body := splitFrontmatter(data)

	b := &builder{source: []byte(body)}
	doc := NewDoc(b.blocks(parseBody(b.source))...)

	var pending map[int]PendingEntry
	if meta != nil {
		pending = decodePending(meta["pending"])
		delete(meta, "pending")
	}
	rehydratePending(doc, pending)

	return &ParseResult{
		Title:    deriveTitle(meta, doc),
		Metadata: meta,
		Body:     body,
		Doc:      doc,
	}
}

// deriveTitle returns the frontmatter title if present, otherwise the text
// of the first level-1 heading, otherwise empty.
func deriveTitle(meta map[string]any, doc *Node) string {
	if meta != nil {
		if t, ok := meta["title"].(string); ok && t != "" {
			return t
		}
	}
	for _, blk := range doc.Children {
		if blk.Type == TypeHeading && blk.Attrs != nil && blk.Attrs.Level == 1 {
			return strings.TrimSpace(blk.PlainText())
		}
	}
	return ""
}

type builder struct {
	source []byte
}

// blocks converts the children of an AST container into block nodes.
func (b *builder) blocks(parent gast.Node) []*Node {
	var out []*Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if n := b.block(c); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// block converts one AST block node, or returns nil to skip it.
func (b *builder) block(n gast.Node) *Node {
	switch t := n.(type) {
	case *gast.Heading:
		return &Node{
			Type:     TypeHeading,
			ID:       newID(),
			Attrs:    &Attrs{Level: t.Level},
			Children: b.inlines(t),
		}

	case *gast.Paragraph:
		return b.paragraph(t)

	case *gast.TextBlock:
		// Tight list items wrap their content in a text block.
		return b.paragraph(t)

	case *gast.List:
		return b.list(t)

	case *gast.Blockquote:
		return &Node{Type: TypeBlockquote, ID: newID(), Children: b.blocks(t)}

	case *gast.FencedCodeBlock:
		return b.codeBlock(string(t.Language(b.source)), segmentsText(t.Lines(), b.source))

	case *gast.CodeBlock:
		return b.codeBlock("", segmentsText(t.Lines(), b.source))

	case *gast.ThematicBreak:
		return &Node{Type: TypeHorizontalRule, ID: newID()}

	case *extast.Table:
		return b.table(t)

	case *gast.HTMLBlock:
		raw := segmentsText(t.Lines(), b.source)
		if t.HasClosure() {
			raw += string(t.ClosureLine.Value(b.source))
		}
		if strings.TrimSpace(raw) == emptyParagraphSentinel {
			// Explicit empty paragraph.
			return &Node{Type: TypeParagraph, ID: newID()}
		}
		return nil

	default:
		return nil
	}
}

func (b *builder) codeBlock(language, content string) *Node {
	content = strings.TrimSuffix(content, "\n")
	var attrs *Attrs
	if language != "" {
		attrs = &Attrs{Language: language}
	}
	node := &Node{Type: TypeCodeBlock, ID: newID(), Attrs: attrs}
	if content != "" {
		node.Children = []*Node{{Type: TypeText, Text: content}}
	}
	return node
}

// paragraph builds a paragraph from an inline container, promoting a
// paragraph whose only child is an image to a block-level image.
func (b *builder) paragraph(n gast.Node) *Node {
	inlines := b.inlines(n)
	if len(inlines) == 1 && inlines[0].Type == TypeImage {
		img := inlines[0]
		img.ID = newID()
		return img
	}
	return &Node{Type: TypeParagraph, ID: newID(), Children: inlines}
}

func (b *builder) list(n *gast.List) *Node {
	listType := TypeBulletList
	if n.IsOrdered() {
		listType = TypeOrderedList
	}
	var items []*Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*gast.ListItem); !ok {
			continue
		}
		items = append(items, &Node{Type: TypeListItem, ID: newID(), Children: b.blocks(c)})
	}
	node := &Node{Type: listType, ID: newID(), Children: items}
	if listType == TypeBulletList {
		convertTaskList(node)
	}
	return node
}

// convertTaskList turns a bullet list into a task list when every item's
// first child is a paragraph starting with a checkbox prefix. A partial
// match leaves the list untouched.
func convertTaskList(list *Node) {
	if len(list.Children) == 0 {
		return
	}
	for _, item := range list.Children {
		if taskItemText(item) == nil {
			return
		}
	}
	list.Type = TypeTaskList
	for _, item := range list.Children {
		textNode := taskItemText(item)
		m := checkboxRe.FindString(textNode.Text)
		checked := strings.ContainsAny(m, "xX")
		textNode.Text = textNode.Text[len(m):]
		item.Type = TypeTaskItem
		item.EnsureAttrs().Checked = checked
		if textNode.Text == "" {
			para := item.Children[0]
			para.Children = para.Children[1:]
		}
	}
}

// taskItemText returns the item's leading text run when it begins with a
// checkbox prefix, or nil.
func taskItemText(item *Node) *Node {
	if len(item.Children) == 0 || item.Children[0].Type != TypeParagraph {
		return nil
	}
	para := item.Children[0]
	if len(para.Children) == 0 {
		return nil
	}
	first := para.Children[0]
	if first.Type != TypeText || !checkboxRe.MatchString(first.Text) {
		return nil
	}
	return first
}

func (b *builder) table(t *extast.Table) *Node {
	var rows []*Node
	for c := t.FirstChild(); c != nil; c = c.NextSibling() {
		switch r := c.(type) {
		case *extast.TableHeader:
			rows = append(rows, b.tableRow(r, TypeTableHeader))
		case *extast.TableRow:
			rows = append(rows, b.tableRow(r, TypeTableCell))
		}
	}
	return &Node{Type: TypeTable, ID: newID(), Children: rows}
}

func (b *builder) tableRow(row gast.Node, cellType NodeType) *Node {
	var cells []*Node
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*extast.TableCell); !ok {
			continue
		}
		cells = append(cells, &Node{Type: cellType, ID: newID(), Children: b.inlines(c)})
	}
	return &Node{Type: TypeTableRow, ID: newID(), Children: cells}
}

// inlines converts an inline container into text runs and markers,
// maintaining the mark stack across nested decorations.
func (b *builder) inlines(parent gast.Node) []*Node {
	var out []*Node
	b.inlineChildren(parent, nil, &out)
	return mergeAdjacentText(out)
}

func (b *builder) inlineChildren(parent gast.Node, stack []Mark, out *[]*Node) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		b.inline(c, stack, out)
	}
}

func (b *builder) inline(n gast.Node, stack []Mark, out *[]*Node) {
	switch t := n.(type) {
	case *gast.Text:
		txt := string(t.Segment.Value(b.source))
		if txt != "" {
			*out = append(*out, textRun(txt, stack))
		}
		switch {
		case t.HardLineBreak():
			*out = append(*out, &Node{Type: TypeHardBreak})
		case t.SoftLineBreak():
			*out = append(*out, textRun(" ", stack))
		}

	case *gast.String:
		if len(t.Value) > 0 {
			*out = append(*out, textRun(string(t.Value), stack))
		}

	case *gast.Emphasis:
		mark := Mark{Type: MarkItalic}
		if t.Level >= 2 {
			mark.Type = MarkBold
		}
		b.inlineChildren(t, append(stack, mark), out)

	case *Span:
		b.inlineChildren(t, append(stack, Mark{Type: t.Mark}), out)

	case *gast.CodeSpan:
		b.inlineChildren(t, append(stack, Mark{Type: MarkCode}), out)

	case *gast.Link:
		mark := Mark{Type: MarkLink, Href: string(t.Destination)}
		b.inlineChildren(t, append(stack, mark), out)

	case *gast.AutoLink:
		url := string(t.URL(b.source))
		run := textRun(string(t.Label(b.source)), append(stack, Mark{Type: MarkLink, Href: url}))
		*out = append(*out, run)

	case *gast.Image:
		alt := string(t.Text(b.source))
		*out = append(*out, &Node{Type: TypeImage, Attrs: &Attrs{Src: string(t.Destination), Alt: alt}})

	case *gast.RawHTML:
		raw := strings.TrimSpace(segmentsText(t.Segments, b.source))
		if raw == hardBreakSentinel || raw == "<br/>" || raw == "<br />" {
			*out = append(*out, &Node{Type: TypeHardBreak})
		}

	default:
		// Unknown inline wrapper: keep its content, drop the wrapper.
		if n.HasChildren() {
			b.inlineChildren(n, stack, out)
		}
	}
}

func textRun(text string, stack []Mark) *Node {
	return &Node{Type: TypeText, Text: text, Marks: dedupMarks(stack)}
}
