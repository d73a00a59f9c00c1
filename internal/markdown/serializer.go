package markdown

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Serialize converts a block tree back into markdown text with a frontmatter
// header. Metadata fields are preserved verbatim except `pending`, which is
// recomputed from the tree. The returned count is the body's word count.
func Serialize(doc *Node, title string, metadata map[string]any) ([]byte, int) {
	meta := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		if k == "pending" {
			continue
		}
		meta[k] = v
	}
	if title != "" {
		meta["title"] = title
	}
	if pending := collectPending(doc); len(pending) > 0 {
		meta["pending"] = pending
	}

	body := renderBlocks(doc.Children, "\n\n")

	var sb strings.Builder
	if len(meta) > 0 {
		if fm, err := yaml.Marshal(meta); err == nil {
			sb.WriteString("---\n")
			sb.Write(fm)
			sb.WriteString("---\n\n")
		}
	}
	sb.WriteString(body)
	if body != "" {
		sb.WriteString("\n")
	}

	return []byte(sb.String()), WordCount(docText(doc))
}

// docText joins the plain text of every top-level block with newlines so
// that words at block boundaries do not run together when counted.
func docText(doc *Node) string {
	parts := make([]string, 0, len(doc.Children))
	for _, b := range doc.Children {
		parts = append(parts, b.PlainText())
	}
	return strings.Join(parts, "\n")
}

func renderBlocks(blocks []*Node, sep string) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, renderBlock(b))
	}
	return strings.Join(parts, sep)
}

func renderBlock(n *Node) string {
	switch n.Type {
	case TypeParagraph:
		if len(n.Children) == 0 {
			return emptyParagraphSentinel
		}
		return renderInlines(n.Children)

	case TypeHeading:
		level := 1
		if n.Attrs != nil && n.Attrs.Level > 0 {
			level = n.Attrs.Level
		}
		return strings.Repeat("#", level) + " " + renderInlines(n.Children)

	case TypeCodeBlock:
		return renderCodeBlock(n)

	case TypeHorizontalRule:
		return "---"

	case TypeBlockquote:
		return prefixLines(renderBlocks(n.Children, "\n\n"), "> ", ">")

	case TypeBulletList:
		return renderList(n, func(int) string { return "- " }, false)

	case TypeOrderedList:
		return renderList(n, func(i int) string { return fmt.Sprintf("%d. ", i+1) }, false)

	case TypeTaskList:
		return renderList(n, func(int) string { return "- " }, true)

	case TypeTable:
		return renderTable(n)

	case TypeImage:
		return renderImage(n)

	default:
		return n.PlainText()
	}
}

func renderCodeBlock(n *Node) string {
	content := n.PlainText()
	fence := "```"
	for strings.Contains(content, fence) {
		fence += "`"
	}
	language := ""
	if n.Attrs != nil {
		language = n.Attrs.Language
	}
	out := fence + language + "\n"
	if content != "" {
		out += content + "\n"
	}
	return out + fence
}

func renderList(list *Node, marker func(i int) string, tasks bool) string {
	var items []string
	for i, item := range list.Children {
		m := marker(i)
		content := renderBlocks(item.Children, "\n\n")
		if tasks {
			box := "[ ] "
			if item.Attrs != nil && item.Attrs.Checked {
				box = "[x] "
			}
			content = box + content
		}
		indent := strings.Repeat(" ", len(m))
		items = append(items, m+indentTail(content, indent))
	}
	return strings.Join(items, "\n")
}

func renderTable(n *Node) string {
	var lines []string
	for i, row := range n.Children {
		var cells []string
		for _, cell := range row.Children {
			cells = append(cells, renderInlines(cell.Children))
		}
		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 && len(n.Children) > 1 {
			seps := make([]string, len(cells))
			for j := range seps {
				seps[j] = "---"
			}
			lines = append(lines, "| "+strings.Join(seps, " | ")+" |")
		}
	}
	return strings.Join(lines, "\n")
}

func renderImage(n *Node) string {
	src, alt := "", ""
	if n.Attrs != nil {
		src, alt = n.Attrs.Src, n.Attrs.Alt
	}
	return "![" + alt + "](" + src + ")"
}

// renderInlines emits text runs with mark delimiters opened and closed at
// the boundaries where consecutive runs' mark lists diverge. Marks nested
// across adjacent runs (e.g. bold spanning a run that is also italic) keep a
// single outer delimiter pair, which is what the tokenizer produced them
// from; wrapping each run independently would emit adjacent delimiter runs
// that do not reparse.
func renderInlines(nodes []*Node) string {
	var sb strings.Builder
	var open []Mark

	closeTo := func(depth int) {
		for i := len(open) - 1; i >= depth; i-- {
			sb.WriteString(markClose(open[i]))
		}
		open = open[:depth]
	}

	for _, n := range mergeAdjacentText(nodes) {
		switch n.Type {
		case TypeText:
			// Marks are listed outermost first, so the shared prefix
			// with the open stack stays open across this run.
			keep := 0
			for keep < len(open) && keep < len(n.Marks) && open[keep] == n.Marks[keep] {
				keep++
			}
			closeTo(keep)
			for _, m := range n.Marks[keep:] {
				sb.WriteString(markOpen(m))
				open = append(open, m)
			}
			sb.WriteString(n.Text)
		case TypeHardBreak:
			closeTo(0)
			sb.WriteString(hardBreakSentinel)
		case TypeImage:
			closeTo(0)
			sb.WriteString(renderImage(n))
		}
	}
	closeTo(0)
	return sb.String()
}

func markOpen(m Mark) string {
	switch m.Type {
	case MarkBold:
		return "**"
	case MarkItalic:
		return "*"
	case MarkStrike:
		return "~~"
	case MarkUnderline:
		return "++"
	case MarkHighlight:
		return "=="
	case MarkSubscript:
		return "~"
	case MarkSuperscript:
		return "^"
	case MarkCode:
		return "`"
	case MarkLink:
		return "["
	default:
		return ""
	}
}

func markClose(m Mark) string {
	if m.Type == MarkLink {
		return "](" + m.Href + ")"
	}
	return markOpen(m)
}

// prefixLines prepends prefix to every non-empty line and emptyPrefix to
// empty ones.
func prefixLines(s, prefix, emptyPrefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = emptyPrefix
		} else {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// indentTail indents every line after the first.
func indentTail(s, indent string) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
