package markdown

import (
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Span is an inline AST node produced by the paired-delimiter parsers below.
// It carries the mark the delimiter pair maps to.
type Span struct {
	gast.BaseInline
	Mark MarkType
}

// KindSpan is the node kind of Span.
var KindSpan = gast.NewNodeKind("Span")

// Kind implements ast.Node.
func (n *Span) Kind() gast.NodeKind { return KindSpan }

// Dump implements ast.Node.
func (n *Span) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Mark": string(n.Mark)}, nil)
}

// spanProcessor pairs delimiters of a single character and maps the consumed
// run length to a mark. For '~' a double run is strikethrough and a single
// run is subscript; the other characters map to exactly one mark.
type spanProcessor struct {
	char   byte
	single MarkType // mark when one delimiter character is consumed
	double MarkType // mark when two are consumed ("" if not allowed)
}

func (p *spanProcessor) IsDelimiter(b byte) bool { return b == p.char }

func (p *spanProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (p *spanProcessor) OnMatch(consumes int) gast.Node {
	mark := p.single
	if consumes >= 2 && p.double != "" {
		mark = p.double
	}
	return &Span{Mark: mark}
}

// spanParser is a goldmark inline parser for one paired-delimiter character.
// minLen/maxLen bound the accepted delimiter run length.
type spanParser struct {
	proc   *spanProcessor
	minLen int
	maxLen int
}

func (s *spanParser) Trigger() []byte { return []byte{s.proc.char} }

func (s *spanParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, s.minLen, s.proc)
	if node == nil || node.OriginalLength > s.maxLen || before == rune(line[0]) {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

// spans is a goldmark extension adding the inline decorations the editor
// dialect supports beyond CommonMark: ~~strike~~, ~subscript~,
// ^superscript^, ==highlight==, ++underline++.
type spans struct{}

// Spans is the inline span extension instance.
var Spans = &spans{}

func (e *spans) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&spanParser{proc: &spanProcessor{char: '~', single: MarkSubscript, double: MarkStrike}, minLen: 1, maxLen: 2}, 500),
		util.Prioritized(&spanParser{proc: &spanProcessor{char: '^', single: MarkSuperscript}, minLen: 1, maxLen: 1}, 500),
		util.Prioritized(&spanParser{proc: &spanProcessor{char: '=', single: MarkHighlight, double: MarkHighlight}, minLen: 2, maxLen: 2}, 500),
		util.Prioritized(&spanParser{proc: &spanProcessor{char: '+', single: MarkUnderline, double: MarkUnderline}, minLen: 2, maxLen: 2}, 500),
	))
}
