package markdown

import (
	"reflect"
	"strings"
	"testing"
)

// stripIDs zeroes node identifiers in place so that trees can be compared
// structurally; ids are regenerated on every parse.
func stripIDs(n *Node) *Node {
	n.ID = ""
	for _, c := range n.Children {
		stripIDs(c)
	}
	return n
}

func assertRoundTrip(t *testing.T, doc *Node, title string, metadata map[string]any) *ParseResult {
	t.Helper()
	content, _ := Serialize(doc, title, metadata)
	r := Parse(content)
	if !reflect.DeepEqual(stripIDs(r.Doc), stripIDs(doc)) {
		t.Errorf("round trip mismatch\nserialized:\n%s\ngot:  %#v\nwant: %#v", content, r.Doc, doc)
	}
	return r
}

func para(runs ...*Node) *Node  { return &Node{Type: TypeParagraph, ID: newID(), Children: runs} }
func txt(s string, marks ...Mark) *Node {
	if len(marks) == 0 {
		return &Node{Type: TypeText, Text: s}
	}
	return &Node{Type: TypeText, Text: s, Marks: marks}
}

func TestRoundTrip_BasicBlocks(t *testing.T) {
	doc := NewDoc(
		&Node{Type: TypeHeading, ID: newID(), Attrs: &Attrs{Level: 2}, Children: []*Node{txt("Section")}},
		para(txt("plain "), txt("bold", Mark{Type: MarkBold}), txt(" and "), txt("it", Mark{Type: MarkItalic})),
		&Node{Type: TypeHorizontalRule, ID: newID()},
		&Node{Type: TypeCodeBlock, ID: newID(), Attrs: &Attrs{Language: "go"}, Children: []*Node{txt("x := 1")}},
	)
	assertRoundTrip(t, doc, "Doc", map[string]any{"docId": "ab12cd34"})
}

func TestRoundTrip_Lists(t *testing.T) {
	doc := NewDoc(
		&Node{Type: TypeBulletList, ID: newID(), Children: []*Node{
			{Type: TypeListItem, ID: newID(), Children: []*Node{para(txt("first"))}},
			{Type: TypeListItem, ID: newID(), Children: []*Node{para(txt("second"))}},
		}},
		&Node{Type: TypeOrderedList, ID: newID(), Children: []*Node{
			{Type: TypeListItem, ID: newID(), Children: []*Node{para(txt("one"))}},
			{Type: TypeListItem, ID: newID(), Children: []*Node{para(txt("two"))}},
		}},
	)
	assertRoundTrip(t, doc, "Lists", nil)
}

func TestRoundTrip_TaskList(t *testing.T) {
	doc := NewDoc(
		&Node{Type: TypeTaskList, ID: newID(), Children: []*Node{
			{Type: TypeTaskItem, ID: newID(), Attrs: &Attrs{}, Children: []*Node{para(txt("open"))}},
			{Type: TypeTaskItem, ID: newID(), Attrs: &Attrs{Checked: true}, Children: []*Node{para(txt("done"))}},
		}},
	)
	assertRoundTrip(t, doc, "Tasks", nil)
}

func TestRoundTrip_Blockquote(t *testing.T) {
	doc := NewDoc(
		&Node{Type: TypeBlockquote, ID: newID(), Children: []*Node{
			para(txt("quoted text")),
		}},
	)
	assertRoundTrip(t, doc, "Quote", nil)
}

func TestRoundTrip_ExtendedMarks(t *testing.T) {
	doc := NewDoc(
		para(
			txt("hi", Mark{Type: MarkHighlight}),
			txt(" "),
			txt("un", Mark{Type: MarkUnderline}),
			txt(" "),
			txt("st", Mark{Type: MarkStrike}),
			txt(" "),
			txt("code", Mark{Type: MarkCode}),
		),
		para(
			txt("link", Mark{Type: MarkLink, Href: "https://example.com"}),
		),
	)
	assertRoundTrip(t, doc, "Marks", nil)
}

func TestSerialize_NestedMarksShareDelimiters(t *testing.T) {
	doc := NewDoc(
		para(
			txt("bold ", Mark{Type: MarkBold}),
			txt("it", Mark{Type: MarkBold}, Mark{Type: MarkItalic}),
		),
	)
	content, _ := Serialize(doc, "", nil)
	if !strings.Contains(string(content), "**bold *it***") {
		t.Fatalf("nested marks must keep one outer delimiter pair:\n%s", content)
	}
}

func TestRoundTrip_NestedMarks(t *testing.T) {
	doc := NewDoc(
		para(
			txt("bold ", Mark{Type: MarkBold}),
			txt("it", Mark{Type: MarkBold}, Mark{Type: MarkItalic}),
		),
		para(
			txt("a ", Mark{Type: MarkLink, Href: "https://x.example"}),
			txt("b", Mark{Type: MarkLink, Href: "https://x.example"}, Mark{Type: MarkBold}),
		),
	)
	assertRoundTrip(t, doc, "Nested", nil)
}

func TestRoundTrip_ImageBlock(t *testing.T) {
	doc := NewDoc(
		&Node{Type: TypeImage, ID: newID(), Attrs: &Attrs{Src: "a.png", Alt: "alt text"}},
	)
	assertRoundTrip(t, doc, "Img", nil)
}

func TestRoundTrip_EmptyParagraphAndHardBreak(t *testing.T) {
	doc := NewDoc(
		&Node{Type: TypeParagraph, ID: newID()},
		para(txt("a"), &Node{Type: TypeHardBreak}, txt("b")),
	)
	assertRoundTrip(t, doc, "Sentinels", nil)
}

func TestRoundTrip_TableSeparator(t *testing.T) {
	doc := NewDoc(
		&Node{Type: TypeTable, ID: newID(), Children: []*Node{
			{Type: TypeTableRow, ID: newID(), Children: []*Node{
				{Type: TypeTableHeader, ID: newID(), Children: []*Node{txt("a")}},
				{Type: TypeTableHeader, ID: newID(), Children: []*Node{txt("b")}},
			}},
			{Type: TypeTableRow, ID: newID(), Children: []*Node{
				{Type: TypeTableCell, ID: newID(), Children: []*Node{txt("1")}},
				{Type: TypeTableCell, ID: newID(), Children: []*Node{txt("2")}},
			}},
		}},
	)
	content, _ := Serialize(doc, "T", nil)

	// Exactly one separator row between header and data.
	sepCount := 0
	for _, line := range strings.Split(string(content), "\n") {
		if strings.Contains(line, "---") && strings.Contains(line, "|") {
			sepCount++
		}
	}
	if sepCount != 1 {
		t.Fatalf("separator rows = %d, want 1\n%s", sepCount, content)
	}

	// And it re-serializes identically after a parse.
	r := Parse(content)
	content2, _ := Serialize(r.Doc, "T", nil)
	if string(content) != string(content2) {
		t.Errorf("table did not stabilize:\n%s\nvs\n%s", content, content2)
	}
}

func TestRoundTrip_MetadataPreserved(t *testing.T) {
	doc := NewDoc(para(txt("body")))
	meta := map[string]any{"docId": "ab12cd34", "custom": "kept"}
	r := assertRoundTrip(t, doc, "Meta", meta)
	if r.Metadata["custom"] != "kept" {
		t.Errorf("custom metadata lost: %v", r.Metadata)
	}
	if r.Metadata["docId"] != "ab12cd34" {
		t.Errorf("docId lost: %v", r.Metadata)
	}
	if _, ok := r.Metadata["pending"]; ok {
		t.Error("pending must be consumed out of metadata")
	}
}

func TestSerialize_WordCount(t *testing.T) {
	doc := NewDoc(
		&Node{Type: TypeHeading, ID: newID(), Attrs: &Attrs{Level: 1}, Children: []*Node{txt("Two words")}},
		para(txt("  three more words  ")),
	)
	_, wc := Serialize(doc, "", nil)
	if wc != 5 {
		t.Errorf("word count = %d, want 5", wc)
	}
}
