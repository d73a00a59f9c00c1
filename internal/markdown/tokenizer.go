package markdown

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"gopkg.in/yaml.v3"
)

// tokenizer returns the shared goldmark instance used to turn markdown text
// into a nested token tree. Tables come from the GFM extension; the rest of
// the editor dialect comes from the Spans extension.
var tokenizer = sync.OnceValue(func() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(
		extension.Table,
		Spans,
	))
})

// parseBody runs the tokenizer over a markdown body and returns the AST root.
func parseBody(body []byte) gast.Node {
	return tokenizer().Parser().Parse(text.NewReader(body))
}

// splitFrontmatter separates frontmatter (between leading --- delimiters)
// from the markdown body. Unparseable or absent frontmatter yields a nil map
// and the whole input as body; this function never fails.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter; everything is body.
		return nil, string(data)
	}

	block := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var meta map[string]any
	if err := yaml.Unmarshal(block, &meta); err != nil || meta == nil {
		// Invalid or empty frontmatter: the whole input is body.
		return nil, string(data)
	}
	return meta, body
}

// segmentsText concatenates the source text covered by segs.
func segmentsText(segs *text.Segments, source []byte) string {
	var sb strings.Builder
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}
