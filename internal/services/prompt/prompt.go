// Package prompt loads the assistant persona from a markdown document.
package prompt

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// DefaultPersona is used whenever the persona document cannot be used.
const DefaultPersona = `You are Milo, an AI consultant for Archpoint Labs, a cutting-edge consulting firm specializing in AI transformation.
You help businesses understand how AI can solve their challenges through strategy, implementation, automation, and training.
Be professional, helpful, and solution-oriented while guiding potential clients toward deeper engagement with our services.`

type Logger interface {
	Warn(msg string, keysAndValues ...interface{})
}

// Resolve reads the persona document at path and returns it as plain text,
// starting at the first line that begins with marker. It never fails: any
// problem is logged and DefaultPersona is returned instead.
func Resolve(path, marker string, logger Logger) string {
	src, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Could not load system prompt file, using default", "path", path, "error", err)
		return DefaultPersona
	}

	resolved, err := Render(src, marker)
	if err != nil {
		logger.Warn("Could not parse system prompt file, using default", "path", path, "error", err)
		return DefaultPersona
	}
	if resolved == "" {
		logger.Warn("System prompt file rendered empty, using default", "path", path)
		return DefaultPersona
	}
	return resolved
}

// Render slices src from the marker line onward and flattens the markdown
// to plain text. A document without the marker is used whole.
func Render(src []byte, marker string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("render persona: %v", r)
		}
	}()

	body := sliceFromMarker(string(src), marker)
	source := []byte(body)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	r := &renderer{source: source}
	return strings.TrimSpace(strings.Join(r.blocks(doc, ""), "\n\n")), nil
}

func sliceFromMarker(doc, marker string) string {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	if marker == "" {
		return doc
	}
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, marker) {
			return strings.Join(lines[i:], "\n")
		}
	}
	return doc
}

type renderer struct {
	source []byte
}

// blocks renders each child block of n, prefixing every line with indent.
func (r *renderer) blocks(n ast.Node, indent string) []string {
	var out []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if s := r.block(c, indent); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (r *renderer) block(n ast.Node, indent string) string {
	switch node := n.(type) {
	case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
		return indentLines(strings.TrimSpace(r.inlines(node)), indent)
	case *ast.List:
		return r.list(node, indent)
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		return indentLines(strings.TrimRight(r.lines(node), "\n"), indent)
	case *ast.Blockquote:
		return strings.Join(r.blocks(node, indent), "\n\n")
	case *ast.ThematicBreak:
		return ""
	default:
		return strings.Join(r.blocks(node, indent), "\n\n")
	}
}

func (r *renderer) list(list *ast.List, indent string) string {
	var items []string
	number := list.Start
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		bullet := "- "
		if list.IsOrdered() {
			bullet = strconv.Itoa(number) + ". "
			number++
		}
		parts := r.blocks(item, indent+"  ")
		if len(parts) == 0 {
			items = append(items, indent+strings.TrimSpace(bullet))
			continue
		}
		first := strings.TrimPrefix(parts[0], indent+"  ")
		parts[0] = indent + bullet + first
		items = append(items, strings.Join(parts, "\n"))
	}
	return strings.Join(items, "\n")
}

func (r *renderer) lines(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(r.source))
	}
	return b.String()
}

func (r *renderer) inlines(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.inline(&b, c)
	}
	return b.String()
}

func (r *renderer) inline(b *strings.Builder, n ast.Node) {
	switch node := n.(type) {
	case *ast.Text:
		b.Write(util.UnescapePunctuations(node.Segment.Value(r.source)))
		if node.SoftLineBreak() || node.HardLineBreak() {
			b.WriteByte('\n')
		}
	case *ast.String:
		b.Write(node.Value)
	case *ast.Emphasis:
		// Bold is dropped; single emphasis keeps its marker.
		if node.Level >= 2 {
			b.WriteString(r.inlines(node))
			return
		}
		marker := r.emphasisMarker(node)
		b.WriteString(marker + r.inlines(node) + marker)
	case *ast.CodeSpan:
		b.WriteString("`" + r.inlines(node) + "`")
	case *ast.Link:
		label := r.inlines(node)
		dest := string(node.Destination)
		if label == "" || label == dest {
			b.WriteString(dest)
			return
		}
		b.WriteString(label + " (" + dest + ")")
	case *ast.AutoLink:
		b.Write(node.URL(r.source))
	case *ast.Image:
		b.WriteString(r.inlines(node))
	case *ast.RawHTML:
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			b.Write(seg.Value(r.source))
		}
	default:
		b.WriteString(r.inlines(node))
	}
}

// emphasisMarker recovers '*' or '_' from the byte preceding the first text child.
func (r *renderer) emphasisMarker(n ast.Node) string {
	for c := n.FirstChild(); c != nil; c = c.FirstChild() {
		if t, ok := c.(*ast.Text); ok {
			if start := t.Segment.Start; start > 0 && r.source[start-1] == '_' {
				return "_"
			}
			break
		}
	}
	return "*"
}

func indentLines(s, indent string) string {
	if indent == "" || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
