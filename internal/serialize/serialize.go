// Package serialize renders a mutated tree back to compact HTML text. It is
// a pure function of the final tree, independent of which mutation stages
// produced it.
package serialize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
)

// Render serializes the subtree to HTML text. Element casing follows the
// lowercase tag identity; attribute keys keep their declared casing.
func Render(n *dom.Node) string {
	var sb strings.Builder
	render(&sb, n)
	return sb.String()
}

// RenderDocument serializes a whole document.
func RenderDocument(doc *dom.Document) string {
	return Render(doc.Root)
}

func render(sb *strings.Builder, n *dom.Node) {
	switch n.Type {
	case dom.TextNode:
		sb.WriteString(n.Data)
	case dom.RawNode:
		sb.WriteString(n.Data)
	case dom.CommentNode:
		sb.WriteString("<!--")
		sb.WriteString(n.Data)
		sb.WriteString("-->")
	case dom.ElementNode:
		if n.IsFragment() {
			for _, child := range n.Children {
				render(sb, child)
			}
			return
		}
		sb.WriteByte('<')
		sb.WriteString(n.Tag)
		for _, attr := range n.Attrs.All() {
			sb.WriteByte(' ')
			sb.WriteString(attr.Key)
			sb.WriteString(`="`)
			sb.WriteString(html.EscapeString(attr.Val))
			sb.WriteByte('"')
		}
		if n.SelfClosing {
			sb.WriteString("/>")
			return
		}
		sb.WriteByte('>')
		if dom.VoidElements[n.Tag] {
			return
		}
		for _, child := range n.Children {
			render(sb, child)
		}
		sb.WriteString("</")
		sb.WriteString(n.Tag)
		sb.WriteByte('>')
	}
}

var whitespaceRunRe = regexp.MustCompile(`\s+`)

// inlineTags are the elements whose surrounding whitespace is rendered.
// A whitespace-only text node between two inline-level siblings is a real
// word gap and must survive minification.
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "br": true, "cite": true,
	"code": true, "em": true, "i": true, "img": true, "kbd": true,
	"mark": true, "q": true, "s": true, "small": true, "span": true,
	"strong": true, "sub": true, "sup": true, "time": true, "u": true,
	"wbr": true,
}

func inlineLevel(n *dom.Node) bool {
	switch n.Type {
	case dom.TextNode:
		return true
	case dom.ElementNode:
		return inlineTags[n.Tag]
	}
	return false
}

// Minify collapses redundant whitespace in place: runs inside text nodes
// shrink to a single space, whitespace-only nodes between tags disappear,
// and script/style payloads lose their incidental formatting. Content of
// pre and textarea is untouched.
func Minify(n *dom.Node) {
	minify(n, false)
}

// MinifyDocument applies Minify to the whole document tree.
func MinifyDocument(doc *dom.Document) {
	Minify(doc.Root)
}

func minify(n *dom.Node, inAnchor bool) {
	if n.Type != dom.ElementNode {
		return
	}
	switch n.Tag {
	case "pre", "textarea":
		return
	case "script", "style":
		for _, child := range n.Children {
			if child.Type == dom.TextNode {
				child.Data = strings.TrimSpace(whitespaceRunRe.ReplaceAllString(child.Data, " "))
			}
		}
		return
	case "a":
		inAnchor = true
	}

	kept := n.Children[:0]
	for idx, child := range n.Children {
		if child.Type == dom.TextNode {
			collapsed := whitespaceRunRe.ReplaceAllString(child.Data, " ")
			if strings.TrimSpace(collapsed) == "" {
				// Whitespace between two inline siblings is a visible word
				// gap; whitespace against a block boundary is formatting.
				keep := inAnchor
				if !keep && len(kept) > 0 && idx+1 < len(n.Children) {
					keep = inlineLevel(kept[len(kept)-1]) && inlineLevel(n.Children[idx+1])
				}
				if !keep {
					continue
				}
				collapsed = " "
			}
			child.Data = collapsed
			kept = append(kept, child)
			continue
		}
		minify(child, inAnchor)
		kept = append(kept, child)
	}
	n.Children = kept
}
