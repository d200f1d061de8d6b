package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Parse builds a tree from real-world HTML. Parsing is best-effort:
// unclosed elements auto-close when an ancestor closes, stray close tags are
// preserved verbatim, and unknown tags are kept rather than dropped. The
// only error returned is a read failure from r.
func Parse(r io.Reader) (*Document, error) {
	z := html.NewTokenizer(r)
	root := NewFragment()
	stack := []*Node{root}
	top := func() *Node { return stack[len(stack)-1] }

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("reading html input: %w", err)
			}
			return &Document{Root: root}, nil

		case html.TextToken:
			top().Append(NewText(string(z.Raw())))

		case html.CommentToken:
			top().Append(NewComment(commentData(string(z.Raw()))))

		case html.DoctypeToken:
			top().Append(NewRaw(string(z.Raw())))

		case html.StartTagToken, html.SelfClosingTagToken:
			node := parseTag(string(z.Raw()))
			if node == nil {
				top().Append(NewRaw(string(z.Raw())))
				continue
			}
			top().Append(node)
			if !node.SelfClosing && !VoidElements[node.Tag] {
				stack = append(stack, node)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			idx := -1
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].Tag == tag {
					idx = i
					break
				}
			}
			if idx < 0 {
				// No matching open element: keep the stray close tag
				// verbatim so no input bytes are lost.
				top().Append(NewRaw(string(z.Raw())))
				continue
			}
			stack = stack[:idx]
		}
	}
}

// ParseString is Parse over an in-memory document.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// MustParse parses a trusted literal, for tests and internal templates.
func MustParse(s string) *Document {
	doc, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return doc
}

func commentData(raw string) string {
	s := strings.TrimPrefix(raw, "<!--")
	s = strings.TrimSuffix(s, "-->")
	return s
}

// parseTag builds an element from the raw bytes of a start tag, preserving
// attribute order and the original casing of attribute keys. Returns nil if
// the raw text is not a well-formed start tag.
func parseTag(raw string) *Node {
	if len(raw) < 3 || raw[0] != '<' || raw[len(raw)-1] != '>' {
		return nil
	}
	body := raw[1 : len(raw)-1]
	selfClosing := false
	if strings.HasSuffix(body, "/") {
		selfClosing = true
		body = body[:len(body)-1]
	}

	i := 0
	for i < len(body) && !isTagSpace(body[i]) && body[i] != '/' {
		i++
	}
	name := body[:i]
	if name == "" {
		return nil
	}
	node := NewElement(strings.ToLower(name))
	node.SelfClosing = selfClosing

	for i < len(body) {
		for i < len(body) && (isTagSpace(body[i]) || body[i] == '/') {
			i++
		}
		if i >= len(body) {
			break
		}
		start := i
		for i < len(body) && !isTagSpace(body[i]) && body[i] != '=' {
			i++
		}
		key := body[start:i]
		if key == "" {
			break
		}
		for i < len(body) && isTagSpace(body[i]) {
			i++
		}
		val := ""
		if i < len(body) && body[i] == '=' {
			i++
			for i < len(body) && isTagSpace(body[i]) {
				i++
			}
			if i < len(body) && (body[i] == '"' || body[i] == '\'') {
				quote := body[i]
				i++
				vstart := i
				for i < len(body) && body[i] != quote {
					i++
				}
				val = body[vstart:i]
				if i < len(body) {
					i++
				}
			} else {
				vstart := i
				for i < len(body) && !isTagSpace(body[i]) {
					i++
				}
				val = body[vstart:i]
			}
		}
		if !node.Attrs.Has(key) {
			node.Attrs.Set(key, html.UnescapeString(val))
		}
	}
	return node
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
