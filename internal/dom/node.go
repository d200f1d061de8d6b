// Package dom holds the in-memory document model the mutation pipeline
// operates on. The node set is deliberately closed: the pipeline only ever
// sees elements, text, comments, and opaque raw markup (doctype and
// unmatched close tags preserved verbatim).
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// NodeType discriminates the closed set of node kinds.
type NodeType uint8

const (
	ElementNode NodeType = iota
	TextNode
	CommentNode
	// RawNode carries markup emitted verbatim: doctype declarations,
	// unmatched close tags kept during recovery, and pre-rendered noise
	// fragments whose byte-level formatting is part of the entropy.
	RawNode
)

// Node is one node of the document tree.
//
// Element: Tag is the lowercase identity, Attrs the ordered attribute bag,
// Children the ordered child list. Text: Data is the raw text with character
// entities left intact. Comment: Data is the content between the comment
// delimiters. Raw: Data is emitted as-is.
type Node struct {
	Type        NodeType
	Tag         string
	Attrs       AttrList
	SelfClosing bool
	Data        string
	Children    []*Node
}

// VoidElements never take a closing tag.
var VoidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// SkipTextInside lists elements whose subtree text must never be rewritten
// by text-level mutators. Anchors are included so link labels stay literal.
var SkipTextInside = map[string]bool{
	"script": true, "style": true, "textarea": true, "code": true,
	"pre": true, "a": true,
}

// SafeWrapperTags are the element types whose insertion cannot alter
// rendered layout or text meaning when left unstyled.
var SafeWrapperTags = []string{"div", "section", "span"}

// NewElement returns an element node with the given lowercase tag.
func NewElement(tag string) *Node {
	return &Node{Type: ElementNode, Tag: tag}
}

// NewText returns a text node carrying raw (already escaped) text.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// NewComment returns a comment node; data excludes the <!-- --> delimiters.
func NewComment(data string) *Node {
	return &Node{Type: CommentNode, Data: data}
}

// NewRaw returns a node whose data is serialized verbatim.
func NewRaw(data string) *Node {
	return &Node{Type: RawNode, Data: data}
}

// NewFragment returns a container element that serializes as its children
// only. Used as the root of parsed fragments and documents.
func NewFragment(children ...*Node) *Node {
	return &Node{Type: ElementNode, Tag: "", Children: children}
}

// IsFragment reports whether the node is a tagless container.
func (n *Node) IsFragment() bool {
	return n.Type == ElementNode && n.Tag == ""
}

// Append adds children in order.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// Prepend inserts children at the front of the child list.
func (n *Node) Prepend(children ...*Node) {
	n.Children = append(append([]*Node{}, children...), n.Children...)
}

// Clone deep-copies the subtree. Variants mutate clones; the canonical tree
// stays read-only after normalization.
func (n *Node) Clone() *Node {
	c := &Node{
		Type:        n.Type,
		Tag:         n.Tag,
		Attrs:       n.Attrs.clone(),
		SelfClosing: n.SelfClosing,
		Data:        n.Data,
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// Text returns the concatenated, entity-decoded text content of the subtree.
func (n *Node) Text() string {
	var sb strings.Builder
	n.appendText(&sb)
	return sb.String()
}

func (n *Node) appendText(sb *strings.Builder) {
	switch n.Type {
	case TextNode:
		sb.WriteString(html.UnescapeString(n.Data))
	case ElementNode:
		for _, child := range n.Children {
			child.appendText(sb)
		}
	}
}

// Walk visits the subtree depth-first, parents before children. Returning
// false from fn prunes the subtree below the current node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Find returns the first element with the given lowercase tag, or nil.
func (n *Node) Find(tag string) *Node {
	var found *Node
	n.Walk(func(node *Node) bool {
		if found != nil {
			return false
		}
		if node.Type == ElementNode && node.Tag == tag {
			found = node
			return false
		}
		return true
	})
	return found
}

// Document is a parsed tree plus derived access to its head and body.
type Document struct {
	Root *Node
}

// Head returns the document's head element, or nil for fragments without one.
func (d *Document) Head() *Node {
	return d.Root.Find("head")
}

// Body returns the document's body element, or nil for fragments without one.
func (d *Document) Body() *Node {
	return d.Root.Find("body")
}

// Clone deep-copies the document.
func (d *Document) Clone() *Document {
	return &Document{Root: d.Root.Clone()}
}

// Lang returns the lang attribute of the html element, defaulting to "en".
func (d *Document) Lang() string {
	if htmlEl := d.Root.Find("html"); htmlEl != nil {
		if lang, ok := htmlEl.Attrs.Get("lang"); ok && lang != "" {
			return lang
		}
	}
	return "en"
}
