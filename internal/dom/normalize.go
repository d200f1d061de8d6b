package dom

import (
	"regexp"
	"strings"
)

var numericValueRe = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

// Normalize produces the canonical form of a freshly parsed document:
// authored comments are dropped, inter-tag whitespace is removed, and legacy
// table presentation attributes are rewritten as CSS. The result is treated
// as read-only; every variant clones it before mutating.
func Normalize(doc *Document) {
	StripComments(doc.Root)
	CollapseInterTagWhitespace(doc.Root)
	NormalizeLegacyMarkup(doc.Root)
}

// StripComments removes comment nodes from the subtree. Raw-text elements
// keep their content untouched.
func StripComments(n *Node) {
	if n.Type != ElementNode || SkipTextInside[n.Tag] {
		return
	}
	kept := n.Children[:0]
	for _, child := range n.Children {
		if child.Type == CommentNode {
			continue
		}
		StripComments(child)
		kept = append(kept, child)
	}
	n.Children = kept
}

// CollapseInterTagWhitespace drops whitespace-only text nodes so authored
// indentation cannot leak into the variant fingerprint. Whitespace inside
// pre, textarea, script and style is preserved.
func CollapseInterTagWhitespace(n *Node) {
	if n.Type != ElementNode {
		return
	}
	switch n.Tag {
	case "pre", "textarea", "script", "style":
		return
	}
	kept := n.Children[:0]
	for _, child := range n.Children {
		if child.Type == TextNode && strings.TrimSpace(child.Data) == "" {
			continue
		}
		CollapseInterTagWhitespace(child)
		kept = append(kept, child)
	}
	n.Children = kept
}

// NormalizeLegacyMarkup converts legacy presentation markup to equivalent
// CSS: table cellspacing/cellpadding/align/border/width/height/bgcolor,
// cell-level align/valign/width/height/bgcolor, and <center> wrappers. The
// original attribute is removed once converted so legacy and modern
// declarations are never duplicated.
func NormalizeLegacyMarkup(n *Node) {
	n.Walk(func(node *Node) bool {
		if node.Type != ElementNode {
			return false
		}
		switch node.Tag {
		case "center":
			node.Tag = "div"
			mergeStyle(node, [][2]string{{"text-align", "center"}})
		case "table":
			normalizeTable(node)
		case "td", "th", "tr":
			normalizeCell(node)
		}
		return true
	})
}

func normalizeTable(table *Node) {
	var additions [][2]string

	if v, ok := table.Attrs.Get("cellspacing"); ok {
		table.Attrs.Del("cellspacing")
		additions = append(additions,
			[2]string{"border-spacing", cssSpacingValue(v)},
			[2]string{"border-collapse", "separate"})
	}
	if v, ok := table.Attrs.Get("cellpadding"); ok {
		table.Attrs.Del("cellpadding")
		pad := cssSpacingValue(v)
		table.Walk(func(node *Node) bool {
			if node.Type != ElementNode {
				return true
			}
			// Nested tables own their cells; their padding comes from their
			// own cellpadding attribute, not the outer table's.
			if node != table && node.Tag == "table" {
				return false
			}
			if node.Tag == "td" || node.Tag == "th" {
				mergeStyle(node, [][2]string{{"padding", pad}})
			}
			return true
		})
	}
	if v, ok := table.Attrs.Get("border"); ok {
		table.Attrs.Del("border")
		if bv := cssBorderValue(v); bv != "" {
			additions = append(additions, [2]string{"border", bv})
		}
	}
	if v, ok := table.Attrs.Get("align"); ok {
		table.Attrs.Del("align")
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "center":
			additions = append(additions, [2]string{"margin-left", "auto"}, [2]string{"margin-right", "auto"})
		case "left":
			additions = append(additions, [2]string{"margin-left", "0"}, [2]string{"margin-right", "auto"})
		case "right":
			additions = append(additions, [2]string{"margin-left", "auto"}, [2]string{"margin-right", "0"})
		}
	}
	additions = append(additions, dimensionAdditions(table)...)
	mergeStyle(table, additions)
}

func normalizeCell(cell *Node) {
	var additions [][2]string
	if v, ok := cell.Attrs.Get("align"); ok {
		cell.Attrs.Del("align")
		if a := strings.ToLower(strings.TrimSpace(v)); a != "" {
			additions = append(additions, [2]string{"text-align", a})
		}
	}
	if v, ok := cell.Attrs.Get("valign"); ok {
		cell.Attrs.Del("valign")
		if a := strings.ToLower(strings.TrimSpace(v)); a != "" {
			additions = append(additions, [2]string{"vertical-align", a})
		}
	}
	additions = append(additions, dimensionAdditions(cell)...)
	mergeStyle(cell, additions)
}

func dimensionAdditions(node *Node) [][2]string {
	var additions [][2]string
	if v, ok := node.Attrs.Get("width"); ok {
		node.Attrs.Del("width")
		additions = append(additions, [2]string{"width", cssSpacingValue(v)})
	}
	if v, ok := node.Attrs.Get("height"); ok {
		node.Attrs.Del("height")
		additions = append(additions, [2]string{"height", cssSpacingValue(v)})
	}
	if v, ok := node.Attrs.Get("bgcolor"); ok {
		node.Attrs.Del("bgcolor")
		if v != "" {
			additions = append(additions, [2]string{"background-color", v})
		}
	}
	return additions
}

func cssSpacingValue(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "0"
	}
	if numericValueRe.MatchString(v) {
		return v + "px"
	}
	return v
}

func cssBorderValue(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if numericValueRe.MatchString(v) {
		return v + "px solid"
	}
	return v
}

// mergeStyle appends the additions to the element's style attribute,
// skipping any property the style already declares.
func mergeStyle(node *Node, additions [][2]string) {
	if len(additions) == 0 {
		return
	}
	style, _ := node.Attrs.Get("style")
	lower := strings.ToLower(style)

	var toAdd []string
	for _, add := range additions {
		prop, val := add[0], add[1]
		if val == "" || styleHasProp(lower, prop) {
			continue
		}
		toAdd = append(toAdd, prop+":"+val+";")
	}
	if len(toAdd) == 0 {
		if style == "" && !node.Attrs.Has("style") {
			return
		}
		return
	}

	merged := style
	if merged != "" && !strings.HasSuffix(strings.TrimRight(merged, " "), ";") {
		merged += ";"
	}
	if merged != "" {
		merged += " "
	}
	merged += strings.Join(toAdd, " ")
	node.Attrs.Set("style", merged)
}

func styleHasProp(styleLower, prop string) bool {
	idx := 0
	for {
		i := strings.Index(styleLower[idx:], prop)
		if i < 0 {
			return false
		}
		i += idx
		rest := styleLower[i+len(prop):]
		boundaryOK := i == 0 || styleLower[i-1] == ';' || styleLower[i-1] == ' '
		if boundaryOK && strings.HasPrefix(strings.TrimLeft(rest, " "), ":") {
			return true
		}
		idx = i + len(prop)
	}
}

// ExtractBodyFragment returns the content that should feed the pipeline: the
// body's children when a body element exists, otherwise everything outside
// doctype/html/head wrappers.
func ExtractBodyFragment(doc *Document) *Node {
	if body := doc.Body(); body != nil {
		return NewFragment(body.Children...)
	}
	frag := NewFragment()
	var collect func(n *Node)
	collect = func(n *Node) {
		for _, child := range n.Children {
			if child.Type == ElementNode {
				switch child.Tag {
				case "html":
					collect(child)
					continue
				case "head":
					continue
				}
			}
			if child.Type == RawNode && strings.HasPrefix(strings.ToLower(child.Data), "<!doctype") {
				continue
			}
			frag.Append(child)
		}
	}
	collect(doc.Root)
	return frag
}
