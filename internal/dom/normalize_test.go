package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLegacyTable(t *testing.T) {
	doc := MustParse(`<table cellspacing="5" cellpadding="3" align="center" border="1" width="400">` +
		`<tr><td align="LEFT" valign="top" height="20">x</td></tr></table>`)
	NormalizeLegacyMarkup(doc.Root)

	table := doc.Root.Find("table")
	require.NotNil(t, table)
	for _, legacy := range []string{"cellspacing", "cellpadding", "align", "border", "width"} {
		assert.False(t, table.Attrs.Has(legacy), "legacy attribute %q should be removed", legacy)
	}

	style, ok := table.Attrs.Get("style")
	require.True(t, ok)
	assert.Contains(t, style, "border-spacing:5px;")
	assert.Contains(t, style, "border-collapse:separate;")
	assert.Contains(t, style, "border:1px solid;")
	assert.Contains(t, style, "margin-left:auto;")
	assert.Contains(t, style, "margin-right:auto;")
	assert.Contains(t, style, "width:400px;")

	td := doc.Root.Find("td")
	require.NotNil(t, td)
	assert.False(t, td.Attrs.Has("align"))
	assert.False(t, td.Attrs.Has("valign"))
	tdStyle, _ := td.Attrs.Get("style")
	assert.Contains(t, tdStyle, "padding:3px;")
	assert.Contains(t, tdStyle, "text-align:left;")
	assert.Contains(t, tdStyle, "vertical-align:top;")
	assert.Contains(t, tdStyle, "height:20px;")
}

func TestNormalizeCellpaddingStopsAtNestedTables(t *testing.T) {
	doc := MustParse(`<table cellpadding="6"><tr><td id="outer">` +
		`<table><tr><td id="inner">x</td></tr></table>` +
		`</td></tr></table>`)
	NormalizeLegacyMarkup(doc.Root)

	var outer, inner *Node
	doc.Root.Walk(func(n *Node) bool {
		if n.Type == ElementNode && n.Tag == "td" {
			switch id, _ := n.Attrs.Get("id"); id {
			case "outer":
				outer = n
			case "inner":
				inner = n
			}
		}
		return true
	})
	require.NotNil(t, outer)
	require.NotNil(t, inner)

	outerStyle, _ := outer.Attrs.Get("style")
	assert.Contains(t, outerStyle, "padding:6px;")
	assert.False(t, inner.Attrs.Has("style"), "inner cell must not inherit the outer cellpadding")
}

func TestNormalizeLegacyMarkupIsIdempotent(t *testing.T) {
	doc := MustParse(`<table cellspacing="5" cellpadding="3" align="center" border="1">` +
		`<tr><td>x</td></tr></table>`)
	NormalizeLegacyMarkup(doc.Root)
	first := doc.Root.Clone()

	NormalizeLegacyMarkup(doc.Root)

	style1, _ := first.Find("table").Attrs.Get("style")
	style2, _ := doc.Root.Find("table").Attrs.Get("style")
	assert.Equal(t, style1, style2, "second pass must not duplicate properties")
}

func TestNormalizeRespectsExistingStyle(t *testing.T) {
	doc := MustParse(`<table style="border-collapse:collapse" cellspacing="4"><tr><td>x</td></tr></table>`)
	NormalizeLegacyMarkup(doc.Root)

	style, _ := doc.Root.Find("table").Attrs.Get("style")
	assert.Contains(t, style, "border-collapse:collapse")
	assert.NotContains(t, style, "border-collapse:separate")
	assert.Contains(t, style, "border-spacing:4px;")
}

func TestNormalizeCenter(t *testing.T) {
	doc := MustParse(`<center>middle</center>`)
	NormalizeLegacyMarkup(doc.Root)

	assert.Nil(t, doc.Root.Find("center"))
	div := doc.Root.Find("div")
	require.NotNil(t, div)
	style, _ := div.Attrs.Get("style")
	assert.Contains(t, style, "text-align:center;")
	assert.Equal(t, "middle", div.Text())
}

func TestStripCommentsAndWhitespace(t *testing.T) {
	doc := MustParse("<div>\n  <!-- secret -->\n  <p>keep</p>\n</div><pre>  spaced  </pre>")
	Normalize(doc)

	div := doc.Root.Find("div")
	require.NotNil(t, div)
	require.Len(t, div.Children, 1, "comment and indentation nodes should be gone")
	assert.Equal(t, "p", div.Children[0].Tag)

	pre := doc.Root.Find("pre")
	require.NotNil(t, pre)
	assert.Equal(t, "  spaced  ", pre.Children[0].Data, "pre content is untouched")
}

func TestExtractBodyFragment(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		doc := MustParse(`<!DOCTYPE html><html><head><title>t</title></head><body><p>a</p><p>b</p></body></html>`)
		frag := ExtractBodyFragment(doc)

		require.Len(t, frag.Children, 2)
		assert.Equal(t, "ab", frag.Text())
		assert.Nil(t, frag.Find("title"))
	})

	t.Run("bare fragment", func(t *testing.T) {
		doc := MustParse(`<p>only</p>`)
		frag := ExtractBodyFragment(doc)

		require.Len(t, frag.Children, 1)
		assert.Equal(t, "only", frag.Text())
	})

	t.Run("headless html wrapper", func(t *testing.T) {
		doc := MustParse(`<!DOCTYPE html><html><p>inner</p></html>`)
		frag := ExtractBodyFragment(doc)

		assert.Equal(t, "inner", frag.Text())
		for _, child := range frag.Children {
			assert.NotEqual(t, RawNode, child.Type, "doctype must not leak into the fragment")
		}
	})
}

func TestCloneIsDeep(t *testing.T) {
	doc := MustParse(`<div class="a"><p>x</p></div>`)
	clone := doc.Clone()

	clone.Root.Find("p").Children[0].Data = "changed"
	clone.Root.Find("div").Attrs.Set("class", "b")

	assert.Equal(t, "x", doc.Root.Find("p").Text())
	v, _ := doc.Root.Find("div").Attrs.Get("class")
	assert.Equal(t, "a", v)
}
