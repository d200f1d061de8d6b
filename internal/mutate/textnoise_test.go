package mutate

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
	"github.com/xkilldash9x/fingerprintless-cli/internal/serialize"
)

var spaceRunRe = regexp.MustCompile(`\s+`)

func collapsedText(n *dom.Node) string {
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(n.Text(), " "))
}

func TestInjectStyleNoisePreservesText(t *testing.T) {
	opts := baseOpts()
	opts.WrapChunkRate = 0.5 // high rate to exercise wrapping heavily

	input := `<div><p>The quick brown fox jumps over the lazy dog.</p>` +
		`<p>Numbers 12345 and punctuation, too!</p></div>`
	want := collapsedText(dom.MustParse(input).Root)

	for seed := uint64(0); seed < 50; seed++ {
		doc := dom.MustParse(input)
		InjectStyleNoise(entropy.NewSeededSource(seed), doc.Root, opts)
		assert.Equal(t, want, collapsedText(doc.Root), "seed %d altered visible text", seed)
	}
}

// Minification must not swallow the word gaps that end up as standalone text
// nodes between consecutive styled spans.
func TestInjectStyleNoiseSurvivesMinification(t *testing.T) {
	opts := baseOpts()
	opts.WrapChunkRate = 1.0

	input := `<div><p>It went remarkably well for everyone involved.</p></div>`
	want := collapsedText(dom.MustParse(input).Root)

	for seed := uint64(0); seed < 50; seed++ {
		doc := dom.MustParse(input)
		InjectStyleNoise(entropy.NewSeededSource(seed), doc.Root, opts)
		serialize.MinifyDocument(doc)

		reparsed := dom.MustParse(serialize.RenderDocument(doc))
		assert.Equal(t, want, collapsedText(reparsed.Root), "seed %d lost a word gap", seed)
	}
}

func TestInjectStyleNoiseWrapsChunksInSpans(t *testing.T) {
	opts := baseOpts()
	opts.WrapChunkRate = 1.0
	opts.PerWordRate = 0

	doc := dom.MustParse(`<p>wrap every chunk of this sentence</p>`)
	InjectStyleNoise(entropy.NewSeededSource(3), doc.Root, opts)

	spans := 0
	doc.Root.Walk(func(n *dom.Node) bool {
		if n.Type == dom.ElementNode && n.Tag == "span" {
			spans++
			style, ok := n.Attrs.Get("style")
			require.True(t, ok)
			assert.Contains(t, style, "font-size:")
			assert.Contains(t, style, "letter-spacing:")
		}
		return true
	})
	assert.Greater(t, spans, 0, "a certain wrap rate must produce spans")
}

func TestInjectStyleNoiseKeepsEntitiesIntact(t *testing.T) {
	opts := baseOpts()
	opts.WrapChunkRate = 1.0

	input := `<p>ham &amp; eggs &copy; now</p>`
	want := collapsedText(dom.MustParse(input).Root)

	for seed := uint64(0); seed < 50; seed++ {
		doc := dom.MustParse(input)
		InjectStyleNoise(entropy.NewSeededSource(seed), doc.Root, opts)

		rendered := serialize.RenderDocument(doc)
		assert.NotContains(t, rendered, "&a</span>", "seed %d split an entity", seed)
		assert.Equal(t, want, collapsedText(dom.MustParse(rendered).Root))
	}
}

func TestInjectStyleNoiseSkipsProtectedElements(t *testing.T) {
	opts := baseOpts()
	opts.WrapChunkRate = 1.0

	input := `<div><pre>keep  this</pre><code>x = 1</code><a href="/y">label text</a></div>`
	for seed := uint64(0); seed < 20; seed++ {
		doc := dom.MustParse(input)
		InjectStyleNoise(entropy.NewSeededSource(seed), doc.Root, opts)

		pre := doc.Root.Find("pre")
		require.Len(t, pre.Children, 1)
		assert.Equal(t, "keep  this", pre.Children[0].Data)

		code := doc.Root.Find("code")
		require.Len(t, code.Children, 1)
		assert.Equal(t, dom.TextNode, code.Children[0].Type)
	}
}

func TestInjectStyleNoiseProcessesAnchorLabels(t *testing.T) {
	opts := baseOpts()
	opts.WrapChunkRate = 1.0

	// Anchor labels may gain styled spans, but their visible text must hold.
	doc := dom.MustParse(`<a href="/y">label text</a>`)
	InjectStyleNoise(entropy.NewSeededSource(9), doc.Root, opts)
	assert.Equal(t, "label text", doc.Root.Text())
}

func TestShuffleAttrsKeepsAllAttributes(t *testing.T) {
	input := `<div id="a" class="b" data-x="c" title="d">x</div>`
	for seed := uint64(0); seed < 20; seed++ {
		doc := dom.MustParse(input)
		InjectStyleNoise(entropy.NewSeededSource(seed), doc.Root, baseOpts())

		div := doc.Root.Find("div")
		require.Equal(t, 4, div.Attrs.Len())
		for _, key := range []string{"id", "class", "data-x", "title"} {
			assert.True(t, div.Attrs.Has(key))
		}
		v, _ := div.Attrs.Get("id")
		assert.Equal(t, "a", v, "values must survive reordering")
	}
}

func TestLetterStyleStaysSubVisual(t *testing.T) {
	src := entropy.NewSeededSource(31)
	fsRe := regexp.MustCompile(`font-size:([0-9.]+)em`)
	opRe := regexp.MustCompile(`opacity:([0-9.]+)`)

	for i := 0; i < 300; i++ {
		style := LetterStyle(src)

		m := fsRe.FindStringSubmatch(style)
		require.NotNil(t, m, "style %q lacks font-size", style)
		assert.GreaterOrEqual(t, parseFloat(t, m[1]), 0.998)
		assert.LessOrEqual(t, parseFloat(t, m[1]), 1.008)

		if om := opRe.FindStringSubmatch(style); om != nil {
			assert.GreaterOrEqual(t, parseFloat(t, om[1]), 0.97)
		}
	}
}

func parseFloat(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
	require.NoError(t, err)
	return v
}
