package variant

import (
	"regexp"
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/fingerprintless-cli/internal/config"
	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
	"github.com/xkilldash9x/fingerprintless-cli/internal/mutate"
)

const sampleInput = `<!DOCTYPE html>
<html lang="en">
<head><title>Original</title></head>
<body>
  <h1>Quarterly Letter</h1>
  <p>Dear reader, this quarter went <b>remarkably</b> well.</p>
  <p>Results improved by 14% against the prior period.</p>
  <ul><li>Revenue up</li><li>Costs down</li></ul>
  <a href="https://example.com/report">Full report</a>
</body>
</html>`

var spaceRunRe = regexp.MustCompile(`\s+`)

func collapse(s string) string {
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
}

func testOpts() mutate.Opts {
	return mutate.FromConfig(config.MutateConfig{
		Count:                 1,
		Encoding:              "utf-8",
		IEConditionalComments: true,
		StructureRandomize:    true,
		MaxNesting:            3,
		MaxNestingJitter:      0,
		WrapChunkRate:         0.1,
		ChunkLenMin:           2,
		ChunkLenMax:           6,
		PerWordRate:           0.01,
		NoiseDivsMax:          4,
		MetaNoiseMin:          4,
		MetaNoiseMax:          14,
		TitlePrefix:           "letter-",
	})
}

func newTestBuilder(t *testing.T, input string, opts mutate.Opts) *Builder {
	t.Helper()
	doc := dom.MustParse(input)
	dom.Normalize(doc)
	frag := dom.ExtractBodyFragment(doc)
	return NewBuilder(frag, doc.Lang(), opts, nil, zap.NewNop())
}

func TestBuildPreservesVisibleText(t *testing.T) {
	doc := dom.MustParse(sampleInput)
	dom.Normalize(doc)
	want := collapse(dom.ExtractBodyFragment(doc).Text())
	require.NotEmpty(t, want)

	b := newTestBuilder(t, sampleInput, testOpts())
	for seed := uint64(0); seed < 25; seed++ {
		html := b.Build(entropy.NewSeededSource(seed))
		out := dom.MustParse(html)
		body := out.Body()
		require.NotNil(t, body, "seed %d produced no body", seed)
		assert.Equal(t, want, collapse(body.Text()), "seed %d altered visible text", seed)
	}
}

func TestBuildProducesDistinctDocuments(t *testing.T) {
	b := newTestBuilder(t, sampleInput, testOpts())
	first := b.Build(entropy.NewSeededSource(1))
	second := b.Build(entropy.NewSeededSource(2))
	assert.NotEqual(t, first, second)
}

func TestBuildDocumentShell(t *testing.T) {
	b := newTestBuilder(t, sampleInput, testOpts())
	html := b.Build(entropy.NewSeededSource(3))

	doc, err := htmlquery.Parse(strings.NewReader(html))
	require.NoError(t, err)

	htmlEl := htmlquery.FindOne(doc, "//html")
	require.NotNil(t, htmlEl)
	assert.Equal(t, "en", htmlquery.SelectAttr(htmlEl, "lang"))

	assert.NotNil(t, htmlquery.FindOne(doc, "//head/meta[@charset]"))
	assert.NotNil(t, htmlquery.FindOne(doc, "//head/meta[@name='viewport']"))
	assert.NotNil(t, htmlquery.FindOne(doc,
		"//head/meta[@name='x-apple-disable-message-reformatting'][@content='yes']"))
	assert.NotNil(t, htmlquery.FindOne(doc, "//head/style"))
	assert.NotNil(t, htmlquery.FindOne(doc, "//body"))

	title := htmlquery.FindOne(doc, "//head/title")
	require.NotNil(t, title)
	assert.Regexp(t, `^letter-[0-9a-f]{12}$`, htmlquery.InnerText(title))
}

func TestBuildHeadCarriesNoiseMetas(t *testing.T) {
	b := newTestBuilder(t, sampleInput, testOpts())
	html := b.Build(entropy.NewSeededSource(4))

	doc, err := htmlquery.Parse(strings.NewReader(html))
	require.NoError(t, err)

	metas := htmlquery.Find(doc, "//head/meta")
	// charset + viewport + apple meta + at least one noise tag.
	assert.Greater(t, len(metas), 3)
}

func TestBuildWrapperChainDepth(t *testing.T) {
	opts := testOpts()
	opts.StructureRandomize = false
	b := newTestBuilder(t, sampleInput, opts)

	layerRe := regexp.MustCompile(`^l[0-9a-f]{6,10}$`)
	for seed := uint64(0); seed < 10; seed++ {
		html := b.Build(entropy.NewSeededSource(seed))
		out := dom.MustParse(html)

		layers := 0
		out.Root.Walk(func(n *dom.Node) bool {
			if n.Type == dom.ElementNode {
				if class, ok := n.Attrs.Get("class"); ok && layerRe.MatchString(class) {
					layers++
				}
			}
			return true
		})
		assert.Equal(t, opts.MaxNesting, layers, "seed %d wrapped at the wrong depth", seed)
	}
}

func TestBuildHonorsDisabledConditionalComments(t *testing.T) {
	opts := testOpts()
	opts.IEConditionalComments = false
	b := newTestBuilder(t, sampleInput, opts)

	for seed := uint64(0); seed < 25; seed++ {
		html := b.Build(entropy.NewSeededSource(seed))
		assert.NotContains(t, strings.ToLower(html), "endif", "seed %d emitted a conditional comment", seed)
	}
}

func TestBuildAppliesSynonyms(t *testing.T) {
	synonyms, err := mutate.ParseSynonymLines([]string{"remarkably | exceptionally"})
	require.NoError(t, err)

	doc := dom.MustParse(sampleInput)
	dom.Normalize(doc)
	frag := dom.ExtractBodyFragment(doc)
	b := NewBuilder(frag, "en", testOpts(), synonyms, zap.NewNop())

	seen := map[bool]bool{}
	for seed := uint64(0); seed < 40; seed++ {
		html := b.Build(entropy.NewSeededSource(seed))
		text := collapse(dom.MustParse(html).Root.Text())
		swapped := strings.Contains(text, "exceptionally")
		assert.True(t, swapped || strings.Contains(text, "remarkably"))
		seen[swapped] = true
	}
	assert.True(t, seen[true], "the alternate synonym should appear across seeds")
}

func TestBuildEmitsAssemblyLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	doc := dom.MustParse(sampleInput)
	dom.Normalize(doc)
	frag := dom.ExtractBodyFragment(doc)
	b := NewBuilder(frag, "en", testOpts(), nil, zap.New(core))

	html := b.Build(entropy.NewSeededSource(7))

	entries := logs.FilterMessage("Variant assembled").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, len(html), fields["bytes"])
	assert.Contains(t, fields, "nesting_depth")
}

func TestBuildDoesNotMutateCanonicalFragment(t *testing.T) {
	doc := dom.MustParse(sampleInput)
	dom.Normalize(doc)
	frag := dom.ExtractBodyFragment(doc)
	before := frag.Text()

	b := NewBuilder(frag, "en", testOpts(), nil, zap.NewNop())
	for seed := uint64(0); seed < 5; seed++ {
		_ = b.Build(entropy.NewSeededSource(seed))
	}
	assert.Equal(t, before, frag.Text())
}
