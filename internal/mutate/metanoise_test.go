package mutate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
)

func TestBuildMetaNoiseEmitsWellFormedTags(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		src := entropy.NewSeededSource(seed)
		tags := BuildMetaNoise(src, 4, 14)

		for _, tag := range tags {
			require.Equal(t, dom.RawNode, tag.Type)
			raw := tag.Data
			assert.True(t, strings.HasPrefix(raw, "<meta"), "got %q", raw)
			assert.True(t, strings.HasSuffix(raw, ">"), "got %q", raw)

			lower := strings.ToLower(raw)
			assert.Contains(t, lower, "content")
			hasIdentity := strings.Contains(lower, "name") ||
				strings.Contains(lower, "http-equiv") ||
				strings.Contains(lower, "property")
			assert.True(t, hasIdentity, "tag lacks an identifying attribute: %q", raw)

			// Each tag must parse as a lone meta element with intact values.
			doc := dom.MustParse(raw)
			meta := doc.Root.Find("meta")
			require.NotNil(t, meta, "unparsable meta tag %q", raw)
		}
	}
}

func TestBuildMetaNoiseCountStaysBounded(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		src := entropy.NewSeededSource(seed)
		tags := BuildMetaNoise(src, 4, 14)

		// Dedupe can shrink a draw and deliberate repeats can grow it, but
		// never past double the upper bound.
		assert.LessOrEqual(t, len(tags), 28, "seed %d emitted %d tags", seed, len(tags))
	}
}

func TestBuildMetaNoiseZeroBounds(t *testing.T) {
	src := entropy.NewSeededSource(1)
	assert.Empty(t, BuildMetaNoise(src, 0, 0))
}

func TestBuildMetaNoiseNeverEmitsViewportOrCharset(t *testing.T) {
	for seed := uint64(0); seed < 100; seed++ {
		src := entropy.NewSeededSource(seed)
		for _, tag := range BuildMetaNoise(src, 10, 14) {
			lower := strings.ToLower(tag.Data)
			assert.NotContains(t, lower, `"viewport"`)
			assert.NotContains(t, lower, "charset=")
			assert.NotContains(t, lower, `"refresh"`)
		}
	}
}

func TestMetaCatalogCoversAllKindsAndCategories(t *testing.T) {
	kinds := map[MetaKind]bool{}
	categories := map[string]bool{}
	for _, tpl := range MetaCatalog {
		kinds[tpl.Kind] = true
		categories[tpl.Category] = true
		if !tpl.TokenValue {
			assert.NotEmpty(t, tpl.Values, "template %q has no values", tpl.Name)
		}
	}
	assert.True(t, kinds[MetaName])
	assert.True(t, kinds[MetaHTTPEquiv])
	assert.True(t, kinds[MetaProperty])
	for _, cat := range []string{"seo", "social", "caching", "mobile", "privacy"} {
		assert.True(t, categories[cat], "missing category %s", cat)
	}
}

func TestRandomizeCasePreservesLetters(t *testing.T) {
	src := entropy.NewSeededSource(8)
	for i := 0; i < 200; i++ {
		out := randomizeCase(src, "Theme-Color")
		assert.Equal(t, "theme-color", strings.ToLower(out))
	}
}
