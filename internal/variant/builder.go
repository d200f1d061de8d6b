// Package variant assembles complete output documents. Each variant starts
// from the shared canonical content fragment, applies the randomized mutation
// stages to its own clone, and wraps the result in a freshly generated
// document shell (head metadata, stylesheet, body scaffolding).
package variant

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
	"github.com/xkilldash9x/fingerprintless-cli/internal/mutate"
	"github.com/xkilldash9x/fingerprintless-cli/internal/serialize"
)

// Builder produces variants of one input document. The canonical fragment is
// treated as read-only; every Build call clones it before mutating, so a
// single Builder may serve many workers concurrently.
type Builder struct {
	content  *dom.Node
	lang     string
	baseOpts mutate.Opts
	synonyms *mutate.SynonymMap
	logger   *zap.Logger
}

// NewBuilder wires a builder for the given normalized content fragment.
func NewBuilder(content *dom.Node, lang string, opts mutate.Opts, synonyms *mutate.SynonymMap, logger *zap.Logger) *Builder {
	if lang == "" {
		lang = "en"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		content:  content,
		lang:     lang,
		baseOpts: opts,
		synonyms: synonyms,
		logger:   logger,
	}
}

// Build generates one complete variant document and returns its HTML text.
// The entropy source must be owned exclusively by the caller for the duration
// of the call.
func (b *Builder) Build(src *entropy.Source) string {
	opts := b.baseOpts.Jitter(src)

	tree := b.content.Clone()
	mutate.RandomizeStructure(src, tree, opts)
	mutate.ApplySynonyms(src, tree, b.synonyms)
	mutate.InjectStyleNoise(src, tree, opts)

	sheet := mutate.RandomStyleSheet(src)
	wrapperClass := "c" + src.Hex(src.Int(8, 12))

	htmlEl := dom.NewElement("html")
	htmlEl.Attrs.Set("lang", b.lang)
	htmlEl.Append(
		b.buildHead(src, opts, sheet, wrapperClass),
		b.buildBody(src, opts, wrapperClass, tree),
	)

	doc := &dom.Document{Root: dom.NewFragment(doctypeNode(src), htmlEl)}
	serialize.MinifyDocument(doc)
	out := serialize.RenderDocument(doc)

	b.logger.Debug("Variant assembled",
		zap.Int("bytes", len(out)),
		zap.Int("nesting_depth", opts.EffectiveNesting))
	return out
}

// doctypeNode keeps the standard doctype but varies its keyword casing.
func doctypeNode(src *entropy.Source) *dom.Node {
	kw := entropy.Pick(src, []string{"DOCTYPE", "doctype", "Doctype"})
	return dom.NewRaw("<!" + kw + " html>")
}

// buildHead assembles the head: a leading charset declaration, the required
// rendering metas, the randomized title and stylesheet, decoy structured-data
// scripts, and noise meta tags spliced in at random positions.
func (b *Builder) buildHead(src *entropy.Source, opts mutate.Opts, sheet mutate.StyleSheet, wrapperClass string) *dom.Node {
	charset := dom.NewElement("meta")
	charset.Attrs.Set("charset", "utf-8")

	viewport := dom.NewElement("meta")
	viewport.Attrs.Set("name", "viewport")
	viewport.Attrs.Set("content", "width=device-width, initial-scale=1")

	appleReformat := dom.NewElement("meta")
	appleReformat.Attrs.Set("name", "x-apple-disable-message-reformatting")
	appleReformat.Attrs.Set("content", "yes")

	title := dom.NewElement("title")
	title.Append(dom.NewText(opts.TitlePrefix + src.Hex(12)))

	style := dom.NewElement("style")
	style.Append(dom.NewText(fmt.Sprintf("body{%s}.%s{%s}%s", sheet.Body, wrapperClass, sheet.Wrapper, sheet.Extra)))

	rest := []*dom.Node{viewport, appleReformat, title, style}
	rest = append(rest, mutate.BuildJSONLDScripts(src)...)
	for _, tag := range mutate.BuildMetaNoise(src, opts.MetaNoiseMin, opts.MetaNoiseMax) {
		idx := src.Int(0, len(rest))
		rest = append(rest[:idx], append([]*dom.Node{tag}, rest[idx:]...)...)
	}

	head := dom.NewElement("head")
	head.Append(charset)
	head.Append(rest...)
	return head
}

// buildBody wraps the mutated content in the styled wrapper element, a chain
// of inert nested wrappers, one of several body scaffolds, plus spacer divs
// and conditional-comment noise at randomized placements.
func (b *Builder) buildBody(src *entropy.Source, opts mutate.Opts, wrapperClass string, tree *dom.Node) *dom.Node {
	inner := wrapperChain(src, opts.EffectiveNesting, tree)

	wrapper := dom.NewElement("div")
	wrapper.Attrs.Set("class", wrapperClass)
	wrapper.Append(inner)

	spacers := mutate.NoiseDivs(src, opts.NoiseDivsMax)
	innerSpacers, outerSpacers := splitSpacers(src, spacers)
	if src.Maybe(0.5) {
		wrapper.Prepend(innerSpacers...)
	} else {
		wrapper.Append(innerSpacers...)
	}

	core := wrapper
	if src.Maybe(0.45) {
		extra := dom.NewElement("div")
		extra.Append(core)
		core = extra
	}

	body := dom.NewElement("body")
	body.Append(mutate.ConditionalNoiseBlock(src, opts)...)
	if src.Maybe(0.5) {
		body.Append(outerSpacers...)
		body.Append(bodyScaffold(src, opts, core)...)
	} else {
		body.Append(bodyScaffold(src, opts, core)...)
		body.Append(outerSpacers...)
	}
	body.Append(mutate.ConditionalNoiseBlock(src, opts)...)
	return body
}

func splitSpacers(src *entropy.Source, spacers []*dom.Node) (inner, outer []*dom.Node) {
	for _, s := range spacers {
		if src.Maybe(0.5) {
			inner = append(inner, s)
		} else {
			outer = append(outer, s)
		}
	}
	return inner, outer
}

// wrapperChain nests the content under depth layers of inert block wrappers,
// each with a generated class and harmless display and spacing jitter.
func wrapperChain(src *entropy.Source, depth int, content *dom.Node) *dom.Node {
	node := content
	for i := 0; i < depth; i++ {
		layer := dom.NewElement(entropy.Pick(src, []string{"div", "section", "div"}))
		layer.Attrs.Set("class", "l"+src.Hex(src.Int(6, 10)))
		display := entropy.Pick(src, []string{"block", "flow-root", "contents"})
		style := "display:" + display + ";"
		if display != "contents" && src.Maybe(0.6) {
			style += fmt.Sprintf("padding:%gpx;margin:%gpx 0;", src.Float(0, 2.5, 2), src.Float(0, 2.5, 2))
		}
		layer.Attrs.Set("style", style)
		layer.Append(node)
		node = layer
	}
	return node
}

// bodyScaffold picks one of the body layout templates. All of them render
// the core at full effective width; the table variants exist purely to vary
// the markup silhouette, styled so they impose no visible geometry. The
// Outlook fallback template needs conditional comments enabled.
func bodyScaffold(src *entropy.Source, opts mutate.Opts, core *dom.Node) []*dom.Node {
	choice := src.Int(0, 4)
	if choice == 2 && !opts.IEConditionalComments {
		choice = 1
	}
	switch choice {
	case 0:
		return []*dom.Node{core}
	case 1:
		return []*dom.Node{presentationTable(src, core)}
	case 2:
		open := mutate.MSOFallbackComment(src,
			`<table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr><td>`)
		closing := mutate.MSOFallbackComment(src, `</td></tr></table>`)
		return []*dom.Node{open, core, closing}
	case 3:
		full := dom.NewElement("div")
		full.Attrs.Set("style", "width:100%;")
		full.Append(core)
		return []*dom.Node{full}
	default:
		node := core
		for i, n := 0, src.Int(1, 2); i < n; i++ {
			layer := dom.NewElement("div")
			layer.Append(node)
			node = layer
		}
		return []*dom.Node{node}
	}
}

// presentationTable builds a single-cell full-width table scaffold. The
// collapse and zero-padding styles make it geometrically inert.
func presentationTable(src *entropy.Source, core *dom.Node) *dom.Node {
	td := dom.NewElement("td")
	td.Attrs.Set("style", "padding:0;")
	td.Append(core)

	tr := dom.NewElement("tr")
	tr.Append(td)

	table := dom.NewElement("table")
	table.Attrs.Set("role", "presentation")
	table.Attrs.Set("style", "width:100%;border-collapse:collapse;border-spacing:0;")
	if src.Maybe(0.4) {
		table.Attrs.Set("aria-hidden", "false")
	}
	table.Append(tr)
	return table
}
