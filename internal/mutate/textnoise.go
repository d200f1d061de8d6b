package mutate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
)

var (
	entityRe      = regexp.MustCompile(`^&(?:[A-Za-z][A-Za-z0-9]+|#[0-9]+|#x[0-9A-Fa-f]+);`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	punctuationRe = regexp.MustCompile(`^[.,!?:;\-—()\[\]{}'"]$`)
)

// InjectStyleNoise wraps random runs of text in styled spans with visually
// negligible typographic jitter and shuffles attribute order on elements
// that carry several attributes. Text inside the skip list is untouched.
// Runs after synonym substitution so whole words still exist when the
// synonym engine needs them.
func InjectStyleNoise(src *entropy.Source, root *dom.Node, opts Opts) {
	styleNoiseWalk(src, root, opts)
}

func styleNoiseWalk(src *entropy.Source, n *dom.Node, opts Opts) {
	if n.Type != dom.ElementNode {
		return
	}
	shuffleAttrs(src, n)
	if dom.SkipTextInside[n.Tag] && n.Tag != "a" {
		return
	}

	var rebuilt []*dom.Node
	for _, child := range n.Children {
		if child.Type == dom.TextNode {
			normalized := whitespaceRe.ReplaceAllString(child.Data, " ")
			if strings.TrimSpace(normalized) == "" {
				rebuilt = append(rebuilt, child)
				continue
			}
			rebuilt = append(rebuilt, wrapTextChunked(src, normalized, opts)...)
			continue
		}
		styleNoiseWalk(src, child, opts)
		rebuilt = append(rebuilt, child)
	}
	n.Children = rebuilt
}

// shuffleAttrs reorders the attribute bag of elements with two or more
// attributes. Values and key casing are untouched; only declaration order
// moves, which is invisible to rendering.
func shuffleAttrs(src *entropy.Source, n *dom.Node) {
	if n.Attrs.Len() < 2 {
		return
	}
	attrs := n.Attrs.All()
	entropy.Shuffle(src, attrs)
	// Reordering distinct keys cannot introduce duplicates.
	_ = n.Attrs.SetAll(attrs)
}

type textToken struct {
	kind byte // 'w' whitespace, 'e' entity, 'c' char
	val  string
}

// tokenizeText splits raw text into whitespace runs, intact character
// entities, and single characters, so chunk boundaries never cut an entity
// in half.
func tokenizeText(text string) []textToken {
	var tokens []textToken
	for i := 0; i < len(text); {
		c := text[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			j := i + 1
			for j < len(text) && (text[j] == ' ' || text[j] == '\t' || text[j] == '\n' || text[j] == '\r') {
				j++
			}
			tokens = append(tokens, textToken{kind: 'w', val: text[i:j]})
			i = j
			continue
		}
		if c == '&' {
			if m := entityRe.FindString(text[i:]); m != "" {
				tokens = append(tokens, textToken{kind: 'e', val: m})
				i += len(m)
				continue
			}
		}
		// Step one rune, not one byte.
		size := 1
		for size < 4 && i+size < len(text) && text[i+size]&0xC0 == 0x80 {
			size++
		}
		tokens = append(tokens, textToken{kind: 'c', val: text[i : i+size]})
		i += size
	}
	return tokens
}

func styledSpan(src *entropy.Source, content string) *dom.Node {
	span := dom.NewElement("span")
	span.Attrs.Set("style", LetterStyle(src))
	span.Append(dom.NewText(content))
	return span
}

// wrapTextChunked converts one text run into a node list where random
// chunks of 2-6 characters (and occasionally whole words) are wrapped in
// spans carrying sub-visual style jitter. The concatenated text content is
// byte-identical to the input.
func wrapTextChunked(src *entropy.Source, text string, opts Opts) []*dom.Node {
	if strings.TrimSpace(text) == "" {
		return []*dom.Node{dom.NewText(text)}
	}

	if src.Maybe(opts.PerWordRate) {
		return wrapPerWord(src, text)
	}

	tokens := tokenizeText(text)
	var out []*dom.Node
	var plain strings.Builder
	flush := func() {
		if plain.Len() > 0 {
			out = append(out, dom.NewText(plain.String()))
			plain.Reset()
		}
	}

	for i := 0; i < len(tokens); {
		tok := tokens[i]

		if tok.kind == 'w' {
			plain.WriteString(tok.val)
			i++
			continue
		}

		if tok.kind == 'e' {
			if src.Maybe(opts.WrapChunkRate * 0.30) {
				flush()
				out = append(out, styledSpan(src, tok.val))
			} else {
				plain.WriteString(tok.val)
			}
			i++
			continue
		}

		startP := opts.WrapChunkRate
		if punctuationRe.MatchString(tok.val) {
			startP *= 0.35
		}
		if src.Maybe(startP) {
			length := src.Int(opts.ChunkLenMin, opts.ChunkLenMax)
			var chunk strings.Builder
			j := i
			for j < len(tokens) && j-i < length {
				if tokens[j].kind != 'c' {
					break
				}
				chunk.WriteString(tokens[j].val)
				j++
			}
			if chunk.Len() > 0 {
				flush()
				out = append(out, styledSpan(src, chunk.String()))
				i = j
				continue
			}
		}

		plain.WriteString(tok.val)
		i++
	}
	flush()
	return out
}

// wrapPerWord styles occasional whole words instead of character chunks.
func wrapPerWord(src *entropy.Source, text string) []*dom.Node {
	var out []*dom.Node
	var plain strings.Builder
	flush := func() {
		if plain.Len() > 0 {
			out = append(out, dom.NewText(plain.String()))
			plain.Reset()
		}
	}

	rest := text
	for len(rest) > 0 {
		loc := whitespaceRe.FindStringIndex(rest)
		var word, ws string
		if loc == nil {
			word, rest = rest, ""
		} else {
			word, ws = rest[:loc[0]], rest[loc[0]:loc[1]]
			rest = rest[loc[1]:]
		}
		if word != "" {
			if src.Maybe(0.28) {
				flush()
				out = append(out, styledSpan(src, word))
			} else {
				plain.WriteString(word)
			}
		}
		plain.WriteString(ws)
	}
	flush()
	return out
}

// LetterStyle returns an inline style with bounded, sub-visual jitter:
// font-size within 0.2%-0.8% of normal, letter-spacing in thousandths of an
// em, opacity no lower than 0.97, position offsets under an eighth of a
// pixel and rotation under a fifth of a degree.
func LetterStyle(src *entropy.Source) string {
	fs := src.Float(0.998, 1.008, 4)
	ls := src.Float(-0.008, 0.020, 4)
	op := 1.0
	if src.Maybe(0.14) {
		op = src.Float(0.970, 1.0, 3)
	}
	dy := 0.0
	if src.Maybe(0.12) {
		dy = src.Float(-0.12, 0.12, 3)
	}
	rot := 0.0
	if src.Maybe(0.05) {
		rot = src.Float(-0.20, 0.20, 3)
	}

	displayRule := "display:inline;"
	if src.Maybe(0.10) {
		displayRule = "display:inline-block;vertical-align:middle;"
	}
	whitespaceRule := ""
	if src.Maybe(0.12) {
		whitespaceRule = "white-space:nowrap;"
	}
	fontVariation := ""
	if src.Maybe(0.05) {
		fontVariation = fmt.Sprintf(`font-variation-settings:"wght" %d;`, src.Int(360, 640))
	}

	return fmt.Sprintf(
		"font-size:%gem;letter-spacing:%gem;opacity:%g;%sposition:relative;top:%gpx;%s%stransform:rotate(%gdeg);",
		fs, ls, op, fontVariation, dy, displayRule, whitespaceRule, rot)
}
