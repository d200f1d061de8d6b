package mutate

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
)

// Font stacks resolve to visually interchangeable system families; the
// stack choice varies the stylesheet bytes, not the rendered shape, on any
// machine that only has the common fallbacks installed.
var fontStacks = []string{
	`system-ui, -apple-system, "Segoe UI", Roboto, Arial, sans-serif`,
	`ui-sans-serif, system-ui, -apple-system, "Segoe UI", "Helvetica Neue", Arial, sans-serif`,
	`"Iowan Old Style", "Palatino Linotype", Palatino, "Book Antiqua", "Times New Roman", serif`,
	`Georgia, 'Times New Roman', Times, serif`,
	`ui-serif, "New York", "Times New Roman", serif`,
	`ui-monospace, "SFMono-Regular", Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace`,
	`"Montserrat", "Avenir Next", "Segoe UI", "Helvetica Neue", sans-serif`,
	`"Oswald", "Roboto Condensed", "Helvetica Condensed", "Arial Narrow", sans-serif`,
	`"Noto Sans CJK SC", "PingFang SC", "Hiragino Sans GB", "Microsoft YaHei", sans-serif`,
	`"Noto Sans Arabic", "Segoe UI", "Arial", sans-serif`,
}

// Near-identical text and background palettes; neighbors differ by a
// perceptual delta well under what a reader notices.
var (
	lightTextColors = []string{"#0f0f0f", "#111", "#121212", "#171717", "#1c1d1f", "#202124", "#242628", "#2c2f33", "#32363c"}
	lightBGColors   = []string{"#fff", "#fefefe", "#fcfcfc", "#faf9f7", "#f7f8fb", "#f5f7f9", "#f4f5f1", "#f2f4f6", "#eef0f3", "#edeef0"}
	darkTextColors  = []string{"#e5e7eb", "#f3f4f6", "#cbd5e1", "#f8fafc"}
	darkBGColors    = []string{"#0b1220", "#0f172a", "#111827", "#0d1117", "#13151a", "#161b22"}
)

type gradient struct {
	kind  string
	c1    string
	c2    string
	angle int
}

var lightGradients = []gradient{
	{"linear", "#fefefe", "#f7f8fb", 135},
	{"linear", "#fcfcfc", "#f5f6f8", 165},
	{"linear", "#faf9f7", "#f2f3f5", 95},
	{"linear", "#f9fbff", "#f1f3f8", 200},
	{"radial", "#f8f9fb", "#f2f4f6", 0},
	{"radial", "#fdfcfb", "#f4f4f6", 0},
}

var darkGradients = []gradient{
	{"linear", "#0b1220", "#0f172a", 135},
	{"linear", "#0f172a", "#1e293b", 160},
	{"linear", "#111827", "#0d1117", 95},
	{"radial", "#0d1117", "#1f2937", 0},
}

// StyleSheet carries the randomized per-variant CSS blocks the document
// shell embeds in its <style> element.
type StyleSheet struct {
	Body    string
	Wrapper string
	Extra   string
}

// RandomStyleSheet draws a fresh body/wrapper stylesheet: font stack,
// bounded typography jitter, palette-constrained colors, and an occasional
// background gradient. All values stay inside ranges that keep the page
// visually equivalent across variants.
func RandomStyleSheet(src *entropy.Source) StyleSheet {
	fontSize := src.Float(13.2, 17.4, 2)
	if src.Maybe(0.12) {
		fontSize = src.Float(11.5, 20.5, 2)
	}
	lineHeight := src.Float(1.22, 1.78, 3)
	if src.Maybe(0.14) {
		lineHeight = src.Float(1.05, 2.10, 3)
	}
	letterSpacing := src.Float(-0.024, 0.048, 4)
	wordSpacing := src.Float(-0.030, 0.180, 4)

	dark := src.Maybe(0.24)
	textColors, bgColors, gradients := lightTextColors, lightBGColors, lightGradients
	if dark {
		textColors, bgColors, gradients = darkTextColors, darkBGColors, darkGradients
	}

	var body strings.Builder
	fmt.Fprintf(&body, "margin:0;font-family:%s;", entropy.Pick(src, fontStacks))
	fmt.Fprintf(&body, "font-size:%gpx;line-height:%g;", fontSize, lineHeight)
	fmt.Fprintf(&body, "letter-spacing:%gem;word-spacing:%gem;", letterSpacing, wordSpacing)
	fmt.Fprintf(&body, "color:%s;background-color:%s;", entropy.Pick(src, textColors), entropy.Pick(src, bgColors))
	if src.Maybe(0.30) {
		g := entropy.Pick(src, gradients)
		if g.kind == "linear" {
			fmt.Fprintf(&body, "background-image:linear-gradient(%ddeg, %s 0%%, %s 100%%);", g.angle, g.c1, g.c2)
		} else {
			origin := entropy.Pick(src, []string{"20% 20%", "80% 15%", "50% 40%"})
			fmt.Fprintf(&body, "background-image:radial-gradient(circle at %s, %s 0%%, %s 70%%);", origin, g.c1, g.c2)
		}
	}
	if src.Maybe(0.12) {
		fmt.Fprintf(&body, "opacity:%g;", src.Float(0.985, 1.0, 3))
	}

	var wrapper strings.Builder
	fmt.Fprintf(&wrapper, "max-width:%gpx;margin:%gpx auto;padding:%gpx;",
		src.Float(640.0, 920.0, 2), src.Float(6.0, 22.0, 2), src.Float(8.0, 24.0, 2))
	if src.Maybe(0.35) {
		fmt.Fprintf(&wrapper, "box-sizing:%s;", entropy.Pick(src, []string{"border-box", "content-box"}))
	}

	var extra strings.Builder
	if src.Maybe(0.55) {
		fmt.Fprintf(&extra, "h1,h2,h3{font-family:%s;}", entropy.Pick(src, fontStacks))
	}
	if src.Maybe(0.50) {
		fmt.Fprintf(&extra, "code,pre{font-family:%s;}", entropy.Pick(src, fontStacks))
	}
	if src.Maybe(0.35) {
		fmt.Fprintf(&extra, "p{margin:%gpx 0 %gpx 0;}", src.Float(4.0, 14.0, 2), src.Float(4.0, 14.0, 2))
	}

	return StyleSheet{Body: body.String(), Wrapper: wrapper.String(), Extra: extra.String()}
}

// NoiseDivs produces up to nmax invisible spacer divs: zero-content,
// aria-hidden, with sub-9px dimensions that cannot displace real content.
func NoiseDivs(src *entropy.Source, nmax int) []*dom.Node {
	if nmax < 0 {
		nmax = 0
	}
	n := src.Int(0, nmax)
	divs := make([]*dom.Node, 0, n)
	for i := 0; i < n; i++ {
		div := dom.NewElement("div")
		div.Attrs.Set("aria-hidden", "true")
		div.Attrs.Set("style", fmt.Sprintf("height:%gpx;margin:%gpx 0 %gpx 0;max-width:%gpx;",
			src.Float(0.0, 8.5, 2), src.Float(0.0, 8.5, 2), src.Float(0.0, 8.5, 2), src.Float(80.0, 180.0, 2)))
		divs = append(divs, div)
	}
	return divs
}
