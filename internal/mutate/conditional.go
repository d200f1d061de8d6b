package mutate

import (
	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
)

// Conditions that no modern browser evaluates. Payloads stay inert either
// way, so even a legacy renderer that honors them shows nothing.
var conditionalExprs = []string{
	"IE",
	"(IE)",
	"!false",
	"!(false)",
	"IE & !false",
}

var conditionalPayloads = []string{
	"",
	" ",
	"<span></span>",
	`<meta http-equiv="X-UA-Compatible" content="IE=edge">`,
}

// ConditionalComment builds one downlevel-hidden conditional comment with
// randomized keyword casing, bracket whitespace, and expression padding.
func ConditionalComment(src *entropy.Source) *dom.Node {
	expr := entropy.Pick(src, conditionalExprs)
	if src.Maybe(0.35) {
		expr = entropy.Pick(src, []string{" ", "  "}) + expr + entropy.Pick(src, []string{" ", "  "})
	}

	ifKw, endifKw := "if", "endif"
	if src.Maybe(0.30) {
		ifKw, endifKw = "IF", "ENDIF"
	} else if src.Maybe(0.20) {
		ifKw = randomizeCase(src, ifKw)
		endifKw = randomizeCase(src, endifKw)
	}

	openTag := "[" + ifKw + " " + expr + "]"
	closeTag := "[" + endifKw + "]"
	if src.Maybe(0.40) {
		pad := entropy.Pick(src, []string{" ", "  "})
		openTag = "[" + pad + ifKw + " " + expr + pad + "]"
		closeTag = "[" + pad + endifKw + pad + "]"
	}

	payload := entropy.Pick(src, conditionalPayloads)
	return dom.NewComment(openTag + ">" + payload + "<!" + closeTag)
}

// ConditionalNoiseBlock emits a run of one to three conditional comments,
// each independently included. Returns nothing when the feature is off.
func ConditionalNoiseBlock(src *entropy.Source, opts Opts) []*dom.Node {
	if !opts.IEConditionalComments {
		return nil
	}
	var out []*dom.Node
	for i, n := 0, src.Int(1, 3); i < n; i++ {
		if src.Maybe(0.65) {
			out = append(out, ConditionalComment(src))
		}
	}
	return out
}

// MSOFallbackComment wraps markup in an Outlook-targeted conditional so the
// table scaffolding only materializes in renderers that need it.
func MSOFallbackComment(src *entropy.Source, inner string) *dom.Node {
	expr := entropy.Pick(src, []string{"(mso)|(IE)", "mso", "(mso)", "gte mso 9"})
	return dom.NewComment("[if " + expr + "]>" + inner + "<![endif]")
}
