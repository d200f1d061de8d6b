package mutate

import (
	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
)

var (
	wrapChildRate   = 0.03
	swapTagRate     = 0.04
	depthJitterRate = 0.02
)

// RandomizeStructure introduces semantics-preserving wrapper churn into the
// content tree: textless sibling wrappers swap places, random children gain
// a safe wrapper, bare div/section wrappers trade tags, and nested wrapper
// pairs swap their nesting order. Wraps are always fully contained within
// one parent's child list, so the tree stays balanced by construction, and
// the wrappers stacked onto any single child never exceed EffectiveNesting.
// No-op when structure randomization is disabled.
func RandomizeStructure(src *entropy.Source, root *dom.Node, opts Opts) {
	if !opts.StructureRandomize {
		return
	}
	mutateStructure(src, root, opts.EffectiveNesting)
}

// wrapBudget is the number of wrappers that may still be stacked onto the
// current position. Each wrap spends one unit before the walk descends into
// the fresh wrapper, so no position ever accumulates more than the budget.
func mutateStructure(src *entropy.Source, n *dom.Node, wrapBudget int) {
	if n.Type != dom.ElementNode || dom.SkipTextInside[n.Tag] {
		return
	}

	shuffleTextlessWrappers(src, n)

	for idx := 0; idx < len(n.Children); idx++ {
		child := n.Children[idx]
		if child.Type != dom.ElementNode {
			continue
		}
		childBudget := wrapBudget
		if childBudget >= 1 {
			if wrapped := maybeWrapChild(src, child); wrapped != child {
				n.Children[idx] = wrapped
				childBudget--
			}
		}
		maybeSwapNestingOrder(src, n, idx)
		maybeSwapWrapperTag(src, n.Children[idx])
		mutateStructure(src, n.Children[idx], childBudget)
	}
}

// isBareWrapper reports whether the node is an attribute-less safe wrapper.
func isBareWrapper(n *dom.Node) bool {
	if n.Type != dom.ElementNode || n.Attrs.Len() != 0 || n.SelfClosing {
		return false
	}
	for _, tag := range dom.SafeWrapperTags {
		if n.Tag == tag {
			return true
		}
	}
	return false
}

// isBlockWrapper is isBareWrapper restricted to the block-level tags, the
// only ones that may trade places without a rendering difference.
func isBlockWrapper(n *dom.Node) bool {
	return isBareWrapper(n) && (n.Tag == "div" || n.Tag == "section")
}

// shuffleTextlessWrappers permutes sibling safe wrappers that carry no text
// content. Wrappers with visible text keep their relative order so the
// rendered reading sequence never changes.
func shuffleTextlessWrappers(src *entropy.Source, n *dom.Node) {
	var indices []int
	for idx, child := range n.Children {
		if isBareWrapper(child) && len(child.Text()) == 0 {
			indices = append(indices, idx)
		}
	}
	if len(indices) < 2 {
		return
	}
	shuffled := make([]*dom.Node, len(indices))
	for i, idx := range indices {
		shuffled[i] = n.Children[idx]
	}
	entropy.Shuffle(src, shuffled)
	for i, idx := range indices {
		n.Children[idx] = shuffled[i]
	}
}

func maybeWrapChild(src *entropy.Source, child *dom.Node) *dom.Node {
	if dom.SkipTextInside[child.Tag] {
		return child
	}
	if !src.Maybe(wrapChildRate) {
		return child
	}
	wrapper := dom.NewElement(entropy.Pick(src, dom.SafeWrapperTags))
	wrapper.Append(child)
	return wrapper
}

// maybeSwapWrapperTag trades the tag of a bare block wrapper for the other
// block wrapper tag. Inline wrappers are left alone: swapping span for a
// block tag would change rendering.
func maybeSwapWrapperTag(src *entropy.Source, n *dom.Node) {
	if !isBlockWrapper(n) || !src.Maybe(swapTagRate) {
		return
	}
	if n.Tag == "div" {
		n.Tag = "section"
	} else {
		n.Tag = "div"
	}
}

// maybeSwapNestingOrder inverts a wrapper pair: a bare block wrapper whose
// only child is itself a bare block wrapper becomes the inner element.
func maybeSwapNestingOrder(src *entropy.Source, parent *dom.Node, idx int) {
	if !src.Maybe(depthJitterRate) {
		return
	}
	outer := parent.Children[idx]
	if !isBlockWrapper(outer) || len(outer.Children) != 1 {
		return
	}
	inner := outer.Children[0]
	if !isBlockWrapper(inner) {
		return
	}
	outer.Children = inner.Children
	inner.Children = []*dom.Node{outer}
	parent.Children[idx] = inner
}
