package mutate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
)

// SynonymMap holds groups of mutually interchangeable words with compiled
// matching patterns. A nil or empty map makes the swap stage a no-op.
type SynonymMap struct {
	groups   [][]string
	patterns []*regexp.Regexp
}

// ParseSynonymLines builds a SynonymMap from pipe-separated lines
// ("wordA | wordB | wordC"). Lines with fewer than two usable terms are
// skipped. A term containing markup-significant characters makes the whole
// map invalid, since substituting it could corrupt the document.
func ParseSynonymLines(lines []string) (*SynonymMap, error) {
	m := &SynonymMap{}
	for _, line := range lines {
		var terms []string
		for _, part := range strings.Split(line, "|") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.ContainsAny(part, "<>&") {
				return nil, fmt.Errorf("synonym term %q contains markup characters", part)
			}
			terms = append(terms, part)
		}
		if len(terms) < 2 {
			continue
		}
		m.groups = append(m.groups, terms)

		escaped := make([]string, len(terms))
		for i, t := range terms {
			escaped[i] = regexp.QuoteMeta(t)
		}
		// Longest alternative first so overlapping terms match greedily.
		sort.Slice(escaped, func(i, j int) bool { return len(escaped[i]) > len(escaped[j]) })
		pattern, err := regexp.Compile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("compiling synonym pattern for %q: %w", line, err)
		}
		m.patterns = append(m.patterns, pattern)
	}
	return m, nil
}

// Empty reports whether the map has no usable groups.
func (m *SynonymMap) Empty() bool {
	return m == nil || len(m.groups) == 0
}

// Groups returns the parsed synonym groups.
func (m *SynonymMap) Groups() [][]string {
	if m == nil {
		return nil
	}
	return m.groups
}

// ApplySynonyms swaps matched words for uniformly chosen alternates from
// the same group, preserving the original capitalization pattern and all
// surrounding text. Text inside script, style, textarea, code and pre is
// never rewritten.
func ApplySynonyms(src *entropy.Source, root *dom.Node, m *SynonymMap) {
	if m.Empty() {
		return
	}
	applySynonymsWalk(src, root, m)
}

func applySynonymsWalk(src *entropy.Source, n *dom.Node, m *SynonymMap) {
	if n.Type != dom.ElementNode {
		return
	}
	if skipsTextMutation(n.Tag) {
		return
	}
	for _, child := range n.Children {
		if child.Type == dom.TextNode {
			child.Data = m.replace(src, child.Data)
			continue
		}
		applySynonymsWalk(src, child, m)
	}
}

// skipsTextMutation mirrors the skip list for text rewriting. Anchor text
// is still processed: link labels are regular prose here, only their href
// targets are untouchable and those live in attributes.
func skipsTextMutation(tag string) bool {
	switch tag {
	case "script", "style", "textarea", "code", "pre":
		return true
	}
	return false
}

func (m *SynonymMap) replace(src *entropy.Source, text string) string {
	updated := text
	for i, pattern := range m.patterns {
		group := m.groups[i]
		updated = pattern.ReplaceAllStringFunc(updated, func(match string) string {
			return matchCasing(match, entropy.Pick(src, group))
		})
	}
	return updated
}

// matchCasing shapes the replacement to the matched token's capitalization:
// all-caps, title case, lowercase, or verbatim for mixed casings.
func matchCasing(match, replacement string) string {
	switch {
	case isAllUpper(match):
		return strings.ToUpper(replacement)
	case isAllLower(match):
		return strings.ToLower(replacement)
	case isTitle(match):
		return titleCase(replacement)
	default:
		return replacement
	}
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func isAllLower(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func isTitle(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if unicode.IsLetter(r) && !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
