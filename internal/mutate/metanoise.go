package mutate

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
)

// MetaKind selects which identifying attribute a meta template uses.
type MetaKind uint8

const (
	MetaName MetaKind = iota
	MetaHTTPEquiv
	MetaProperty
)

func (k MetaKind) attr() string {
	switch k {
	case MetaHTTPEquiv:
		return "http-equiv"
	case MetaProperty:
		return "property"
	default:
		return "name"
	}
}

// MetaTemplate is one entry of the metanoise catalog: a tag name with a
// pool of plausible values, grouped by category.
type MetaTemplate struct {
	Kind     MetaKind
	Name     string
	Category string
	Values   []string
	// TokenValue templates generate a fresh hex token instead of picking
	// from Values (site-verification style entries).
	TokenValue bool
}

// MetaCatalog is the static pool of meta-tag templates, grouped across the
// SEO, social, caching, mobile, and privacy categories. Deliberately absent:
// viewport (the shell declares the real one), charset, and http-equiv
// refresh (navigates, so it is not inert noise).
var MetaCatalog = []MetaTemplate{
	// SEO
	{Kind: MetaName, Name: "application-name", Category: "seo", Values: []string{"Reader", "Letterbox", "HTML Shell", "DocFrame"}},
	{Kind: MetaName, Name: "generator", Category: "seo", Values: []string{"static-maker", "markup-crafter", "scribe-bundle", "shell-press"}},
	{Kind: MetaName, Name: "author", Category: "seo", Values: []string{"layout", "markup", "builder", "compose", "assembler"}},
	{Kind: MetaName, Name: "keywords", Category: "seo", Values: []string{"letters", "content", "layout", "wrapper", "document", "reader"}},
	{Kind: MetaName, Name: "description", Category: "seo", Values: []string{"Document shell", "Layout wrapper", "Content frame", "Minimal placeholder", "Reader scaffold"}},
	{Kind: MetaName, Name: "robots", Category: "seo", Values: []string{"index, follow", "noindex, nofollow", "noarchive", "nosnippet", "index, nofollow"}},
	{Kind: MetaName, Name: "rating", Category: "seo", Values: []string{"General", "Safe", "Clean", "Everyone"}},
	{Kind: MetaName, Name: "distribution", Category: "seo", Values: []string{"Global", "Worldwide", "Public", "Internal"}},
	{Kind: MetaName, Name: "application-category", Category: "seo", Values: []string{"productivity", "utilities", "documentation", "offline-viewer", "notes"}},
	{Kind: MetaName, Name: "google-site-verification", Category: "seo", TokenValue: true},
	{Kind: MetaName, Name: "msvalidate.01", Category: "seo", TokenValue: true},
	{Kind: MetaName, Name: "yandex-verification", Category: "seo", TokenValue: true},

	// Social
	{Kind: MetaProperty, Name: "og:type", Category: "social", Values: []string{"document", "article", "page", "website", "profile"}},
	{Kind: MetaProperty, Name: "og:locale", Category: "social", Values: []string{"en_US", "en_GB", "fr_FR", "de_DE", "es_ES"}},
	{Kind: MetaProperty, Name: "og:site_name", Category: "social", Values: []string{"Document Shell", "Layout Frame", "Content Panel", "Shell Stack"}},
	{Kind: MetaProperty, Name: "og:title", Category: "social", Values: []string{"Doc Shell", "Content Wrapper", "Frame_View", "Layout-Panel", "Reader Shell"}},
	{Kind: MetaProperty, Name: "og:description", Category: "social", Values: []string{"Minimal placeholder", "Layout shell", "Content summary", "document wrapper preview"}},
	{Kind: MetaProperty, Name: "og:determiner", Category: "social", Values: []string{"the", "a", "an"}},
	{Kind: MetaProperty, Name: "twitter:site", Category: "social", Values: []string{"@shell_app", "@DocFrame", "@LayoutViewer", "@frame_app"}},
	{Kind: MetaProperty, Name: "twitter:title", Category: "social", Values: []string{"Doc Shell", "Content Wrapper", "Frame_View", "Layout-Panel"}},
	{Kind: MetaProperty, Name: "twitter:description", Category: "social", Values: []string{"document shell preview", "layout frame - v1", "frame builder beta", "document scaffold"}},
	{Kind: MetaProperty, Name: "al:ios:app_name", Category: "social", Values: []string{"Shell Viewer", "Doc Frame"}},
	{Kind: MetaProperty, Name: "al:android:package", Category: "social", Values: []string{"com.fp.less.shell", "com.fp.less.frame"}},
	{Kind: MetaName, Name: "facebook-domain-verification", Category: "social", TokenValue: true},

	// Caching
	{Kind: MetaHTTPEquiv, Name: "cache-control", Category: "caching", Values: []string{"no-cache", "max-age=0", "no-store", "max-age=300, must-revalidate", "private, max-age=60, stale-while-revalidate=30"}},
	{Kind: MetaHTTPEquiv, Name: "pragma", Category: "caching", Values: []string{"no-cache", "public"}},
	{Kind: MetaHTTPEquiv, Name: "expires", Category: "caching", Values: []string{"0", "Mon, 01 Jan 1990 00:00:00 GMT", "-1"}},
	{Kind: MetaHTTPEquiv, Name: "x-dns-prefetch-control", Category: "caching", Values: []string{"on", "off"}},
	{Kind: MetaHTTPEquiv, Name: "default-style", Category: "caching", Values: []string{"base", "clean", "main", "reader"}},
	{Kind: MetaHTTPEquiv, Name: "content-language", Category: "caching", Values: []string{"en", "en-US", "en-GB", "fr", "de", "es"}},
	{Kind: MetaHTTPEquiv, Name: "imagetoolbar", Category: "caching", Values: []string{"no", "yes"}},

	// Mobile
	{Kind: MetaName, Name: "theme-color", Category: "mobile", Values: []string{"#f8f8f8", "#ffffff", "#111111", "#f3f3f3", "#0f172a"}},
	{Kind: MetaName, Name: "format-detection", Category: "mobile", Values: []string{"telephone=no", "date=no", "email=no"}},
	{Kind: MetaName, Name: "apple-mobile-web-app-title", Category: "mobile", Values: []string{"DocShell", "ReaderFrame", "Shell-View", "Frame_Viewer"}},
	{Kind: MetaName, Name: "apple-mobile-web-app-capable", Category: "mobile", Values: []string{"yes", "no", "minimal-ui"}},
	{Kind: MetaName, Name: "apple-mobile-web-app-status-bar-style", Category: "mobile", Values: []string{"default", "black", "black-translucent"}},
	{Kind: MetaName, Name: "msapplication-TileColor", Category: "mobile", Values: []string{"#2b5797", "#0b3d91", "#111827", "#f3f4f6"}},
	{Kind: MetaName, Name: "msapplication-config", Category: "mobile", Values: []string{"/browserconfig.xml", "none", "about:blank"}},
	{Kind: MetaName, Name: "mobileoptimized", Category: "mobile", Values: []string{"320", "375", "414"}},
	{Kind: MetaName, Name: "handheldfriendly", Category: "mobile", Values: []string{"true", "yes"}},
	{Kind: MetaName, Name: "manifest", Category: "mobile", Values: []string{"/manifest.json", "./static/manifest.webmanifest", "manifest.webmanifest"}},
	{Kind: MetaName, Name: "application-version", Category: "mobile", Values: []string{"1.0", "1.2.3", "2024.04", "0.9.0-beta"}},
	{Kind: MetaName, Name: "build-id", Category: "mobile", TokenValue: true},

	// Privacy
	{Kind: MetaName, Name: "referrer", Category: "privacy", Values: []string{"no-referrer", "origin", "same-origin", "strict-origin-when-cross-origin", "no-referrer-when-downgrade"}},
	{Kind: MetaName, Name: "color-scheme", Category: "privacy", Values: []string{"light dark", "only light", "light", "dark"}},
	{Kind: MetaHTTPEquiv, Name: "x-content-type-options", Category: "privacy", Values: []string{"nosniff", "NoSniff"}},
	{Kind: MetaHTTPEquiv, Name: "referrer", Category: "privacy", Values: []string{"strict-origin", "same-origin", "origin-when-cross-origin", "no-referrer"}},
}

var (
	nameTemplates      []MetaTemplate
	httpEquivTemplates []MetaTemplate
	propertyTemplates  []MetaTemplate
)

func init() {
	for _, t := range MetaCatalog {
		switch t.Kind {
		case MetaHTTPEquiv:
			httpEquivTemplates = append(httpEquivTemplates, t)
		case MetaProperty:
			propertyTemplates = append(propertyTemplates, t)
		default:
			nameTemplates = append(nameTemplates, t)
		}
	}
}

// BuildMetaNoise draws a bounded batch of noise meta tags from the catalog.
// Tags are emitted as raw nodes so the entropy in key casing, attribute
// order, and whitespace around "=" survives serialization. Duplicate
// (kind, name) pairs are suppressed except for a bounded chance of
// deliberate repetition mimicking authored irregularity.
func BuildMetaNoise(src *entropy.Source, minCount, maxCount int) []*dom.Node {
	n := src.Int(minCount, maxCount)
	seen := make(map[[2]string]bool)
	var tags []*dom.Node

	for i := 0; i < n; i++ {
		var tpl MetaTemplate
		switch {
		case src.Maybe(0.22):
			tpl = entropy.Pick(src, propertyTemplates)
		case src.Maybe(0.18):
			tpl = entropy.Pick(src, httpEquivTemplates)
		default:
			tpl = entropy.Pick(src, nameTemplates)
		}

		key := [2]string{tpl.Kind.attr(), strings.ToLower(tpl.Name)}
		if seen[key] && !src.Maybe(0.45) {
			continue
		}

		var content string
		if tpl.TokenValue {
			content = entropy.Token(src.Int(20, 24))
		} else {
			content = entropy.Pick(src, tpl.Values)
		}
		if src.Maybe(0.30) {
			content = content + "-" + src.Hex(6)
		}

		name := tpl.Name
		if tpl.Kind == MetaName && src.Maybe(0.20) && !strings.HasPrefix(name, "x-") {
			name = "x-" + name
		}
		if src.Maybe(0.12) {
			name = randomizeCase(src, name)
		}
		content = formatMetaContent(src, content)

		tags = append(tags, buildMetaTag(src, tpl.Kind.attr(), name, content))
		if src.Maybe(0.22) {
			tags = append(tags, buildMetaTag(src, tpl.Kind.attr(), name, content))
		}
		seen[key] = true
	}
	return tags
}

// randomizeCase applies one of a few casing disguises to a token.
func randomizeCase(src *entropy.Source, text string) string {
	switch {
	case src.Maybe(0.12):
		return strings.ToUpper(text)
	case src.Maybe(0.12):
		return strings.ToLower(text)
	case src.Maybe(0.10):
		var b strings.Builder
		for _, r := range text {
			if src.Maybe(0.5) {
				b.WriteString(strings.ToUpper(string(r)))
			} else {
				b.WriteString(strings.ToLower(string(r)))
			}
		}
		return b.String()
	default:
		return text
	}
}

// formatMetaContent perturbs list separators, padding, and casing of a meta
// value without changing what it communicates.
func formatMetaContent(src *entropy.Source, content string) string {
	value := content
	tokens := strings.Fields(strings.NewReplacer(",", " ", ";", " ").Replace(value))
	if len(tokens) > 1 && src.Maybe(0.35) {
		sep := entropy.Pick(src, []string{", ", ",", "; ", ";"})
		value = strings.Join(tokens, sep)
	}
	if src.Maybe(0.18) {
		value = strings.ReplaceAll(value, "=", " = ")
	}
	value = randomizeCase(src, value)
	if src.Maybe(0.20) {
		value = " " + value
	}
	if src.Maybe(0.20) {
		value = value + " "
	}
	return value
}

func formatAttributePair(src *entropy.Source, key, value string) string {
	label := key
	if src.Maybe(0.22) {
		label = randomizeCase(src, label)
	}
	leftPad, rightPad := "", ""
	if src.Maybe(0.14) {
		leftPad = " "
	}
	if src.Maybe(0.14) {
		rightPad = " "
	}
	return label + leftPad + "=" + rightPad + `"` + html.EscapeString(value) + `"`
}

func buildMetaTag(src *entropy.Source, attrName, name, content string) *dom.Node {
	contentKey := "content"
	if src.Maybe(0.15) {
		contentKey = entropy.Pick(src, []string{"content", "Content"})
	}
	pairs := []string{
		formatAttributePair(src, attrName, name),
		formatAttributePair(src, contentKey, content),
	}
	if src.Maybe(0.28) {
		entropy.Shuffle(src, pairs)
	}

	sep := entropy.Pick(src, []string{" ", "  ", "   "})
	prefix := " "
	if src.Maybe(0.35) {
		prefix = entropy.Pick(src, []string{" ", "  "})
	}
	closingPad := ""
	if src.Maybe(0.25) {
		closingPad = " "
	}
	closing := entropy.Pick(src, []string{"/>", " />", ">", " >"})

	return dom.NewRaw("<meta" + prefix + strings.Join(pairs, sep) + closingPad + closing)
}
