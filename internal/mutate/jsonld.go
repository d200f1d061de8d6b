package mutate

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
)

const jsonLDMaxBytes = 200

// forbiddenBrandRe rejects payloads that could be mistaken for real
// structured data about an actual organization.
var forbiddenBrandRe = regexp.MustCompile(`(?i)google|amazon|apple|microsoft|samsung|sony|nike|adidas|coca-cola|pepsi|tesla`)

var jsonLDURLRe = regexp.MustCompile(`https?://[^\s"']+`)

// jsonLDPool holds small inert payloads. None carries an @type or a
// schema.org context, all URLs point at reserved .invalid hosts, and every
// entry serializes well under the size cap.
var jsonLDPool = []map[string]any{
	{"note": "shell", "rev": 3},
	{"slot": "aside", "visible": false},
	{"cache": "warm", "ttl": 120},
	{"layer": "frame", "order": 2},
	{"panel": "reader", "cols": 1},
	{"ref": "https://example.invalid/frame", "tag": "outer"},
	{"src": "https://cdn.example.invalid/a.js", "defer": true},
	{"build": "local", "tier": "static"},
	{"group": "letters", "seq": 7},
	{"ping": "none", "idle": true},
}

// BuildJSONLDScripts emits zero to two inert ld+json script blocks as raw
// nodes, preserving the randomized separators and padding in their bodies.
// Every candidate body must pass the safety guardrails; a payload that fails
// after a handful of serialization retries is skipped entirely.
func BuildJSONLDScripts(src *entropy.Source) []*dom.Node {
	n := src.Int(0, 2)
	var scripts []*dom.Node
	for i := 0; i < n; i++ {
		payload := entropy.Pick(src, jsonLDPool)
		var body string
		for attempt := 0; attempt < 5; attempt++ {
			candidate := serializeShuffled(src, payload)
			if jsonLDSafe(candidate) {
				body = candidate
				break
			}
		}
		if body == "" {
			continue
		}
		scripts = append(scripts, dom.NewRaw(`<script type="application/ld+json">`+body+`</script>`))
	}
	return scripts
}

// serializeShuffled renders the payload with randomized key order, list and
// key-value separators, and up to two spaces of outer padding. The byte
// shape varies per call while the decoded value stays identical.
func serializeShuffled(src *entropy.Source, payload map[string]any) string {
	itemSep := entropy.Pick(src, []string{",", ", ", " ,", " , "})
	kvSep := entropy.Pick(src, []string{":", ": ", " :", " : "})

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	entropy.Shuffle(src, keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strconv.Quote(k)+kvSep+jsonScalar(payload[k]))
	}

	pad := strings.Repeat(" ", src.Int(0, 2))
	return pad + "{" + strings.Join(parts, itemSep) + "}" + pad
}

func jsonScalar(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

// jsonLDSafe enforces the decoy guardrails: valid JSON, bounded size, no
// structured-data type markers, no brand strings, and only .invalid hosts.
func jsonLDSafe(body string) bool {
	trimmed := strings.TrimSpace(body)
	if len(body) > jsonLDMaxBytes || !json.Valid([]byte(trimmed)) {
		return false
	}
	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, `"@type"`) || strings.Contains(lower, "schema.org") {
		return false
	}
	if forbiddenBrandRe.MatchString(trimmed) {
		return false
	}
	for _, u := range jsonLDURLRe.FindAllString(trimmed, -1) {
		host := u[strings.Index(u, "//")+2:]
		if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
			host = host[:idx]
		}
		if !strings.HasSuffix(host, ".invalid") {
			return false
		}
	}
	return true
}
