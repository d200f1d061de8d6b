// Package output is the write shim: it owns directory naming, filename
// prefixes for batch runs, and the actual file writes. The core pipeline
// hands it finished variant text and knows nothing about paths.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunDir returns the output directory for a run: the configured override if
// set, otherwise a timestamped "variants_<ts>" directory next to the cwd.
func RunDir(override string, now time.Time) string {
	if override != "" {
		return override
	}
	return "variants_" + now.Format("20060102_150405")
}

// PerInputDir returns a per-input output directory for batch runs that keep
// each input's variants separate.
func PerInputDir(base string, inputPath string) string {
	return base + "_" + stem(inputPath)
}

// Writer persists variants beneath one directory.
type Writer struct {
	dir string
}

// NewWriter creates the directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the writer's directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteVariant writes one finished variant.
func (w *Writer) WriteVariant(prefix string, idx int, html string) (string, error) {
	name := fmt.Sprintf("%svariant_%03d.html", prefix, idx)
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// FilenamePrefixes assigns a collision-free prefix per input path for batch
// runs sharing one output directory. Duplicate stems are disambiguated with
// the parent directory name, then a counter.
func FilenamePrefixes(paths []string) map[string]string {
	stemCounts := make(map[string]int, len(paths))
	for _, p := range paths {
		stemCounts[stem(p)]++
	}

	prefixSeen := make(map[string]int)
	prefixes := make(map[string]string, len(paths))
	for _, p := range paths {
		s := stem(p)
		var prefix string
		if stemCounts[s] == 1 {
			prefix = s + "_"
		} else {
			parent := sanitizeToken(filepath.Base(filepath.Dir(p)))
			prefix = s + "_" + parent + "_"
		}
		if n := prefixSeen[prefix]; n > 0 {
			prefixSeen[prefix] = n + 1
			prefix = fmt.Sprintf("%s%d_", prefix, n+1)
		} else {
			prefixSeen[prefix] = 1
		}
		prefixes[p] = prefix
	}
	return prefixes
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sanitizeToken(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	cleaned := strings.Trim(b.String(), "_")
	if cleaned == "" {
		return "input"
	}
	return cleaned
}
