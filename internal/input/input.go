// Package input is the decode shim in front of the pipeline: it reads raw
// bytes and produces decoded HTML text, falling back through a fixed chain
// of legacy encodings when the declared one fails.
package input

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ErrUndecodable marks input that failed to decode under the declared
// encoding and every fallback. Fatal for that input only; a batch run
// continues with its remaining files.
var ErrUndecodable = errors.New("input undecodable under configured encodings")

// FallbackEncodings is tried in order after the declared encoding fails.
var FallbackEncodings = []string{"latin-1", "windows-1252"}

var fallbackCharmaps = map[string]*charmap.Charmap{
	"latin-1":      charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
}

// ReadFile reads and decodes one input document.
func ReadFile(path, declaredEncoding string, logger *zap.Logger) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(data, declaredEncoding, logger.With(zap.String("path", path)))
}

// Decode converts raw bytes to text using the declared encoding, then the
// fallback chain. Only exhaustion of the chain is an error.
func Decode(data []byte, declaredEncoding string, logger *zap.Logger) (string, error) {
	declared := strings.ToLower(strings.TrimSpace(declaredEncoding))
	if declared == "" {
		declared = "utf-8"
	}

	text, err := decodeAs(data, declared)
	if err == nil {
		return text, nil
	}
	firstErr := err

	for _, name := range FallbackEncodings {
		if name == declared {
			continue
		}
		logger.Warn("Decode failed, retrying with fallback encoding",
			zap.String("declared", declared),
			zap.String("fallback", name),
			zap.Error(err))
		text, err = decodeAs(data, name)
		if err == nil {
			return text, nil
		}
	}

	return "", fmt.Errorf("%w: declared %q (%v), fallbacks %s",
		ErrUndecodable, declared, firstErr, strings.Join(FallbackEncodings, ", "))
}

func decodeAs(data []byte, name string) (string, error) {
	switch name {
	case "utf-8", "utf8":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid utf-8 byte sequence")
		}
		return string(data), nil
	}

	var enc encoding.Encoding
	if cm, ok := fallbackCharmaps[name]; ok {
		enc = cm
	} else {
		var err error
		enc, err = htmlindex.Get(name)
		if err != nil {
			return "", fmt.Errorf("unknown encoding %q: %w", name, err)
		}
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decoding as %q: %w", name, err)
	}
	return string(out), nil
}

// ReadLines reads a small auxiliary text file (such as a synonym map) as
// trimmed, non-empty lines.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
