// Package entropy provides the bounded randomness primitives used by every
// mutation stage. Each variant owns one independent Source; sources are never
// shared across variants, which keeps parallel generation free of locking and
// cross-variant correlation.
package entropy

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Source wraps a PRNG with the small set of operations the mutators need.
// It is not safe for concurrent use; hand one Source to one variant.
type Source struct {
	rng *rand.Rand
}

// NewSource returns an independently seeded Source.
func NewSource() *Source {
	var seed [32]byte
	u := uuid.New()
	copy(seed[:16], u[:])
	u = uuid.New()
	copy(seed[16:], u[:])
	return &Source{rng: rand.New(rand.NewChaCha8(seed))}
}

// NewSeededSource returns a Source with a fixed seed, for deterministic tests.
func NewSeededSource(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Maybe reports true with probability p.
func (s *Source) Maybe(p float64) bool {
	return s.rng.Float64() < p
}

// Int returns a random integer in [a, b] inclusive.
func (s *Source) Int(a, b int) int {
	if b <= a {
		return a
	}
	return a + s.rng.IntN(b-a+1)
}

// Float returns a random float in [a, b), rounded to the given number of
// decimal digits. Matches the value formatting used in generated CSS.
func (s *Source) Float(a, b float64, digits int) float64 {
	v := a + s.rng.Float64()*(b-a)
	pow := math.Pow(10, float64(digits))
	return math.Round(v*pow) / pow
}

// Pick returns a uniformly chosen element of xs. xs must not be empty.
func Pick[T any](s *Source, xs []T) T {
	return xs[s.rng.IntN(len(xs))]
}

// Shuffle permutes xs in place.
func Shuffle[T any](s *Source, xs []T) {
	s.rng.Shuffle(len(xs), func(i, j int) {
		xs[i], xs[j] = xs[j], xs[i]
	})
}

// Sample returns n distinct elements of xs in random order. If n exceeds
// len(xs) the whole slice is returned shuffled.
func Sample[T any](s *Source, xs []T, n int) []T {
	out := make([]T, len(xs))
	copy(out, xs)
	Shuffle(s, out)
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// Hex returns n hex characters of a fresh random identifier, used for
// generated class names and entropy tokens.
func (s *Source) Hex(n int) string {
	const hexdigits = "0123456789abcdef"
	b := make([]byte, n)
	for i := range b {
		b[i] = hexdigits[s.rng.IntN(16)]
	}
	return string(b)
}

// Token returns a UUID-derived hex token of length n, independent of the
// variant's PRNG stream. Used where the catalog templates embed identifiers.
func Token(n int) string {
	h := uuid.New()
	hex := make([]byte, 0, 32)
	const hexdigits = "0123456789abcdef"
	for _, b := range h[:] {
		hex = append(hex, hexdigits[b>>4], hexdigits[b&0xf])
	}
	if n > len(hex) {
		n = len(hex)
	}
	return string(hex[:n])
}

// ClampRate bounds a probability to [0, 1].
func ClampRate(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
