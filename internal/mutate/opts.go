// Package mutate implements the content-preserving, randomized
// transformations applied to a parsed document tree. Every stage is a pure
// function of (tree, options, randomness): it never touches shared state, so
// variants can be generated concurrently as long as each one owns its
// entropy source.
package mutate

import (
	"github.com/xkilldash9x/fingerprintless-cli/internal/config"
	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
)

// Opts are the pipeline knobs for a single variant. The base values come
// from configuration; Jitter derives a per-variant perturbation so no two
// variants share the exact same rates.
type Opts struct {
	WrapChunkRate float64
	ChunkLenMin   int
	ChunkLenMax   int
	PerWordRate   float64

	NoiseDivsMax int
	MetaNoiseMin int
	MetaNoiseMax int

	IEConditionalComments bool
	StructureRandomize    bool

	MaxNesting       int
	MaxNestingJitter int

	// EffectiveNesting is the wrapper chain depth for this variant:
	// MaxNesting plus a draw in [-MaxNestingJitter, +MaxNestingJitter],
	// clamped to >= 0. Populated by Jitter.
	EffectiveNesting int

	TitlePrefix string
}

// FromConfig maps the validated configuration onto base pipeline options.
func FromConfig(cfg config.MutateConfig) Opts {
	return Opts{
		WrapChunkRate:         cfg.WrapChunkRate,
		ChunkLenMin:           cfg.ChunkLenMin,
		ChunkLenMax:           cfg.ChunkLenMax,
		PerWordRate:           cfg.PerWordRate,
		NoiseDivsMax:          cfg.NoiseDivsMax,
		MetaNoiseMin:          cfg.MetaNoiseMin,
		MetaNoiseMax:          cfg.MetaNoiseMax,
		IEConditionalComments: cfg.IEConditionalComments,
		StructureRandomize:    cfg.StructureRandomize,
		MaxNesting:            cfg.MaxNesting,
		MaxNestingJitter:      cfg.MaxNestingJitter,
		EffectiveNesting:      cfg.MaxNesting,
		TitlePrefix:           cfg.TitlePrefix,
	}
}

// Jitter returns a per-variant copy of the options with rates scaled by a
// bounded factor and integer bounds nudged, keeping every invariant intact
// (rates stay in [0,1], min never exceeds max, nothing goes negative).
func (o Opts) Jitter(src *entropy.Source) Opts {
	out := o

	out.WrapChunkRate = entropy.ClampRate(o.WrapChunkRate * src.Float(0.8, 1.2, 3))
	out.PerWordRate = entropy.ClampRate(o.PerWordRate * src.Float(0.8, 1.2, 3))

	out.ChunkLenMin = max(1, o.ChunkLenMin+src.Int(-1, 1))
	out.ChunkLenMax = max(out.ChunkLenMin, o.ChunkLenMax+src.Int(-1, 1))

	out.NoiseDivsMax = max(0, o.NoiseDivsMax+src.Int(-1, 1))
	out.MetaNoiseMin = max(0, o.MetaNoiseMin+src.Int(-2, 2))
	out.MetaNoiseMax = max(out.MetaNoiseMin, o.MetaNoiseMax+src.Int(-2, 2))

	effective := o.MaxNesting
	if o.MaxNestingJitter > 0 {
		effective += src.Int(-o.MaxNestingJitter, o.MaxNestingJitter)
	}
	out.EffectiveNesting = max(0, effective)

	return out
}
