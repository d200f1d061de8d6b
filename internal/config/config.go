// The application's root configuration for the variant generation engine.
package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger"`
	Engine EngineConfig `mapstructure:"engine"`
	Mutate MutateConfig `mapstructure:"mutate"`
	Output OutputConfig `mapstructure:"output"`
}

// ColorConfig defines the color settings for different log levels.
// These are used for console output to make logs more readable.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" json:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" json:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" json:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" json:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" json:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" json:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" json:"fatal" yaml:"fatal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" json:"level" yaml:"level"`
	Format      string      `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" json:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" json:"colors" yaml:"colors"`
}

// EngineConfig holds settings for the variant generation worker pool.
type EngineConfig struct {
	WorkerConcurrency int `mapstructure:"worker_concurrency"`
}

// MutateConfig holds the knobs consumed by the mutation pipeline. The zero
// values are not usable; call SetDefaults before unmarshalling.
type MutateConfig struct {
	// Count is the number of variants produced per input document.
	Count int `mapstructure:"count"`

	// Encoding is the declared input encoding. On decode failure the reader
	// falls back to latin-1 and then windows-1252.
	Encoding string `mapstructure:"encoding"`

	// IEConditionalComments toggles injection of legacy conditional comments.
	IEConditionalComments bool `mapstructure:"ie_conditional_comments"`

	// StructureRandomize toggles the safe wrapper structure mutator.
	StructureRandomize bool `mapstructure:"structure_randomize"`

	// MaxNesting bounds the depth of the nested wrapper chain around the
	// document content. MaxNestingJitter is a per-variant +/- perturbation,
	// clamped so the effective depth never goes negative.
	MaxNesting       int `mapstructure:"max_nesting"`
	MaxNestingJitter int `mapstructure:"max_nesting_jitter"`

	// Text chunk wrapping rates.
	WrapChunkRate float64 `mapstructure:"wrap_chunk_rate"`
	ChunkLenMin   int     `mapstructure:"chunk_len_min"`
	ChunkLenMax   int     `mapstructure:"chunk_len_max"`
	PerWordRate   float64 `mapstructure:"per_word_rate"`

	// Head and body noise bounds.
	NoiseDivsMax int `mapstructure:"noise_divs_max"`
	MetaNoiseMin int `mapstructure:"meta_noise_min"`
	MetaNoiseMax int `mapstructure:"meta_noise_max"`

	// TitlePrefix seeds the randomized variant title.
	TitlePrefix string `mapstructure:"title_prefix"`

	// SynonymMapPath points at an optional pipe-separated synonym map file.
	SynonymMapPath string `mapstructure:"synonym_map"`
}

// OutputConfig holds settings for the output shim.
type OutputConfig struct {
	// Dir overrides the default timestamped "variants_<ts>" directory.
	Dir string `mapstructure:"dir"`
}

// SetDefaults registers default values so the app can run with no config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "fingerprintless")

	v.SetDefault("engine.worker_concurrency", 4)

	v.SetDefault("mutate.count", 1)
	v.SetDefault("mutate.encoding", "utf-8")
	v.SetDefault("mutate.ie_conditional_comments", true)
	v.SetDefault("mutate.structure_randomize", true)
	v.SetDefault("mutate.max_nesting", 4)
	v.SetDefault("mutate.max_nesting_jitter", 0)
	v.SetDefault("mutate.wrap_chunk_rate", 0.027)
	v.SetDefault("mutate.chunk_len_min", 2)
	v.SetDefault("mutate.chunk_len_max", 6)
	v.SetDefault("mutate.per_word_rate", 0.0033)
	v.SetDefault("mutate.noise_divs_max", 4)
	v.SetDefault("mutate.meta_noise_min", 4)
	v.SetDefault("mutate.meta_noise_max", 14)
	v.SetDefault("mutate.title_prefix", "letter-")
}

// Validate checks the configuration for invalid combinations. It runs before
// any input is read so bad values never reach the pipeline.
func (c *Config) Validate() error {
	if c.Mutate.Count < 1 {
		return fmt.Errorf("mutate.count must be >= 1, got %d", c.Mutate.Count)
	}
	if c.Mutate.MaxNesting < 0 {
		return fmt.Errorf("mutate.max_nesting must be >= 0, got %d", c.Mutate.MaxNesting)
	}
	if c.Mutate.MaxNestingJitter < 0 {
		return fmt.Errorf("mutate.max_nesting_jitter must be >= 0, got %d", c.Mutate.MaxNestingJitter)
	}
	if c.Mutate.ChunkLenMin < 1 {
		return fmt.Errorf("mutate.chunk_len_min must be >= 1, got %d", c.Mutate.ChunkLenMin)
	}
	if c.Mutate.ChunkLenMax < c.Mutate.ChunkLenMin {
		return fmt.Errorf("mutate.chunk_len_max (%d) must be >= mutate.chunk_len_min (%d)",
			c.Mutate.ChunkLenMax, c.Mutate.ChunkLenMin)
	}
	if c.Mutate.WrapChunkRate < 0 || c.Mutate.WrapChunkRate > 1 {
		return fmt.Errorf("mutate.wrap_chunk_rate must be in [0,1], got %f", c.Mutate.WrapChunkRate)
	}
	if c.Mutate.PerWordRate < 0 || c.Mutate.PerWordRate > 1 {
		return fmt.Errorf("mutate.per_word_rate must be in [0,1], got %f", c.Mutate.PerWordRate)
	}
	if c.Mutate.NoiseDivsMax < 0 {
		return fmt.Errorf("mutate.noise_divs_max must be >= 0, got %d", c.Mutate.NoiseDivsMax)
	}
	if c.Mutate.MetaNoiseMin < 0 || c.Mutate.MetaNoiseMax < c.Mutate.MetaNoiseMin {
		return fmt.Errorf("mutate.meta_noise bounds invalid: min=%d max=%d",
			c.Mutate.MetaNoiseMin, c.Mutate.MetaNoiseMax)
	}
	if c.Mutate.Encoding == "" {
		return fmt.Errorf("mutate.encoding must not be empty")
	}
	if c.Engine.WorkerConcurrency < 1 {
		return fmt.Errorf("engine.worker_concurrency must be >= 1, got %d", c.Engine.WorkerConcurrency)
	}
	return nil
}

// Load unmarshals and validates the configuration exactly once.
func Load(v *viper.Viper) error {
	once.Do(func() {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal config: %w", err)
			return
		}
		if err := cfg.Validate(); err != nil {
			loadErr = fmt.Errorf("invalid configuration: %w", err)
			return
		}
		instance = &cfg
	})
	return loadErr
}

// Get returns the loaded configuration. It panics if Load has not succeeded,
// which indicates a programming error in command wiring.
func Get() *Config {
	if instance == nil {
		panic("config.Get called before successful config.Load")
	}
	return instance
}

// Set stores a configuration directly, bypassing viper. Used by tests and by
// commands that assemble config from flags.
func Set(cfg *Config) {
	instance = cfg
}
