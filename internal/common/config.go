package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment  string             `toml:"environment"` // "development" or "production"
	Storage      StorageConfig      `toml:"storage"`
	Logging      LoggingConfig      `toml:"logging"`
	Segmentation SegmentationConfig `toml:"segmentation"`
	Chunking     ChunkingConfig     `toml:"chunking"`
	Retrieval    RetrievalConfig    `toml:"retrieval"`
	Embeddings   EmbeddingsConfig   `toml:"embeddings"`
	Agents       AgentsConfig       `toml:"agents"`
	Workers      WorkersConfig      `toml:"workers"`
	Scheduler    SchedulerConfig    `toml:"scheduler"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// SegmentationConfig tunes outline depth selection and fallback partitioning.
// Thresholds are heuristics, not invariants; adjust per document collection.
type SegmentationConfig struct {
	MinChapterPages int      `toml:"min_chapter_pages" validate:"min=1"` // Chapters shorter than this merge forward
	MinItemPages    int      `toml:"min_item_pages" validate:"min=1"`    // Agenda item page band lower bound
	MaxItemPages    int      `toml:"max_item_pages" validate:"min=1"`    // Agenda item page band upper bound
	MinSegments     int      `toml:"min_segments" validate:"min=1"`      // Below this count the outline is considered too coarse
	MaxSpanPages    int      `toml:"max_span_pages" validate:"min=1"`    // Fallback partition: no synthetic segment exceeds this
	SkipTitles      []string `toml:"skip_titles"`                        // Outline titles never used as primary boundaries
}

type ChunkingConfig struct {
	Size    int `toml:"size" validate:"min=1"`     // Window size in characters
	Overlap int `toml:"overlap" validate:"gte=0"`  // Overlap between consecutive windows
}

type RetrievalConfig struct {
	TopK                int     `toml:"top_k" validate:"min=1"`
	FusionMode          string  `toml:"fusion_mode" validate:"oneof=rrf linear"` // How keyword and vector ranks merge
	KeywordWeight       float64 `toml:"keyword_weight" validate:"gte=0"`
	VectorWeight        float64 `toml:"vector_weight" validate:"gte=0"`
	RRFConstant         int     `toml:"rrf_constant" validate:"min=1"`
	ConfidenceThreshold float64 `toml:"confidence_threshold" validate:"gte=0"`
	DedupOverlap        float64 `toml:"dedup_overlap" validate:"gte=0,lte=1"` // Char-range overlap fraction that collapses evidence
	CandidateLimit      int     `toml:"candidate_limit" validate:"min=1"`     // Candidates fetched per index before fusion
}

type EmbeddingsConfig struct {
	Provider          string `toml:"provider" validate:"oneof=gemini none"`
	APIKey            string `toml:"api_key"`
	Model             string `toml:"model"`
	Dimension         int    `toml:"dimension" validate:"min=1"`
	Timeout           string `toml:"timeout"`
	RequestsPerMinute int    `toml:"requests_per_minute" validate:"min=1"`
}

type AgentsConfig struct {
	Provider  string `toml:"provider" validate:"oneof=claude none"`
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens" validate:"min=1"`
	Timeout   string `toml:"timeout"`
}

type WorkersConfig struct {
	MaterializeConcurrency int    `toml:"materialize_concurrency" validate:"min=1"` // Bounded pool for segment rendering
	RenderTimeout          string `toml:"render_timeout"`                           // Per-segment render timeout
	RenderRetries          int    `toml:"render_retries" validate:"gte=0,lte=5"`    // Small fixed retry cap for the rendering collaborator
}

type SchedulerConfig struct {
	Enabled         bool   `toml:"enabled"`
	ReindexSchedule string `toml:"reindex_schedule"` // Cron schedule for periodic corpus reindex
}

// NewDefaultConfig returns configuration defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/tomus.db",
				ResetOnStartup: false,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Segmentation: SegmentationConfig{
			MinChapterPages: 3,
			MinItemPages:    1,
			MaxItemPages:    50,
			MinSegments:     2,
			MaxSpanPages:    40,
			SkipTitles: []string{
				"table of contents",
				"index",
				"preamble",
			},
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 200,
		},
		Retrieval: RetrievalConfig{
			TopK:                10,
			FusionMode:          "rrf",
			KeywordWeight:       0.5,
			VectorWeight:        0.5,
			RRFConstant:         60,
			ConfidenceThreshold: 0.01,
			DedupOverlap:        0.5,
			CandidateLimit:      50,
		},
		Embeddings: EmbeddingsConfig{
			Provider:          "none",
			Model:             "gemini-embedding-001",
			Dimension:         768,
			Timeout:           "30s",
			RequestsPerMinute: 60,
		},
		Agents: AgentsConfig{
			Provider:  "none",
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
			Timeout:   "120s",
		},
		Workers: WorkersConfig{
			MaterializeConcurrency: 4,
			RenderTimeout:          "120s",
			RenderRetries:          1,
		},
		Scheduler: SchedulerConfig{
			Enabled:         false,
			ReindexSchedule: "0 3 * * *",
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files override
// earlier files, environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TOMUS_ENV"); env != "" {
		config.Environment = env
	}
	if level := os.Getenv("TOMUS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if path := os.Getenv("TOMUS_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if key := os.Getenv("TOMUS_GEMINI_API_KEY"); key != "" {
		config.Embeddings.APIKey = key
		if config.Embeddings.Provider == "none" {
			config.Embeddings.Provider = "gemini"
		}
	}
	if key := os.Getenv("TOMUS_ANTHROPIC_API_KEY"); key != "" {
		config.Agents.APIKey = key
		if config.Agents.Provider == "none" {
			config.Agents.Provider = "claude"
		}
	}
	if span := os.Getenv("TOMUS_MAX_SPAN_PAGES"); span != "" {
		if v, err := strconv.Atoi(span); err == nil && v > 0 {
			config.Segmentation.MaxSpanPages = v
		}
	}
}

// Validate checks structural constraints that TOML parsing cannot express
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("invalid configuration: chunking overlap (%d) must be smaller than chunk size (%d)", c.Chunking.Overlap, c.Chunking.Size)
	}

	if c.Segmentation.MinItemPages > c.Segmentation.MaxItemPages {
		return fmt.Errorf("invalid configuration: min_item_pages (%d) exceeds max_item_pages (%d)", c.Segmentation.MinItemPages, c.Segmentation.MaxItemPages)
	}

	if c.Scheduler.Enabled {
		if err := ValidateSchedule(c.Scheduler.ReindexSchedule); err != nil {
			return fmt.Errorf("invalid configuration: reindex_schedule: %w", err)
		}
	}

	return nil
}

// ValidateSchedule verifies a cron expression using the standard 5-field parser
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule is empty")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// IsProduction reports whether the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
