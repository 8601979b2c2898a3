package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"mercari_watch/internal/filter"
	"mercari_watch/internal/model"
)

// Defaults applied to optional keys of the watch configuration.
const (
	DefaultEntryLimit     = 20
	DefaultIntervalMinute = 30
	DefaultJitterMinutes  = 0
	DefaultKeyword        = "blackish house"

	// MaxIntervalMinutes bounds TIME, TIME_RAND and the chosen interval so
	// the sleep stays within 1e6 seconds and never overflows time.Duration.
	MaxIntervalMinutes = 1_000_000 / 60
)

var (
	// ErrConfigMissing is returned when the configuration file does not exist.
	ErrConfigMissing = errors.New("config file not found")
	// ErrConfigMalformed is returned when the configuration file cannot be
	// parsed into the expected mapping.
	ErrConfigMalformed = errors.New("config file malformed")
)

// Config is the watch configuration, re-read from disk every cycle.
type Config struct {
	BotToken              string
	ChatID                string
	EntryLimit            int
	BaseIntervalMinutes   int
	IntervalJitterMinutes int
	Keyword               string
	Include               []string
	Exclude               []string
	IncludeRe             []string
	ExcludeRe             []string
}

// Rules returns the listing name rules configured in c.
func (c Config) Rules() []model.Rule {
	var rules []model.Rule
	add := func(kind model.RuleKind, values []string) {
		for _, v := range values {
			rules = append(rules, model.Rule{Kind: kind, Value: v})
		}
	}
	add(model.RuleInclude, c.Include)
	add(model.RuleIncludeRe, c.IncludeRe)
	add(model.RuleExclude, c.Exclude)
	add(model.RuleExcludeRe, c.ExcludeRe)
	return rules
}

// Source loads Config from a YAML file. It never caches: every Load reads
// the file again so edits take effect on the next cycle.
type Source struct {
	Path string
}

// NewSource creates a Source reading the file at path.
func NewSource(path string) Source {
	return Source{Path: path}
}

// scalar accepts any YAML scalar as a string, so CHAT_ID may be written
// either as a number or as a quoted "@channel" name.
type scalar string

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	*s = scalar(node.Value)
	return nil
}

type fileConfig struct {
	BotToken  scalar   `yaml:"BOT_TOKEN"`
	ChatID    scalar   `yaml:"CHAT_ID"`
	Entries   *int     `yaml:"ENTRIES"`
	Time      *int     `yaml:"TIME"`
	TimeRand  *int     `yaml:"TIME_RAND"`
	Keyword   *string  `yaml:"KEYWORD"`
	Include   []string `yaml:"INCLUDE"`
	Exclude   []string `yaml:"EXCLUDE"`
	IncludeRe []string `yaml:"INCLUDE_RE"`
	ExcludeRe []string `yaml:"EXCLUDE_RE"`
}

// Load reads and parses the configuration file, applying defaults for
// optional keys and clamping numeric values into range.
func (s Source) Load() (Config, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigMissing, s.Path)
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration document.
func Parse(data []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigMalformed, err)
	}

	cfg := Config{
		BotToken:              string(fc.BotToken),
		ChatID:                string(fc.ChatID),
		EntryLimit:            intOr(fc.Entries, DefaultEntryLimit),
		BaseIntervalMinutes:   intOr(fc.Time, DefaultIntervalMinute),
		IntervalJitterMinutes: intOr(fc.TimeRand, DefaultJitterMinutes),
		Keyword:               DefaultKeyword,
		Include:               fc.Include,
		Exclude:               fc.Exclude,
		IncludeRe:             fc.IncludeRe,
		ExcludeRe:             fc.ExcludeRe,
	}
	if fc.Keyword != nil {
		cfg.Keyword = *fc.Keyword
	}

	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("%w: BOT_TOKEN is required", ErrConfigMalformed)
	}
	if cfg.ChatID == "" {
		return Config{}, fmt.Errorf("%w: CHAT_ID is required", ErrConfigMalformed)
	}
	for _, pattern := range append(append([]string{}, cfg.IncludeRe...), cfg.ExcludeRe...) {
		if err := filter.ValidateRegex(pattern); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrConfigMalformed, err)
		}
	}

	cfg.EntryLimit = max(0, cfg.EntryLimit)
	cfg.BaseIntervalMinutes = min(max(1, cfg.BaseIntervalMinutes), MaxIntervalMinutes)
	cfg.IntervalJitterMinutes = min(max(0, cfg.IntervalJitterMinutes), MaxIntervalMinutes)
	return cfg, nil
}

// Interval picks the cycle interval uniformly from
// [max(1, base-jitter), base+jitter] whole minutes, capped at
// MaxIntervalMinutes. intn must behave like rand.IntN.
func Interval(cfg Config, intn func(n int) int) time.Duration {
	base := min(max(1, cfg.BaseIntervalMinutes), MaxIntervalMinutes)
	jitter := min(max(0, cfg.IntervalJitterMinutes), MaxIntervalMinutes)
	lo := max(1, base-jitter)
	hi := min(base+jitter, MaxIntervalMinutes)
	return time.Duration(lo+intn(hi-lo+1)) * time.Minute
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
