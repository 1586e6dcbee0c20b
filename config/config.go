/*
Package config loads and validates the boardd configuration.

PURPOSE:
  One file (yaml or json) plus optional environment overrides describes the
  whole deployment: the HTTP server, the board layout, the eligibility
  policy, auto-assign defaults, the quarter label and persistence.

ENV OVERRIDES:
  Any key can be overridden with a BOARD_ prefixed variable, "__" standing
  in for the dot: BOARD_SERVER__ADDR=:9000 overrides server.addr.
*/
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pxt/board-engine/board"
	"github.com/pxt/board-engine/logger"
	"github.com/pxt/board-engine/roster"
)

type Config struct {
	Server      ServerConfig      `json:"server"`
	Board       BoardConfig       `json:"board"`
	Eligibility EligibilityConfig `json:"eligibility"`
	Assign      AssignConfig      `json:"assign"`
	Quarter     QuarterConfig     `json:"quarter"`
	Store       StoreConfig       `json:"store"`
	Logging     logger.Options    `json:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string   `json:"addr"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// BoardConfig describes the lane layout.
type BoardConfig struct {
	Lanes []board.LaneConfig `json:"lanes"`
}

// EligibilityConfig mirrors roster.Policy with serializable fields.
type EligibilityConfig struct {
	Departments []string `json:"departments"`
	AreaMode    string   `json:"area_mode"`
	AreaValue   string   `json:"area_value"`
}

// AssignConfig holds the auto-assign defaults offered to operators.
type AssignConfig struct {
	TargetStations int  `json:"target_stations"`
	Fairness       bool `json:"fairness"`
	CriticalFirst  bool `json:"critical_first"`
}

// QuarterConfig sets the label the board starts in and the labels offered
// on the rotation selector.
type QuarterConfig struct {
	Initial string   `json:"initial"`
	Labels  []string `json:"labels"`
}

// StoreConfig selects persistence. An empty path keeps history in memory.
type StoreConfig struct {
	SQLitePath string `json:"sqlite_path"`
}

// SetDefaults applies sane defaults for everything but the lane layout,
// which has no universal shape and must come from the file.
func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if len(c.Eligibility.Departments) == 0 {
		p := roster.DefaultPolicy()
		c.Eligibility.Departments = p.Departments
		c.Eligibility.AreaMode = string(p.AreaMode)
		c.Eligibility.AreaValue = p.AreaValue
	}
	if c.Eligibility.AreaMode == "" {
		c.Eligibility.AreaMode = string(roster.AreaRequire)
	}
	if c.Assign.TargetStations == 0 {
		c.Assign.TargetStations = 10
	}
	if len(c.Quarter.Labels) == 0 {
		c.Quarter.Labels = []string{"Q1", "Q2", "Q3", "Q4"}
	}
	if c.Quarter.Initial == "" {
		c.Quarter.Initial = c.Quarter.Labels[0]
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if len(c.Board.Lanes) == 0 {
		return fmt.Errorf("board.lanes is required")
	}
	seen := make(map[string]bool)
	for _, lane := range c.Board.Lanes {
		if lane.ID == "" {
			return fmt.Errorf("board.lanes: lane id is required")
		}
		if lane.Capacity <= 0 {
			return fmt.Errorf("board.lanes: lane %s needs a positive capacity", lane.ID)
		}
		if seen[lane.ID] {
			return fmt.Errorf("board.lanes: duplicate lane id %s", lane.ID)
		}
		seen[lane.ID] = true
	}
	switch roster.AreaMode(c.Eligibility.AreaMode) {
	case roster.AreaRequire, roster.AreaExclude:
	default:
		return fmt.Errorf("eligibility.area_mode must be require or exclude, got %q", c.Eligibility.AreaMode)
	}
	if c.Assign.TargetStations < 0 {
		return fmt.Errorf("assign.target_stations must not be negative")
	}
	return nil
}

// Policy converts the eligibility section to the filter's form.
func (c Config) Policy() roster.Policy {
	return roster.Policy{
		Departments: c.Eligibility.Departments,
		AreaMode:    roster.AreaMode(c.Eligibility.AreaMode),
		AreaValue:   c.Eligibility.AreaValue,
	}
}

// AssignOptions converts the assign section to the heuristic's form. The
// seed is left zero so each preview draws a fresh one.
func (c Config) AssignOptions() board.AssignOptions {
	return board.AssignOptions{
		TargetStations: c.Assign.TargetStations,
		Fairness:       c.Assign.Fairness,
		CriticalFirst:  c.Assign.CriticalFirst,
	}
}

// Load reads the file at path, applies BOARD_ env overrides, defaults and
// validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("BOARD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "board_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
