package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sitroom/sitrep/internal/domain"
)

// TierRule binds an alert level to its trigger keywords.
type TierRule struct {
	Level    domain.AlertLevel `yaml:"level"`
	Keywords []string          `yaml:"keywords"`
}

// CategoryRule binds a category to its trigger keywords.
type CategoryRule struct {
	Category domain.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

// RegionRule binds a region to its trigger keywords. Declaration order is
// the tie-break when several regions match.
type RegionRule struct {
	Region   domain.Region `yaml:"region"`
	Keywords []string      `yaml:"keywords"`
}

// EntityRule describes one named entity the character analyzer tracks.
type EntityRule struct {
	Name    string               `yaml:"name"`
	Type    domain.CharacterType `yaml:"type"`
	Aliases []string             `yaml:"aliases"`
}

// ClassifierConfig holds the keyword dictionaries driving classification.
type ClassifierConfig struct {
	Tiers      []TierRule     `yaml:"tiers"`
	Categories []CategoryRule `yaml:"categories"`
	Regions    []RegionRule   `yaml:"regions"`
}

// AnalysisConfig holds the tunable thresholds of the analyzer set.
type AnalysisConfig struct {
	ConfidenceFloor       float64      `yaml:"confidence_floor"` // findings below this are dropped
	PatternMinItems       int          `yaml:"pattern_min_items"`
	TrendMinChangePct     float64      `yaml:"trend_min_change_pct"` // abs changePercent for a directional call
	MomentumMinPct        float64      `yaml:"momentum_min_pct"`
	GridBandLowPct        float64      `yaml:"grid_band_low_pct"` // intraday range band for grid fit
	GridBandHighPct       float64      `yaml:"grid_band_high_pct"`
	RiskMarketDropPct     float64      `yaml:"risk_market_drop_pct"` // changePercent at or below flags market risk
	CorrelationCutoff     float64      `yaml:"correlation_cutoff"`   // |r| for significant pairs
	CorrelationMinSamples int          `yaml:"correlation_min_samples"`
	NarrativeWindowHours  int          `yaml:"narrative_window_hours"`
	NarrativeMinOverlap   int          `yaml:"narrative_min_overlap"` // shared keywords to join a storyline
	MaxCharacters         int          `yaml:"max_characters"`
	Entities              []EntityRule `yaml:"entities"`
}

// FusionConfig holds the per-type weights the decision engine combines
// finding confidences with. Weights must sum to 1.0 within tolerance.
type FusionConfig struct {
	TrendWeight       float64       `yaml:"trend_weight"`
	PatternWeight     float64       `yaml:"pattern_weight"`
	RiskWeight        float64       `yaml:"risk_weight"`
	OpportunityWeight float64       `yaml:"opportunity_weight"`
	WeightTolerance   float64       `yaml:"weight_tolerance"`
	DecisionTTL       time.Duration `yaml:"decision_ttl"`
}

// MonitorConfig holds the defaults applied to newly added monitors.
type MonitorConfig struct {
	DefaultThreshold float64       `yaml:"default_threshold"`
	DefaultInterval  time.Duration `yaml:"default_interval"`
}

// CacheConfig controls the analysis result cache.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// HTTPConfig controls the serving interface.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// RedisConfig controls the optional redis-backed store.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// PostgresConfig controls the optional postgres-backed monitor store.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// SourcesConfig controls the ingestion adapters.
type SourcesConfig struct {
	Feeds          []string      `yaml:"feeds"`
	MarketEndpoint string        `yaml:"market_endpoint"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	RatePerSecond  float64       `yaml:"rate_per_second"`
}

// SchedulerConfig controls the periodic analysis loop.
type SchedulerConfig struct {
	Spec string `yaml:"spec"` // cron spec, e.g. "@every 5m"
}

// Config is the full engine configuration. Absent overrides fall back to
// the documented defaults from Default().
type Config struct {
	Classifier   ClassifierConfig `yaml:"classifier"`
	Analysis     AnalysisConfig   `yaml:"analysis"`
	Fusion       FusionConfig     `yaml:"fusion"`
	Monitor      MonitorConfig    `yaml:"monitor"`
	Cache        CacheConfig      `yaml:"cache"`
	HTTP         HTTPConfig       `yaml:"http"`
	Redis        RedisConfig      `yaml:"redis"`
	Postgres     PostgresConfig   `yaml:"postgres"`
	Sources      SourcesConfig    `yaml:"sources"`
	Scheduler    SchedulerConfig  `yaml:"scheduler"`
	MonitorsFile string           `yaml:"monitors_file"`
}

// Default returns the documented default configuration.
func Default() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			Tiers: []TierRule{
				{Level: domain.AlertCritical, Keywords: []string{
					"war", "invasion", "nuclear", "crash", "collapse", "default",
					"emergency", "attack", "crisis",
				}},
				{Level: domain.AlertHigh, Keywords: []string{
					"sanctions", "hack", "breach", "recession", "plunge",
					"bankruptcy", "outage", "escalation",
				}},
				{Level: domain.AlertMedium, Keywords: []string{
					"volatility", "selloff", "lawsuit", "probe", "downgrade",
					"strike", "shortage",
				}},
				{Level: domain.AlertLow, Keywords: []string{
					"decline", "risk", "warning", "concern", "uncertainty", "delay",
				}},
			},
			Categories: []CategoryRule{
				{Category: domain.CategoryMarkets, Keywords: []string{
					"stocks", "bitcoin", "etf", "bond", "futures", "trading", "crypto",
				}},
				{Category: domain.CategoryGeopolitics, Keywords: []string{
					"treaty", "diplomacy", "military", "border", "election", "summit",
				}},
				{Category: domain.CategoryTechnology, Keywords: []string{
					"ai", "semiconductor", "software", "chip", "startup",
				}},
				{Category: domain.CategoryEnergy, Keywords: []string{
					"oil", "gas", "opec", "pipeline", "renewable", "grid",
				}},
				{Category: domain.CategoryRegulation, Keywords: []string{
					"sec", "regulator", "antitrust", "compliance", "ruling",
				}},
				{Category: domain.CategorySecurity, Keywords: []string{
					"cyberattack", "ransomware", "malware", "exploit", "espionage",
				}},
				{Category: domain.CategoryEconomy, Keywords: []string{
					"inflation", "gdp", "unemployment", "fed", "rates", "tariff",
				}},
			},
			Regions: []RegionRule{
				{Region: domain.RegionNorthAmerica, Keywords: []string{
					"united states", "washington", "canada", "wall street", "mexico",
				}},
				{Region: domain.RegionEurope, Keywords: []string{
					"europe", "brussels", "germany", "france", "london", "ecb",
				}},
				{Region: domain.RegionAsia, Keywords: []string{
					"china", "beijing", "japan", "tokyo", "india", "korea", "taiwan",
				}},
				{Region: domain.RegionMiddleEast, Keywords: []string{
					"israel", "iran", "saudi", "gulf", "tehran",
				}},
				{Region: domain.RegionLatinAmerica, Keywords: []string{
					"brazil", "argentina", "chile", "venezuela",
				}},
				{Region: domain.RegionAfrica, Keywords: []string{
					"nigeria", "south africa", "egypt", "kenya",
				}},
			},
		},
		Analysis: AnalysisConfig{
			ConfidenceFloor:       30,
			PatternMinItems:       2,
			TrendMinChangePct:     1.5,
			MomentumMinPct:        3.0,
			GridBandLowPct:        2.0,
			GridBandHighPct:       8.0,
			RiskMarketDropPct:     -5.0,
			CorrelationCutoff:     0.5,
			CorrelationMinSamples: 8,
			NarrativeWindowHours:  72,
			NarrativeMinOverlap:   2,
			MaxCharacters:         10,
			Entities: []EntityRule{
				{Name: "Federal Reserve", Type: domain.CharacterOrg, Aliases: []string{"fed", "federal reserve", "fomc"}},
				{Name: "European Central Bank", Type: domain.CharacterOrg, Aliases: []string{"ecb", "european central bank"}},
				{Name: "OPEC", Type: domain.CharacterOrg, Aliases: []string{"opec"}},
				{Name: "SEC", Type: domain.CharacterOrg, Aliases: []string{"sec", "securities and exchange commission"}},
				{Name: "United States", Type: domain.CharacterCountry, Aliases: []string{"united states", "u.s.", "washington"}},
				{Name: "China", Type: domain.CharacterCountry, Aliases: []string{"china", "beijing"}},
				{Name: "Russia", Type: domain.CharacterCountry, Aliases: []string{"russia", "moscow", "kremlin"}},
				{Name: "Jerome Powell", Type: domain.CharacterPerson, Aliases: []string{"powell", "jerome powell"}},
				{Name: "Christine Lagarde", Type: domain.CharacterPerson, Aliases: []string{"lagarde"}},
			},
		},
		Fusion: FusionConfig{
			TrendWeight:       0.4,
			PatternWeight:     0.3,
			RiskWeight:        0.2,
			OpportunityWeight: 0.1,
			WeightTolerance:   0.001,
			DecisionTTL:       6 * time.Hour,
		},
		Monitor: MonitorConfig{
			DefaultThreshold: 0.3,
			DefaultInterval:  15 * time.Minute,
		},
		Cache: CacheConfig{TTL: 10 * time.Minute},
		HTTP:  HTTPConfig{Addr: ":8090"},
		Sources: SourcesConfig{
			FetchTimeout:  30 * time.Second,
			RatePerSecond: 2,
		},
		Scheduler:    SchedulerConfig{Spec: "@every 5m"},
		MonitorsFile: "data/monitors.json",
	}
}

// Load reads a YAML config file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and the fusion weight sum.
func (c *Config) Validate() error {
	sum := c.Fusion.TrendWeight + c.Fusion.PatternWeight + c.Fusion.RiskWeight + c.Fusion.OpportunityWeight
	if math.Abs(sum-1.0) > c.Fusion.WeightTolerance {
		return fmt.Errorf("fusion weights sum to %.4f, expected 1.0 ±%.3f", sum, c.Fusion.WeightTolerance)
	}
	if c.Analysis.ConfidenceFloor < 0 || c.Analysis.ConfidenceFloor > 100 {
		return fmt.Errorf("confidence floor %.1f outside [0,100]", c.Analysis.ConfidenceFloor)
	}
	if c.Analysis.CorrelationCutoff < 0 || c.Analysis.CorrelationCutoff > 1 {
		return fmt.Errorf("correlation cutoff %.2f outside [0,1]", c.Analysis.CorrelationCutoff)
	}
	if c.Analysis.CorrelationMinSamples < 2 {
		return fmt.Errorf("correlation min samples %d below 2", c.Analysis.CorrelationMinSamples)
	}
	if c.Monitor.DefaultThreshold < 0 || c.Monitor.DefaultThreshold > 1 {
		return fmt.Errorf("monitor default threshold %.2f outside [0,1]", c.Monitor.DefaultThreshold)
	}
	if c.Analysis.GridBandLowPct >= c.Analysis.GridBandHighPct {
		return fmt.Errorf("grid band low %.1f not below high %.1f", c.Analysis.GridBandLowPct, c.Analysis.GridBandHighPct)
	}
	for _, tier := range c.Classifier.Tiers {
		if !tier.Level.Valid() || tier.Level == domain.AlertNone {
			return fmt.Errorf("invalid tier level %q", tier.Level)
		}
	}
	return nil
}
