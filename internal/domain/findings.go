package domain

import (
	"time"
)

// Timeframe classifies how long a finding is expected to stay relevant.
type Timeframe string

const (
	TimeframeImmediate Timeframe = "immediate"
	TimeframeShort     Timeframe = "short"
	TimeframeMedium    Timeframe = "medium"
	TimeframeLong      Timeframe = "long"
)

// Pattern is a recurring topical cluster across news items.
type Pattern struct {
	ID         string    `json:"id"`
	Theme      string    `json:"theme"`
	ItemCount  int       `json:"item_count"`
	Confidence float64   `json:"confidence"` // 0-100
	Timeframe  Timeframe `json:"timeframe"`
	Evidence   []string  `json:"evidence"` // news item ids
}

// TrendDirection is the directional call of a trend finding.
type TrendDirection string

const (
	TrendUp       TrendDirection = "up"
	TrendDown     TrendDirection = "down"
	TrendSideways TrendDirection = "sideways"
)

// Trend is a directional signal for one asset or region.
type Trend struct {
	ID         string         `json:"id"`
	Subject    string         `json:"subject"` // symbol or region
	Direction  TrendDirection `json:"direction"`
	Strength   float64        `json:"strength"`   // 0-100
	Confidence float64        `json:"confidence"` // 0-100
	Timeframe  Timeframe      `json:"timeframe"`
	Evidence   []string       `json:"evidence"` // symbols and news item ids
}

// Risk scores a threat by probability x impact.
type Risk struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Category    Category   `json:"category,omitempty"`
	Region      Region     `json:"region,omitempty"`
	Probability float64    `json:"probability"` // 0-1
	Impact      float64    `json:"impact"`      // 0-1
	Score       float64    `json:"score"`       // probability*impact*100
	Level       AlertLevel `json:"level"`
	Confidence  float64    `json:"confidence"` // 0-100
	Timeframe   Timeframe  `json:"timeframe"`
	Evidence    []string   `json:"evidence"`
}

// OpportunityKind distinguishes the setups the opportunity analyzer emits.
type OpportunityKind string

const (
	OpportunityMomentum OpportunityKind = "momentum"
	OpportunityGrid     OpportunityKind = "grid"
)

// Opportunity is a favorable setup for one asset.
type Opportunity struct {
	ID         string          `json:"id"`
	Kind       OpportunityKind `json:"kind"`
	Symbol     string          `json:"symbol"`
	Confidence float64         `json:"confidence"` // 0-100
	Timeframe  Timeframe       `json:"timeframe"`
	GridFit    bool            `json:"grid_fit"`
	Rationale  string          `json:"rationale"`
	Evidence   []string        `json:"evidence"`
}

// PairStrength buckets a significant correlation pair.
type PairStrength string

const (
	PairModerate PairStrength = "moderate" // |r| in [0.5, 0.75)
	PairStrong   PairStrength = "strong"   // |r| in [0.75, 1.0]
)

// CorrelatedPair is one significant cell of the correlation matrix.
type CorrelatedPair struct {
	Base        string       `json:"base"`
	Quote       string       `json:"quote"`
	Coefficient float64      `json:"coefficient"`
	Strength    PairStrength `json:"strength"`
	SampleSize  int          `json:"sample_size"`
}

// ExcludedAsset records why a symbol was dropped from the matrix.
type ExcludedAsset struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// CorrelationMatrix is a symmetric matrix of Pearson coefficients with a
// unit diagonal, over the assets that had enough overlapping samples.
type CorrelationMatrix struct {
	Assets   []string         `json:"assets"`
	Cells    [][]float64      `json:"cells"`
	Pairs    []CorrelatedPair `json:"pairs"`
	Excluded []ExcludedAsset  `json:"excluded,omitempty"`
}

// At returns the coefficient for the pair (base, quote), or 0 when either
// asset is absent from the matrix.
func (m *CorrelationMatrix) At(base, quote string) float64 {
	bi, qi := -1, -1
	for i, a := range m.Assets {
		if a == base {
			bi = i
		}
		if a == quote {
			qi = i
		}
	}
	if bi < 0 || qi < 0 {
		return 0
	}
	return m.Cells[bi][qi]
}

// TimelineEntry is one step of a narrative's chronology.
type TimelineEntry struct {
	Timestamp time.Time `json:"timestamp"`
	ItemID    string    `json:"item_id"`
	Title     string    `json:"title"`
}

// Narrative groups items sharing overlapping keywords within a bounded
// time window into one evolving storyline.
type Narrative struct {
	ID        string          `json:"id"`
	Theme     string          `json:"theme"`
	Keywords  []string        `json:"keywords"`
	Strength  float64         `json:"strength"` // 0-100
	Timeframe Timeframe       `json:"timeframe"`
	Timeline  []TimelineEntry `json:"timeline"` // chronological
	Evidence  []string        `json:"evidence"`
}

// CharacterType is the entity class of a main character.
type CharacterType string

const (
	CharacterPerson  CharacterType = "person"
	CharacterOrg     CharacterType = "org"
	CharacterCountry CharacterType = "country"
)

// MainCharacter is a recurring entity ranked by influence.
type MainCharacter struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      CharacterType `json:"type"`
	Mentions  int           `json:"mentions"`
	Influence float64       `json:"influence"` // 0-100
	Evidence  []string      `json:"evidence"`
}

// DecisionAction is the recommended course of a fused decision.
type DecisionAction string

const (
	ActionAct      DecisionAction = "act"
	ActionWatch    DecisionAction = "watch"
	ActionMitigate DecisionAction = "mitigate"
)

// Decision is one ranked recommendation fused from analyzer findings.
// Consumers must treat decisions past ExpiresAt as stale.
type Decision struct {
	ID         string         `json:"id"`
	Subject    string         `json:"subject"`
	Action     DecisionAction `json:"action"`
	Confidence float64        `json:"confidence"` // 0-100
	Rationale  []string       `json:"rationale"`  // at least one entry
	Evidence   []string       `json:"evidence"`
	CreatedAt  time.Time      `json:"created_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// Expired reports whether the decision is stale at now.
func (d Decision) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// ResultMetadata carries the counters required of every analysis result.
type ResultMetadata struct {
	NewsCount               int `json:"news_count"`
	MarketSymbolsCount      int `json:"market_symbols_count"`
	PatternsDetected        int `json:"patterns_detected"`
	RisksIdentified         int `json:"risks_identified"`
	OpportunitiesIdentified int `json:"opportunities_identified"`
	PositiveSentimentCount  int `json:"positive_sentiment_count"`
	NegativeSentimentCount  int `json:"negative_sentiment_count"`
	NeutralSentimentCount   int `json:"neutral_sentiment_count"`
}

// AnalysisResult is the immutable snapshot of one full pipeline run. It is
// cached under a fixed key with a TTL and superseded wholesale by the next
// run.
type AnalysisResult struct {
	ID            string             `json:"id"`
	GeneratedAt   time.Time          `json:"generated_at"`
	Patterns      []Pattern          `json:"patterns"`
	Trends        []Trend            `json:"trends"`
	Risks         []Risk             `json:"risks"`
	Opportunities []Opportunity      `json:"opportunities"`
	Correlations  *CorrelationMatrix `json:"correlations,omitempty"`
	Narratives    []Narrative        `json:"narratives"`
	Characters    []MainCharacter    `json:"characters"`
	Decisions     []Decision         `json:"decisions"`
	Summary       string             `json:"summary"`
	Confidence    float64            `json:"confidence"` // 0-100
	Metadata      ResultMetadata     `json:"metadata"`
}
