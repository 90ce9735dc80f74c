package domain

import (
	"time"
)

// AlertLevel is the ordinal severity assigned to an item or raised by a monitor.
type AlertLevel string

const (
	AlertNone     AlertLevel = "none"
	AlertLow      AlertLevel = "low"
	AlertMedium   AlertLevel = "medium"
	AlertHigh     AlertLevel = "high"
	AlertCritical AlertLevel = "critical"
)

// alertRanks orders levels for comparisons; higher rank means more severe.
var alertRanks = map[AlertLevel]int{
	AlertNone:     0,
	AlertLow:      1,
	AlertMedium:   2,
	AlertHigh:     3,
	AlertCritical: 4,
}

// Rank returns the ordinal position of the level (none=0 .. critical=4).
func (l AlertLevel) Rank() int {
	return alertRanks[l]
}

// Valid reports whether the level is one of the five known values.
func (l AlertLevel) Valid() bool {
	_, ok := alertRanks[l]
	return ok
}

// TierOrder lists the match tiers in descending severity. Classification
// walks this list and the first tier with a hit wins.
var TierOrder = []AlertLevel{AlertCritical, AlertHigh, AlertMedium, AlertLow}

// Category is a closed set of topical buckets for news items.
type Category string

const (
	CategoryMarkets     Category = "markets"
	CategoryGeopolitics Category = "geopolitics"
	CategoryTechnology  Category = "technology"
	CategoryEnergy      Category = "energy"
	CategoryRegulation  Category = "regulation"
	CategorySecurity    Category = "security"
	CategoryEconomy     Category = "economy"
)

// Categories lists every known category in declared order.
var Categories = []Category{
	CategoryMarkets,
	CategoryGeopolitics,
	CategoryTechnology,
	CategoryEnergy,
	CategoryRegulation,
	CategorySecurity,
	CategoryEconomy,
}

// Region is a closed set of geographic buckets. The empty value means the
// classifier could not infer one.
type Region string

const (
	RegionNorthAmerica Region = "north_america"
	RegionEurope       Region = "europe"
	RegionAsia         Region = "asia"
	RegionMiddleEast   Region = "middle_east"
	RegionLatinAmerica Region = "latin_america"
	RegionAfrica       Region = "africa"
)

// Regions lists every known region in declared order; region matching
// tie-breaks by this order.
var Regions = []Region{
	RegionNorthAmerica,
	RegionEurope,
	RegionAsia,
	RegionMiddleEast,
	RegionLatinAmerica,
	RegionAfrica,
}

// NewsItem is a single ingested article. It is annotated once by the
// classifier and never mutated after; a re-fetch supersedes it.
type NewsItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	Category    Category   `json:"category,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
	Region      Region     `json:"region,omitempty"`
	Keywords    []string   `json:"keywords"`
	AlertLevel  AlertLevel `json:"alert_level"`
	Sentiment   *float64   `json:"sentiment,omitempty"` // -1..1 when the source provides one
}

// MarketQuote is an immutable snapshot for one symbol. A newer quote for the
// same symbol supersedes it; no history is retained beyond the batch.
type MarketQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        float64   `json:"volume"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Open          float64   `json:"open"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
}

// Batch is the read-only input to one analysis run. Analyzers must not
// mutate it.
type Batch struct {
	News   []NewsItem    `json:"news"`
	Quotes []MarketQuote `json:"quotes"`
	// Returns holds chronological return series per symbol for correlation
	// work. Symbols quoted but missing here are excluded from the matrix
	// with a reason rather than producing NaN.
	Returns map[string][]float64 `json:"returns,omitempty"`
	AsOf    time.Time            `json:"as_of"`
}

// Quote returns the quote for symbol, if present in the batch.
func (b *Batch) Quote(symbol string) (MarketQuote, bool) {
	for _, q := range b.Quotes {
		if q.Symbol == symbol {
			return q, true
		}
	}
	return MarketQuote{}, false
}

// HasNewsID reports whether the batch contains a news item with the id.
func (b *Batch) HasNewsID(id string) bool {
	for _, n := range b.News {
		if n.ID == id {
			return true
		}
	}
	return false
}
