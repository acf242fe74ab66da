package types

import (
	"time"

	"github.com/google/uuid"
)

// MAU is one monthly-active-users record for a single product.
type MAU struct {
	ProductID   string   `json:"product_id"`
	ProductName string   `json:"product_name"`
	Value       int64    `json:"value"`
	GrowthRate  *float64 `json:"growth_rate,omitempty"`
}

// Patent is one patent or IP registration event.
type Patent struct {
	Level string `json:"level"` // Registration level/class
	Title string `json:"title"`
}

// Finance is one yearly finance record. NetProfit may be absent in source
// data and is treated as zero by the aggregator.
type Finance struct {
	Year            int    `json:"year"`
	Profit          int64  `json:"profit"`
	OperatingProfit int64  `json:"operating_profit"`
	NetProfit       *int64 `json:"net_profit,omitempty"`
}

// Investment is one funding event.
type Investment struct {
	Level     string   `json:"level"` // Round name (e.g. "Series A")
	Amount    int64    `json:"amount"`
	Investors []string `json:"investors"`
}

// Organization is one headcount record.
type Organization struct {
	PeopleCount int     `json:"people_count"`
	GrowthRate  float64 `json:"growth_rate"`
}

// Metrics is the typed metrics bundle stored per snapshot. It is
// (de)serialized from the snapshot's JSON column at the storage boundary;
// aggregation logic never sees the raw document.
type Metrics struct {
	MAU           []MAU          `json:"mau"`
	Patents       []Patent       `json:"patents"`
	Finance       []Finance      `json:"finance"`
	Investments   []Investment   `json:"investments"`
	Organizations []Organization `json:"organizations"`
}

// MetricSnapshot is one dated metrics bundle for an entity. Snapshot lists
// handed to the aggregator must be sorted by ReferenceDate descending; the
// aggregator treats element 0 as latest by construction and never re-sorts.
type MetricSnapshot struct {
	EntityID      uuid.UUID `json:"entity_id"`
	ReferenceDate time.Time `json:"reference_date"` // First-of-month convention
	Metrics       Metrics   `json:"metrics"`
}

// MAUSummary is the per-product MAU projection included in a MetricsSummary.
type MAUSummary struct {
	ProductName string  `json:"product_name"`
	Value       int64   `json:"value"`
	GrowthRate  float64 `json:"growth_rate"`
}

// MetricsSummary condenses an entity's snapshot history over one time window
// into the point-in-time and growth figures the inference prompt needs.
// Summaries are computed fresh per call and never persisted.
type MetricsSummary struct {
	PeopleCount      int     `json:"people_count"`
	PeopleGrowthRate float64 `json:"people_growth_rate"`

	Profit              int64   `json:"profit"`
	NetProfit           int64   `json:"net_profit"`
	ProfitGrowthRate    float64 `json:"profit_growth_rate"`
	NetProfitGrowthRate float64 `json:"net_profit_growth_rate"`

	// InvestmentAmount is the sum over all snapshots in the window.
	// Investors are deduplicated; InvestmentLevels keep one entry per
	// funding event, duplicates included.
	InvestmentAmount int64    `json:"investment_amount"`
	Investors        []string `json:"investors"`
	InvestmentLevels []string `json:"investment_levels"`

	Patents []Patent     `json:"patents"`
	MAUs    []MAUSummary `json:"maus"`
}

// IsEmpty reports whether the summary carries no data at all, which is what
// Summarize returns for an entity with no snapshots in the window.
func (s *MetricsSummary) IsEmpty() bool {
	return s.PeopleCount == 0 &&
		s.PeopleGrowthRate == 0 &&
		s.Profit == 0 &&
		s.NetProfit == 0 &&
		s.ProfitGrowthRate == 0 &&
		s.NetProfitGrowthRate == 0 &&
		s.InvestmentAmount == 0 &&
		len(s.Investors) == 0 &&
		len(s.InvestmentLevels) == 0 &&
		len(s.Patents) == 0 &&
		len(s.MAUs) == 0
}
