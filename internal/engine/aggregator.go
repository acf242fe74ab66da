// Package engine implements the retrieval pipeline: alias resolution,
// metrics aggregation, batched vector search, context assembly, and the
// cached inference entry point.
package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/scoutline/careerctx/pkg/types"
)

// NoSnapshotsError is returned by SummarizeRequired when an entity has no
// metric snapshots inside the requested window.
type NoSnapshotsError struct {
	EntityID uuid.UUID
}

func (e *NoSnapshotsError) Error() string {
	return fmt.Sprintf("engine: no metric snapshots for entity %s in window", e.EntityID)
}

// Summarize condenses an entity's snapshot history over one window into a
// MetricsSummary. The input must be sorted by reference date descending, as
// the snapshot store returns it; element 0 is the latest snapshot.
//
// An empty input yields the zero summary: a caller that tolerates missing
// metrics checks IsEmpty, a caller that does not uses SummarizeRequired.
func Summarize(snapshots []types.MetricSnapshot) types.MetricsSummary {
	var summary types.MetricsSummary
	if len(snapshots) == 0 {
		return summary
	}

	latest := snapshots[0].Metrics
	earliest := snapshots[len(snapshots)-1].Metrics
	multiple := len(snapshots) > 1

	summarizePeople(&summary, latest, earliest, multiple)
	summarizeFinance(&summary, latest, earliest, multiple)
	summarizeInvestments(&summary, snapshots)
	summarizePatents(&summary, snapshots)
	summarizeMAU(&summary, latest)
	return summary
}

// SummarizeRequired is Summarize for callers that treat missing metrics as
// an error rather than graceful degradation.
func SummarizeRequired(entityID uuid.UUID, snapshots []types.MetricSnapshot) (types.MetricsSummary, error) {
	if len(snapshots) == 0 {
		return types.MetricsSummary{}, &NoSnapshotsError{EntityID: entityID}
	}
	return Summarize(snapshots), nil
}

// growthRate is the percentage change from earliest to latest. A zero
// baseline yields 0 rather than a division blowup.
func growthRate(earliest, latest float64) float64 {
	if earliest == 0 {
		return 0
	}
	return (latest - earliest) / earliest * 100
}

// summarizePeople takes the headcount from the latest snapshot's most recent
// record, counting a missing record as zero. Growth is measured against the
// earliest snapshot and only when more than one snapshot exists, so a
// headcount that disappears from the feed reads as a -100% drop rather than
// no change.
func summarizePeople(summary *types.MetricsSummary, latest, earliest types.Metrics, multiple bool) {
	latestOrg := lastOrganization(latest)
	summary.PeopleCount = latestOrg.PeopleCount

	if !multiple {
		return
	}
	earliestOrg := lastOrganization(earliest)
	summary.PeopleGrowthRate = growthRate(float64(earliestOrg.PeopleCount), float64(latestOrg.PeopleCount))
}

// summarizeFinance takes revenue and net profit from the latest snapshot's
// most recent yearly record, with growth against the earliest snapshot.
// A missing net profit figure counts as zero, and so does a missing yearly
// record on either end of the window.
func summarizeFinance(summary *types.MetricsSummary, latest, earliest types.Metrics, multiple bool) {
	latestFin := lastFinance(latest)
	summary.Profit = latestFin.Profit
	summary.NetProfit = netProfitOrZero(latestFin)

	if !multiple {
		return
	}
	earliestFin := lastFinance(earliest)
	summary.ProfitGrowthRate = growthRate(float64(earliestFin.Profit), float64(latestFin.Profit))
	summary.NetProfitGrowthRate = growthRate(float64(netProfitOrZero(earliestFin)), float64(netProfitOrZero(latestFin)))
}

// summarizeInvestments sums funding across every snapshot in the window.
// Investors are deduplicated in first-seen order; levels keep one entry per
// funding event, duplicates included.
func summarizeInvestments(summary *types.MetricsSummary, snapshots []types.MetricSnapshot) {
	seenInvestor := make(map[string]bool)
	for _, snap := range snapshots {
		for _, inv := range snap.Metrics.Investments {
			summary.InvestmentAmount += inv.Amount
			summary.InvestmentLevels = append(summary.InvestmentLevels, inv.Level)
			for _, investor := range inv.Investors {
				if !seenInvestor[investor] {
					seenInvestor[investor] = true
					summary.Investors = append(summary.Investors, investor)
				}
			}
		}
	}
}

// summarizePatents collects patents across all snapshots, deduplicated by
// (level, title). Snapshots arrive latest-first, so the latest snapshot's
// record wins on duplicates.
func summarizePatents(summary *types.MetricsSummary, snapshots []types.MetricSnapshot) {
	type patentKey struct {
		level string
		title string
	}
	seen := make(map[patentKey]bool)
	for _, snap := range snapshots {
		for _, p := range snap.Metrics.Patents {
			key := patentKey{level: p.Level, title: p.Title}
			if seen[key] {
				continue
			}
			seen[key] = true
			summary.Patents = append(summary.Patents, p)
		}
	}
}

// summarizeMAU projects the latest snapshot's MAU records, keyed by product
// name. When a product appears more than once in the record list, the last
// record wins; the source feed appends corrections, so the last entry is the
// most recent figure.
func summarizeMAU(summary *types.MetricsSummary, latest types.Metrics) {
	if len(latest.MAU) == 0 {
		return
	}
	byProduct := make(map[string]types.MAU)
	var order []string
	for _, m := range latest.MAU {
		if _, ok := byProduct[m.ProductName]; !ok {
			order = append(order, m.ProductName)
		}
		byProduct[m.ProductName] = m
	}
	for _, name := range order {
		m := byProduct[name]
		s := types.MAUSummary{
			ProductName: m.ProductName,
			Value:       m.Value,
		}
		if m.GrowthRate != nil {
			s.GrowthRate = *m.GrowthRate
		}
		summary.MAUs = append(summary.MAUs, s)
	}
}

// lastOrganization returns the most recent headcount record, or the zero
// record when the snapshot carries none.
func lastOrganization(m types.Metrics) types.Organization {
	if len(m.Organizations) == 0 {
		return types.Organization{}
	}
	return m.Organizations[len(m.Organizations)-1]
}

// lastFinance returns the most recent yearly finance record, or the zero
// record when the snapshot carries none.
func lastFinance(m types.Metrics) types.Finance {
	if len(m.Finance) == 0 {
		return types.Finance{}
	}
	return m.Finance[len(m.Finance)-1]
}

func netProfitOrZero(f types.Finance) int64 {
	if f.NetProfit == nil {
		return 0
	}
	return *f.NetProfit
}
