package engine

import (
	"sort"

	"github.com/scoutline/careerctx/pkg/types"
)

// AssembleContexts orders period contexts chronologically by period start,
// earliest first. A start month of 0 sorts as January of its year. The sort
// is stable, so periods sharing a start month keep their profile order.
func AssembleContexts(contexts []types.PeriodContext) []types.PeriodContext {
	assembled := make([]types.PeriodContext, len(contexts))
	copy(assembled, contexts)
	sort.SliceStable(assembled, func(i, j int) bool {
		return assembled[i].Period.Start.Before(assembled[j].Period.Start)
	})
	return assembled
}
