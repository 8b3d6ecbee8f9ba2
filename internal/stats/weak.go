package stats

import (
	"sort"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

// LowestCompletion returns up to top populations with the lowest completion
// rate. Ties keep summary order.
func LowestCompletion(summary model.Summary, top int) []model.PopulationSummary {
	if len(summary.ByPopulation) == 0 {
		return nil
	}
	candidates := make([]model.PopulationSummary, len(summary.ByPopulation))
	copy(candidates, summary.ByPopulation)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CompletionRate < candidates[j].CompletionRate
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}
