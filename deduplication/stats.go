package deduplication

import "qacurator/types"

// DedupStats summarizes one DuplicationResult.
type DedupStats struct {
	TotalInput            int         `json:"total_input_items"`
	GroupsFound           int         `json:"duplicate_groups_found"`
	TotalRemoved          int         `json:"total_duplicates_removed"`
	ItemsKept             int         `json:"items_kept"`
	Rate                  float64     `json:"deduplication_rate"`
	AverageGroupSize      float64     `json:"average_group_size"`
	LargestGroup          int         `json:"largest_duplicate_group"`
	GroupSizeDistribution map[int]int `json:"group_size_distribution"`
	ThresholdUsed         float64     `json:"similarity_threshold_used"`
}

// Stats computes DedupStats; Rate is a percentage of the input.
func Stats(result *types.DuplicationResult, threshold float64) DedupStats {
	s := DedupStats{
		GroupSizeDistribution: GroupSizeDistribution(result),
		ThresholdUsed:         threshold,
	}
	if result == nil {
		return s
	}
	s.TotalInput = len(result.KeptIndices) + len(result.RemovedIndices)
	s.GroupsFound = len(result.DuplicateGroups)
	s.TotalRemoved = result.TotalRemoved
	s.ItemsKept = len(result.KeptIndices)
	if s.TotalInput > 0 {
		s.Rate = float64(s.TotalRemoved) / float64(s.TotalInput) * 100
	}

	total := 0
	for _, g := range result.DuplicateGroups {
		total += len(g)
		s.LargestGroup = max(s.LargestGroup, len(g))
	}
	if s.GroupsFound > 0 {
		s.AverageGroupSize = float64(total) / float64(s.GroupsFound)
	}
	return s
}

// GroupSizeDistribution maps group size to the number of groups of that size.
func GroupSizeDistribution(result *types.DuplicationResult) map[int]int {
	dist := make(map[int]int)
	if result == nil {
		return dist
	}
	for _, g := range result.DuplicateGroups {
		dist[len(g)]++
	}
	return dist
}
