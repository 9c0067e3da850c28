package deduplication

import (
	"sort"

	"qacurator/types"
)

// FindDuplicateGroups returns the connected components of size ≥ 2 of the
// graph with an edge wherever matrix[i][j] ≥ threshold. Components are found
// with an explicit FIFO queue, so membership is transitive: A~B and B~C put
// A, B and C together even when A and C are not similar. Groups are sorted
// ascending and ordered by their smallest member.
func FindDuplicateGroups(matrix [][]float64, threshold float64) []types.DuplicateGroup {
	n := len(matrix)
	adjacency := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if matrix[i][j] >= threshold {
				adjacency[i] = append(adjacency[i], j)
				adjacency[j] = append(adjacency[j], i)
			}
		}
	}

	visited := make([]bool, n)
	groups := []types.DuplicateGroup{}
	queue := make([]int, 0, n)
	for start := 0; start < n; start++ {
		if visited[start] || len(adjacency[start]) == 0 {
			continue
		}
		visited[start] = true
		queue = append(queue[:0], start)
		group := types.DuplicateGroup{start}

		for head := 0; head < len(queue); head++ {
			for _, next := range adjacency[queue[head]] {
				if visited[next] {
					continue
				}
				visited[next] = true
				queue = append(queue, next)
				group = append(group, next)
			}
		}

		sort.Ints(group)
		groups = append(groups, group)
	}
	return groups
}

// SelectSurvivors keeps the highest-scoring member of each group, ties going
// to the lowest index, and every index outside a group. Both returned slices
// are sorted ascending and together cover [0, n).
func SelectSurvivors(groups []types.DuplicateGroup, scores []float64, n int) (kept, removed []int) {
	removedSet := make([]bool, n)
	for _, g := range groups {
		best := g[0]
		for _, idx := range g {
			if scores[idx] > scores[best] || (scores[idx] == scores[best] && idx < best) {
				best = idx
			}
		}
		for _, idx := range g {
			if idx != best {
				removedSet[idx] = true
			}
		}
	}

	kept = make([]int, 0, n)
	removed = []int{}
	for i := 0; i < n; i++ {
		if removedSet[i] {
			removed = append(removed, i)
		} else {
			kept = append(kept, i)
		}
	}
	return kept, removed
}
