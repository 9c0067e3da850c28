package types

// DuplicateGroup is a sorted set of at least two batch indices that are
// directly or transitively similar above the configured threshold.
type DuplicateGroup []int

// DuplicationResult partitions a batch into kept and removed indices.
type DuplicationResult struct {
	KeptIndices      []int            `json:"kept_indices"`
	RemovedIndices   []int            `json:"removed_indices"`
	DuplicateGroups  []DuplicateGroup `json:"duplicate_groups"`
	SimilarityMatrix [][]float64      `json:"similarity_matrix,omitempty"`
	TotalRemoved     int              `json:"total_removed"`
}

// DedupInfo is attached to every candidate that survives deduplication.
type DedupInfo struct {
	WasDuplicate bool `json:"was_duplicate"`
	GroupSize    int  `json:"duplicate_group_size"`
}
