package main

import (
	"strings"
	"testing"

	"qacurator/pipeline"
	"qacurator/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBatch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{name: "object", input: `{"batch_id":"b1","source":"superuser","candidates":[{"question":{"title":"a"}},{"external_id":"x","question":{"title":"b"}}]}`, wantLen: 2},
		{name: "array", input: "  [{\"question\":{\"title\":\"a\"}}]\n", wantLen: 1},
		{name: "empty array", input: `[]`, wantLen: 0},
		{name: "garbage", input: `{"candidates":`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := readBatch([]byte(tc.input))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, b.Candidates, tc.wantLen)
			for _, c := range b.Candidates {
				assert.NotEmpty(t, c.ExternalID)
			}
		})
	}
}

func TestReadBatchKeepsExternalIDs(t *testing.T) {
	b, err := readBatch([]byte(`{"source":"superuser","candidates":[{"question":{"title":"a"}},{"external_id":"x","question":{"title":"b"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, types.GenerateID("superuser", "a"), b.Candidates[0].ExternalID)
	assert.Equal(t, "x", b.Candidates[1].ExternalID)
}

func TestRenderReport(t *testing.T) {
	res := &pipeline.Result{
		RunID: "run-42",
		Summary: pipeline.Summary{
			TotalInput:            10,
			RemovedByQuality:      3,
			RemovedByDedup:        2,
			TotalOutput:           5,
			TierDistribution:      map[types.Tier]int{types.TierGood: 4, types.TierPoor: 6},
			GroupSizeDistribution: map[int]int{2: 1, 3: 0},
		},
	}

	out := renderReport(res)
	for _, want := range []string{"run-42", "Total input", "Removed by dedup", "excellent", "poor", "Group size"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}

	res.Summary.DedupSkipped = true
	res.Summary.DedupError = "cohere: 429"
	assert.Contains(t, renderReport(res), "Deduplication skipped: cohere: 429")
}
