package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spigell/hirectl/internal/hiring"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries []hiring.RankingEntry
		valid   bool
	}{
		{name: "empty", valid: true},
		{name: "contiguous", entries: []hiring.RankingEntry{{Rank: 1, CandidateID: 1}, {Rank: 2, CandidateID: 2}, {Rank: 3, CandidateID: 3}}, valid: true},
		{name: "gap", entries: []hiring.RankingEntry{{Rank: 1, CandidateID: 1}, {Rank: 3, CandidateID: 2}}},
		{name: "starts at zero", entries: []hiring.RankingEntry{{Rank: 0, CandidateID: 1}}},
		{name: "repeated rank", entries: []hiring.RankingEntry{{Rank: 1, CandidateID: 1}, {Rank: 1, CandidateID: 2}}},
		{name: "repeated candidate", entries: []hiring.RankingEntry{{Rank: 1, CandidateID: 1}, {Rank: 2, CandidateID: 1}}},
		{name: "out of order", entries: []hiring.RankingEntry{{Rank: 2, CandidateID: 1}, {Rank: 1, CandidateID: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.entries)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInconsistentRanking)
		})
	}
}
