package ranking

import (
	"errors"
	"fmt"

	"github.com/spigell/hirectl/internal/hiring"
)

var ErrInconsistentRanking = errors.New("inconsistent ranking")

// Validate checks that ranks run 1..N without gaps or repeats and that each
// candidate appears once. Entries are expected in backend order.
func Validate(entries []hiring.RankingEntry) error {
	var errs []error

	ranks := make(map[int]struct{}, len(entries))
	candidates := make(map[int]struct{}, len(entries))

	for i, e := range entries {
		if _, ok := ranks[e.Rank]; ok {
			errs = append(errs, fmt.Errorf("%w: rank %d repeated", ErrInconsistentRanking, e.Rank))
		}
		ranks[e.Rank] = struct{}{}

		if e.Rank != i+1 {
			errs = append(errs, fmt.Errorf("%w: position %d has rank %d", ErrInconsistentRanking, i+1, e.Rank))
		}

		if _, ok := candidates[e.CandidateID]; ok {
			errs = append(errs, fmt.Errorf("%w: candidate %d listed twice", ErrInconsistentRanking, e.CandidateID))
		}
		candidates[e.CandidateID] = struct{}{}
	}

	return errors.Join(errs...)
}

// NeedsAssessment reports whether the candidate has not taken the quiz yet.
func NeedsAssessment(e hiring.RankingEntry) bool {
	return e.QuizScore == 0
}
