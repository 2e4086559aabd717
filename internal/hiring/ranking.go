package hiring

import (
	"context"
	"fmt"
	"net/http"
)

// RankingEntry is one candidate's position for a job. QuizScore is 0 until the
// candidate takes the assessment.
type RankingEntry struct {
	Rank          int     `json:"rank"`
	CandidateID   int     `json:"candidate_id"`
	CandidateName string  `json:"candidate_name"`
	MatchScore    float64 `json:"match_score"`
	QuizScore     float64 `json:"quiz_score"`
	FinalScore    float64 `json:"final_score"`
}

// MatchResult is the summary returned by Match.
type MatchResult struct {
	Status              string `json:"status"`
	CandidatesProcessed int    `json:"candidates_processed"`
}

// Match runs the backend matching computation for jobID. It may take a while.
func (c *Client) Match(ctx context.Context, jobID int) (*MatchResult, error) {
	var result MatchResult
	ep := endpoint{method: http.MethodPost, route: "/match/{job_id}", path: fmt.Sprintf("/match/%d", jobID)}
	if err := c.postJSON(ctx, ep, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ranking returns the ranked candidates for jobID in backend order.
func (c *Client) Ranking(ctx context.Context, jobID int) ([]RankingEntry, error) {
	var entries []RankingEntry
	ep := endpoint{method: http.MethodGet, route: "/ranking/{job_id}", path: fmt.Sprintf("/ranking/%d", jobID)}
	if err := c.getJSON(ctx, ep, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// TopCandidate returns the best ranked candidate for jobID.
func (c *Client) TopCandidate(ctx context.Context, jobID int) (*RankingEntry, error) {
	var entry RankingEntry
	ep := endpoint{method: http.MethodGet, route: "/top-candidate/{job_id}", path: fmt.Sprintf("/top-candidate/%d", jobID)}
	if err := c.getJSON(ctx, ep, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// NotifyCandidate emails the candidate a link to the job's assessment.
func (c *Client) NotifyCandidate(ctx context.Context, jobID, candidateID int) error {
	ep := endpoint{
		method: http.MethodPost,
		route:  "/notify-candidate/{job_id}/{candidate_id}",
		path:   fmt.Sprintf("/notify-candidate/%d/%d", jobID, candidateID),
	}
	return c.postJSON(ctx, ep, nil, nil)
}
