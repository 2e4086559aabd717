package hiring

import (
	"context"
	"fmt"
	"net/http"
)

// QuizSubmission is the answer list for one attempt, aligned with the questions.
type QuizSubmission struct {
	JobID       int      `json:"job_id"`
	CandidateID int      `json:"candidate_id"`
	Answers     []string `json:"answers"`
}

// QuizResult holds the scores. FinalScore is nil when the backend omits it.
type QuizResult struct {
	Score      float64  `json:"score"`
	FinalScore *float64 `json:"final_score,omitempty"`
}

// GeneratedQuiz is returned by GenerateQuiz.
type GeneratedQuiz struct {
	Status         string `json:"status"`
	QuestionsCount int    `json:"questions_count"`
}

// QuizPayload returns the raw quiz body for jobID. Its shape is not guaranteed,
// so decoding is left to the caller.
func (c *Client) QuizPayload(ctx context.Context, jobID int) ([]byte, error) {
	return c.do(ctx, endpoint{method: http.MethodGet, route: "/quiz/{job_id}", path: fmt.Sprintf("/quiz/%d", jobID)}, nil, "")
}

// GenerateQuiz asks the backend to build a quiz for jobID.
func (c *Client) GenerateQuiz(ctx context.Context, jobID int) (*GeneratedQuiz, error) {
	var generated GeneratedQuiz
	ep := endpoint{method: http.MethodPost, route: "/generate-quiz/{job_id}", path: fmt.Sprintf("/generate-quiz/%d", jobID)}
	if err := c.postJSON(ctx, ep, nil, &generated); err != nil {
		return nil, err
	}
	return &generated, nil
}

// SubmitQuiz sends the answers and returns the scores.
func (c *Client) SubmitQuiz(ctx context.Context, submission QuizSubmission) (*QuizResult, error) {
	if submission.Answers == nil {
		submission.Answers = []string{}
	}

	var result QuizResult
	ep := endpoint{method: http.MethodPost, route: "/submit-quiz", path: "/submit-quiz"}
	if err := c.postJSON(ctx, ep, submission, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
