package hiring

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Job is the client's read-only projection of a posting. MatchScore and
// HasApplied are only filled by the candidate view.
type Job struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Requirements string   `json:"requirements,omitempty"`
	Company      string   `json:"company,omitempty"`
	RecruiterID  *int     `json:"recruiter_id,omitempty"`
	MatchScore   *float64 `json:"match_score,omitempty"`
	HasApplied   bool     `json:"has_applied,omitempty"`
}

// NewJob is the create-job form.
type NewJob struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
}

// Application is returned after applying to a job.
type Application struct {
	ID          int    `json:"id"`
	JobID       int    `json:"job_id"`
	CandidateID int    `json:"candidate_id"`
	Status      string `json:"status"`
}

// CandidateProfile is returned after a resume upload.
type CandidateProfile struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone,omitempty"`
	Skills          string   `json:"skills,omitempty"`
	TotalExperience *float64 `json:"total_experience,omitempty"`
	CurrentRole     string   `json:"current_role,omitempty"`
}

type Jobs struct {
	Items []*Job
}

func (j *Jobs) Len() int {
	return len(j.Items)
}

func (j *Jobs) FindByID(id int) *Job {
	for _, job := range j.Items {
		if job.ID == id {
			return job
		}
	}
	return nil
}

// MarkApplied flags the local projection after a successful application.
func (j *Jobs) MarkApplied(id int) {
	if job := j.FindByID(id); job != nil {
		job.HasApplied = true
	}
}

// Jobs lists every posting (recruiter view).
func (c *Client) Jobs(ctx context.Context) (*Jobs, error) {
	return c.listJobs(ctx, endpoint{method: http.MethodGet, route: "/jobs", path: "/jobs"})
}

// CandidateJobs lists postings annotated for the current candidate.
func (c *Client) CandidateJobs(ctx context.Context) (*Jobs, error) {
	return c.listJobs(ctx, endpoint{method: http.MethodGet, route: "/jobs/candidate-view", path: "/jobs/candidate-view"})
}

func (c *Client) listJobs(ctx context.Context, ep endpoint) (*Jobs, error) {
	var items []*Job
	if err := c.getJSON(ctx, ep, &items); err != nil {
		return nil, err
	}
	return &Jobs{Items: items}, nil
}

// CreateJob posts a new job.
func (c *Client) CreateJob(ctx context.Context, job NewJob) (*Job, error) {
	var created Job
	ep := endpoint{method: http.MethodPost, route: "/create-job", path: "/create-job"}
	if err := c.postJSON(ctx, ep, job, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Apply uploads a resume as an application to jobID.
func (c *Client) Apply(ctx context.Context, jobID int, filename string, resume io.Reader) (*Application, error) {
	var app Application
	ep := endpoint{method: http.MethodPost, route: "/apply/{job_id}", path: fmt.Sprintf("/apply/%d", jobID)}
	if err := c.postFile(ctx, ep, "file", filename, resume, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// UploadResume replaces the candidate's default resume.
func (c *Client) UploadResume(ctx context.Context, filename string, resume io.Reader) (*CandidateProfile, error) {
	var profile CandidateProfile
	ep := endpoint{method: http.MethodPost, route: "/upload-resume", path: "/upload-resume"}
	if err := c.postFile(ctx, ep, "file", filename, resume, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
