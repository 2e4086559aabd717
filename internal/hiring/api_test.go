package hiring

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/hirectl/internal/hiring/hiringtest"
)

func TestLoginUsesPasswordForm(t *testing.T) {
	srv := hiringtest.NewServer(t)
	srv.Router.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			hiringtest.Detail(w, http.StatusBadRequest, err.Error())
			return
		}
		if r.PostForm.Get("grant_type") != "password" || r.PostForm.Get("username") != "jane@example.com" {
			hiringtest.Detail(w, http.StatusUnprocessableEntity, "bad form")
			return
		}
		if r.PostForm.Get("password") != "secret" {
			hiringtest.Detail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		hiringtest.JSON(w, http.StatusOK, map[string]any{
			"access_token": "tok",
			"token_type":   "bearer",
			"role":         "candidate",
			"user_id":      17,
		})
	})

	c := newTestClient(srv, "")

	resp, err := c.Login(context.Background(), "jane@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, &AuthResponse{AccessToken: "tok", TokenType: "bearer", Role: "candidate", UserID: 17}, resp)
	assert.True(t, strings.HasPrefix(srv.Requests()[0].ContentType, "application/x-www-form-urlencoded"))
	assert.NotEmpty(t, srv.Requests()[0].RequestID)

	_, err = c.Login(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Equal(t, "Incorrect username or password", Detail(err))
}

func TestRegister(t *testing.T) {
	srv := hiringtest.NewServer(t)
	srv.Router.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var reg Registration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			hiringtest.Detail(w, http.StatusBadRequest, err.Error())
			return
		}
		if reg.Email == "taken@example.com" {
			hiringtest.Detail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		hiringtest.JSON(w, http.StatusOK, AuthResponse{AccessToken: "new", TokenType: "bearer", Role: reg.Role, UserID: 3})
	})

	c := newTestClient(srv, "")

	resp, err := c.Register(context.Background(), Registration{Email: "r@example.com", Password: "p", Name: "R", Role: "recruiter"})
	require.NoError(t, err)
	assert.Equal(t, "recruiter", resp.Role)
	assert.Equal(t, 3, resp.UserID)

	_, err = c.Register(context.Background(), Registration{Email: "taken@example.com"})
	require.Error(t, err)
	assert.Equal(t, "Email already registered", Detail(err))
}

func TestCandidateJobs(t *testing.T) {
	srv := hiringtest.NewServer(t)
	srv.Router.Get("/jobs/candidate-view", func(w http.ResponseWriter, _ *http.Request) {
		hiringtest.Raw(w, http.StatusOK, `[
			{"id": 1, "title": "Go", "description": "d", "match_score": 81.5, "has_applied": true},
			{"id": 2, "title": "Rust", "description": "d"}
		]`)
	})

	jobs, err := newTestClient(srv, "t").CandidateJobs(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, jobs.Len())

	first := jobs.FindByID(1)
	require.NotNil(t, first.MatchScore)
	assert.Equal(t, 81.5, *first.MatchScore)
	assert.True(t, first.HasApplied)

	second := jobs.FindByID(2)
	assert.Nil(t, second.MatchScore)
	assert.False(t, second.HasApplied)

	jobs.MarkApplied(2)
	assert.True(t, jobs.FindByID(2).HasApplied)
	assert.Nil(t, jobs.FindByID(99))
}

func TestApplyUploadsMultipartFile(t *testing.T) {
	srv := hiringtest.NewServer(t)
	srv.Router.Post("/apply/{jobID}", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			hiringtest.Detail(w, http.StatusBadRequest, err.Error())
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		if header.Filename != "cv.pdf" || string(content) != "resume-bytes" {
			hiringtest.Detail(w, http.StatusBadRequest, "unexpected upload")
			return
		}
		hiringtest.JSON(w, http.StatusOK, Application{ID: 1, JobID: 5, CandidateID: 2, Status: "applied"})
	})

	app, err := newTestClient(srv, "t").Apply(context.Background(), 5, "cv.pdf", strings.NewReader("resume-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "applied", app.Status)
	assert.Equal(t, 1, srv.Count(http.MethodPost, "/apply/5"))
}

func TestSubmitQuiz(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		final *float64
	}{
		{name: "with final score", body: `{"score": 66.7, "final_score": 71.2}`, final: ptr(71.2)},
		{name: "raw score only", body: `{"score": 100.0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := hiringtest.NewServer(t)
			srv.Router.Post("/submit-quiz", func(w http.ResponseWriter, _ *http.Request) {
				hiringtest.Raw(w, http.StatusOK, tt.body)
			})

			res, err := newTestClient(srv, "t").SubmitQuiz(context.Background(), QuizSubmission{JobID: 7, CandidateID: 1})
			require.NoError(t, err)
			assert.Equal(t, tt.final, res.FinalScore)

			var sent map[string]any
			require.NoError(t, json.Unmarshal(srv.Requests()[0].Body, &sent))
			assert.Equal(t, []any{}, sent["answers"])
			assert.Equal(t, 7.0, sent["job_id"])
		})
	}
}

func TestQuizPayloadIsRaw(t *testing.T) {
	srv := hiringtest.NewServer(t)
	srv.Router.Get("/quiz/{jobID}", func(w http.ResponseWriter, _ *http.Request) {
		hiringtest.Raw(w, http.StatusOK, `"[{\"question\": \"q\"}]"`)
	})

	raw, err := newTestClient(srv, "t").QuizPayload(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, `"[{\"question\": \"q\"}]"`, string(raw))
}

func TestRankingEndpoints(t *testing.T) {
	srv := hiringtest.NewServer(t)
	srv.Router.Get("/ranking/{jobID}", func(w http.ResponseWriter, _ *http.Request) {
		hiringtest.JSON(w, http.StatusOK, []RankingEntry{
			{Rank: 1, CandidateID: 4, CandidateName: "Ann", MatchScore: 90, QuizScore: 80, FinalScore: 86},
			{Rank: 2, CandidateID: 9, CandidateName: "Bob", MatchScore: 70, FinalScore: 49},
		})
	})
	srv.Router.Get("/top-candidate/{jobID}", func(w http.ResponseWriter, _ *http.Request) {
		hiringtest.JSON(w, http.StatusOK, RankingEntry{Rank: 1, CandidateID: 4, CandidateName: "Ann"})
	})
	srv.Router.Post("/notify-candidate/{jobID}/{candidateID}", func(w http.ResponseWriter, _ *http.Request) {
		hiringtest.JSON(w, http.StatusOK, map[string]string{"status": "sent"})
	})
	srv.Router.Post("/match/{jobID}", func(w http.ResponseWriter, _ *http.Request) {
		hiringtest.JSON(w, http.StatusOK, MatchResult{Status: "matched", CandidatesProcessed: 2})
	})

	c := newTestClient(srv, "t")
	ctx := context.Background()

	match, err := c.Match(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, match.CandidatesProcessed)

	entries, err := c.Ranking(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Bob", entries[1].CandidateName)

	top, err := c.TopCandidate(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, top.CandidateID)

	require.NoError(t, c.NotifyCandidate(ctx, 3, 9))
	assert.Equal(t, 1, srv.Count(http.MethodPost, "/notify-candidate/3/9"))
}

func ptr(f float64) *float64 { return &f }
