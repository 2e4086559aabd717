package filtering

import (
	"context"
	"strconv"
	"strings"

	"github.com/spigell/hirectl/internal/hiring"
)

type appliedFilter struct {
	include bool
}

// NewApplied creates a filter that removes jobs the candidate already applied to.
// With include set it keeps them.
func NewApplied(include bool) Filter {
	return &appliedFilter{include: include}
}

func (f *appliedFilter) Name() string { return "applied" }

func (f *appliedFilter) IsEnabled() bool { return !f.include }

func (f *appliedFilter) Apply(_ context.Context, jobs *hiring.Jobs) (*hiring.Jobs, Step, error) {
	out, step := keep(jobs, func(j *hiring.Job) bool { return !j.HasApplied })
	return out, step, nil
}

func (f *appliedFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Details: map[string]string{"exclude_applied": strconv.FormatBool(!f.include)},
	}
}

type minScoreFilter struct {
	min float64
}

// NewMinScore drops jobs whose match score is below minimum. Jobs without a score
// are kept. A non-positive minimum disables the filter.
func NewMinScore(minimum float64) Filter {
	return &minScoreFilter{min: minimum}
}

func (f *minScoreFilter) Name() string { return "min_match_score" }

func (f *minScoreFilter) IsEnabled() bool { return f.min > 0 }

func (f *minScoreFilter) Apply(_ context.Context, jobs *hiring.Jobs) (*hiring.Jobs, Step, error) {
	out, step := keep(jobs, func(j *hiring.Job) bool {
		return j.MatchScore == nil || *j.MatchScore >= f.min
	})
	return out, step, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Details: map[string]string{"minimum": strconv.FormatFloat(f.min, 'f', -1, 64)},
	}
}

type keywordFilter struct {
	keywords []string
}

// NewKeywords keeps jobs whose title, description or requirements mention any
// of the keywords, case-insensitively.
func NewKeywords(keywords []string) Filter {
	f := &keywordFilter{}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			f.keywords = append(f.keywords, k)
		}
	}
	return f
}

func (f *keywordFilter) Name() string { return "keywords" }

func (f *keywordFilter) IsEnabled() bool { return len(f.keywords) > 0 }

func (f *keywordFilter) Apply(_ context.Context, jobs *hiring.Jobs) (*hiring.Jobs, Step, error) {
	out, step := keep(jobs, func(j *hiring.Job) bool {
		text := strings.ToLower(strings.Join([]string{j.Title, j.Description, j.Requirements}, " "))
		for _, k := range f.keywords {
			if strings.Contains(text, k) {
				return true
			}
		}
		return false
	})
	return out, step, nil
}
