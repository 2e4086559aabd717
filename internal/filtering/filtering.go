// Package filtering narrows a job list down before it is shown to a candidate.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/hirectl/internal/hiring"
)

// Filter represents a single filtering step applied to jobs.
type Filter interface {
	Name() string
	IsEnabled() bool
	Apply(ctx context.Context, jobs *hiring.Jobs) (*hiring.Jobs, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Run executes the supplied filters sequentially. Disabled filters are skipped.
func Run(ctx context.Context, logger *zap.Logger, steps []Filter, jobs *hiring.Jobs) (*hiring.Jobs, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, jobs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		jobs = next
	}

	return jobs, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns a new list with the jobs accepted by fn.
func keep(jobs *hiring.Jobs, fn func(*hiring.Job) bool) (*hiring.Jobs, Step) {
	out := &hiring.Jobs{Items: make([]*hiring.Job, 0, jobs.Len())}
	for _, job := range jobs.Items {
		if fn(job) {
			out.Items = append(out.Items, job)
		}
	}
	return out, Step{Initial: jobs.Len(), Dropped: jobs.Len() - out.Len(), Left: out.Len()}
}
