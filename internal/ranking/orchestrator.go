// Package ranking drives the recruiter's match and ranking workflow for jobs.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hirectl/internal/hiring"
	"github.com/spigell/hirectl/internal/logger"
	"github.com/spigell/hirectl/internal/metrics"
)

var (
	// ErrMatchInProgress is reported when a match for the same job is still pending.
	ErrMatchInProgress = errors.New("matching is already in progress for this job")
	// ErrStaleRanking is returned when the job was deselected while its ranking was loading.
	ErrStaleRanking = errors.New("ranking response is for a job that is no longer selected")
)

// Backend is the part of the hiring API used by the orchestrator.
type Backend interface {
	Match(ctx context.Context, jobID int) (*hiring.MatchResult, error)
	Ranking(ctx context.Context, jobID int) ([]hiring.RankingEntry, error)
	NotifyCandidate(ctx context.Context, jobID, candidateID int) error
	TopCandidate(ctx context.Context, jobID int) (*hiring.RankingEntry, error)
}

// Metrics receives match outcomes and displayed ranking sizes.
type Metrics interface {
	ObserveMatch(outcome string)
	SetRankingSize(jobID, n int)
}

type Option func(*Orchestrator)

func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// Orchestrator holds the ranking of the selected job. Only one job is
// displayed at a time; switching jobs discards the previous list.
type Orchestrator struct {
	backend Backend
	logger  *zap.Logger
	metrics Metrics

	mu       sync.RWMutex
	selected int
	entries  []hiring.RankingEntry
	fetchSeq uint64
	pending  map[int]struct{}

	wg sync.WaitGroup
}

func New(backend Backend, log *zap.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}

	o := &Orchestrator{
		backend: backend,
		logger:  log,
		pending: make(map[int]struct{}),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// TriggerMatch starts the backend match for jobID and returns a channel that
// receives exactly one result. When the job is selected (or nothing is) the
// ranking is refreshed after a successful match. A failed match leaves the
// displayed list untouched.
func (o *Orchestrator) TriggerMatch(ctx context.Context, jobID int) <-chan error {
	done := make(chan error, 1)

	o.mu.Lock()
	if _, ok := o.pending[jobID]; ok {
		o.mu.Unlock()
		o.observeMatch(metrics.OutcomeInProgress)
		done <- ErrMatchInProgress
		close(done)
		return done
	}
	o.pending[jobID] = struct{}{}
	o.mu.Unlock()

	log := logger.WithJob(o.logger, jobID, 0)
	log.Info("matching started")

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer close(done)

		res, err := o.backend.Match(ctx, jobID)

		o.mu.Lock()
		delete(o.pending, jobID)
		refresh := o.selected == 0 || o.selected == jobID
		o.mu.Unlock()

		if err != nil {
			o.observeMatch(metrics.OutcomeFailed)
			log.Warn("matching failed", zap.Error(err))
			done <- fmt.Errorf("matching job %d: %w", jobID, err)
			return
		}

		o.observeMatch(metrics.OutcomeSucceeded)
		log.Info("matching finished", zap.String("status", res.Status), zap.Int("candidates", res.CandidatesProcessed))

		if !refresh {
			done <- nil
			return
		}

		_, err = o.FetchRanking(ctx, jobID)
		if errors.Is(err, ErrStaleRanking) {
			err = nil
		}
		done <- err
	}()

	return done
}

// IsMatching reports whether a match for jobID is pending.
func (o *Orchestrator) IsMatching(jobID int) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.pending[jobID]
	return ok
}

// Wait blocks until every match started by TriggerMatch has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// FetchRanking selects jobID and replaces its list with the backend's order.
// On failure the displayed list is left as it was.
func (o *Orchestrator) FetchRanking(ctx context.Context, jobID int) ([]hiring.RankingEntry, error) {
	log := logger.WithJob(o.logger, jobID, 0)

	o.mu.Lock()
	if o.selected != jobID {
		o.selected = jobID
		o.entries = nil
	}
	o.fetchSeq++
	seq := o.fetchSeq
	o.mu.Unlock()

	entries, err := o.backend.Ranking(ctx, jobID)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.selected != jobID || o.fetchSeq != seq {
		log.Debug("dropping stale ranking response", zap.Int("selected", o.selected))
		return nil, ErrStaleRanking
	}

	if err != nil {
		log.Warn("fetching ranking failed", zap.Error(err))
		return nil, fmt.Errorf("fetching ranking for job %d: %w", jobID, err)
	}

	if vErr := Validate(entries); vErr != nil {
		log.Warn("backend ranking is inconsistent, showing it as is", zap.Error(vErr))
	}

	o.entries = append([]hiring.RankingEntry(nil), entries...)
	if o.metrics != nil {
		o.metrics.SetRankingSize(jobID, len(entries))
	}
	log.Debug("ranking updated", zap.Int("entries", len(entries)))

	return o.snapshotLocked(), nil
}

// Selected is the job whose ranking is displayed, 0 when none is.
func (o *Orchestrator) Selected() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.selected
}

// Rankings returns a copy of the displayed list.
func (o *Orchestrator) Rankings() []hiring.RankingEntry {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() []hiring.RankingEntry {
	out := make([]hiring.RankingEntry, len(o.entries))
	copy(out, o.entries)
	return out
}

// DispatchAssessment sends the candidate the assessment link. The displayed
// ranking only changes once the candidate submits and it is fetched again.
func (o *Orchestrator) DispatchAssessment(ctx context.Context, jobID, candidateID int) error {
	log := logger.WithJob(o.logger, jobID, candidateID)

	if err := o.backend.NotifyCandidate(ctx, jobID, candidateID); err != nil {
		log.Warn("assessment dispatch failed", zap.Error(err))
		return fmt.Errorf("notifying candidate %d: %w", candidateID, err)
	}

	log.Info("assessment dispatched")
	return nil
}

// TopCandidate returns the best ranked candidate for jobID. It does not change the selection.
func (o *Orchestrator) TopCandidate(ctx context.Context, jobID int) (*hiring.RankingEntry, error) {
	entry, err := o.backend.TopCandidate(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("top candidate for job %d: %w", jobID, err)
	}
	return entry, nil
}

// Watch fetches the ranking of jobID now and then on every tick until ctx is
// done, handing each result to fn. Errors do not stop the loop.
func (o *Orchestrator) Watch(ctx context.Context, jobID int, interval time.Duration, fn func([]hiring.RankingEntry, error)) {
	fn(o.FetchRanking(ctx, jobID))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(o.FetchRanking(ctx, jobID))
		}
	}
}

func (o *Orchestrator) observeMatch(outcome string) {
	if o.metrics != nil {
		o.metrics.ObserveMatch(outcome)
	}
}
