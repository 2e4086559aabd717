package ranking

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spigell/hirectl/internal/hiring"
	"github.com/spigell/hirectl/internal/metrics"
)

type fakeBackend struct {
	mu        sync.Mutex
	rankings  map[int][]hiring.RankingEntry
	rankErr   map[int]error
	matchErr  map[int]error
	matchGate map[int]chan struct{}
	rankGate  map[int]chan struct{}
	notified  [][2]int
	matches   []int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		rankings:  map[int][]hiring.RankingEntry{},
		rankErr:   map[int]error{},
		matchErr:  map[int]error{},
		matchGate: map[int]chan struct{}{},
		rankGate:  map[int]chan struct{}{},
	}
}

func (f *fakeBackend) Match(ctx context.Context, jobID int) (*hiring.MatchResult, error) {
	f.mu.Lock()
	f.matches = append(f.matches, jobID)
	gate := f.matchGate[jobID]
	err := f.matchErr[jobID]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &hiring.MatchResult{Status: "matched", CandidatesProcessed: 2}, nil
}

func (f *fakeBackend) Ranking(ctx context.Context, jobID int) ([]hiring.RankingEntry, error) {
	f.mu.Lock()
	gate := f.rankGate[jobID]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.rankErr[jobID]; err != nil {
		return nil, err
	}
	return append([]hiring.RankingEntry(nil), f.rankings[jobID]...), nil
}

func (f *fakeBackend) NotifyCandidate(_ context.Context, jobID, candidateID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, [2]int{jobID, candidateID})
	return nil
}

func (f *fakeBackend) TopCandidate(_ context.Context, jobID int) (*hiring.RankingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rankings[jobID]) == 0 {
		return nil, &hiring.APIError{StatusCode: http.StatusNotFound, Detail: "No candidates found"}
	}
	top := f.rankings[jobID][0]
	return &top, nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes []string
	sizes    map[int]int
}

func (m *fakeMetrics) ObserveMatch(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *fakeMetrics) SetRankingSize(jobID, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sizes == nil {
		m.sizes = map[int]int{}
	}
	m.sizes[jobID] = n
}

var (
	job3 = []hiring.RankingEntry{
		{Rank: 1, CandidateID: 10, CandidateName: "Ann", MatchScore: 90, QuizScore: 80, FinalScore: 86},
		{Rank: 2, CandidateID: 11, CandidateName: "Bob", MatchScore: 70, FinalScore: 49},
	}
	job4 = []hiring.RankingEntry{
		{Rank: 1, CandidateID: 12, CandidateName: "Cid", MatchScore: 60, FinalScore: 42},
	}
)

func wait(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("match did not finish")
		return nil
	}
}

func TestMatchThenRankingKeepsOtherJobUntouched(t *testing.T) {
	backend := newFakeBackend()
	backend.rankings[3] = job3
	backend.rankings[4] = job4
	gate := make(chan struct{})
	backend.matchGate[4] = gate

	m := &fakeMetrics{}
	o := New(backend, zaptest.NewLogger(t), WithMetrics(m))
	ctx := context.Background()

	require.NoError(t, wait(t, o.TriggerMatch(ctx, 3)))
	assert.Equal(t, 3, o.Selected())
	assert.Equal(t, job3, o.Rankings())

	done := o.TriggerMatch(ctx, 4)
	require.Eventually(t, func() bool { return o.IsMatching(4) }, time.Second, time.Millisecond)
	assert.False(t, o.IsMatching(3))
	assert.Equal(t, job3, o.Rankings())

	close(gate)
	require.NoError(t, wait(t, done))
	assert.False(t, o.IsMatching(4))

	assert.Equal(t, 3, o.Selected())
	assert.Equal(t, job3, o.Rankings())

	got, err := o.FetchRanking(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, job4, got)
	assert.Equal(t, 4, o.Selected())
	assert.Equal(t, job4, o.Rankings())

	assert.Equal(t, []string{metrics.OutcomeSucceeded, metrics.OutcomeSucceeded}, m.outcomes)
	assert.Equal(t, map[int]int{3: 2, 4: 1}, m.sizes)
}

func TestTriggerMatchRejectsDuplicate(t *testing.T) {
	backend := newFakeBackend()
	gate := make(chan struct{})
	backend.matchGate[5] = gate

	m := &fakeMetrics{}
	o := New(backend, nil, WithMetrics(m))

	first := o.TriggerMatch(context.Background(), 5)
	require.Eventually(t, func() bool { return o.IsMatching(5) }, time.Second, time.Millisecond)

	assert.ErrorIs(t, wait(t, o.TriggerMatch(context.Background(), 5)), ErrMatchInProgress)

	close(gate)
	require.NoError(t, wait(t, first))
	o.Wait()

	assert.Equal(t, []int{5}, backend.matches)
	assert.Equal(t, []string{metrics.OutcomeInProgress, metrics.OutcomeSucceeded}, m.outcomes)
}

func TestFailedMatchKeepsList(t *testing.T) {
	backend := newFakeBackend()
	backend.rankings[3] = job3
	backend.matchErr[3] = &hiring.APIError{StatusCode: http.StatusInternalServerError, Detail: "embedding service down"}

	o := New(backend, nil)
	_, err := o.FetchRanking(context.Background(), 3)
	require.NoError(t, err)

	backend.rankings[3] = nil

	err = wait(t, o.TriggerMatch(context.Background(), 3))
	require.Error(t, err)
	assert.Equal(t, "embedding service down", hiring.Detail(err))
	assert.Equal(t, job3, o.Rankings())
}

func TestFetchFailureKeepsList(t *testing.T) {
	backend := newFakeBackend()
	backend.rankings[3] = job3

	o := New(backend, nil)
	_, err := o.FetchRanking(context.Background(), 3)
	require.NoError(t, err)

	backend.rankErr[3] = &hiring.APIError{StatusCode: http.StatusUnauthorized, Detail: "Not authenticated"}

	_, err = o.FetchRanking(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, hiring.IsUnauthorized(err))
	assert.Equal(t, job3, o.Rankings())
}

func TestSelectingAnotherJobDiscardsList(t *testing.T) {
	backend := newFakeBackend()
	backend.rankings[3] = job3
	backend.rankErr[4] = errors.New("unreachable")

	o := New(backend, nil)
	_, err := o.FetchRanking(context.Background(), 3)
	require.NoError(t, err)

	_, err = o.FetchRanking(context.Background(), 4)
	require.Error(t, err)
	assert.Equal(t, 4, o.Selected())
	assert.Empty(t, o.Rankings())
}

func TestStaleRankingIsDropped(t *testing.T) {
	backend := newFakeBackend()
	backend.rankings[3] = job3
	backend.rankings[4] = job4
	gate := make(chan struct{})
	backend.rankGate[3] = gate

	o := New(backend, nil)

	result := make(chan error, 1)
	go func() {
		_, err := o.FetchRanking(context.Background(), 3)
		result <- err
	}()
	require.Eventually(t, func() bool { return o.Selected() == 3 }, time.Second, time.Millisecond)

	_, err := o.FetchRanking(context.Background(), 4)
	require.NoError(t, err)

	close(gate)
	assert.ErrorIs(t, <-result, ErrStaleRanking)
	assert.Equal(t, 4, o.Selected())
	assert.Equal(t, job4, o.Rankings())
}

func TestInconsistentRankingIsShownAsIs(t *testing.T) {
	backend := newFakeBackend()
	odd := []hiring.RankingEntry{
		{Rank: 2, CandidateID: 1, FinalScore: 10},
		{Rank: 1, CandidateID: 2, FinalScore: 90},
	}
	backend.rankings[8] = odd

	o := New(backend, nil)
	got, err := o.FetchRanking(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, odd, got)
}

func TestDispatchAssessmentLeavesList(t *testing.T) {
	backend := newFakeBackend()
	backend.rankings[3] = job3

	o := New(backend, nil)
	_, err := o.FetchRanking(context.Background(), 3)
	require.NoError(t, err)

	require.NoError(t, o.DispatchAssessment(context.Background(), 3, 11))
	assert.Equal(t, [][2]int{{3, 11}}, backend.notified)
	assert.Equal(t, job3, o.Rankings())
	assert.True(t, NeedsAssessment(o.Rankings()[1]))
	assert.False(t, NeedsAssessment(o.Rankings()[0]))
}

func TestTopCandidate(t *testing.T) {
	backend := newFakeBackend()
	backend.rankings[3] = job3

	o := New(backend, nil)
	top, err := o.TopCandidate(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Ann", top.CandidateName)
	assert.Zero(t, o.Selected())

	_, err = o.TopCandidate(context.Background(), 9)
	assert.True(t, hiring.IsNotFound(err))
}

func TestWatchPollsUntilCancelled(t *testing.T) {
	backend := newFakeBackend()
	backend.rankings[3] = job3

	o := New(backend, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		o.Watch(ctx, 3, 5*time.Millisecond, func(entries []hiring.RankingEntry, err error) {
			assert.NoError(t, err)
			assert.Equal(t, job3, entries)
			calls++
			if calls == 3 {
				cancel()
			}
		})
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.GreaterOrEqual(t, calls, 3)
}
