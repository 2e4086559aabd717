package assessment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/hirectl/internal/hiring"
	"github.com/spigell/hirectl/internal/logger"
	"github.com/spigell/hirectl/internal/session"
)

type State int

const (
	Idle State = iota
	Acquiring
	Active
	Submitting
	Scored
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Acquiring:
		return "acquiring"
	case Active:
		return "active"
	case Submitting:
		return "submitting"
	case Scored:
		return "scored"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal states accept no further operation.
func (s State) Terminal() bool {
	return s == Scored || s == Failed
}

var transitions = map[State][]State{
	Idle:       {Acquiring},
	Acquiring:  {Active, Failed},
	Active:     {Submitting},
	Submitting: {Scored, Active, Failed},
}

func validTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

const (
	msgQuizNotFound = "Quiz not found or not yet generated for this job"
	msgQuizFailed   = "Failed to load the quiz"
)

// Backend is the part of the hiring API an assessment talks to.
type Backend interface {
	Fetcher
	SubmitQuiz(ctx context.Context, submission hiring.QuizSubmission) (*hiring.QuizResult, error)
}

// Auth is the session the assessment runs under.
type Auth interface {
	Identity() *session.Identity
	Logout() error
}

// Result holds the scores of a submitted assessment.
type Result struct {
	RawScore   float64
	FinalScore float64
}

// Session is one attempt at a job's quiz. It is safe for concurrent use;
// the network calls run without holding the lock.
type Session struct {
	backend Backend
	auth    Auth
	logger  *zap.Logger

	mu          sync.Mutex
	state       State
	jobID       int
	candidateID int
	questions   []Question
	answers     map[int]string
	result      *Result
	message     string
}

func NewSession(backend Backend, auth Auth, log *zap.Logger, jobID, candidateID int) *Session {
	if log == nil {
		log = zap.NewNop()
	}

	return &Session{
		backend:     backend,
		auth:        auth,
		logger:      log,
		state:       Idle,
		jobID:       jobID,
		candidateID: candidateID,
		answers:     make(map[int]string),
	}
}

// SetIdentifiers replaces the job and candidate ids before Start.
func (s *Session) SetIdentifiers(jobID, candidateID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(Idle); err != nil {
		return err
	}

	s.jobID, s.candidateID = jobID, candidateID
	return nil
}

// Start loads the quiz. The session ends up Active, even with zero questions,
// or Failed when the backend could not provide the quiz.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if err := s.requireLocked(Idle); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.jobID <= 0 || s.candidateID <= 0 {
		s.mu.Unlock()
		return ErrMissingIdentifiers
	}
	if s.auth.Identity() == nil {
		s.mu.Unlock()
		return session.ErrLoginRequired
	}
	if err := s.transitionLocked(Acquiring); err != nil {
		s.mu.Unlock()
		return err
	}
	jobID := s.jobID
	s.mu.Unlock()

	questions, err := Fetch(ctx, s.backend, jobID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil && !IsSoft(err) {
		s.message = msgQuizFailed
		if hiring.IsNotFound(err) {
			s.message = msgQuizNotFound
		}
		if tErr := s.transitionLocked(Failed); tErr != nil {
			return tErr
		}
		return fmt.Errorf("%s: %w", s.message, err)
	}

	if err != nil {
		s.logger.Warn("quiz payload normalized to an empty list", append(s.fieldsLocked(), zap.Error(err))...)
	}

	s.questions = questions
	return s.transitionLocked(Active)
}

// Select records option for the question at index. The last write wins.
func (s *Session) Select(index int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(Active); err != nil {
		return err
	}
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, len(s.questions))
	}

	s.answers[index] = option
	return nil
}

// Answers returns one answer per question, "" where nothing was selected.
func (s *Session) Answers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answersLocked()
}

func (s *Session) answersLocked() []string {
	out := make([]string, len(s.questions))
	for i := range out {
		out[i] = s.answers[i]
	}
	return out
}

// Submit sends the answers. A 401 logs the user out and ends the session;
// other failures return to Active so the user can retry.
func (s *Session) Submit(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if err := s.requireLocked(Active); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.auth.Identity() == nil {
		s.mu.Unlock()
		return nil, session.ErrLoginRequired
	}
	if err := s.transitionLocked(Submitting); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	submission := hiring.QuizSubmission{
		JobID:       s.jobID,
		CandidateID: s.candidateID,
		Answers:     s.answersLocked(),
	}
	s.mu.Unlock()

	res, err := s.backend.SubmitQuiz(ctx, submission)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if hiring.StatusCode(err) == http.StatusUnauthorized {
			if lErr := s.auth.Logout(); lErr != nil {
				s.logger.Error("failed to clear rejected session", zap.Error(lErr))
			}
			s.message = "Your session has expired, log in again"
			if tErr := s.transitionLocked(Failed); tErr != nil {
				return nil, tErr
			}
			return nil, ErrSessionInvalidated
		}

		if tErr := s.transitionLocked(Active); tErr != nil {
			return nil, tErr
		}
		return nil, fmt.Errorf("submitting quiz: %w", err)
	}

	result := &Result{RawScore: res.Score, FinalScore: res.Score}
	if res.FinalScore != nil {
		result.FinalScore = *res.FinalScore
	}
	s.result = result

	if err := s.transitionLocked(Scored); err != nil {
		return nil, err
	}

	out := *result
	return &out, nil
}

func (s *Session) requireLocked(want State) error {
	if s.state.Terminal() {
		return ErrTerminal
	}
	if s.state != want {
		return fmt.Errorf("%w: session is %s, want %s", ErrInvalidTransition, s.state, want)
	}
	return nil
}

func (s *Session) transitionLocked(to State) error {
	if !validTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}

	s.logger.Debug("assessment transition",
		append(s.fieldsLocked(), zap.Stringer("from", s.state), zap.Stringer("to", to))...,
	)
	s.state = to

	return nil
}

func (s *Session) fieldsLocked() []zap.Field {
	return logger.JobFields(s.jobID, s.candidateID)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Questions returns a copy of the loaded questions.
func (s *Session) Questions() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Result returns the scores once the session is Scored.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	out := *s.result
	return &out
}

// Message is the user-facing explanation of a Failed session.
func (s *Session) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func (s *Session) JobID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobID
}

func (s *Session) CandidateID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidateID
}

// Redirect reports whether err should send the user to the login flow.
func Redirect(err error) bool {
	return errors.Is(err, session.ErrLoginRequired)
}
