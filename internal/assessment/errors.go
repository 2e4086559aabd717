package assessment

import (
	"errors"
	"fmt"

	"github.com/spigell/hirectl/internal/session"
)

var (
	// ErrMalformedPayload means the quiz body could not be parsed. The quiz is treated as empty.
	ErrMalformedPayload = errors.New("malformed quiz payload")
	// ErrUnexpectedShape means the quiz body parsed but holds no question list.
	ErrUnexpectedShape = errors.New("unexpected quiz payload shape")

	ErrMissingIdentifiers = errors.New("job id and candidate id are required")
	ErrIndexOutOfRange    = errors.New("question index out of range")
	ErrTerminal           = errors.New("assessment is finished, start a new one")
	ErrInvalidTransition  = errors.New("invalid assessment transition")

	// ErrSessionInvalidated is returned after the server rejected the token on submit.
	// The local session has been cleared and the user must log in again.
	ErrSessionInvalidated = fmt.Errorf("server rejected the session: %w", session.ErrLoginRequired)
)

// IsSoft reports a payload problem that leaves the assessment usable with no questions.
func IsSoft(err error) bool {
	return errors.Is(err, ErrMalformedPayload) || errors.Is(err, ErrUnexpectedShape)
}
