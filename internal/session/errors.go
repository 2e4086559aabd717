package session

import "errors"

var (
	// ErrLoginRequired means no identity is present and the user has to log in.
	ErrLoginRequired = errors.New("login required")
	// ErrInvalidToken is returned when a bearer token cannot be decoded.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownRole is returned for roles other than recruiter or candidate.
	ErrUnknownRole = errors.New("unknown role")
)
