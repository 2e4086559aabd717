package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldJobID is the structured log field key for a job identifier.
	FieldJobID = "job_id"
	// FieldCandidateID is the structured log field key for a candidate identifier.
	FieldCandidateID = "candidate_id"
	// FieldSubject is the structured log field key for the authenticated subject.
	FieldSubject = "subject"
	// FieldRole is the structured log field key for the authenticated role.
	FieldRole = "role"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches the provided fields to the logger.
// A nil logger is replaced with a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// JobFields returns the job and candidate fields. Non-positive ids are skipped.
func JobFields(jobID, candidateID int) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if jobID > 0 {
		fields = append(fields, zap.Int(FieldJobID, jobID))
	}
	if candidateID > 0 {
		fields = append(fields, zap.Int(FieldCandidateID, candidateID))
	}
	return fields
}

// WithJob attaches job and candidate fields to the logger.
func WithJob(logger *zap.Logger, jobID, candidateID int) *zap.Logger {
	return WithFields(logger, JobFields(jobID, candidateID)...)
}

// IdentityFields describes an authenticated user. Empty values are dropped.
func IdentityFields(subject, role string) []zap.Field {
	return StringFields(
		StringField{Key: FieldSubject, Value: subject},
		StringField{Key: FieldRole, Value: role},
	)
}
