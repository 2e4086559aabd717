package assessment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []Question
		softErr error
	}{
		{
			name: "array",
			raw:  `[{"question": "2+2?", "options": ["3", "4"], "correct_answer": "4"}]`,
			want: []Question{{Prompt: "2+2?", Options: []string{"3", "4"}, CorrectOption: "4"}},
		},
		{
			name: "string encoded array",
			raw:  `"[{\"question\": \"Q1\", \"options\": [\"a\", \"b\"]}, {\"question\": \"Q2\", \"options\": [\"c\"]}]"`,
			want: []Question{
				{Prompt: "Q1", Options: []string{"a", "b"}},
				{Prompt: "Q2", Options: []string{"c"}},
			},
		},
		{
			name: "wrapped in questions",
			raw:  `{"questions": [{"prompt": "Q", "options": ["x"], "correct_option": "x"}]}`,
			want: []Question{{Prompt: "Q", Options: []string{"x"}, CorrectOption: "x"}},
		},
		{
			name: "string encoded wrapper",
			raw:  `"{\"questions\": [{\"question\": \"Q\"}]}"`,
			want: []Question{{Prompt: "Q", Options: []string{}}},
		},
		{
			name: "empty array",
			raw:  `[]`,
			want: []Question{},
		},
		{
			name:    "object without questions",
			raw:     `{}`,
			want:    []Question{},
			softErr: ErrUnexpectedShape,
		},
		{
			name:    "questions is not an array",
			raw:     `{"questions": "soon"}`,
			want:    []Question{},
			softErr: ErrUnexpectedShape,
		},
		{
			name:    "scalar",
			raw:     `42`,
			want:    []Question{},
			softErr: ErrUnexpectedShape,
		},
		{
			name:    "string that is not json",
			raw:     `"not json"`,
			want:    []Question{},
			softErr: ErrMalformedPayload,
		},
		{
			name:    "body that is not json",
			raw:     `<html>oops</html>`,
			want:    []Question{},
			softErr: ErrMalformedPayload,
		},
		{
			name:    "empty body",
			raw:     ``,
			want:    []Question{},
			softErr: ErrMalformedPayload,
		},
		{
			name: "missing options and non object elements keep positions",
			raw:  `[{"question": "Q1"}, "junk", 7, {"question": "Q4", "options": ["a"]}]`,
			want: []Question{
				{Prompt: "Q1", Options: []string{}},
				{Options: []string{}},
				{Options: []string{}},
				{Prompt: "Q4", Options: []string{"a"}},
			},
		},
		{
			name: "numeric options are read as text",
			raw:  `[{"question": "pick", "options": [1, 2], "correct_answer": 2}]`,
			want: []Question{{Prompt: "pick", Options: []string{"1", "2"}, CorrectOption: float64(2)}},
		},
		{
			name: "correct option is kept as sent",
			raw:  `[{"question": "Q", "options": ["x", "y"], "correct_answer": ["x", "y"]}]`,
			want: []Question{{Prompt: "Q", Options: []string{"x", "y"}, CorrectOption: []any{"x", "y"}}},
		},
		{
			name: "options that are not a list",
			raw:  `[{"question": "Q", "options": {"a": "b"}, "correct_answer": ["x"]}, {"question": "R", "options": "a,b"}]`,
			want: []Question{
				{Prompt: "Q", Options: []string{}, CorrectOption: []any{"x"}},
				{Prompt: "R", Options: []string{}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize([]byte(tt.raw))
			if tt.softErr != nil {
				require.ErrorIs(t, err, tt.softErr)
				assert.True(t, IsSoft(err))
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

type payloadFetcher struct {
	raw []byte
	err error
}

func (f payloadFetcher) QuizPayload(context.Context, int) ([]byte, error) {
	return f.raw, f.err
}

func TestFetchPassesBackendErrors(t *testing.T) {
	backendErr := errors.New("boom")

	_, err := Fetch(context.Background(), payloadFetcher{err: backendErr}, 1)
	require.ErrorIs(t, err, backendErr)
	assert.False(t, IsSoft(err))

	questions, err := Fetch(context.Background(), payloadFetcher{raw: []byte(`{"questions": []}`)}, 1)
	require.NoError(t, err)
	assert.Empty(t, questions)
}
