package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Question is one multiple choice item. CorrectOption is kept as the backend
// sent it and is nil when the backend hides it.
type Question struct {
	Prompt        string
	Options       []string
	CorrectOption any
}

type rawQuestion struct {
	Question      string `mapstructure:"question"`
	Prompt        string `mapstructure:"prompt"`
	Options       any    `mapstructure:"options"`
	CorrectAnswer any    `mapstructure:"correct_answer"`
	CorrectOption any    `mapstructure:"correct_option"`
}

// Fetcher returns the raw quiz body for a job.
type Fetcher interface {
	QuizPayload(ctx context.Context, jobID int) ([]byte, error)
}

// Fetch loads and normalizes the quiz for jobID. A soft error (see IsSoft) comes
// with an empty, usable question list; any other error is from the backend.
func Fetch(ctx context.Context, fetcher Fetcher, jobID int) ([]Question, error) {
	raw, err := fetcher.QuizPayload(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return Normalize(raw)
}

// Normalize turns any of the known quiz body shapes into a question list:
// a JSON array, a JSON string holding an array, or an object with a "questions" array.
// It never returns a nil slice.
func Normalize(raw []byte) ([]Question, error) {
	var value any
	if err := json.Unmarshal(bytes.TrimSpace(raw), &value); err != nil {
		return []Question{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if text, ok := value.(string); ok {
		value = nil
		if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &value); err != nil {
			return []Question{}, fmt.Errorf("%w: embedded document: %v", ErrMalformedPayload, err)
		}
	}

	items, ok := value.([]any)
	if !ok {
		obj, isObject := value.(map[string]any)
		if !isObject {
			return []Question{}, fmt.Errorf("%w: got %T", ErrUnexpectedShape, value)
		}
		if items, ok = obj["questions"].([]any); !ok {
			return []Question{}, fmt.Errorf("%w: no questions array", ErrUnexpectedShape)
		}
	}

	questions := make([]Question, 0, len(items))
	for _, item := range items {
		questions = append(questions, decodeQuestion(item))
	}

	return questions, nil
}

// decodeQuestion is lenient: anything it cannot read is left empty so that
// answer positions stay aligned with the backend's list.
func decodeQuestion(item any) Question {
	fields, ok := item.(map[string]any)
	if !ok {
		return Question{Options: []string{}}
	}

	var rq rawQuestion
	// Partial results are kept on error.
	_ = weakDecode(fields, &rq)

	return Question{
		Prompt:        firstNonEmpty(rq.Question, rq.Prompt),
		Options:       decodeOptions(rq.Options),
		CorrectOption: firstPresent(rq.CorrectAnswer, rq.CorrectOption),
	}
}

// decodeOptions reads a list of options as text. Anything but a list gives no options.
func decodeOptions(value any) []string {
	list, ok := value.([]any)
	if !ok {
		return []string{}
	}

	options := make([]string, 0, len(list))
	_ = weakDecode(list, &options)
	if len(options) != len(list) {
		return []string{}
	}

	return options
}

func weakDecode(input, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           result,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// firstPresent returns the first value that is neither nil nor blank text.
func firstPresent(values ...any) any {
	for _, v := range values {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val = strings.TrimSpace(val); val != "" {
				return val
			}
		default:
			return val
		}
	}
	return nil
}
