package assessment

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// ParseLink extracts the job and candidate ids from an assessment link as sent
// by the notification email, e.g. http://host/quiz/7?candidate_id=3.
func ParseLink(link string) (jobID, candidateID int, err error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return 0, 0, fmt.Errorf("parsing assessment link: %w", err)
	}

	dir, last := path.Split(strings.TrimRight(u.Path, "/"))
	if path.Base(dir) != "quiz" {
		return 0, 0, fmt.Errorf("assessment link %q: path must end with /quiz/<job id>", link)
	}

	jobID, err = strconv.Atoi(last)
	if err != nil || jobID <= 0 {
		return 0, 0, fmt.Errorf("assessment link %q: invalid job id %q", link, last)
	}

	raw := u.Query().Get("candidate_id")
	candidateID, err = strconv.Atoi(raw)
	if err != nil || candidateID <= 0 {
		return 0, 0, fmt.Errorf("assessment link %q: invalid candidate_id %q", link, raw)
	}

	return jobID, candidateID, nil
}
