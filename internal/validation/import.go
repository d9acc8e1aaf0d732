package validation

import (
	"fmt"
	"strings"

	"github.com/julianstephens/studylit/internal/schedule"
)

// ImportBlock is one entry of an externally supplied schedule. Only
// startTime, endTime and categoryName are required.
type ImportBlock struct {
	ID           string  `json:"id,omitempty"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	CategoryName string  `json:"categoryName"`
	Duration     float64 `json:"duration,omitempty"`
	Type         string  `json:"type,omitempty"`
	Priority     string  `json:"priority,omitempty"`
	Description  string  `json:"description,omitempty"`
	Pomodoros    int     `json:"pomodoros,omitempty"`
	Status       string  `json:"status,omitempty"`
}

// ValidateImport checks every entry of an import batch and reports all
// problems, one issue per offending block. The batch must be rejected as a
// whole when the result has issues.
func (v *Validator) ValidateImport(blocks []ImportBlock) Result {
	var r Result
	if len(blocks) == 0 {
		r.add(IssueEmptyImport, "blocks", "no blocks found to import")
		return r
	}
	for i, b := range blocks {
		var problems []string
		if b.StartTime == "" {
			problems = append(problems, "startTime")
		}
		if b.EndTime == "" {
			problems = append(problems, "endTime")
		}
		if strings.TrimSpace(b.CategoryName) == "" {
			problems = append(problems, "categoryName")
		}
		if b.StartTime != "" && !schedule.ValidClock(b.StartTime) {
			problems = append(problems, "startTime format (expected HH:MM)")
		}
		if b.EndTime != "" && !schedule.ValidClock(b.EndTime) {
			problems = append(problems, "endTime format (expected HH:MM)")
		}
		if len(problems) == 0 && schedule.ToMinutes(b.StartTime) == schedule.ToMinutes(b.EndTime) {
			problems = append(problems, "time range (start equals end)")
		}
		if len(problems) > 0 {
			r.Issues = append(r.Issues, Issue{
				Type:    IssueInvalidPayload,
				Index:   i + 1,
				Message: fmt.Sprintf("Missing/invalid %s", strings.Join(problems, ", ")),
			})
		}
	}
	return r
}

// ValidateImportDate rejects a payload stamped for a different day than the
// one it is being imported into.
func (v *Validator) ValidateImportDate(payloadDate, targetDate string) Result {
	var r Result
	if payloadDate != "" && payloadDate != targetDate {
		r.add(IssueDateMismatch, "date",
			fmt.Sprintf("import data is for %s, not %s", payloadDate, targetDate))
	}
	return r
}
