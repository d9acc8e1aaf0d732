package validation

import (
	"fmt"
	"strings"

	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/schedule"
)

// IssueType classifies a validation issue
type IssueType string

const (
	IssueMissingField   IssueType = "missing_field"
	IssueInvalidTime    IssueType = "invalid_time"
	IssueZeroDuration   IssueType = "zero_duration"
	IssueInvalidType    IssueType = "invalid_type"
	IssueInvalidPrio    IssueType = "invalid_priority"
	IssueTooLong        IssueType = "too_long"
	IssueInvalidRange   IssueType = "invalid_range"
	IssueDuplicateName  IssueType = "duplicate_name"
	IssueInvalidNumber  IssueType = "invalid_number"
	IssueDateMismatch   IssueType = "date_mismatch"
	IssueEmptyImport    IssueType = "empty_import"
	IssueInvalidPayload IssueType = "invalid_payload"
)

// Issue is a single problem with user input
type Issue struct {
	Type    IssueType
	Field   string
	Index   int // 1-based position within an import batch, 0 otherwise
	Message string
}

func (i Issue) String() string {
	if i.Index > 0 {
		return fmt.Sprintf("Block %d: %s", i.Index, i.Message)
	}
	return i.Message
}

// Result collects every issue found, so a form can show them all at once.
type Result struct {
	Issues []Issue
}

func (r *Result) add(t IssueType, field, msg string) {
	r.Issues = append(r.Issues, Issue{Type: t, Field: field, Message: msg})
}

func (r *Result) HasIssues() bool {
	return len(r.Issues) > 0
}

// FormatReport returns a human-readable report of all issues
func (r *Result) FormatReport() string {
	if !r.HasIssues() {
		return "No issues detected."
	}
	var sb strings.Builder
	sb.WriteString("Validation failed:\n")
	for _, issue := range r.Issues {
		fmt.Fprintf(&sb, "- %s\n", issue)
	}
	return sb.String()
}

// Err returns nil for a clean result and an *Error otherwise.
func (r Result) Err() error {
	if !r.HasIssues() {
		return nil
	}
	return &Error{Issues: r.Issues}
}

// Error carries the issues of a failed validation.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		msgs = append(msgs, i.String())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// BlockFields is the user-editable part of a schedule block.
type BlockFields struct {
	StartTime    string
	EndTime      string
	CategoryName string
	Type         models.BlockType
	Priority     models.Priority
	Description  string
}

// FieldsOf extracts the editable fields of an existing block.
func FieldsOf(b models.ScheduleBlock) BlockFields {
	return BlockFields{
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		CategoryName: b.CategoryName,
		Type:         b.Type,
		Priority:     b.Priority,
		Description:  b.Description,
	}
}

// Validator validates blocks, imports and categories
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateBlock checks a block before creation or after an edit is merged.
// Empty Type and Priority are allowed and take their defaults.
func (v *Validator) ValidateBlock(f BlockFields) Result {
	var r Result
	if strings.TrimSpace(f.CategoryName) == "" {
		r.add(IssueMissingField, "categoryName", "category is required")
	}
	startOK := v.checkClock(&r, "startTime", f.StartTime)
	endOK := v.checkClock(&r, "endTime", f.EndTime)
	if startOK && endOK && f.StartTime != "" &&
		schedule.ToMinutes(f.StartTime) == schedule.ToMinutes(f.EndTime) {
		r.add(IssueZeroDuration, "endTime", "start and end time must differ")
	}
	if f.Type != "" && !f.Type.Valid() {
		r.add(IssueInvalidType, "type", fmt.Sprintf("unknown block type %q", f.Type))
	}
	if f.Priority != "" && !f.Priority.Valid() {
		r.add(IssueInvalidPrio, "priority", fmt.Sprintf("unknown priority %q", f.Priority))
	}
	if len(f.Description) > constants.MaxBlockDescriptionSize {
		r.add(IssueTooLong, "description", fmt.Sprintf("description exceeds %d characters", constants.MaxBlockDescriptionSize))
	}
	return r
}

func (v *Validator) checkClock(r *Result, field, value string) bool {
	if value == "" {
		r.add(IssueMissingField, field, field+" is required")
		return false
	}
	if !schedule.ValidClock(value) {
		r.add(IssueInvalidTime, field, fmt.Sprintf("%s %q is not a valid HH:MM time", field, value))
		return false
	}
	return true
}

// ValidateCategory checks the user-supplied fields of a category.
func (v *Validator) ValidateCategory(c models.Category, existing []models.Category) Result {
	var r Result
	name := strings.TrimSpace(c.Name)
	switch {
	case name == "":
		r.add(IssueMissingField, "name", "category name is required")
	case len(name) > constants.MaxCategoryNameLength:
		r.add(IssueTooLong, "name", fmt.Sprintf("category name exceeds %d characters", constants.MaxCategoryNameLength))
	}
	for _, e := range existing {
		if e.ID != c.ID && strings.EqualFold(strings.TrimSpace(e.Name), name) && name != "" {
			r.add(IssueDuplicateName, "name", fmt.Sprintf("a category named %q already exists", e.Name))
			break
		}
	}
	for field, val := range map[string]float64{
		"hourly_rate_usd": c.HourlyRateUSD,
		"hourly_rate_mmk": c.HourlyRateMMK,
		"total_target":    c.TotalTarget,
		"monthly_target":  c.MonthlyTarget,
		"daily_target":    c.DailyTarget,
	} {
		if val < 0 {
			r.add(IssueInvalidNumber, field, fmt.Sprintf("%s must not be negative", field))
		}
	}
	if c.Priority != "" && !c.Priority.Valid() {
		r.add(IssueInvalidPrio, "priority", fmt.Sprintf("unknown priority %q", c.Priority))
	}
	return r
}

// ValidateSessionRange checks the HH:MM bounds of a manually logged session.
// Unlike schedule blocks, sessions may not cross midnight.
func (v *Validator) ValidateSessionRange(start, end string) Result {
	var r Result
	startOK := v.checkClock(&r, "start", start)
	endOK := v.checkClock(&r, "end", end)
	if startOK && endOK && schedule.ToMinutes(end) <= schedule.ToMinutes(start) {
		r.add(IssueInvalidRange, "end", "end time must be after start time")
	}
	return r
}
