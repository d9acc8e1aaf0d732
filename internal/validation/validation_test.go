package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/studylit/internal/models"
)

func issueTypes(r Result) []IssueType {
	out := make([]IssueType, 0, len(r.Issues))
	for _, i := range r.Issues {
		out = append(out, i.Type)
	}
	return out
}

func TestValidateBlock(t *testing.T) {
	v := New()
	tests := []struct {
		name   string
		fields BlockFields
		want   []IssueType
	}{
		{"valid", BlockFields{StartTime: "09:00", EndTime: "10:00", CategoryName: "Math"}, nil},
		{"overnight is valid", BlockFields{StartTime: "23:00", EndTime: "01:00", CategoryName: "Sleep"}, nil},
		{"missing everything", BlockFields{}, []IssueType{IssueMissingField, IssueMissingField, IssueMissingField}},
		{"bad clock", BlockFields{StartTime: "9:60", EndTime: "24:00", CategoryName: "Math"}, []IssueType{IssueInvalidTime, IssueInvalidTime}},
		{"zero length", BlockFields{StartTime: "10:00", EndTime: "10:00", CategoryName: "Math"}, []IssueType{IssueZeroDuration}},
		{"bad type and priority", BlockFields{StartTime: "09:00", EndTime: "10:00", CategoryName: "Math", Type: "nap", Priority: "urgent"},
			[]IssueType{IssueInvalidType, IssueInvalidPrio}},
		{"long description", BlockFields{StartTime: "09:00", EndTime: "10:00", CategoryName: "Math", Description: strings.Repeat("x", 281)},
			[]IssueType{IssueTooLong}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateBlock(tt.fields)
			if tt.want == nil {
				assert.False(t, res.HasIssues(), res.FormatReport())
				assert.NoError(t, res.Err())
				return
			}
			assert.Equal(t, tt.want, issueTypes(res))
		})
	}
}

func TestResult_ReportAndErr(t *testing.T) {
	var clean Result
	assert.Equal(t, "No issues detected.", clean.FormatReport())
	assert.Nil(t, clean.Err())

	res := New().ValidateBlock(BlockFields{StartTime: "10:00", EndTime: "10:00"})
	report := res.FormatReport()
	assert.True(t, strings.HasPrefix(report, "Validation failed:\n"))
	assert.Contains(t, report, "- category is required")

	var verr *Error
	require.True(t, errors.As(res.Err(), &verr))
	assert.Len(t, verr.Issues, 2)
	assert.Contains(t, verr.Error(), "start and end time must differ")
}

func TestValidateCategory(t *testing.T) {
	v := New()
	existing := []models.Category{{ID: "c1", Name: "Math"}}

	assert.False(t, v.ValidateCategory(models.Category{ID: "c2", Name: "Art"}, existing).HasIssues())
	assert.False(t, v.ValidateCategory(models.Category{ID: "c1", Name: "math"}, existing).HasIssues(), "renaming itself is fine")

	res := v.ValidateCategory(models.Category{ID: "c2", Name: " MATH "}, existing)
	assert.Equal(t, []IssueType{IssueDuplicateName}, issueTypes(res))

	res = v.ValidateCategory(models.Category{ID: "c3", HourlyRateUSD: -1, DailyTarget: -2, Priority: "urgent"}, nil)
	assert.ElementsMatch(t, []IssueType{IssueMissingField, IssueInvalidNumber, IssueInvalidNumber, IssueInvalidPrio}, issueTypes(res))

	res = v.ValidateCategory(models.Category{Name: strings.Repeat("a", 65)}, nil)
	assert.Equal(t, []IssueType{IssueTooLong}, issueTypes(res))
}

func TestValidateSessionRange(t *testing.T) {
	v := New()
	assert.False(t, v.ValidateSessionRange("09:00", "10:30").HasIssues())
	assert.Equal(t, []IssueType{IssueInvalidRange}, issueTypes(v.ValidateSessionRange("10:00", "10:00")))
	assert.Equal(t, []IssueType{IssueInvalidRange}, issueTypes(v.ValidateSessionRange("23:00", "01:00")))
	assert.Equal(t, []IssueType{IssueMissingField}, issueTypes(v.ValidateSessionRange("", "10:00")))
}

func TestValidateImport(t *testing.T) {
	v := New()

	res := v.ValidateImport(nil)
	assert.Equal(t, []IssueType{IssueEmptyImport}, issueTypes(res))

	res = v.ValidateImport([]ImportBlock{
		{StartTime: "09:00", EndTime: "10:00", CategoryName: "Math"},
		{StartTime: "09:00", EndTime: "09:00", CategoryName: "Math"},
		{EndTime: "7pm", CategoryName: "Math"},
		{StartTime: "23:30", EndTime: "00:30", CategoryName: "Night"},
	})
	require.Len(t, res.Issues, 2)
	assert.Equal(t, "Block 2: Missing/invalid time range (start equals end)", res.Issues[0].String())
	assert.Equal(t, "Block 3: Missing/invalid startTime, endTime format (expected HH:MM)", res.Issues[1].String())
}

func TestValidateImportDate(t *testing.T) {
	v := New()
	assert.False(t, v.ValidateImportDate("", "2025-10-20").HasIssues())
	assert.False(t, v.ValidateImportDate("2025-10-20", "2025-10-20").HasIssues())

	res := v.ValidateImportDate("2025-10-21", "2025-10-20")
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "import data is for 2025-10-21, not 2025-10-20", res.Issues[0].Message)
}
