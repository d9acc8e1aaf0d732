package schedule

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/studylit/internal/clock"
	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
)

var ErrBlockNotFound = errors.New("schedule block not found")

// BlockInput describes a block to be created. Empty Type and Priority
// fall back to study and medium.
type BlockInput struct {
	StartTime    string
	EndTime      string
	CategoryName string
	Type         models.BlockType
	Priority     models.Priority
	Description  string
}

// BlockPatch carries the fields of an update; nil fields are left as-is.
// Status is not patchable: it only moves through SetStatus and the Mark
// helpers, which keep completed and skipped blocks terminal.
type BlockPatch struct {
	StartTime    *string
	EndTime      *string
	CategoryName *string
	Type         *models.BlockType
	Priority     *models.Priority
	Description  *string
}

func (p BlockPatch) changesTime() bool {
	return p.StartTime != nil || p.EndTime != nil
}

// CreateBlock builds a new upcoming block with a fresh id. The input is
// expected to have passed validation.ValidateBlock.
func CreateBlock(ids clock.IDGenerator, in BlockInput) models.ScheduleBlock {
	if in.Type == "" {
		in.Type = constants.DefaultBlockType
	}
	if in.Priority == "" {
		in.Priority = constants.DefaultBlockPriority
	}
	return models.ScheduleBlock{
		ID:           blockID(ids, in.CategoryName),
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		CategoryName: in.CategoryName,
		Duration:     Duration(in.StartTime, in.EndTime),
		Type:         in.Type,
		Priority:     in.Priority,
		Description:  in.Description,
		Status:       models.StatusUpcoming,
	}
}

func blockID(ids clock.IDGenerator, category string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(category), ""))
	if slug == "" {
		return "block-" + ids.New()
	}
	return fmt.Sprintf("block-%s-%s", slug, ids.New())
}

// ApplyPatch merges p into b, recomputing the duration when either time
// changes.
func ApplyPatch(b models.ScheduleBlock, p BlockPatch) models.ScheduleBlock {
	if p.StartTime != nil {
		b.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		b.EndTime = *p.EndTime
	}
	if p.CategoryName != nil {
		b.CategoryName = *p.CategoryName
	}
	if p.Type != nil {
		b.Type = *p.Type
	}
	if p.Priority != nil {
		b.Priority = *p.Priority
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.changesTime() {
		b.Duration = Duration(b.StartTime, b.EndTime)
	}
	return b
}

// UpdateBlock returns a copy of blocks with the patch applied to the block
// with the given id, plus the updated block. Conflicts are not checked here;
// callers run DetectConflicts and decide for themselves.
func UpdateBlock(blocks []models.ScheduleBlock, id string, p BlockPatch) ([]models.ScheduleBlock, models.ScheduleBlock, error) {
	idx := indexOf(blocks, id)
	if idx < 0 {
		return blocks, models.ScheduleBlock{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	out := slices.Clone(blocks)
	out[idx] = ApplyPatch(out[idx], p)
	return out, out[idx], nil
}

// DeleteBlock removes the block with the given id. Missing ids are not an error.
func DeleteBlock(blocks []models.ScheduleBlock, id string) []models.ScheduleBlock {
	out := make([]models.ScheduleBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

// DetectConflicts returns every block in existing whose range overlaps the
// candidate, skipping a block that shares the candidate's id.
func DetectConflicts(existing []models.ScheduleBlock, candidate models.ScheduleBlock) []models.ScheduleBlock {
	c := blockSpan(candidate)
	var conflicts []models.ScheduleBlock
	for _, b := range existing {
		if b.ID == candidate.ID {
			continue
		}
		if rangesOverlap(c, blockSpan(b)) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}

// FindBlock looks a block up by id.
func FindBlock(blocks []models.ScheduleBlock, id string) (models.ScheduleBlock, bool) {
	idx := indexOf(blocks, id)
	if idx < 0 {
		return models.ScheduleBlock{}, false
	}
	return blocks[idx], true
}

func indexOf(blocks []models.ScheduleBlock, id string) int {
	return slices.IndexFunc(blocks, func(b models.ScheduleBlock) bool { return b.ID == id })
}

// SetStatus returns a copy of blocks with the status of one block replaced.
// Completed and skipped blocks cannot be moved back out of their state.
func SetStatus(blocks []models.ScheduleBlock, id string, status models.BlockStatus) ([]models.ScheduleBlock, error) {
	idx := indexOf(blocks, id)
	if idx < 0 {
		return blocks, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	if cur := blocks[idx].Status; cur.Sticky() && cur != status {
		return blocks, fmt.Errorf("block %s is already %s", id, cur)
	}
	out := slices.Clone(blocks)
	out[idx].Status = status
	return out, nil
}

func MarkCompleted(blocks []models.ScheduleBlock, id string) ([]models.ScheduleBlock, error) {
	return SetStatus(blocks, id, models.StatusCompleted)
}

func MarkSkipped(blocks []models.ScheduleBlock, id string) ([]models.ScheduleBlock, error) {
	return SetStatus(blocks, id, models.StatusSkipped)
}

// MarkInProgress starts a block manually. Any other in-progress block is
// moved back to upcoming first so only one block is ever running.
func MarkInProgress(blocks []models.ScheduleBlock, id string) ([]models.ScheduleBlock, error) {
	if indexOf(blocks, id) < 0 {
		return blocks, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	cleared := slices.Clone(blocks)
	for i := range cleared {
		if cleared[i].Status == models.StatusInProgress && cleared[i].ID != id {
			cleared[i].Status = models.StatusUpcoming
		}
	}
	return SetStatus(cleared, id, models.StatusInProgress)
}

// AddPomodoro credits a completed pomodoro cycle to a block.
func AddPomodoro(blocks []models.ScheduleBlock, id string) ([]models.ScheduleBlock, error) {
	idx := indexOf(blocks, id)
	if idx < 0 {
		return blocks, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	out := slices.Clone(blocks)
	out[idx].Pomodoros++
	return out, nil
}

// Sorted returns blocks ordered by start time, breaking ties by priority.
// The input is not modified.
func Sorted(blocks []models.ScheduleBlock) []models.ScheduleBlock {
	out := slices.Clone(blocks)
	slices.SortStableFunc(out, func(a, b models.ScheduleBlock) int {
		if d := ToMinutes(a.StartTime) - ToMinutes(b.StartTime); d != 0 {
			return d
		}
		return a.Priority.Rank() - b.Priority.Rank()
	})
	return out
}
