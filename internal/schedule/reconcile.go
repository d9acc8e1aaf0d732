package schedule

import (
	"slices"

	"github.com/julianstephens/studylit/internal/models"
)

// Reconcile recomputes the automatic statuses of blocks against the given
// minute of the day and reports whether anything changed. Completed and
// skipped blocks are left untouched. A block whose window has passed without
// being completed goes back to upcoming so it can still be started late.
func Reconcile(blocks []models.ScheduleBlock, now int) ([]models.ScheduleBlock, bool) {
	out := slices.Clone(blocks)
	changed := false
	for i := range out {
		b := &out[i]
		if b.Status.Sticky() {
			continue
		}
		next := b.Status
		if IsActive(now, ToMinutes(b.StartTime), ToMinutes(b.EndTime)) {
			if b.Status == models.StatusUpcoming {
				next = models.StatusInProgress
			}
		} else {
			next = models.StatusUpcoming
		}
		if next != b.Status {
			b.Status = next
			changed = true
		}
	}
	return out, changed
}

// CurrentBlock returns the first block whose range contains now.
func CurrentBlock(blocks []models.ScheduleBlock, now int) (models.ScheduleBlock, bool) {
	for _, b := range blocks {
		if IsWithin(now, ToMinutes(b.StartTime), ToMinutes(b.EndTime)) {
			return b, true
		}
	}
	return models.ScheduleBlock{}, false
}

// NextBlock returns the block with the earliest start strictly after now.
// Ties keep the original order.
func NextBlock(blocks []models.ScheduleBlock, now int) (models.ScheduleBlock, bool) {
	best := -1
	for i, b := range blocks {
		start := ToMinutes(b.StartTime)
		if start <= now {
			continue
		}
		if best < 0 || start < ToMinutes(blocks[best].StartTime) {
			best = i
		}
	}
	if best < 0 {
		return models.ScheduleBlock{}, false
	}
	return blocks[best], true
}

// PreviousBlock returns the block that most recently ended before now.
// Overnight blocks are only considered once their post-midnight end has passed.
func PreviousBlock(blocks []models.ScheduleBlock, now int) (models.ScheduleBlock, bool) {
	best := -1
	for i, b := range blocks {
		start, end := ToMinutes(b.StartTime), ToMinutes(b.EndTime)
		if end >= now || (end < start && now >= start) {
			continue
		}
		if best < 0 || end > ToMinutes(blocks[best].EndTime) {
			best = i
		}
	}
	if best < 0 {
		return models.ScheduleBlock{}, false
	}
	return blocks[best], true
}

// Progress is a completed/total ratio. For count progress the values are
// block counts; for time progress they are hours.
type Progress struct {
	Completed  float64 `json:"completed"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
}

func newProgress(completed, total float64) Progress {
	p := Progress{Completed: completed, Total: total}
	if total > 0 {
		p.Percentage = completed / total * 100
	}
	return p
}

// CountProgress is the share of blocks marked completed.
func CountProgress(blocks []models.ScheduleBlock) Progress {
	done := 0
	for _, b := range blocks {
		if b.Status == models.StatusCompleted {
			done++
		}
	}
	return newProgress(float64(done), float64(len(blocks)))
}

// TimeProgress weights each block by its overnight-aware duration.
func TimeProgress(blocks []models.ScheduleBlock) Progress {
	var done, total float64
	for _, b := range blocks {
		d := Duration(b.StartTime, b.EndTime)
		total += d
		if b.Status == models.StatusCompleted {
			done += d
		}
	}
	return newProgress(done, total)
}
