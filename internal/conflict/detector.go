package conflict

import (
	"context"
	"fmt"

	"github.com/mkravets/meetplanner/internal/storage"
)

// Store is the read side of the meeting store the detector needs.
type Store interface {
	QueryMeetings(ctx context.Context, f storage.Filter) ([]storage.Meeting, error)
}

// Detector decides whether committing a candidate interval would violate
// the per-owner per-date no-overlap invariant. Pure read, no side effects.
type Detector struct {
	store Store
}

func NewDetector(store Store) *Detector {
	return &Detector{store: store}
}

// FindConflicts returns the live meetings of ownerID on date whose
// intervals overlap [start, end). excludeID, when non-empty, is dropped
// from consideration so a meeting being edited does not conflict with its
// own prior state. An empty result means the candidate may be committed.
func (d *Detector) FindConflicts(
	ctx context.Context,
	ownerID string,
	date storage.Date,
	start storage.TimeOfDay,
	end storage.TimeOfDay,
	excludeID string,
) ([]storage.Meeting, error) {
	meetings, err := d.store.QueryMeetings(ctx, storage.Filter{OwnerID: ownerID, Date: &date})
	if err != nil {
		return nil, fmt.Errorf("failed to load meetings for conflict check: %w", err)
	}

	conflicts := make([]storage.Meeting, 0)
	for _, m := range meetings {
		if m.ID == excludeID {
			continue
		}
		if Overlaps(start, end, m.StartTime, m.EndTime) {
			conflicts = append(conflicts, m)
		}
	}
	return conflicts, nil
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching intervals do not overlap, so
// back-to-back meetings are allowed.
func Overlaps(aStart, aEnd, bStart, bEnd storage.TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}
