package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mkravets/meetplanner/internal/conflict"
	"github.com/mkravets/meetplanner/internal/keylock"
	"github.com/mkravets/meetplanner/internal/storage"
)

// ValidationError reports a malformed or logically-invalid request.
// Always recoverable by resubmission with corrected input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ConflictError is the invariant-preserving rejection of a candidate
// interval. Not a fault: it carries the offending meetings so the caller
// can pick another slot.
type ConflictError struct {
	Conflicts []storage.Meeting
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time slot conflicts with %d existing meeting(s)", len(e.Conflicts))
}

// Patch is a partial update for Reschedule. Nil fields keep the current
// value.
type Patch struct {
	Title     *string
	Date      *storage.Date
	StartTime *storage.TimeOfDay
	EndTime   *storage.TimeOfDay
}

// App is the scheduling service, the only component allowed to mutate
// meetings. Every decision re-reads current state; the read-check-write
// sequence runs under a mutex keyed by (owner, date) so concurrent
// requests for the same day serialize while unrelated days proceed in
// parallel.
type App struct {
	storage  storage.Storage
	detector *conflict.Detector
	locks    *keylock.KeyedMutex
}

func New(stor storage.Storage) *App {
	return &App{
		storage:  stor,
		detector: conflict.NewDetector(stor),
		locks:    keylock.New(),
	}
}

func (a *App) Schedule(
	ctx context.Context,
	ownerID string,
	title string,
	date storage.Date,
	start storage.TimeOfDay,
	end storage.TimeOfDay,
) (storage.Meeting, error) {
	m := storage.Meeting{OwnerID: ownerID, Title: title, Date: date, StartTime: start, EndTime: end}
	if err := validate(m); err != nil {
		return storage.Meeting{}, err
	}

	key := lockKey(ownerID, date)
	a.locks.Lock(key)
	defer a.locks.Unlock(key)

	conflicts, err := a.detector.FindConflicts(ctx, ownerID, date, start, end, "")
	if err != nil {
		return storage.Meeting{}, err
	}
	if len(conflicts) > 0 {
		return storage.Meeting{}, &ConflictError{Conflicts: conflicts}
	}

	if err := a.storage.AddMeeting(ctx, &m); err != nil {
		return storage.Meeting{}, err
	}
	return m, nil
}

func (a *App) Reschedule(ctx context.Context, id string, p Patch) (storage.Meeting, error) {
	// The lock keys depend on the current record, so read it first,
	// lock, then re-read under the lock. If a concurrent edit moved the
	// meeting between the reads, the key set is stale and the sequence
	// restarts.
	for {
		current, err := a.storage.GetMeeting(ctx, id)
		if err != nil {
			return storage.Meeting{}, err
		}
		merged := apply(current, p)
		if err := validate(merged); err != nil {
			return storage.Meeting{}, err
		}

		keys := []string{lockKey(current.OwnerID, current.Date), lockKey(merged.OwnerID, merged.Date)}
		a.locks.LockKeys(keys...)

		recheck, err := a.storage.GetMeeting(ctx, id)
		if err != nil {
			a.locks.UnlockKeys(keys...)
			return storage.Meeting{}, err
		}
		if recheck.Date != current.Date || recheck.OwnerID != current.OwnerID {
			a.locks.UnlockKeys(keys...)
			continue
		}
		merged = apply(recheck, p)

		m, err := a.commitReschedule(ctx, id, merged)
		a.locks.UnlockKeys(keys...)
		return m, err
	}
}

func (a *App) commitReschedule(ctx context.Context, id string, merged storage.Meeting) (storage.Meeting, error) {
	conflicts, err := a.detector.FindConflicts(
		ctx, merged.OwnerID, merged.Date, merged.StartTime, merged.EndTime, id)
	if err != nil {
		return storage.Meeting{}, err
	}
	if len(conflicts) > 0 {
		return storage.Meeting{}, &ConflictError{Conflicts: conflicts}
	}

	if err := a.storage.UpdateMeeting(ctx, id, merged); err != nil {
		return storage.Meeting{}, err
	}
	merged.ID = id
	return merged, nil
}

func (a *App) Cancel(ctx context.Context, id string) (storage.Meeting, error) {
	return a.storage.RemoveMeeting(ctx, id)
}

func (a *App) Get(ctx context.Context, id string) (storage.Meeting, error) {
	return a.storage.GetMeeting(ctx, id)
}

func (a *App) List(ctx context.Context, f storage.Filter) ([]storage.Meeting, error) {
	return a.storage.QueryMeetings(ctx, f)
}

func apply(m storage.Meeting, p Patch) storage.Meeting {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Date != nil {
		m.Date = *p.Date
	}
	if p.StartTime != nil {
		m.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		m.EndTime = *p.EndTime
	}
	return m
}

func validate(m storage.Meeting) error {
	if m.OwnerID == "" {
		return &ValidationError{Reason: "meeting owner is required"}
	}
	if m.Date.IsZero() {
		return &ValidationError{Reason: "meeting date is required"}
	}
	if m.EndTime <= m.StartTime {
		return &ValidationError{
			Reason: fmt.Sprintf("meeting end time %s must be after start time %s", m.EndTime, m.StartTime),
		}
	}
	return nil
}

func lockKey(ownerID string, date storage.Date) string {
	return strconv.Quote(ownerID) + "|" + date.String()
}
