package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFoundMeeting      = errors.New("meeting not found")
	ErrIncorrectMeetingTime = errors.New("incorrect meeting time")
	ErrStorage              = errors.New("storage failure")
)

// Filter restricts QueryMeetings results. All set fields are applied
// conjunctively; a zero field means no restriction. TitleContains is a
// case-insensitive substring match.
type Filter struct {
	OwnerID       string
	Date          *Date
	TitleContains string
	StartTime     *TimeOfDay
}

// Storage is durable keyed storage of meeting records. Implementations
// guarantee atomic single-record insert, update and delete, and a stable
// result order for QueryMeetings (date, start time, id).
type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	AddMeeting(ctx context.Context, m *Meeting) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	UpdateMeeting(ctx context.Context, id string, m Meeting) error
	RemoveMeeting(ctx context.Context, id string) (Meeting, error)
	QueryMeetings(ctx context.Context, f Filter) ([]Meeting, error)
	MeetingsStartingBetween(ctx context.Context, from time.Time, to time.Time) ([]Meeting, error)
	RemoveMeetingsBefore(ctx context.Context, cutoff Date) (int64, error)
}
