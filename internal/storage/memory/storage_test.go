package memorystorage_test

import (
	"context"
	"testing"
	"time"

	"github.com/mkravets/meetplanner/internal/storage"
	memorystorage "github.com/mkravets/meetplanner/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func newMeeting(owner string, day int, startHour int) storage.Meeting {
	return storage.Meeting{
		OwnerID:   owner,
		Title:     "test",
		Date:      storage.NewDate(2026, time.September, day),
		StartTime: storage.NewTimeOfDay(startHour, 0),
		EndTime:   storage.NewTimeOfDay(startHour+1, 0),
	}
}

func TestStorage(t *testing.T) {
	t.Run("add assigns id", func(t *testing.T) {
		s := memorystorage.New()

		m := newMeeting("alice", 1, 10)
		require.NoError(t, s.AddMeeting(context.Background(), &m))
		require.NotEmpty(t, m.ID)

		got, err := s.GetMeeting(context.Background(), m.ID)
		require.NoError(t, err)
		require.Equal(t, m, got)
	})

	t.Run("ids are unique", func(t *testing.T) {
		s := memorystorage.New()

		first := newMeeting("alice", 1, 10)
		second := newMeeting("alice", 1, 12)
		require.NoError(t, s.AddMeeting(context.Background(), &first))
		require.NoError(t, s.AddMeeting(context.Background(), &second))
		require.NotEqual(t, first.ID, second.ID)
	})

	t.Run("update replaces the record", func(t *testing.T) {
		s := memorystorage.New()

		m := newMeeting("alice", 1, 10)
		require.NoError(t, s.AddMeeting(context.Background(), &m))

		m.Title = "updated"
		m.StartTime = storage.NewTimeOfDay(12, 30)
		m.EndTime = storage.NewTimeOfDay(13, 30)
		require.NoError(t, s.UpdateMeeting(context.Background(), m.ID, m))

		got, err := s.GetMeeting(context.Background(), m.ID)
		require.NoError(t, err)
		require.Equal(t, m, got)
	})

	t.Run("remove returns the removed record", func(t *testing.T) {
		s := memorystorage.New()

		m := newMeeting("alice", 1, 10)
		require.NoError(t, s.AddMeeting(context.Background(), &m))

		removed, err := s.RemoveMeeting(context.Background(), m.ID)
		require.NoError(t, err)
		require.Equal(t, m, removed)

		_, err = s.GetMeeting(context.Background(), m.ID)
		require.ErrorIs(t, err, storage.ErrNotFoundMeeting)
	})
}

func TestStorageNegativeCases(t *testing.T) {
	t.Run("get not exist meeting", func(t *testing.T) {
		s := memorystorage.New()

		_, err := s.GetMeeting(context.Background(), "___not_exists___")
		require.ErrorIs(t, err, storage.ErrNotFoundMeeting)
	})

	t.Run("update not exist meeting", func(t *testing.T) {
		s := memorystorage.New()

		m := newMeeting("alice", 1, 10)
		require.ErrorIs(t, s.UpdateMeeting(context.Background(), "___not_exists___", m), storage.ErrNotFoundMeeting)
	})

	t.Run("remove not exist meeting", func(t *testing.T) {
		s := memorystorage.New()

		_, err := s.RemoveMeeting(context.Background(), "___not_exists___")
		require.ErrorIs(t, err, storage.ErrNotFoundMeeting)
	})

	t.Run("incorrect interval for insert", func(t *testing.T) {
		s := memorystorage.New()

		m := newMeeting("alice", 1, 10)
		m.EndTime = m.StartTime
		require.ErrorIs(t, s.AddMeeting(context.Background(), &m), storage.ErrIncorrectMeetingTime)
	})

	t.Run("incorrect interval for update", func(t *testing.T) {
		s := memorystorage.New()

		m := newMeeting("alice", 1, 10)
		require.NoError(t, s.AddMeeting(context.Background(), &m))
		m.EndTime = storage.NewTimeOfDay(9, 0)
		require.ErrorIs(t, s.UpdateMeeting(context.Background(), m.ID, m), storage.ErrIncorrectMeetingTime)
	})
}

func TestQueryMeetings(t *testing.T) {
	s := memorystorage.New()

	aliceDay1 := newMeeting("alice", 1, 10)
	aliceDay1.Title = "Weekly Standup"
	aliceDay2 := newMeeting("alice", 2, 10)
	aliceDay2.Title = "Design Review"
	bobDay1 := newMeeting("bob", 1, 10)
	bobDay1.Title = "standup"
	for _, m := range []*storage.Meeting{&aliceDay1, &aliceDay2, &bobDay1} {
		require.NoError(t, s.AddMeeting(context.Background(), m))
	}

	t.Run("no filter returns everything", func(t *testing.T) {
		meetings, err := s.QueryMeetings(context.Background(), storage.Filter{})
		require.NoError(t, err)
		require.Len(t, meetings, 3)
	})

	t.Run("filters are conjunctive", func(t *testing.T) {
		date := storage.NewDate(2026, time.September, 1)
		meetings, err := s.QueryMeetings(context.Background(), storage.Filter{OwnerID: "alice", Date: &date})
		require.NoError(t, err)
		require.Len(t, meetings, 1)
		require.Equal(t, aliceDay1.ID, meetings[0].ID)
	})

	t.Run("title filter is case-insensitive substring", func(t *testing.T) {
		meetings, err := s.QueryMeetings(context.Background(), storage.Filter{TitleContains: "STAND"})
		require.NoError(t, err)
		require.Len(t, meetings, 2)
	})

	t.Run("start time filter", func(t *testing.T) {
		start := storage.NewTimeOfDay(10, 0)
		meetings, err := s.QueryMeetings(context.Background(), storage.Filter{OwnerID: "bob", StartTime: &start})
		require.NoError(t, err)
		require.Len(t, meetings, 1)
		require.Equal(t, bobDay1.ID, meetings[0].ID)
	})

	t.Run("order is stable", func(t *testing.T) {
		first, err := s.QueryMeetings(context.Background(), storage.Filter{})
		require.NoError(t, err)
		second, err := s.QueryMeetings(context.Background(), storage.Filter{})
		require.NoError(t, err)
		require.Equal(t, first, second)
	})
}

func TestMeetingsStartingBetween(t *testing.T) {
	s := memorystorage.New()

	m := newMeeting("alice", 1, 10)
	require.NoError(t, s.AddMeeting(context.Background(), &m))
	later := newMeeting("alice", 1, 15)
	require.NoError(t, s.AddMeeting(context.Background(), &later))

	day := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	meetings, err := s.MeetingsStartingBetween(context.Background(), day.Add(9*time.Hour), day.Add(11*time.Hour))
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	require.Equal(t, m.ID, meetings[0].ID)

	// Half-open window: a meeting starting exactly at the upper bound is out.
	meetings, err = s.MeetingsStartingBetween(context.Background(), day.Add(9*time.Hour), day.Add(10*time.Hour))
	require.NoError(t, err)
	require.Empty(t, meetings)
}

func TestRemoveMeetingsBefore(t *testing.T) {
	s := memorystorage.New()

	old := newMeeting("alice", 1, 10)
	recent := newMeeting("alice", 20, 10)
	require.NoError(t, s.AddMeeting(context.Background(), &old))
	require.NoError(t, s.AddMeeting(context.Background(), &recent))

	removed, err := s.RemoveMeetingsBefore(context.Background(), storage.NewDate(2026, time.September, 10))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	meetings, err := s.QueryMeetings(context.Background(), storage.Filter{})
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	require.Equal(t, recent.ID, meetings[0].ID)
}
