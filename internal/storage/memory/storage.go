package memorystorage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mkravets/meetplanner/internal/storage"
)

type Storage struct {
	mu    sync.RWMutex
	data  map[string]storage.Meeting
	idSeq int
}

func New() *Storage {
	return &Storage{data: make(map[string]storage.Meeting)}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddMeeting(_ context.Context, m *storage.Meeting) error {
	if err := checkInterval(*m); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.nextID()
	s.data[m.ID] = *m
	return nil
}

func (s *Storage) GetMeeting(_ context.Context, id string) (storage.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.data[id]
	if !ok {
		return storage.Meeting{}, fmt.Errorf("no meeting with id %q: %w", id, storage.ErrNotFoundMeeting)
	}
	return m, nil
}

func (s *Storage) UpdateMeeting(_ context.Context, id string, m storage.Meeting) error {
	if err := checkInterval(m); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("failed to update meeting with id %q: %w", id, storage.ErrNotFoundMeeting)
	}
	m.ID = id
	s.data[id] = m
	return nil
}

func (s *Storage) RemoveMeeting(_ context.Context, id string) (storage.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[id]
	if !ok {
		return storage.Meeting{}, fmt.Errorf("failed to remove meeting with id %q: %w", id, storage.ErrNotFoundMeeting)
	}
	delete(s.data, id)
	return m, nil
}

func (s *Storage) QueryMeetings(_ context.Context, f storage.Filter) ([]storage.Meeting, error) {
	meetings := make([]storage.Meeting, 0)
	s.mu.RLock()
	for _, m := range s.data {
		if matches(m, f) {
			meetings = append(meetings, m)
		}
	}
	s.mu.RUnlock()

	sortMeetings(meetings)
	return meetings, nil
}

func (s *Storage) MeetingsStartingBetween(_ context.Context, from time.Time, to time.Time) ([]storage.Meeting, error) {
	meetings := make([]storage.Meeting, 0)
	s.mu.RLock()
	for _, m := range s.data {
		startsAt := m.StartsAt(from.Location())
		if !startsAt.Before(from) && startsAt.Before(to) {
			meetings = append(meetings, m)
		}
	}
	s.mu.RUnlock()

	sortMeetings(meetings)
	return meetings, nil
}

func (s *Storage) RemoveMeetingsBefore(_ context.Context, cutoff storage.Date) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, m := range s.data {
		if m.Date.Before(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed, nil
}

func matches(m storage.Meeting, f storage.Filter) bool {
	if f.OwnerID != "" && m.OwnerID != f.OwnerID {
		return false
	}
	if f.Date != nil && m.Date != *f.Date {
		return false
	}
	if f.TitleContains != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(f.TitleContains)) {
		return false
	}
	if f.StartTime != nil && m.StartTime != *f.StartTime {
		return false
	}
	return true
}

func sortMeetings(meetings []storage.Meeting) {
	sort.Slice(meetings, func(i, j int) bool {
		if meetings[i].Date != meetings[j].Date {
			return meetings[i].Date.Before(meetings[j].Date)
		}
		if meetings[i].StartTime != meetings[j].StartTime {
			return meetings[i].StartTime < meetings[j].StartTime
		}
		return meetings[i].ID < meetings[j].ID
	})
}

func checkInterval(m storage.Meeting) error {
	if m.EndTime <= m.StartTime {
		return fmt.Errorf("meeting end time should be after start time: %w", storage.ErrIncorrectMeetingTime)
	}
	return nil
}

func (s *Storage) nextID() string {
	s.idSeq++
	return strconv.Itoa(s.idSeq)
}
