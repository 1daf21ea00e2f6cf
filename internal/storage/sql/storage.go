package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/mkravets/meetplanner/internal/storage"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type Storage struct {
	host     string
	port     int
	database string
	username string
	password string
	db       *sqlx.DB
}

func New(config Config) *Storage {
	return &Storage{
		host:     config.Host,
		port:     config.Port,
		database: config.Database,
		username: config.Username,
		password: config.Password,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) AddMeeting(ctx context.Context, m *storage.Meeting) error {
	if m.EndTime <= m.StartTime {
		return fmt.Errorf("meeting end time should be after start time: %w", storage.ErrIncorrectMeetingTime)
	}

	err := s.db.GetContext(
		ctx,
		&m.ID,
		"INSERT INTO meetings(owner_id, title, date, start_time, end_time) "+
			"VALUES($1, $2, $3, $4, $5) RETURNING id",
		m.OwnerID, m.Title, m.Date, m.StartTime, m.EndTime)
	if err != nil {
		return fmt.Errorf("failed to insert meeting: %w: %v", storage.ErrStorage, err)
	}
	return nil
}

func (s *Storage) GetMeeting(ctx context.Context, id string) (storage.Meeting, error) {
	var m storage.Meeting
	err := s.db.GetContext(
		ctx,
		&m,
		"SELECT id, owner_id, title, date, start_time, end_time FROM meetings WHERE id=$1",
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Meeting{}, fmt.Errorf("no meeting with id %q: %w", id, storage.ErrNotFoundMeeting)
	}
	if err != nil {
		return storage.Meeting{}, fmt.Errorf("failed to get meeting: %w: %v", storage.ErrStorage, err)
	}
	return m, nil
}

func (s *Storage) UpdateMeeting(ctx context.Context, id string, m storage.Meeting) error {
	if m.EndTime <= m.StartTime {
		return fmt.Errorf("meeting end time should be after start time: %w", storage.ErrIncorrectMeetingTime)
	}

	res, err := s.db.ExecContext(
		ctx,
		"UPDATE meetings SET owner_id=$2, title=$3, date=$4, start_time=$5, end_time=$6 WHERE id=$1",
		id, m.OwnerID, m.Title, m.Date, m.StartTime, m.EndTime,
	)
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w: %v", storage.ErrStorage, err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w: %v", storage.ErrStorage, err)
	}
	if updated == 0 {
		return fmt.Errorf("failed to update meeting with id %q: %w", id, storage.ErrNotFoundMeeting)
	}
	return nil
}

func (s *Storage) RemoveMeeting(ctx context.Context, id string) (storage.Meeting, error) {
	var m storage.Meeting
	err := s.db.GetContext(
		ctx,
		&m,
		"DELETE FROM meetings WHERE id=$1 RETURNING id, owner_id, title, date, start_time, end_time",
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Meeting{}, fmt.Errorf("failed to remove meeting with id %q: %w", id, storage.ErrNotFoundMeeting)
	}
	if err != nil {
		return storage.Meeting{}, fmt.Errorf("failed to remove meeting: %w: %v", storage.ErrStorage, err)
	}
	return m, nil
}

func (s *Storage) QueryMeetings(ctx context.Context, f storage.Filter) ([]storage.Meeting, error) {
	query := "SELECT id, owner_id, title, date, start_time, end_time FROM meetings WHERE 1=1"
	args := make([]interface{}, 0, 4)
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		query += " AND owner_id=$" + strconv.Itoa(len(args))
	}
	if f.Date != nil {
		args = append(args, *f.Date)
		query += " AND date=$" + strconv.Itoa(len(args))
	}
	if f.TitleContains != "" {
		args = append(args, "%"+f.TitleContains+"%")
		query += " AND title ILIKE $" + strconv.Itoa(len(args))
	}
	if f.StartTime != nil {
		args = append(args, *f.StartTime)
		query += " AND start_time=$" + strconv.Itoa(len(args))
	}
	query += " ORDER BY date, start_time, id"

	meetings := make([]storage.Meeting, 0)
	err := s.db.SelectContext(ctx, &meetings, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meetings: %w: %v", storage.ErrStorage, err)
	}
	return meetings, nil
}

func (s *Storage) MeetingsStartingBetween(ctx context.Context, from time.Time, to time.Time) ([]storage.Meeting, error) {
	meetings := make([]storage.Meeting, 0)
	err := s.db.SelectContext(
		ctx,
		&meetings,
		"SELECT id, owner_id, title, date, start_time, end_time FROM meetings "+
			"WHERE (date + start_time) >= $1 AND (date + start_time) < $2 "+
			"ORDER BY date, start_time, id",
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query meetings: %w: %v", storage.ErrStorage, err)
	}
	return meetings, nil
}

func (s *Storage) RemoveMeetingsBefore(ctx context.Context, cutoff storage.Date) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM meetings WHERE date < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to remove meetings: %w: %v", storage.ErrStorage, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to remove meetings: %w: %v", storage.ErrStorage, err)
	}
	return removed, nil
}
