package internalbot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mkravets/meetplanner/internal/app"
	"github.com/mkravets/meetplanner/internal/command"
	"github.com/mkravets/meetplanner/internal/storage"
	log "github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v4"
)

const helpText = `I can plan your meetings. Commands:
create meeting <date> <start> <end> [title]
list meetings [date]
cancel meeting <id>
move meeting <id> [date] <start> <end>
rename meeting <id> <title>

Dates are YYYY-MM-DD, times are HH:MM.`

type Config struct {
	Token       string
	PollTimeout time.Duration
}

// Server is the chat adapter: it turns free-text messages into
// scheduling requests and renders the typed results back as text. The
// sender's Telegram ID is the meeting owner.
type Server struct {
	bot *tele.Bot
	responder
}

// responder holds the transport-independent part of the adapter.
type responder struct {
	planner *app.App
}

func NewServer(config Config, planner *app.App) (*Server, error) {
	timeout := config.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  config.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	s := &Server{bot: b, responder: responder{planner: planner}}
	b.Handle(tele.OnText, s.handleText)
	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.bot.Stop()
	}()
	log.Printf("starting bot long polling")
	s.bot.Start()
	return nil
}

func (s *Server) Stop() {
	s.bot.Stop()
}

func (s *Server) handleText(c tele.Context) error {
	ownerID := strconv.FormatInt(c.Sender().ID, 10)
	reply := s.process(context.Background(), ownerID, c.Text())
	return c.Send(reply)
}

func (s responder) process(ctx context.Context, ownerID string, text string) string {
	req, err := command.Parse(text)
	if errors.Is(err, command.ErrUnknownCommand) {
		return "I don't understand. Send \"help\" to see the commands."
	}
	if err != nil {
		return "⚠️ " + err.Error()
	}

	switch req.Op {
	case command.OpCreate:
		m, err := s.planner.Schedule(ctx, ownerID, req.Title, *req.Date, *req.StartTime, *req.EndTime)
		if err != nil {
			return renderError(err)
		}
		return fmt.Sprintf("✅ Meeting %s created on %s from %s to %s.", m.ID, m.Date, m.StartTime, m.EndTime)

	case command.OpList:
		meetings, err := s.planner.List(ctx, storage.Filter{OwnerID: ownerID, Date: req.Date})
		if err != nil {
			return renderError(err)
		}
		return renderList(meetings)

	case command.OpCancel:
		m, err := s.ownMeeting(ctx, ownerID, req.ID)
		if err != nil {
			return renderError(err)
		}
		if _, err := s.planner.Cancel(ctx, m.ID); err != nil {
			return renderError(err)
		}
		return fmt.Sprintf("🗑 Meeting %s cancelled.", m.ID)

	case command.OpMove:
		if _, err := s.ownMeeting(ctx, ownerID, req.ID); err != nil {
			return renderError(err)
		}
		patch := app.Patch{Date: req.Date, StartTime: req.StartTime, EndTime: req.EndTime}
		m, err := s.planner.Reschedule(ctx, req.ID, patch)
		if err != nil {
			return renderError(err)
		}
		return fmt.Sprintf("✅ Meeting %s moved to %s %s-%s.", m.ID, m.Date, m.StartTime, m.EndTime)

	case command.OpRename:
		if _, err := s.ownMeeting(ctx, ownerID, req.ID); err != nil {
			return renderError(err)
		}
		m, err := s.planner.Reschedule(ctx, req.ID, app.Patch{Title: &req.Title})
		if err != nil {
			return renderError(err)
		}
		return fmt.Sprintf("✅ Meeting %s renamed to %q.", m.ID, m.Title)

	default:
		return helpText
	}
}

// ownMeeting resolves id and refuses to touch other owners' meetings.
func (s responder) ownMeeting(ctx context.Context, ownerID string, id string) (storage.Meeting, error) {
	m, err := s.planner.Get(ctx, id)
	if err != nil {
		return storage.Meeting{}, err
	}
	if m.OwnerID != ownerID {
		return storage.Meeting{}, fmt.Errorf("no meeting with id %q: %w", id, storage.ErrNotFoundMeeting)
	}
	return m, nil
}

func renderList(meetings []storage.Meeting) string {
	if len(meetings) == 0 {
		return "🔍 You have no meetings planned."
	}
	var b strings.Builder
	b.WriteString("📅 Your meetings:\n")
	for _, m := range meetings {
		title := m.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "%s %s-%s %s (id %s)\n", m.Date, m.StartTime, m.EndTime, title, m.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderError(err error) string {
	var validationErr *app.ValidationError
	if errors.As(err, &validationErr) {
		return "⚠️ " + validationErr.Reason + "."
	}
	var conflictErr *app.ConflictError
	if errors.As(err, &conflictErr) {
		var b strings.Builder
		b.WriteString("⛔ That slot is busy:\n")
		for _, m := range conflictErr.Conflicts {
			title := m.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintf(&b, "%s-%s %s (id %s)\n", m.StartTime, m.EndTime, title, m.ID)
		}
		return strings.TrimRight(b.String(), "\n")
	}
	if errors.Is(err, storage.ErrNotFoundMeeting) {
		return "⚠️ Meeting not found."
	}
	log.Errorf("bot request failed: %v", err)
	return "⚠️ Something went wrong, try again later."
}
