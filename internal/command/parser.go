// Package command parses free-text chat messages into normalized
// scheduling requests. Parsing is positional and intentionally simple;
// it lives here, never inside the scheduling service.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mkravets/meetplanner/internal/storage"
)

type Op int

const (
	OpHelp Op = iota
	OpCreate
	OpList
	OpCancel
	OpMove
	OpRename
)

var ErrUnknownCommand = errors.New("unknown command")

// Request is a normalized scheduling request. Pointer fields are set
// only when the message supplied them.
type Request struct {
	Op        Op
	ID        string
	Title     string
	Date      *storage.Date
	StartTime *storage.TimeOfDay
	EndTime   *storage.TimeOfDay
}

// Parse understands the following forms (keywords are case-insensitive,
// "meeting" and "meetings" are interchangeable):
//
//	create meeting <date> <start> <end> [title...]
//	list meetings [date]
//	cancel meeting <id>
//	move meeting <id> [date] <start> <end>
//	rename meeting <id> <title...>
//	help
func Parse(text string) (Request, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Request{}, ErrUnknownCommand
	}

	verb := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if verb == "help" || verb == "start" {
		return Request{Op: OpHelp}, nil
	}
	if len(fields) < 2 || !isMeetingWord(fields[1]) {
		return Request{}, ErrUnknownCommand
	}
	args := fields[2:]

	switch verb {
	case "create":
		return parseCreate(args)
	case "list":
		return parseList(args)
	case "cancel":
		return parseCancel(args)
	case "move":
		return parseMove(args)
	case "rename":
		return parseRename(args)
	default:
		return Request{}, ErrUnknownCommand
	}
}

func parseCreate(args []string) (Request, error) {
	if len(args) < 3 {
		return Request{}, errors.New("create needs a date, a start time and an end time")
	}
	date, err := storage.ParseDate(args[0])
	if err != nil {
		return Request{}, err
	}
	start, err := storage.ParseTimeOfDay(args[1])
	if err != nil {
		return Request{}, err
	}
	end, err := storage.ParseTimeOfDay(args[2])
	if err != nil {
		return Request{}, err
	}
	return Request{
		Op:        OpCreate,
		Date:      &date,
		StartTime: &start,
		EndTime:   &end,
		Title:     strings.Join(args[3:], " "),
	}, nil
}

func parseList(args []string) (Request, error) {
	req := Request{Op: OpList}
	if len(args) == 0 {
		return req, nil
	}
	date, err := storage.ParseDate(args[0])
	if err != nil {
		return Request{}, err
	}
	req.Date = &date
	return req, nil
}

func parseCancel(args []string) (Request, error) {
	if len(args) != 1 {
		return Request{}, errors.New("cancel needs a meeting id")
	}
	return Request{Op: OpCancel, ID: args[0]}, nil
}

func parseMove(args []string) (Request, error) {
	if len(args) < 3 {
		return Request{}, errors.New("move needs a meeting id, a start time and an end time")
	}
	req := Request{Op: OpMove, ID: args[0]}
	rest := args[1:]
	if len(rest) == 3 {
		date, err := storage.ParseDate(rest[0])
		if err != nil {
			return Request{}, err
		}
		req.Date = &date
		rest = rest[1:]
	}
	if len(rest) != 2 {
		return Request{}, fmt.Errorf("move takes at most a date, a start time and an end time")
	}
	start, err := storage.ParseTimeOfDay(rest[0])
	if err != nil {
		return Request{}, err
	}
	end, err := storage.ParseTimeOfDay(rest[1])
	if err != nil {
		return Request{}, err
	}
	req.StartTime = &start
	req.EndTime = &end
	return req, nil
}

func parseRename(args []string) (Request, error) {
	if len(args) < 2 {
		return Request{}, errors.New("rename needs a meeting id and a new title")
	}
	return Request{Op: OpRename, ID: args[0], Title: strings.Join(args[1:], " ")}, nil
}

func isMeetingWord(s string) bool {
	s = strings.ToLower(s)
	return s == "meeting" || s == "meetings"
}
