package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/mkravets/meetplanner/internal/app"
	"github.com/mkravets/meetplanner/internal/logger"
	internalhttp "github.com/mkravets/meetplanner/internal/server/http"
	"github.com/mkravets/meetplanner/internal/storage"
	sqlstorage "github.com/mkravets/meetplanner/internal/storage/sql"
	"github.com/mkravets/meetplanner/internal/storagebuilder"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var (
	httpServerHost = "127.0.0.1"
	httpServerPort = 9005
	pgHost         = "127.0.0.1"
	pgPort         = 5432
	pgDatabase     = "testing"
	pgUsername     = "postgres"
	pgPassword     = "pas"
	storageType    = "memory"
	serverURL      = ""
)

func TestMain(m *testing.M) {
	if err := logger.PrepareLogger(logger.Config{Level: "ERROR"}); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if port := os.Getenv("TEST_HTTP_SERVER_PORT"); port != "" {
		httpServerPort, _ = strconv.Atoi(port)
	}
	if host := os.Getenv("TEST_POSTGRES_HOST"); host != "" {
		pgHost = host
	}
	if port := os.Getenv("TEST_POSTGRES_PORT"); port != "" {
		pgPort, _ = strconv.Atoi(port)
	}
	if st := os.Getenv("TEST_STORAGE_TYPE"); st != "" {
		storageType = st
	}

	serverURL = fmt.Sprintf("http://%s", net.JoinHostPort(httpServerHost, strconv.Itoa(httpServerPort)))

	os.Exit(m.Run())
}

type apiResponse struct {
	Meeting   storage.Meeting   `json:"meeting"`
	Meetings  []storage.Meeting `json:"meetings"`
	Error     string            `json:"error"`
	Conflicts []storage.Meeting `json:"conflicts"`
}

func TestScheduleFlow(t *testing.T) {
	startServer(t)

	// Create, conflict, back-to-back, move, cancel through the wire.
	created := send(t, "POST", "/meetings", map[string]string{
		"ownerId": "alice", "title": "standup",
		"date": "2300-01-01", "startTime": "10:00", "endTime": "11:00",
	}, http.StatusCreated)
	require.NotEmpty(t, created.Meeting.ID)

	overlap := send(t, "POST", "/meetings", map[string]string{
		"ownerId": "alice",
		"date":    "2300-01-01", "startTime": "10:30", "endTime": "11:30",
	}, http.StatusConflict)
	require.Len(t, overlap.Conflicts, 1)
	require.Equal(t, created.Meeting.ID, overlap.Conflicts[0].ID)

	send(t, "POST", "/meetings", map[string]string{
		"ownerId": "alice",
		"date":    "2300-01-01", "startTime": "11:00", "endTime": "12:00",
	}, http.StatusCreated)

	moved := send(t, "PATCH", "/meetings/"+created.Meeting.ID, map[string]string{
		"startTime": "09:30", "endTime": "10:30",
	}, http.StatusOK)
	require.Equal(t, "09:30", moved.Meeting.StartTime.String())

	listed := send(t, "GET", "/meetings?ownerId=alice&date=2300-01-01", nil, http.StatusOK)
	require.Len(t, listed.Meetings, 2)

	removed := send(t, "DELETE", "/meetings/"+created.Meeting.ID, nil, http.StatusOK)
	require.Equal(t, created.Meeting.ID, removed.Meeting.ID)

	send(t, "GET", "/meetings/"+created.Meeting.ID, nil, http.StatusNotFound)
}

func TestValidationOverTheWire(t *testing.T) {
	startServer(t)

	resp := send(t, "POST", "/meetings", map[string]string{
		"ownerId": "alice",
		"date":    "2300-01-01", "startTime": "11:00", "endTime": "10:00",
	}, http.StatusBadRequest)
	require.NotEmpty(t, resp.Error)

	listed := send(t, "GET", "/meetings?ownerId=alice", nil, http.StatusOK)
	require.Empty(t, listed.Meetings)
}

func send(t *testing.T, method, path string, body interface{}, expectedCode int) apiResponse {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, serverURL+path, reader)
	require.NoError(t, err, "failed to build request")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "failed to send request")
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read body")
	require.Equal(t, expectedCode, resp.StatusCode, string(data))

	var parsed apiResponse
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &parsed), string(data))
	}
	return parsed
}

func startServer(t *testing.T) {
	t.Helper()

	stor, err := storagebuilder.New(storagebuilder.Config{
		StorageType: storageType,
		Database: sqlstorage.Config{
			Host:     pgHost,
			Port:     pgPort,
			Database: pgDatabase,
			Username: pgUsername,
			Password: pgPassword,
		},
	})
	require.NoError(t, err, "failed to create storage")

	planner := app.New(stor)
	server := internalhttp.NewServer(internalhttp.Config{
		Host: httpServerHost,
		Port: httpServerPort,
	}, planner)

	go func() {
		if err := server.Start(context.Background()); err != nil {
			log.Errorf("http server: %v", err)
		}
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(serverURL + "/healthz")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 200*time.Millisecond)

	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer stopCancel()
		require.NoError(t, server.Stop(stopCtx))
		require.NoError(t, stor.Close(stopCtx))
		require.NoError(t, cleanupDB())
	})
}

func cleanupDB() error {
	if storageType != "sql" {
		return nil
	}
	db, err := sqlx.Connect(
		"postgres",
		fmt.Sprintf("sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			pgHost, pgPort, pgDatabase, pgUsername, pgPassword),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("TRUNCATE TABLE meetings")
	return err
}
