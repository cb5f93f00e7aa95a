package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	middleware "assignmint.com/assignmint/internal/http/middlewares"
	"assignmint.com/assignmint/internal/services"
)

func readSnapshot(t *testing.T, r *bufio.Reader) services.TaskSnapshot {
	t.Helper()

	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && data != "":
			require.Equal(t, "snapshot", event)
			var s services.TaskSnapshot
			require.NoError(t, json.Unmarshal([]byte(data), &s))
			return s
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestHandler_StreamAvailable(t *testing.T) {
	e := newTestServer(t, RouteOptions{})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(srv.URL + "/tasks/available/stream?subject=Math")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	initial := readSnapshot(t, reader)
	require.EqualValues(t, 1, initial.Seq)
	require.Empty(t, initial.Tasks)

	raw, err := json.Marshal(createTaskBody())
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/tasks", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, requester.id)
	req.Header.Set(middleware.HeaderUserRole, requester.role)
	created, err := client.Do(req)
	require.NoError(t, err)
	created.Body.Close()
	require.Equal(t, http.StatusCreated, created.StatusCode)

	next := readSnapshot(t, reader)
	require.Greater(t, next.Seq, initial.Seq)
	require.Len(t, next.Tasks, 1)
	require.Equal(t, "Calculus Assignment Help", next.Tasks[0].Title)
}
