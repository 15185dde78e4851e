package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/internal/models"
)

func TestWebSocketBoardIDMustBeNumeric(t *testing.T) {
	r := setupTest(t)
	owner := createUser(t, "Owner", "owner@example.com")
	outsider := createUser(t, "Outsider", "outsider@example.com")

	board := createBoard(t, owner, "Board")

	// A path segment that is not a plain number is rejected before any
	// lookup; it must never resolve a board.
	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/ws/%d%%20OR%%201=1", board.ID), tokenFor(t, outsider), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = doRequest(t, r, http.MethodGet, "/api/ws/9999", tokenFor(t, outsider), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/ws/%d", board.ID), tokenFor(t, outsider), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func dialBoard(t *testing.T, srv *httptest.Server, board models.Board, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + fmt.Sprintf("/api/ws/%d", board.ID)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("Origin", "http://localhost:3000")

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]string {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg map[string]string
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func TestWebSocketBroadcastOnBoardMutation(t *testing.T) {
	r := setupTest(t)
	owner := createUser(t, "Owner", "owner@example.com")
	member := createUser(t, "Member", "member@example.com")

	board := createBoard(t, owner, "Board", member)

	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialBoard(t, srv, board, tokenFor(t, member))
	defer conn.Close()

	welcome := readMessage(t, conn)
	require.Equal(t, "connected", welcome["type"])

	w := doRequest(t, r, http.MethodPatch, fmt.Sprintf("/api/boards/%d", board.ID), tokenFor(t, owner), map[string]interface{}{
		"title": "Renamed",
	})
	require.Equal(t, http.StatusOK, w.Code)

	refresh := readMessage(t, conn)
	assert.Equal(t, "refresh", refresh["type"])
	assert.Equal(t, fmt.Sprintf("%d", board.ID), refresh["board_id"])
}

func TestWebSocketBroadcastOnTaskMutation(t *testing.T) {
	r := setupTest(t)
	owner := createUser(t, "Owner", "owner@example.com")

	board := createBoard(t, owner, "Board")

	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialBoard(t, srv, board, tokenFor(t, owner))
	defer conn.Close()

	welcome := readMessage(t, conn)
	require.Equal(t, "connected", welcome["type"])

	w := doRequest(t, r, http.MethodPost, "/api/tasks", tokenFor(t, owner), map[string]interface{}{
		"board":    board.ID,
		"title":    "New task",
		"status":   "to-do",
		"priority": "low",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	refresh := readMessage(t, conn)
	assert.Equal(t, "refresh", refresh["type"])
}
