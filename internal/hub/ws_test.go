package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wardsense/roommonitor/internal/model"
)

func dialWS(t *testing.T, srv *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?room=" + room
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWSSnapshotThenUpdates(t *testing.T) {
	h := newTestHub(8)
	srv := httptest.NewServer(NewWSHandler(h, zap.NewNop()))
	defer srv.Close()
	defer h.Close()

	h.Publish("room-101", []model.ClinicalObservation{observation("room-101", model.RiskNormal, 23.5)}, model.RiskNormal)

	conn := dialWS(t, srv, "room-101")

	msg := readMessage(t, conn)
	assert.Equal(t, "snapshot", msg.Type)
	assert.Equal(t, "room-101", msg.Data.RoomID)
	assert.Equal(t, model.RiskNormal, msg.Data.Risk)

	h.Publish("room-101", []model.ClinicalObservation{observation("room-101", model.RiskFallDetected, 23.5)}, model.RiskFallDetected)

	msg = readMessage(t, conn)
	assert.Equal(t, "update", msg.Type)
	assert.Equal(t, model.RiskFallDetected, msg.Data.Risk)
}

func TestWSRequiresRoomParameter(t *testing.T) {
	h := newTestHub(8)
	srv := httptest.NewServer(NewWSHandler(h, zap.NewNop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWSHubCloseEndsConnection(t *testing.T) {
	h := newTestHub(8)
	srv := httptest.NewServer(NewWSHandler(h, zap.NewNop()))
	defer srv.Close()

	h.Publish("room-101", nil, model.RiskNormal)
	conn := dialWS(t, srv, "room-101")
	readMessage(t, conn) // initial snapshot

	h.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)
}
