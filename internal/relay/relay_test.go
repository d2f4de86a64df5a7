package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(zerolog.Nop())
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return s, srv
}

func dial(t *testing.T, srv *httptest.Server, id uuid.UUID) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?id=" + id.String()
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// next reads frames until one of the wanted type arrives.
func next(t *testing.T, conn *websocket.Conn, dec *json.Decoder, typ string) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f Frame
		require.NoError(t, dec.Decode(&f))
		if f.Type == typ {
			return f
		}
	}
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWSRejectsMissingID(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutesPayloadAndStampsSender(t *testing.T) {
	s, srv := newTestServer(t)
	alice, bob := uuid.New(), uuid.New()
	a := dial(t, srv, alice)
	b := dial(t, srv, bob)
	bdec := json.NewDecoder(b)

	require.Eventually(t, func() bool { return s.Hub().Online(alice) && s.Hub().Online(bob) }, 2*time.Second, 10*time.Millisecond)

	forged := uuid.New()
	require.NoError(t, json.NewEncoder(a).Encode(Frame{Type: FrameMessage, From: forged, To: bob, Payload: "#POSER,PERM,,3"}))

	f := next(t, b, bdec, FrameMessage)
	assert.Equal(t, alice, f.From)
	assert.Equal(t, "#POSER,PERM,,3", f.Payload)
}

func TestPresenceBroadcast(t *testing.T) {
	s, srv := newTestServer(t)
	alice, bob := uuid.New(), uuid.New()
	a := dial(t, srv, alice)
	adec := json.NewDecoder(a)
	next(t, a, adec, FramePresence)

	b := dial(t, srv, bob)
	require.Eventually(t, func() bool { return s.Hub().Online(bob) }, 2*time.Second, 10*time.Millisecond)
	f := next(t, a, adec, FramePresence)
	assert.Contains(t, f.Online, bob)

	require.NoError(t, b.Close())
	require.Eventually(t, func() bool { return !s.Hub().Online(bob) }, 2*time.Second, 10*time.Millisecond)
}

func TestOfflineRecipientGetsError(t *testing.T) {
	_, srv := newTestServer(t)
	alice := uuid.New()
	a := dial(t, srv, alice)
	adec := json.NewDecoder(a)

	nobody := uuid.New()
	require.NoError(t, json.NewEncoder(a).Encode(Frame{Type: FrameMessage, To: nobody, Payload: "x"}))
	f := next(t, a, adec, FrameError)
	assert.Equal(t, nobody, f.To)
	assert.Contains(t, f.Error, "offline")
}
