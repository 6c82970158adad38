package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/upgrades/internal/catalog"
	"github.com/roach88/upgrades/internal/economy"
	"github.com/roach88/upgrades/internal/engine"
	"github.com/roach88/upgrades/internal/testutil"
)

var epoch = time.Date(2025, 12, 15, 7, 30, 0, 0, time.UTC)

func startFeed(t *testing.T) (*engine.Engine, *websocket.Conn) {
	t.Helper()
	c, err := catalog.New("feed",
		[]catalog.Resource{{Kind: "wood"}},
		[]catalog.Producer{{Kind: "cutter", Target: "wood", Output: 1, Growth: 1.5, Cost: catalog.CostMap{"wood": 3}}},
		nil, nil)
	require.NoError(t, err)

	e := engine.New(economy.New(c, epoch), nil,
		engine.WithClock(testutil.NewFakeClock(epoch)),
		engine.WithSession("feed-session"))
	go func() { _ = e.Run(context.Background()) }()

	srv := httptest.NewServer(Mux(e))
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		e.Stop()
		<-e.Done()
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil {
		resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return e, conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m Message
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

// readBoth collects one result and one notification in either order.
func readBoth(t *testing.T, conn *websocket.Conn) (*Reply, *engine.Notification) {
	t.Helper()
	var r *Reply
	var n *engine.Notification
	for r == nil || n == nil {
		m := read(t, conn)
		switch m.Type {
		case TypeResult:
			r = m.Result
		case TypeNotification:
			n = m.Notification
		default:
			t.Fatalf("unexpected message type %q", m.Type)
		}
	}
	return r, n
}

func TestFeed_InitialViewThenNotifications(t *testing.T) {
	_, conn := startFeed(t)

	first := read(t, conn)
	require.Equal(t, TypeView, first.Type)
	require.NotNil(t, first.View)
	assert.Equal(t, 0.0, first.View.Resources[0].Amount)

	require.NoError(t, conn.WriteJSON(Command{ID: "1", Type: "gather", Kind: "wood", Amount: 5}))
	r, n := readBoth(t, conn)
	assert.Equal(t, Reply{ID: "1", OK: true}, *r)
	assert.Equal(t, "gather", n.Cause)
	assert.Equal(t, "feed-session", n.Session)
	assert.Equal(t, 5.0, n.View.Resources[0].Amount)

	require.NoError(t, conn.WriteJSON(Command{ID: "2", Type: "buy_producer", Kind: "cutter"}))
	r, n = readBoth(t, conn)
	assert.True(t, r.OK)
	assert.Equal(t, 1, n.View.Producers[0].Owned)
	assert.Equal(t, 2.0, n.View.Resources[0].Amount)
}

func TestFeed_RejectedCommands(t *testing.T) {
	_, conn := startFeed(t)
	read(t, conn)

	tests := []struct {
		cmd  Command
		code string
	}{
		{Command{ID: "a", Type: "buy_producer", Kind: "cutter"}, string(economy.CodeInsufficientFunds)},
		{Command{ID: "b", Type: "gather", Kind: "gold"}, string(economy.CodeUnknownKind)},
		{Command{ID: "c", Type: "reset"}, string(engine.ErrCodeNotConfirmed)},
		{Command{ID: "d", Type: "dance"}, "BAD_COMMAND"},
		{Command{ID: "e", Type: "save"}, string(engine.ErrCodeNoSink)},
	}
	for _, tt := range tests {
		require.NoError(t, conn.WriteJSON(tt.cmd))
		m := read(t, conn)
		require.Equal(t, TypeResult, m.Type, "command %s", tt.cmd.ID)
		assert.Equal(t, tt.cmd.ID, m.Result.ID)
		assert.False(t, m.Result.OK)
		assert.Equal(t, tt.code, m.Result.Code, "command %s", tt.cmd.ID)
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
	m := read(t, conn)
	assert.Equal(t, "BAD_COMMAND", m.Result.Code)
}

func TestFeed_ClosesWhenSessionEnds(t *testing.T) {
	e, conn := startFeed(t)
	read(t, conn)

	e.Stop()
	<-e.Done()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestHealthz(t *testing.T) {
	e, _ := startFeed(t)
	srv := httptest.NewServer(Mux(e))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCommandIntent(t *testing.T) {
	in, err := Command{Type: "research", Kind: "smelting"}.Intent()
	require.NoError(t, err)
	assert.Equal(t, engine.Research{Technology: "smelting"}, in)

	in, err = Command{Type: "reset", Confirm: true}.Intent()
	require.NoError(t, err)
	assert.Equal(t, engine.Reset{Confirmed: true}, in)

	_, err = Command{Type: "cheat"}.Intent()
	assert.Error(t, err)
}
