package stats

import (
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	modelwebsocket "github.com/phturb/lolstats-backend-go/model/websocket"
	"github.com/phturb/lolstats-backend-go/stats/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	messages chan modelwebsocket.Message
}

func newRecordingConn() *recordingConn {
	return &recordingConn{messages: make(chan modelwebsocket.Message, 64)}
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.messages <- v.(modelwebsocket.Message)
	return nil
}

func (c *recordingConn) next(t *testing.T) modelwebsocket.Message {
	t.Helper()
	select {
	case m := <-c.messages:
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("no websocket message received")
		return modelwebsocket.Message{}
	}
}

// nextState skips intermediate states until one matches done.
func (c *recordingConn) nextState(t *testing.T, done func(model.SessionState) bool) model.SessionState {
	t.Helper()
	for {
		m := c.next(t)
		require.Equal(t, modelwebsocket.UpdateState, m.Action)
		var st model.SessionState
		require.NoError(t, json.Unmarshal([]byte(m.Content), &st))
		if done(st) {
			return st
		}
	}
}

func message(t *testing.T, action modelwebsocket.Action, content any) *modelwebsocket.Message {
	t.Helper()
	wm := &modelwebsocket.Message{Action: action}
	if content != nil {
		b, err := json.Marshal(content)
		require.NoError(t, err)
		wm.Content = string(b)
	}
	return wm
}

func TestManagerConnectionLifecycle(t *testing.T) {
	m := NewManager(newTestOrchestrator(t, newFakeRiot(3), testOptions()))
	conn := newRecordingConn()
	r := httptest.NewRequest("GET", "/ws", nil)

	m.HandleWebsocketConnection(conn, r)
	assert.Equal(t, 1, m.Sessions())
	st := conn.nextState(t, func(model.SessionState) bool { return true })
	assert.False(t, st.Loading)
	assert.Nil(t, st.Page)

	assert.False(t, m.HandleWebsocketMessage(&modelwebsocket.Message{Action: "rollDice"}, conn, r))

	m.HandleWebsocketClose(conn)
	assert.Equal(t, 0, m.Sessions())
	assert.False(t, m.HandleWebsocketMessage(message(t, modelwebsocket.LoadMore, nil), conn, r))
}

func TestManagerSearchAndLoadMore(t *testing.T) {
	m := NewManager(newTestOrchestrator(t, newFakeRiot(8), testOptions()))
	conn := newRecordingConn()
	r := httptest.NewRequest("GET", "/ws", nil)
	m.HandleWebsocketConnection(conn, r)
	conn.next(t)

	require.True(t, m.HandleWebsocketMessage(message(t, modelwebsocket.Search,
		modelwebsocket.SearchContent{Region: "euw", RiotID: "Caps#G2"}), conn, r))
	st := conn.nextState(t, func(st model.SessionState) bool { return !st.Loading })
	assert.Empty(t, st.Error)
	require.NotNil(t, st.Page)
	assert.Equal(t, "caps-puuid", st.Page.Account.PUUID)
	assert.Len(t, st.Page.Matches, 5)

	require.True(t, m.HandleWebsocketMessage(message(t, modelwebsocket.LoadMore, nil), conn, r))
	st = conn.nextState(t, func(st model.SessionState) bool { return !st.LoadingMore })
	assert.Len(t, st.Page.Matches, 8)
	assert.False(t, st.Page.HasMore)

	require.True(t, m.HandleWebsocketMessage(message(t, modelwebsocket.LoadMore, nil), conn, r))
	em := conn.next(t)
	require.Equal(t, modelwebsocket.Error, em.Action)
	var ec modelwebsocket.ErrorContent
	require.NoError(t, json.Unmarshal([]byte(em.Content), &ec))
	assert.Equal(t, modelwebsocket.LoadMore, ec.Action)
	assert.Equal(t, ErrExhausted.Error(), ec.Error)
}

func TestManagerRejectsInvalidRequests(t *testing.T) {
	m := NewManager(newTestOrchestrator(t, newFakeRiot(3), testOptions()))
	conn := newRecordingConn()
	r := httptest.NewRequest("GET", "/ws", nil)
	m.HandleWebsocketConnection(conn, r)
	conn.next(t)

	tests := []struct {
		name string
		wm   *modelwebsocket.Message
	}{
		{"load more before search", message(t, modelwebsocket.LoadMore, nil)},
		{"unknown region", message(t, modelwebsocket.Search, modelwebsocket.SearchContent{Region: "MOON", RiotID: "Caps#G2"})},
		{"missing tag line", message(t, modelwebsocket.Search, modelwebsocket.SearchContent{Region: "EUW", RiotID: "Caps"})},
		{"missing match id", message(t, modelwebsocket.LoadMatch, modelwebsocket.LoadMatchContent{})},
		{"live game before search", message(t, modelwebsocket.LiveGame, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, m.HandleWebsocketMessage(tt.wm, conn, r))
			em := conn.next(t)
			assert.Equal(t, modelwebsocket.Error, em.Action)
		})
	}
}
