package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	json "github.com/goccy/go-json"
	modelwebsocket "github.com/phturb/lolstats-backend-go/model/websocket"
	"github.com/phturb/lolstats-backend-go/region"
	"github.com/phturb/lolstats-backend-go/stats/model"
)

// Conn is the write side of a websocket connection, *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
}

type Manager interface {
	HandleWebsocketConnection(conn Conn, r *http.Request)
	HandleWebsocketMessage(wm *modelwebsocket.Message, conn Conn, r *http.Request) bool
	HandleWebsocketClose(conn Conn)
	Sessions() int
}

// viewer owns one session. Writes are serialized, websocket connections do not support concurrent writers.
type viewer struct {
	conn    Conn
	writeMu sync.Mutex
	session *Session
	ctx     context.Context
	cancel  context.CancelFunc
}

func (v *viewer) write(m modelwebsocket.Message) {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	if err := v.conn.WriteJSON(m); err != nil {
		slog.Warn(fmt.Sprintf("[viewer.write] - failed to write %s message : %s", m.Action, err))
	}
}

func (v *viewer) sendState(st model.SessionState) {
	sst, err := json.Marshal(st)
	if err != nil {
		slog.Error(fmt.Sprintf("[viewer.sendState] - failed to marshal session state : %s", err.Error()))
		return
	}
	v.write(modelwebsocket.Message{
		Action:  modelwebsocket.UpdateState,
		Content: string(sst),
	})
}

func (v *viewer) sendError(action modelwebsocket.Action, err error) {
	se, _ := json.Marshal(modelwebsocket.ErrorContent{Action: action, Error: err.Error()})
	v.write(modelwebsocket.Message{
		Action:  modelwebsocket.Error,
		Content: string(se),
	})
}

type manager struct {
	o *Orchestrator

	viewersMu sync.RWMutex
	viewers   map[Conn]*viewer
}

var _ Manager = (*manager)(nil)

func NewManager(o *Orchestrator) Manager {
	return &manager{
		o:       o,
		viewers: map[Conn]*viewer{},
	}
}

func (m *manager) viewer(conn Conn) *viewer {
	m.viewersMu.RLock()
	defer m.viewersMu.RUnlock()
	return m.viewers[conn]
}

func (m *manager) Sessions() int {
	m.viewersMu.RLock()
	defer m.viewersMu.RUnlock()
	return len(m.viewers)
}

// HandleWebsocketConnection implements Manager.
func (m *manager) HandleWebsocketConnection(conn Conn, r *http.Request) {
	slog.Info("[HandleWebsocketConnection] - handling websocket connection")
	ctx, cancel := context.WithCancel(context.Background())
	v := &viewer{conn: conn, ctx: ctx, cancel: cancel}
	v.session = NewSession(m.o, v.sendState)

	m.viewersMu.Lock()
	m.viewers[conn] = v
	m.viewersMu.Unlock()

	slog.Info("[HandleWebsocketConnection] - sending session state to the new connection")
	v.sendState(v.session.Snapshot())
}

// HandleWebsocketClose implements Manager. In flight work of the connection is cancelled.
func (m *manager) HandleWebsocketClose(conn Conn) {
	m.viewersMu.Lock()
	v, ok := m.viewers[conn]
	delete(m.viewers, conn)
	m.viewersMu.Unlock()
	if ok {
		v.cancel()
		slog.Info("[HandleWebsocketClose] - session closed")
	}
}

// HandleWebsocketMessage implements Manager.
func (m *manager) HandleWebsocketMessage(wm *modelwebsocket.Message, conn Conn, r *http.Request) bool {
	slog.Info(fmt.Sprintf("[HandleWebsocketMessage] - %s event received", wm.Action))
	v := m.viewer(conn)
	if v == nil {
		slog.Warn("[HandleWebsocketMessage] - message from an unknown connection")
		return false
	}
	switch wm.Action {
	case modelwebsocket.Search:
		go m.handleSearch(wm, v)
		return true
	case modelwebsocket.LoadMore:
		go m.handleLoadMore(wm, v)
		return true
	case modelwebsocket.LoadMatch:
		go m.handleLoadMatch(wm, v)
		return true
	case modelwebsocket.LiveGame:
		go m.handleLiveGame(wm, v)
		return true
	case modelwebsocket.Reset:
		go m.handleReset(wm, v)
		return true
	default:
		slog.Debug(fmt.Sprintf("websocket action '%s' is not handled by the stats manager", wm.Action))
		return false
	}
}

// report forwards rejected requests to the viewer. Failures of the loads themselves are already in the state.
func report(v *viewer, action modelwebsocket.Action, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrStale):
		slog.Debug(fmt.Sprintf("[%s] - stale result dropped", action))
	case errors.Is(err, ErrLoadInFlight), errors.Is(err, ErrNoSearch), errors.Is(err, ErrExhausted):
		slog.Info(fmt.Sprintf("[%s] - request rejected : %s", action, err))
		v.sendError(action, err)
	default:
		slog.Warn(fmt.Sprintf("[%s] - %s", action, err))
	}
}

func (m *manager) handleSearch(wm *modelwebsocket.Message, v *viewer) {
	var c modelwebsocket.SearchContent
	if err := json.Unmarshal([]byte(wm.Content), &c); err != nil {
		slog.Error(fmt.Sprintf("[handleSearch] - invalid content : %s", err.Error()))
		v.sendError(wm.Action, err)
		return
	}
	code, err := region.Parse(c.Region)
	if err != nil {
		v.sendError(wm.Action, err)
		return
	}
	gameName, tagLine := c.GameName, c.TagLine
	if gameName == "" {
		gameName, tagLine = ParseRiotID(c.RiotID)
	}
	if gameName == "" || tagLine == "" {
		v.sendError(wm.Action, errors.New("game name and tag line are required"))
		return
	}
	report(v, wm.Action, v.session.Search(v.ctx, code, gameName, tagLine))
}

func (m *manager) handleLoadMore(wm *modelwebsocket.Message, v *viewer) {
	report(v, wm.Action, v.session.LoadMore(v.ctx))
}

func (m *manager) handleLoadMatch(wm *modelwebsocket.Message, v *viewer) {
	var c modelwebsocket.LoadMatchContent
	if err := json.Unmarshal([]byte(wm.Content), &c); err != nil || c.MatchID == "" {
		if err == nil {
			err = errors.New("matchId is required")
		}
		v.sendError(wm.Action, err)
		return
	}
	report(v, wm.Action, v.session.LoadMatch(v.ctx, c.MatchID))
}

func (m *manager) handleLiveGame(wm *modelwebsocket.Message, v *viewer) {
	report(v, wm.Action, v.session.LiveGame(v.ctx))
}

func (m *manager) handleReset(wm *modelwebsocket.Message, v *viewer) {
	slog.Info("[handleReset] - resetting the session state")
	v.session.Reset()
}
