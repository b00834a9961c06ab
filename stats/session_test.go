package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/phturb/lolstats-backend-go/region"
	"github.com/phturb/lolstats-backend-go/stats/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []model.SessionState
}

func (r *stateRecorder) record(st model.SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
}

func (r *stateRecorder) all() []model.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.SessionState(nil), r.states...)
}

func TestParseRiotID(t *testing.T) {
	tests := []struct {
		in, name, tag string
	}{
		{"Caps#G2", "Caps", "G2"},
		{" Hide on bush #KR1 ", "Hide on bush", "KR1"},
		{"Caps", "Caps", ""},
		{"a#b#c", "a", "b#c"},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, tag := ParseRiotID(tt.in)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.tag, tag)
		})
	}
}

func TestSessionSearchPublishesLoadingThenPage(t *testing.T) {
	rec := &stateRecorder{}
	s := NewSession(newTestOrchestrator(t, newFakeRiot(8), testOptions()), rec.record)

	require.NoError(t, s.Search(context.Background(), region.EUW, "Caps", "G2"))

	states := rec.all()
	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.Nil(t, states[0].Page)
	assert.Equal(t, "Caps", states[0].GameName)
	assert.False(t, states[1].Loading)
	require.NotNil(t, states[1].Page)
	assert.Len(t, states[1].Page.Matches, 5)
	assert.Equal(t, states[0].Generation, states[1].Generation)
}

func TestSessionLoadMoreKeepsMatchesDistinct(t *testing.T) {
	f := newFakeRiot(12)
	s := NewSession(newTestOrchestrator(t, f, testOptions()), nil)
	ctx := context.Background()

	require.NoError(t, s.Search(ctx, region.EUW, "Caps", "G2"))
	assert.Equal(t, 5, s.Snapshot().Page.Cursor)

	// a game finishes between two pages, the upstream offsets shift by one
	f.update(func() {
		f.history = append([]string{"EUW1_7001"}, f.history...)
		f.ended["EUW1_7001"] = baseEnd + 3_600_000
	})

	require.NoError(t, s.LoadMore(ctx))
	page := s.Snapshot().Page
	assert.Equal(t, 10, page.Cursor)
	assert.True(t, page.HasMore)
	assert.Len(t, page.Matches, 9)

	require.NoError(t, s.LoadMore(ctx))
	page = s.Snapshot().Page
	assert.Equal(t, 13, page.Cursor)
	assert.False(t, page.HasMore)

	seen := map[string]bool{}
	for _, m := range page.Matches {
		assert.False(t, seen[m.MatchID], "%s listed twice", m.MatchID)
		seen[m.MatchID] = true
	}
	assert.Len(t, page.Matches, 12)
	assert.NotContains(t, seen, "EUW1_7001")

	assert.ErrorIs(t, s.LoadMore(ctx), ErrExhausted)
	assert.Equal(t, 13, s.Snapshot().Page.Cursor)
}

func TestSessionLoadMoreRejectsConcurrentCall(t *testing.T) {
	f := newFakeRiot(12)
	g := newGate()
	f.idsGate = g
	s := NewSession(newTestOrchestrator(t, f, testOptions()), nil)
	ctx := context.Background()
	require.NoError(t, s.Search(ctx, region.EUW, "Caps", "G2"))

	done := make(chan error, 1)
	go func() { done <- s.LoadMore(ctx) }()
	<-g.entered

	assert.True(t, s.Snapshot().LoadingMore)
	assert.ErrorIs(t, s.LoadMore(ctx), ErrLoadInFlight)

	close(g.release)
	require.NoError(t, <-done)
	st := s.Snapshot()
	assert.False(t, st.LoadingMore)
	assert.Len(t, st.Page.Matches, 10)
}

func TestSessionDropsStaleSearch(t *testing.T) {
	f := newFakeRiot(6)
	g := newGate()
	f.accountGates["Caps"] = g
	rec := &stateRecorder{}
	s := NewSession(newTestOrchestrator(t, f, testOptions()), rec.record)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.Search(ctx, region.EUW, "Caps", "G2") }()
	<-g.entered

	require.NoError(t, s.Search(ctx, region.KR, "Faker", "KR1"))
	close(g.release)
	assert.ErrorIs(t, <-done, ErrStale)

	st := s.Snapshot()
	assert.Equal(t, "Faker", st.GameName)
	require.NotNil(t, st.Page)
	assert.Equal(t, "faker-puuid", st.Page.Account.PUUID)

	for _, published := range rec.all() {
		if published.Page != nil {
			assert.Equal(t, "faker-puuid", published.Page.Account.PUUID)
		}
	}
}

func TestSessionFailedSearchAndReset(t *testing.T) {
	s := NewSession(newTestOrchestrator(t, newFakeRiot(3), testOptions()), nil)
	ctx := context.Background()

	err := s.Search(ctx, region.EUW, "Nobody", "000")
	require.Error(t, err)
	st := s.Snapshot()
	assert.False(t, st.Loading)
	assert.NotEmpty(t, st.Error)
	assert.Nil(t, st.Page)
	assert.ErrorIs(t, s.LoadMore(ctx), ErrNoSearch)

	require.NoError(t, s.Search(ctx, region.EUW, "Caps", "G2"))
	before := s.Snapshot().Generation
	s.Reset()
	st = s.Snapshot()
	assert.Greater(t, st.Generation, before)
	assert.Nil(t, st.Page)
	assert.Empty(t, st.Error)
	assert.ErrorIs(t, s.LiveGame(ctx), ErrNoSearch)
}

func TestSessionNeedsSearchFirst(t *testing.T) {
	s := NewSession(newTestOrchestrator(t, newFakeRiot(3), testOptions()), nil)
	ctx := context.Background()

	assert.ErrorIs(t, s.LoadMore(ctx), ErrNoSearch)
	assert.ErrorIs(t, s.LoadMatch(ctx, "EUW1_7000"), ErrNoSearch)
	assert.ErrorIs(t, s.LiveGame(ctx), ErrNoSearch)
}

func TestSessionLoadMatchAndLiveGame(t *testing.T) {
	f := newFakeRiot(3)
	s := NewSession(newTestOrchestrator(t, f, testOptions()), nil)
	ctx := context.Background()
	require.NoError(t, s.Search(ctx, region.EUW, "Caps", "G2"))

	require.NoError(t, s.LoadMatch(ctx, f.history[1]))
	st := s.Snapshot()
	assert.False(t, st.MatchLoading)
	require.NotNil(t, st.Match)
	assert.Equal(t, f.history[1], st.Match.MatchID)
	assert.Equal(t, "caps-puuid", st.Match.HighlightPUUID)

	assert.Error(t, s.LoadMatch(ctx, "EUW1_1"))
	st = s.Snapshot()
	assert.NotEmpty(t, st.MatchError)
	assert.Equal(t, f.history[1], st.Match.MatchID)

	require.NoError(t, s.LiveGame(ctx))
	st = s.Snapshot()
	require.NotNil(t, st.Live)
	assert.Equal(t, model.LiveNotInGame, st.Live.State)
	assert.Equal(t, "euw1", st.Live.Platform)
}

func TestSessionDeliversSnapshotsInPublishOrder(t *testing.T) {
	f := newFakeRiot(6)
	rec := &stateRecorder{}
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	onChange := func(st model.SessionState) {
		if st.Page != nil && st.Page.Account.PUUID == "caps-puuid" {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
		rec.record(st)
	}
	s := NewSession(newTestOrchestrator(t, f, testOptions()), onChange)
	ctx := context.Background()

	caps := make(chan error, 1)
	go func() { caps <- s.Search(ctx, region.EUW, "Caps", "G2") }()
	<-entered

	faker := make(chan error, 1)
	go func() { faker <- s.Search(ctx, region.KR, "Faker", "KR1") }()
	time.Sleep(50 * time.Millisecond)
	close(release)
	require.NoError(t, <-caps)
	require.NoError(t, <-faker)

	states := rec.all()
	require.NotEmpty(t, states)
	last := states[len(states)-1]
	require.NotNil(t, last.Page)
	assert.Equal(t, "faker-puuid", last.Page.Account.PUUID)
	for i := 1; i < len(states); i++ {
		assert.GreaterOrEqual(t, states[i].Generation, states[i-1].Generation)
	}
}
