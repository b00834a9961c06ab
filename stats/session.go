package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/phturb/lolstats-backend-go/region"
	"github.com/phturb/lolstats-backend-go/stats/model"
)

var (
	// ErrStale is returned when a result arrives after the session moved on to another identity.
	ErrStale = errors.New("result belongs to a previous search")
	// ErrLoadInFlight is returned when a load more is requested while another one is running.
	ErrLoadInFlight = errors.New("a page is already loading")
	// ErrNoSearch is returned by operations that need a resolved summoner.
	ErrNoSearch  = errors.New("no summoner loaded")
	ErrExhausted = errors.New("match history exhausted")
)

// ParseRiotID splits "Name#TAG" on the first '#'. A value without '#' is a bare game name.
func ParseRiotID(s string) (gameName, tagLine string) {
	name, tag, _ := strings.Cut(s, "#")
	return strings.TrimSpace(name), strings.TrimSpace(tag)
}

// Session is the aggregation state of one viewer. Every search bumps the generation, results computed for an
// older generation are dropped. The match cursor only moves forward and a match id is never listed twice.
type Session struct {
	o        *Orchestrator
	onChange func(model.SessionState)

	mu      sync.Mutex
	pubMu   sync.Mutex
	gen     uint64
	state   model.SessionState
	code    region.Code
	puuid   string
	cursor  int
	hasMore bool
	seen    map[string]struct{}
}

// NewSession builds a session. onChange receives a snapshot after every state change and may be nil.
func NewSession(o *Orchestrator, onChange func(model.SessionState)) *Session {
	if onChange == nil {
		onChange = func(model.SessionState) {}
	}
	return &Session{
		o:        o,
		onChange: onChange,
		state:    model.NewDefaultSessionState(),
		seen:     map[string]struct{}{},
	}
}

// Snapshot returns the current state. Slices inside are never mutated after publication.
func (s *Session) Snapshot() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// emitLocked must be called with mu held and releases it. pubMu is taken before mu is released so snapshots
// reach onChange in the order they were taken.
func (s *Session) emitLocked() {
	s.state.Generation = s.gen
	snap := s.state
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Unlock()
	s.onChange(snap)
}

func (s *Session) resetLocked() {
	s.gen++
	s.state = model.NewDefaultSessionState()
	s.code = ""
	s.puuid = ""
	s.cursor = 0
	s.hasMore = false
	s.seen = map[string]struct{}{}
}

// Reset abandons the current identity, any in flight result for it will be dropped.
func (s *Session) Reset() {
	s.mu.Lock()
	s.resetLocked()
	s.emitLocked()
}

// Search loads the summoner page for a new identity.
func (s *Session) Search(ctx context.Context, code region.Code, gameName, tagLine string) error {
	s.mu.Lock()
	s.resetLocked()
	gen := s.gen
	s.state.Region = string(code)
	s.state.GameName = gameName
	s.state.TagLine = tagLine
	s.state.Loading = true
	s.emitLocked()

	page, err := s.o.LoadSummonerPage(ctx, code, gameName, tagLine)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		slog.Info(fmt.Sprintf("[Session.Search] - dropping stale result for %s#%s", gameName, tagLine))
		return ErrStale
	}
	s.state.Loading = false
	if err != nil {
		s.state.Error = err.Error()
	} else {
		s.code = code
		s.puuid = page.Account.PUUID
		s.cursor = page.Cursor
		s.hasMore = page.HasMore
		matches := make([]model.MatchSummary, 0, len(page.Matches))
		for _, m := range page.Matches {
			if _, dup := s.seen[m.MatchID]; dup {
				continue
			}
			s.seen[m.MatchID] = struct{}{}
			matches = append(matches, m)
		}
		page.Matches = matches
		s.state.Page = page
	}
	s.emitLocked()
	return err
}

// LoadMore fetches the next page of match details. Only one load more runs at a time per session.
func (s *Session) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.state.LoadingMore {
		s.mu.Unlock()
		return ErrLoadInFlight
	}
	if s.puuid == "" || s.state.Page == nil {
		s.mu.Unlock()
		return ErrNoSearch
	}
	if !s.hasMore {
		s.mu.Unlock()
		return ErrExhausted
	}
	gen, code, puuid, start := s.gen, s.code, s.puuid, s.cursor
	s.state.LoadingMore = true
	s.state.LoadMoreError = ""
	s.emitLocked()

	mp, err := s.o.FetchMatchPage(ctx, code, puuid, start)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrStale
	}
	s.state.LoadingMore = false
	if err != nil {
		s.state.LoadMoreError = err.Error()
	} else {
		if mp.NextStart > s.cursor {
			s.cursor = mp.NextStart
		}
		s.hasMore = mp.HasMore

		page := *s.state.Page
		page.Matches = slices.Clone(page.Matches)
		page.MatchIDs = slices.Clone(page.MatchIDs)
		page.FailedIDs = append(slices.Clone(page.FailedIDs), mp.FailedIDs...)
		for _, m := range mp.Matches {
			if _, dup := s.seen[m.MatchID]; dup {
				continue
			}
			s.seen[m.MatchID] = struct{}{}
			page.Matches = append(page.Matches, m)
		}
		for _, id := range mp.MatchIDs {
			if !slices.Contains(page.MatchIDs, id) {
				page.MatchIDs = append(page.MatchIDs, id)
			}
		}
		page.Cursor = s.cursor
		page.HasMore = s.hasMore
		s.state.Page = &page
	}
	s.emitLocked()
	return err
}

// LoadMatch opens one match of the current identity, with its timeline feeds.
func (s *Session) LoadMatch(ctx context.Context, matchID string) error {
	s.mu.Lock()
	if s.puuid == "" {
		s.mu.Unlock()
		return ErrNoSearch
	}
	gen, code, puuid := s.gen, s.code, s.puuid
	s.state.MatchLoading = true
	s.state.MatchError = ""
	s.emitLocked()

	v, err := s.o.LoadMatch(ctx, code, matchID, puuid, true)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrStale
	}
	s.state.MatchLoading = false
	if err != nil {
		s.state.MatchError = err.Error()
	} else {
		s.state.Match = v
	}
	s.emitLocked()
	return err
}

// LiveGame polls the live status of the current identity on the platform its profile was found on.
func (s *Session) LiveGame(ctx context.Context) error {
	s.mu.Lock()
	if s.puuid == "" || s.state.Page == nil {
		s.mu.Unlock()
		return ErrNoSearch
	}
	gen, puuid, platform := s.gen, s.puuid, s.state.Page.PlatformUsed
	s.state.Live = &model.LiveGame{State: model.LiveLoading, Platform: platform, PUUID: puuid}
	s.emitLocked()

	lg := s.o.LiveGame(ctx, platform, puuid)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrStale
	}
	s.state.Live = lg
	s.emitLocked()
	return nil
}
