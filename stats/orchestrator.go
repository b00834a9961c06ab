package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/phturb/lolstats-backend-go/catalog"
	"github.com/phturb/lolstats-backend-go/internal"
	modellolapi "github.com/phturb/lolstats-backend-go/model/lolapi"
	"github.com/phturb/lolstats-backend-go/region"
	"github.com/phturb/lolstats-backend-go/riot"
	"github.com/phturb/lolstats-backend-go/stats/model"
	"github.com/phturb/lolstats-backend-go/timeline"
	"golang.org/x/sync/errgroup"
)

// RiotAPI is the subset of the upstream client the orchestrator chains together.
type RiotAPI interface {
	region.SummonerLookup
	AccountByRiotID(ctx context.Context, routing, gameName, tagLine string) (*modellolapi.Account, error)
	AccountByPUUID(ctx context.Context, routing, puuid string) (*modellolapi.Account, error)
	LeagueEntriesBySummoner(ctx context.Context, platform, summonerID string) ([]modellolapi.LeagueEntry, error)
	LeagueEntriesByPUUID(ctx context.Context, platform, puuid string) ([]modellolapi.LeagueEntry, error)
	MasteriesByPUUID(ctx context.Context, platform, puuid string) ([]modellolapi.ChampionMastery, error)
	TopMasteriesByPUUID(ctx context.Context, platform, puuid string, count int) ([]modellolapi.ChampionMastery, error)
	MatchIDsByPUUID(ctx context.Context, routing, puuid string, start, count int) ([]string, error)
	Match(ctx context.Context, routing, matchID string) (*modellolapi.Match, error)
	Timeline(ctx context.Context, routing, matchID string) (*modellolapi.Timeline, error)
	ActiveGameByPUUID(ctx context.Context, platform, puuid string) (*modellolapi.ActiveGame, error)
}

var _ RiotAPI = (*riot.Client)(nil)

// Catalog resolves numeric ids into display names and icons.
type Catalog interface {
	Lookup(ctx context.Context) *catalog.Lookup
}

var _ Catalog = (*catalog.Catalog)(nil)

const (
	StageAccount  = "account"
	StageProfile  = "profile"
	StageMatch    = "match"
	StageMatchIDs = "matchIds"

	slotRanked       = "ranked"
	slotMasteries    = "masteries"
	slotTopMasteries = "topMasteries"
	slotMatchIDs     = "matchIds"
)

// StageError is a terminal failure of one required stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Options struct {
	PageSize        int
	IDCount         int
	TopMasteryCount int
	FeedWindow      int
	Timelines       bool
}

// OptionsFromConfig reads the stats section of the process config.
func OptionsFromConfig() Options {
	c := internal.Config().Stats
	return Options{
		PageSize:        c.MatchPageSize,
		IDCount:         c.MatchIDCount,
		TopMasteryCount: c.TopMasteryCount,
		FeedWindow:      c.FeedWindow,
		Timelines:       c.MatchTimelines,
	}
}

type Orchestrator struct {
	api     RiotAPI
	catalog Catalog
	opts    Options
}

func NewOrchestrator(api RiotAPI, cat Catalog, opts Options) *Orchestrator {
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}
	if opts.IDCount < opts.PageSize {
		opts.IDCount = opts.PageSize
	}
	if opts.TopMasteryCount <= 0 {
		opts.TopMasteryCount = 3
	}
	return &Orchestrator{api: api, catalog: cat, opts: opts}
}

func (o *Orchestrator) Options() Options {
	return o.opts
}

// optional is the result of an enrichment slot: on failure Value holds the empty default and Err the cause.
type optional[T any] struct {
	Value T
	Err   error
}

func (s *optional[T]) set(v T, err error, empty T) {
	if err != nil {
		s.Value, s.Err = empty, err
		return
	}
	s.Value = v
}

// profileJoin is the join of the second stage. Profile is required, the rest degrade.
type profileJoin struct {
	profile      *region.ResolvedSummoner
	masteries    optional[[]modellolapi.ChampionMastery]
	topMasteries optional[[]modellolapi.ChampionMastery]
	matchIDs     optional[[]string]
	lookup       *catalog.Lookup
}

func (j *profileJoin) slotErrors() map[string]string {
	errs := map[string]string{}
	if j.masteries.Err != nil {
		errs[slotMasteries] = j.masteries.Err.Error()
	}
	if j.topMasteries.Err != nil {
		errs[slotTopMasteries] = j.topMasteries.Err.Error()
	}
	if j.matchIDs.Err != nil {
		errs[slotMatchIDs] = j.matchIDs.Err.Error()
	}
	return errs
}

// LoadSummonerPage resolves the identity, then the profile together with the optional slots,
// then ranked entries and the first page of match details.
func (o *Orchestrator) LoadSummonerPage(ctx context.Context, code region.Code, gameName, tagLine string) (*model.SummonerPage, error) {
	target, err := region.Resolve(code)
	if err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("[LoadSummonerPage] - loading %s#%s on %s", gameName, tagLine, code))

	account, err := o.api.AccountByRiotID(ctx, target.Routing, gameName, tagLine)
	if err != nil {
		return nil, &StageError{Stage: StageAccount, Err: err}
	}

	var j profileJoin
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := region.ResolveSummonerWithFallback(gctx, o.api, code, account.PUUID)
		if err != nil {
			return &StageError{Stage: StageProfile, Err: err}
		}
		j.profile = p
		return nil
	})
	g.Go(func() error {
		ms, err := o.api.MasteriesByPUUID(gctx, target.Platform, account.PUUID)
		j.masteries.set(ms, err, []modellolapi.ChampionMastery{})
		return nil
	})
	g.Go(func() error {
		ms, err := o.api.TopMasteriesByPUUID(gctx, target.Platform, account.PUUID, o.opts.TopMasteryCount)
		j.topMasteries.set(ms, err, []modellolapi.ChampionMastery{})
		return nil
	})
	g.Go(func() error {
		ids, err := o.api.MatchIDsByPUUID(gctx, target.Routing, account.PUUID, 0, o.opts.IDCount)
		j.matchIDs.set(ids, err, []string{})
		return nil
	})
	g.Go(func() error {
		j.lookup = o.catalog.Lookup(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Warn(fmt.Sprintf("[LoadSummonerPage] - %s#%s : %s", gameName, tagLine, err))
		return nil, err
	}
	if j.profile.PlatformUsed != target.Platform {
		o.masteriesOn(ctx, &j, j.profile.PlatformUsed, account.PUUID)
	}

	page := &model.SummonerPage{
		Region:         string(code),
		Account:        *account,
		Summoner:       *j.profile.Summoner,
		PlatformUsed:   j.profile.PlatformUsed,
		ProfileIcon:    j.lookup.ProfileIconURL(j.profile.Summoner.ProfileIconID),
		CatalogVersion: j.lookup.Version,
		Masteries:      masteryViews(j.lookup, j.masteries.Value),
		TopMasteries:   masteryViews(j.lookup, j.topMasteries.Value),
		MatchIDs:       j.matchIDs.Value,
		Errors:         j.slotErrors(),
	}
	for slot, e := range page.Errors {
		slog.Warn(fmt.Sprintf("[LoadSummonerPage] - slot %s degraded : %s", slot, e))
	}

	first := j.matchIDs.Value
	if len(first) > o.opts.PageSize {
		first = first[:o.opts.PageSize]
	}

	var ranked optional[[]modellolapi.LeagueEntry]
	var batch matchBatch
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		entries, err := o.ranked(ctx, j.profile)
		ranked.set(entries, err, []modellolapi.LeagueEntry{})
	}()
	go func() {
		defer wg.Done()
		batch = o.fetchMatches(ctx, j.lookup, target.Routing, account.PUUID, first)
	}()
	wg.Wait()

	page.Ranked = ranked.Value
	if ranked.Err != nil {
		page.Errors[slotRanked] = ranked.Err.Error()
		slog.Warn(fmt.Sprintf("[LoadSummonerPage] - slot %s degraded : %s", slotRanked, ranked.Err))
	}
	page.Matches = batch.matches
	page.FailedIDs = batch.failed
	page.Cursor = len(first)
	page.HasMore = len(j.matchIDs.Value) > len(first) || (len(first) > 0 && len(j.matchIDs.Value) == o.opts.IDCount)
	if len(page.Errors) == 0 {
		page.Errors = nil
	}
	return page, nil
}

// masteriesOn replaces both mastery slots with the ones of the platform the profile was found on.
func (o *Orchestrator) masteriesOn(ctx context.Context, j *profileJoin, platform, puuid string) {
	slog.Info(fmt.Sprintf("[LoadSummonerPage] - reloading masteries on %s", platform))
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ms, err := o.api.MasteriesByPUUID(ctx, platform, puuid)
		j.masteries = optional[[]modellolapi.ChampionMastery]{}
		j.masteries.set(ms, err, []modellolapi.ChampionMastery{})
	}()
	go func() {
		defer wg.Done()
		ms, err := o.api.TopMasteriesByPUUID(ctx, platform, puuid, o.opts.TopMasteryCount)
		j.topMasteries = optional[[]modellolapi.ChampionMastery]{}
		j.topMasteries.set(ms, err, []modellolapi.ChampionMastery{})
	}()
	wg.Wait()
}

// ranked uses the summoner id when the profile carries one, the puuid endpoint otherwise.
func (o *Orchestrator) ranked(ctx context.Context, p *region.ResolvedSummoner) ([]modellolapi.LeagueEntry, error) {
	if p.Summoner.ID != "" {
		return o.api.LeagueEntriesBySummoner(ctx, p.PlatformUsed, p.Summoner.ID)
	}
	return o.api.LeagueEntriesByPUUID(ctx, p.PlatformUsed, p.Summoner.PUUID)
}

// LoadMatch builds the single match view. The timeline is optional enrichment, its failure is reported
// in TimelineError and never fails the view.
func (o *Orchestrator) LoadMatch(ctx context.Context, code region.Code, matchID, puuid string, withTimeline bool) (*model.MatchView, error) {
	target, err := region.Resolve(code)
	if err != nil {
		return nil, err
	}

	var (
		m      *modellolapi.Match
		tl     *modellolapi.Timeline
		tlErr  error
		lookup *catalog.Lookup
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if m, err = o.api.Match(gctx, target.Routing, matchID); err != nil {
			return &StageError{Stage: StageMatch, Err: err}
		}
		return nil
	})
	if withTimeline {
		g.Go(func() error {
			tl, tlErr = o.api.Timeline(gctx, target.Routing, matchID)
			return nil
		})
	}
	g.Go(func() error {
		lookup = o.catalog.Lookup(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v := &model.MatchView{
		MatchSummary:   matchSummary(lookup, m, puuid),
		Region:         string(code),
		GameVersion:    m.Info.GameVersion,
		CatalogVersion: lookup.Version,
		HighlightPUUID: puuid,
	}
	v.Teams = teamViews(lookup, m, v.Participants)
	if withTimeline {
		if tlErr != nil {
			slog.Warn(fmt.Sprintf("[LoadMatch] - timeline for %s unavailable : %s", matchID, tlErr))
			v.TimelineError = tlErr.Error()
		} else {
			feeds := timeline.Reduce(m, tl, o.opts.FeedWindow)
			v.Feeds = &feeds
		}
	}
	return v, nil
}

// LiveGame never returns an error: a 404 is the not-in-game state, any other failure is the error state.
func (o *Orchestrator) LiveGame(ctx context.Context, platform, puuid string) *model.LiveGame {
	platform = strings.ToLower(strings.TrimSpace(platform))
	lg := &model.LiveGame{
		Platform: platform,
		Region:   string(region.FromPlatform(platform)),
		PUUID:    puuid,
		Blue:     []model.LiveParticipant{},
		Red:      []model.LiveParticipant{},
		Bans:     []model.AssetRef{},
	}
	g, err := o.api.ActiveGameByPUUID(ctx, platform, puuid)
	switch {
	case err == nil:
		lg.State = model.LiveInGame
		liveGame(o.catalog.Lookup(ctx), g, lg)
	case riot.IsNotFound(err):
		lg.State = model.LiveNotInGame
	default:
		slog.Warn(fmt.Sprintf("[LiveGame] - live status for %s on %s failed : %s", puuid, platform, err))
		lg.State = model.LiveError
		lg.Error = err.Error()
	}
	return lg
}

// IsStage reports whether err is the terminal failure of the given stage.
func IsStage(err error, stage string) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}
