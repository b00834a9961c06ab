package stats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phturb/lolstats-backend-go/catalog"
	modellolapi "github.com/phturb/lolstats-backend-go/model/lolapi"
	"github.com/phturb/lolstats-backend-go/region"
	"github.com/phturb/lolstats-backend-go/stats/model"
	"github.com/phturb/lolstats-backend-go/timeline"
	"golang.org/x/sync/errgroup"
)

// FetchMatchPage loads the ids at start and their details. A short id page means the history is exhausted.
func (o *Orchestrator) FetchMatchPage(ctx context.Context, code region.Code, puuid string, start int) (*model.MatchPage, error) {
	target, err := region.Resolve(code)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		start = 0
	}
	ids, err := o.api.MatchIDsByPUUID(ctx, target.Routing, puuid, start, o.opts.PageSize)
	if err != nil {
		return nil, &StageError{Stage: StageMatchIDs, Err: err}
	}
	batch := o.fetchMatches(ctx, o.catalog.Lookup(ctx), target.Routing, puuid, ids)
	return &model.MatchPage{
		Start:     start,
		NextStart: start + len(ids),
		MatchIDs:  ids,
		Matches:   batch.matches,
		FailedIDs: batch.failed,
		HasMore:   len(ids) == o.opts.PageSize,
	}, nil
}

// MatchPageByRiotID resolves the identity first, for callers that only know the riot id.
func (o *Orchestrator) MatchPageByRiotID(ctx context.Context, code region.Code, gameName, tagLine string, start int) (*model.MatchPage, error) {
	target, err := region.Resolve(code)
	if err != nil {
		return nil, err
	}
	account, err := o.api.AccountByRiotID(ctx, target.Routing, gameName, tagLine)
	if err != nil {
		return nil, &StageError{Stage: StageAccount, Err: err}
	}
	return o.FetchMatchPage(ctx, code, account.PUUID, start)
}

// AccountByPUUID resolves a puuid back to its riot id, for links that only carry the puuid.
func (o *Orchestrator) AccountByPUUID(ctx context.Context, code region.Code, puuid string) (*modellolapi.Account, error) {
	target, err := region.Resolve(code)
	if err != nil {
		return nil, err
	}
	account, err := o.api.AccountByPUUID(ctx, target.Routing, puuid)
	if err != nil {
		return nil, &StageError{Stage: StageAccount, Err: err}
	}
	return account, nil
}

type matchBatch struct {
	matches []model.MatchSummary
	failed  []string
}

// fetchMatches settles every detail fetch. A failed id is dropped and reported, it never fails the batch.
func (o *Orchestrator) fetchMatches(ctx context.Context, l *catalog.Lookup, routing, puuid string, ids []string) matchBatch {
	results := make([]*model.MatchSummary, len(ids))
	var g errgroup.Group
	g.SetLimit(o.opts.PageSize)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			m, err := o.api.Match(ctx, routing, id)
			if err != nil {
				slog.Warn(fmt.Sprintf("[fetchMatches] - dropping match %s : %s", id, err))
				return nil
			}
			s := matchSummary(l, m, puuid)
			if o.opts.Timelines {
				if tl, err := o.api.Timeline(ctx, routing, id); err != nil {
					slog.Debug(fmt.Sprintf("[fetchMatches] - no timeline for %s : %s", id, err))
				} else {
					feeds := timeline.Reduce(m, tl, o.opts.FeedWindow)
					s.Feeds = &feeds
				}
			}
			results[i] = &s
			return nil
		})
	}
	g.Wait()

	b := matchBatch{matches: make([]model.MatchSummary, 0, len(ids)), failed: []string{}}
	for i, r := range results {
		if r == nil {
			b.failed = append(b.failed, ids[i])
			continue
		}
		b.matches = append(b.matches, *r)
	}
	sortByRecency(b.matches)
	return b
}
