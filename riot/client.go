package riot

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	json "github.com/goccy/go-json"
	modellolapi "github.com/phturb/lolstats-backend-go/model/lolapi"
	"github.com/phturb/lolstats-backend-go/proxy"
)

// Client is a typed view of the consumed upstream endpoints.
// Every call goes through the gateway checks, then the forwarder.
type Client struct {
	gateway  *proxy.Gateway
	upstream proxy.Upstream
}

func NewClient(gateway *proxy.Gateway, upstream proxy.Upstream) *Client {
	return &Client{
		gateway:  gateway,
		upstream: upstream,
	}
}

func (c *Client) get(ctx context.Context, host, path string, query url.Values, out any) error {
	t, err := c.gateway.Check(http.MethodGet, host+"/"+path)
	if err != nil {
		return err
	}
	res, err := c.upstream.Forward(ctx, proxy.Request{Host: t.Host, Path: t.Path, RawQuery: query.Encode()})
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return newAPIError(res)
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return fmt.Errorf("failed to decode %s/%s : %w", host, path, err)
	}
	return nil
}

func esc(s string) string {
	return url.PathEscape(s)
}

func (c *Client) AccountByRiotID(ctx context.Context, routing, gameName, tagLine string) (*modellolapi.Account, error) {
	var a modellolapi.Account
	err := c.get(ctx, routing, "riot/account/v1/accounts/by-riot-id/"+esc(gameName)+"/"+esc(tagLine), nil, &a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) AccountByPUUID(ctx context.Context, routing, puuid string) (*modellolapi.Account, error) {
	var a modellolapi.Account
	if err := c.get(ctx, routing, "riot/account/v1/accounts/by-puuid/"+esc(puuid), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) SummonerByPUUID(ctx context.Context, platform, puuid string) (*modellolapi.Summoner, error) {
	var s modellolapi.Summoner
	if err := c.get(ctx, platform, "lol/summoner/v4/summoners/by-puuid/"+esc(puuid), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) LeagueEntriesBySummoner(ctx context.Context, platform, summonerID string) ([]modellolapi.LeagueEntry, error) {
	var es []modellolapi.LeagueEntry
	if err := c.get(ctx, platform, "lol/league/v4/entries/by-summoner/"+esc(summonerID), nil, &es); err != nil {
		return nil, err
	}
	return es, nil
}

func (c *Client) LeagueEntriesByPUUID(ctx context.Context, platform, puuid string) ([]modellolapi.LeagueEntry, error) {
	var es []modellolapi.LeagueEntry
	if err := c.get(ctx, platform, "lol/league/v4/entries/by-puuid/"+esc(puuid), nil, &es); err != nil {
		return nil, err
	}
	return es, nil
}

func (c *Client) MasteriesByPUUID(ctx context.Context, platform, puuid string) ([]modellolapi.ChampionMastery, error) {
	var ms []modellolapi.ChampionMastery
	if err := c.get(ctx, platform, "lol/champion-mastery/v4/champion-masteries/by-puuid/"+esc(puuid), nil, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

func (c *Client) TopMasteriesByPUUID(ctx context.Context, platform, puuid string, count int) ([]modellolapi.ChampionMastery, error) {
	var ms []modellolapi.ChampionMastery
	q := url.Values{"count": {strconv.Itoa(count)}}
	if err := c.get(ctx, platform, "lol/champion-mastery/v4/champion-masteries/by-puuid/"+esc(puuid)+"/top", q, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

func (c *Client) MatchIDsByPUUID(ctx context.Context, routing, puuid string, start, count int) ([]string, error) {
	var ids []string
	q := url.Values{
		"start": {strconv.Itoa(start)},
		"count": {strconv.Itoa(count)},
	}
	if err := c.get(ctx, routing, "lol/match/v5/matches/by-puuid/"+esc(puuid)+"/ids", q, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) Match(ctx context.Context, routing, matchID string) (*modellolapi.Match, error) {
	var m modellolapi.Match
	if err := c.get(ctx, routing, "lol/match/v5/matches/"+esc(matchID), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) Timeline(ctx context.Context, routing, matchID string) (*modellolapi.Timeline, error) {
	var tl modellolapi.Timeline
	if err := c.get(ctx, routing, "lol/match/v5/matches/"+esc(matchID)+"/timeline", nil, &tl); err != nil {
		return nil, err
	}
	return &tl, nil
}

func (c *Client) ActiveGameByPUUID(ctx context.Context, platform, puuid string) (*modellolapi.ActiveGame, error) {
	var g modellolapi.ActiveGame
	if err := c.get(ctx, platform, "lol/spectator/v5/active-games/by-summoner/"+esc(puuid), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}
