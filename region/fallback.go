package region

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	modellolapi "github.com/phturb/lolstats-backend-go/model/lolapi"
	"github.com/phturb/lolstats-backend-go/riot"
)

// SummonerLookup fetches a profile on one platform.
type SummonerLookup interface {
	SummonerByPUUID(ctx context.Context, platform, puuid string) (*modellolapi.Summoner, error)
}

// ResolvedSummoner is a profile tagged with the platform it was found on.
type ResolvedSummoner struct {
	Summoner     *modellolapi.Summoner `json:"summoner"`
	PlatformUsed string                `json:"platformUsed"`
}

// ResolveSummonerWithFallback looks the profile up on the region's platform. Only a 404 triggers
// exactly one retry on the designated fallback platform; any other failure is returned as is.
func ResolveSummonerWithFallback(ctx context.Context, lookup SummonerLookup, c Code, puuid string) (*ResolvedSummoner, error) {
	t, err := Resolve(c)
	if err != nil {
		return nil, err
	}
	s, err := lookup.SummonerByPUUID(ctx, t.Platform, puuid)
	if err == nil {
		return &ResolvedSummoner{Summoner: s, PlatformUsed: t.Platform}, nil
	}
	fallback, ok := Fallback(c)
	if riot.StatusOf(err) != http.StatusNotFound || !ok {
		return nil, err
	}

	slog.Info(fmt.Sprintf("[ResolveSummonerWithFallback] - profile not found on %s, retrying on %s", t.Platform, fallback))
	s, err = lookup.SummonerByPUUID(ctx, fallback, puuid)
	if err != nil {
		return nil, err
	}
	return &ResolvedSummoner{Summoner: s, PlatformUsed: fallback}, nil
}
