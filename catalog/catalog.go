package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	json "github.com/goccy/go-json"
	modellolapi "github.com/phturb/lolstats-backend-go/model/lolapi"
	"github.com/phturb/lolstats-backend-go/proxy"
	"golang.org/x/sync/errgroup"
)

const locale = "en_US"

// Catalog memoizes the asset catalog version and the three lookup tables for the process lifetime.
// Only successful loads are memoized, a failed load degrades to the fallback version or an empty table
// and is retried on the next call.
type Catalog struct {
	upstream        proxy.Upstream
	fallbackVersion string
	prefix          string

	versionMu sync.Mutex
	version   string

	champions table[modellolapi.Champion]
	items     table[modellolapi.Item]
	spells    table[modellolapi.SummonerSpell]
}

type table[T any] struct {
	mu     sync.Mutex
	loaded bool
	data   map[int]T
}

// get serializes loads so concurrent callers share one fetch.
func (t *table[T]) get(load func() (map[int]T, error)) map[int]T {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loaded {
		return t.data
	}
	data, err := load()
	if err != nil {
		return map[int]T{}
	}
	t.data, t.loaded = data, true
	return data
}

// New builds a catalog reading from upstream (the unauthenticated asset forwarder).
// prefix is the public asset proxy path used to build icon urls.
func New(upstream proxy.Upstream, fallbackVersion, prefix string) *Catalog {
	return &Catalog{
		upstream:        upstream,
		fallbackVersion: fallbackVersion,
		prefix:          prefix,
	}
}

func (c *Catalog) fetch(ctx context.Context, path string, out any) error {
	res, err := c.upstream.Forward(ctx, proxy.Request{Path: path})
	if err != nil {
		return err
	}
	if res.StatusCode != 200 {
		return fmt.Errorf("asset origin returned status %d for %s", res.StatusCode, path)
	}
	return json.Unmarshal(res.Body, out)
}

// Version returns the latest catalog version, or the fallback version when the version list is unavailable.
func (c *Catalog) Version(ctx context.Context) string {
	c.versionMu.Lock()
	defer c.versionMu.Unlock()
	if c.version != "" {
		return c.version
	}
	var vers []string
	if err := c.fetch(context.WithoutCancel(ctx), "api/versions.json", &vers); err != nil {
		slog.Warn(fmt.Sprintf("[catalog.Version] - failed to fetch versions, using fallback %s : %s", c.fallbackVersion, err))
		return c.fallbackVersion
	}
	if len(vers) == 0 || vers[0] == "" {
		slog.Warn("[catalog.Version] - versions result is empty, using fallback " + c.fallbackVersion)
		return c.fallbackVersion
	}
	c.version = vers[0]
	slog.Info("[catalog.Version] - asset catalog version " + c.version)
	return c.version
}

func loadTable[T any](ctx context.Context, c *Catalog, file string, key func(id string, v T) string) (map[int]T, error) {
	ctx = context.WithoutCancel(ctx)
	path := fmt.Sprintf("cdn/%s/data/%s/%s", c.Version(ctx), locale, file)
	var doc modellolapi.CatalogDocument[T]
	out := make(map[int]T)
	if err := c.fetch(ctx, path, &doc); err != nil {
		slog.Warn(fmt.Sprintf("[catalog] - failed to load %s : %s", file, err))
		return nil, err
	}
	for id, v := range doc.Data {
		k, err := strconv.Atoi(key(id, v))
		if err != nil {
			continue
		}
		out[k] = v
	}
	slog.Info(fmt.Sprintf("[catalog] - loaded %d entries from %s", len(out), file))
	return out, nil
}

// ChampionsByKey re-keys champion.json by the numeric champion id.
func (c *Catalog) ChampionsByKey(ctx context.Context) map[int]modellolapi.Champion {
	return c.champions.get(func() (map[int]modellolapi.Champion, error) {
		return loadTable(ctx, c, "champion.json", func(_ string, v modellolapi.Champion) string {
			return v.Key
		})
	})
}

// ItemsByID keys item.json by item id, the id is copied into each entry.
func (c *Catalog) ItemsByID(ctx context.Context) map[int]modellolapi.Item {
	return c.items.get(func() (map[int]modellolapi.Item, error) {
		items, err := loadTable(ctx, c, "item.json", func(id string, _ modellolapi.Item) string {
			return id
		})
		for k, it := range items {
			it.ID = strconv.Itoa(k)
			items[k] = it
		}
		return items, err
	})
}

// SpellsByKey re-keys summoner.json by the numeric spell id.
func (c *Catalog) SpellsByKey(ctx context.Context) map[int]modellolapi.SummonerSpell {
	return c.spells.get(func() (map[int]modellolapi.SummonerSpell, error) {
		return loadTable(ctx, c, "summoner.json", func(_ string, v modellolapi.SummonerSpell) string {
			return v.Key
		})
	})
}

// Lookup loads (or reuses) every table and returns a read only view over them.
func (c *Catalog) Lookup(ctx context.Context) *Lookup {
	l := &Lookup{
		Version: c.Version(ctx),
		prefix:  c.prefix,
	}
	var g errgroup.Group
	g.Go(func() error {
		l.champions = c.ChampionsByKey(ctx)
		return nil
	})
	g.Go(func() error {
		l.items = c.ItemsByID(ctx)
		return nil
	})
	g.Go(func() error {
		l.spells = c.SpellsByKey(ctx)
		return nil
	})
	g.Wait()
	return l
}

// Warm loads everything up front so the first page load does not pay for it.
func (c *Catalog) Warm(ctx context.Context) {
	l := c.Lookup(ctx)
	slog.Info(fmt.Sprintf("[catalog.Warm] - version %s, %d champions, %d items, %d spells",
		l.Version, len(l.champions), len(l.items), len(l.spells)))
}
