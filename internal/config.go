package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type apiKeys struct {
	RiotApiKey string
}

type proxy struct {
	UpstreamDomain  string
	AssetOrigin     string
	UpstreamTimeout time.Duration
}

type catalog struct {
	FallbackVersion string
}

type stats struct {
	MatchPageSize   int
	MatchIDCount    int
	TopMasteryCount int
	FeedWindow      int
	MatchTimelines  bool
}

type database struct {
	Driver string
	DSN    string
}

type jobs struct {
	KeyCheckSchedule string
	KeyCheckPlatform string
}

type server struct {
	Port      string
	StaticDir string
}

type config struct {
	ApiKeys  apiKeys
	Proxy    proxy
	Catalog  catalog
	Stats    stats
	Database database
	Jobs     jobs
	Server   server
}

// String never prints the api key, only whether it is set.
func (c config) String() string {
	return fmt.Sprintf("{riotKey:%t port:%s upstream:%s assets:%s timeout:%s db:%s}",
		c.ApiKeys.RiotApiKey != "", c.Server.Port, c.Proxy.UpstreamDomain, c.Proxy.AssetOrigin,
		c.Proxy.UpstreamTimeout, c.Database.Driver)
}

var (
	mu sync.RWMutex
	c  *config
)

func init() {
	LoadConfig()
}

// LoadConfig reads the given env files (".env" when none are given) and rebuilds the config.
// A missing file is not fatal, the process environment still applies.
func LoadConfig(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		slog.Warn(fmt.Sprintf("unable to load env file %v, using process environment : %s", files, err))
	}

	mu.Lock()
	defer mu.Unlock()
	c = &config{
		ApiKeys: apiKeys{
			RiotApiKey: os.Getenv("RIOT_API_KEY"),
		},
		Proxy: proxy{
			UpstreamDomain:  envString("RIOT_UPSTREAM_DOMAIN", "api.riotgames.com"),
			AssetOrigin:     envString("ASSET_ORIGIN", "https://ddragon.leagueoflegends.com"),
			UpstreamTimeout: time.Duration(envInt("UPSTREAM_TIMEOUT_MS", 10000)) * time.Millisecond,
		},
		Catalog: catalog{
			FallbackVersion: envString("ASSET_FALLBACK_VERSION", "14.1.1"),
		},
		Stats: stats{
			MatchPageSize:   envInt("MATCH_PAGE_SIZE", 5),
			MatchIDCount:    envInt("MATCH_ID_COUNT", 20),
			TopMasteryCount: envInt("TOP_MASTERY_COUNT", 3),
			FeedWindow:      envInt("FEED_WINDOW", 40),
			MatchTimelines:  envBool("MATCH_TIMELINES", true),
		},
		Database: database{
			Driver: envString("DATABASE_DRIVER", "sqlite"),
			DSN:    envString("DATABASE_DSN", "lolstats.db"),
		},
		Jobs: jobs{
			KeyCheckSchedule: envString("KEY_CHECK_SCHEDULE", "0,30 * * * *"),
			KeyCheckPlatform: envString("KEY_CHECK_PLATFORM", "euw1"),
		},
		Server: server{
			Port:      envString("PORT", "4000"),
			StaticDir: envString("STATIC_DIR", "static"),
		},
	}
	slog.Info(fmt.Sprintf("'Config' initialized %v", c))
	slog.Info(fmt.Sprintf("RIOT_API_KEY set? %t len=%d", c.ApiKeys.RiotApiKey != "", len(c.ApiKeys.RiotApiKey)))
}

func Config() *config {
	mu.RLock()
	defer mu.RUnlock()
	return c
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		slog.Warn(fmt.Sprintf("failed to parse value for %s, using fallback value %d", key, fallback))
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn(fmt.Sprintf("failed to parse value for %s, using fallback value %t", key, fallback))
		return fallback
	}
	return v
}
