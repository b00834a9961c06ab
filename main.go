package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phturb/lolstats-backend-go/catalog"
	"github.com/phturb/lolstats-backend-go/favorites"
	"github.com/phturb/lolstats-backend-go/internal"
	"github.com/phturb/lolstats-backend-go/proxy"
	"github.com/phturb/lolstats-backend-go/riot"
	"github.com/phturb/lolstats-backend-go/server"
	"github.com/phturb/lolstats-backend-go/stats"
)

func validateRiotKey(ctx context.Context, kv *proxy.KeyValidator) {
	ok, err := kv.Validate(ctx)
	switch {
	case err != nil:
		slog.Warn(fmt.Sprintf("[validateRiotKey] - unable to determine the riot api key validity : %s", err))
	case ok:
		slog.Info("[validateRiotKey] - riot api key is valid")
	default:
		slog.Error("[validateRiotKey] - riot api key has been rejected by the riot api")
	}
}

func die(d interface{}) {
	slog.Error(fmt.Sprintf("%v", d))
	panic(d)
}

func main() {
	internal.InitLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := internal.NewDependencies(ctx)
	if err != nil {
		die(err)
	}

	cfg := internal.Config()
	credential := func() string { return internal.Config().ApiKeys.RiotApiKey }
	gateway := proxy.NewGateway(credential)
	riotUpstream := proxy.NewRiotForwarder(cfg.Proxy.UpstreamDomain, credential, proxy.WithTimeout(cfg.Proxy.UpstreamTimeout))
	assets := proxy.NewAssetForwarder(cfg.Proxy.AssetOrigin, proxy.WithTimeout(cfg.Proxy.UpstreamTimeout))

	cat := catalog.New(assets, cfg.Catalog.FallbackVersion, proxy.AssetPrefix)
	go cat.Warm(ctx)

	kv := proxy.NewKeyValidator(riotUpstream, cfg.Jobs.KeyCheckPlatform)
	go validateRiotKey(ctx, kv)
	_, err = deps.Cron().AddFunc(cfg.Jobs.KeyCheckSchedule, func() {
		validateRiotKey(ctx, kv)
	})
	if err != nil {
		die(err)
	}
	deps.Cron().Start()
	defer deps.Cron().Stop()

	o := stats.NewOrchestrator(riot.NewClient(gateway, riotUpstream), cat, stats.OptionsFromConfig())
	s, err := server.NewServer(server.Services{
		Gateway:      gateway,
		RiotUpstream: riotUpstream,
		Assets:       assets,
		Orchestrator: o,
		Sessions:     stats.NewManager(o),
		Favorites:    favorites.NewStore(deps),
		StaticDir:    cfg.Server.StaticDir,
	})
	if err != nil {
		die(err)
	}

	sErr := s.Start(ctx)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case <-c:
		slog.Info("exiting service")
		cancel()
		<-s.Stopped()
		return
	case err = <-sErr:
		if err != nil {
			slog.Error(err.Error())
		}
		slog.Info("exiting service")
		return
	case <-ctx.Done():
		slog.Info("main context has been closed")
		<-s.Stopped()
		return
	}
}
