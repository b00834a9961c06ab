package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/phturb/lolstats-backend-go/favorites"
	"github.com/phturb/lolstats-backend-go/internal"
	modelwebsocket "github.com/phturb/lolstats-backend-go/model/websocket"
	"github.com/phturb/lolstats-backend-go/proxy"
	"github.com/phturb/lolstats-backend-go/stats"
)

// Services are the collaborators the routes are wired to.
type Services struct {
	Gateway      *proxy.Gateway
	RiotUpstream proxy.Upstream
	Assets       proxy.Upstream
	Orchestrator *stats.Orchestrator
	Sessions     stats.Manager
	Favorites    *favorites.Store
	StaticDir    string
}

type server struct {
	srv     *http.Server
	up      *websocket.Upgrader
	s       Services
	stopped chan struct{}
}

func NewServer(s Services) (*server, error) {
	if s.Gateway == nil || s.RiotUpstream == nil || s.Assets == nil || s.Orchestrator == nil || s.Sessions == nil || s.Favorites == nil {
		return nil, errors.New("server services are incomplete")
	}
	if s.StaticDir == "" {
		s.StaticDir = "static"
	}
	return &server{
		up: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Accepting all requests
			},
		},
		s:       s,
		stopped: make(chan struct{}),
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn(fmt.Sprintf("[writeJSON] - failed to encode response : %s", err))
	}
}

func (s *server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		slog.Error(err.Error())
		return
	}
	defer conn.Close()
	s.s.Sessions.HandleWebsocketConnection(conn, r)
	defer s.s.Sessions.HandleWebsocketClose(conn)

	for {
		mt, m, err := conn.ReadMessage()
		if err != nil || mt == websocket.CloseMessage {
			slog.Info(fmt.Sprintf("closing websocket connection err : %s", err))
			break
		}
		var wm modelwebsocket.Message
		if err := json.Unmarshal(m, &wm); err != nil {
			slog.Warn(fmt.Sprintf("unable to unmarshal the received message : %v", err))
			continue
		}
		if s.s.Sessions.HandleWebsocketMessage(&wm, conn, r) {
			slog.Debug("stats manager handling the websocket")
			continue
		}
		slog.Warn("no handlers processed the websocket message")
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"ok":      true,
		"riotKey": internal.Config().ApiKeys.RiotApiKey != "",
	})
}

func spaHandler(staticPath string, indexPath string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		// Join internally call path.Clean to prevent directory traversal
		path := filepath.Join(staticPath, r.URL.Path)

		fi, err := os.Stat(path)
		if os.IsNotExist(err) || (err == nil && fi.IsDir()) {
			http.ServeFile(w, r, filepath.Join(staticPath, indexPath))
			return
		}

		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		http.FileServer(http.Dir(staticPath)).ServeHTTP(w, r)
	}
}

// Router wires every HTTP surface. It is exposed for tests, Start serves it.
func (s *server) Router() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	riotProxy := proxy.NewRiotHandler(proxy.RiotPrefix, s.s.Gateway, s.s.RiotUpstream)
	router.PathPrefix(proxy.RiotPrefix + "/").Handler(riotProxy)
	router.PathPrefix(proxy.LegacyPrefix + "/").Handler(proxy.RewritePrefix(proxy.LegacyPrefix, proxy.RiotPrefix, riotProxy))
	router.PathPrefix(proxy.AssetPrefix + "/").Handler(proxy.NewAssetHandler(proxy.AssetPrefix, s.s.Assets))

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/account/{region}/{puuid}", s.handleAccount).Methods(http.MethodGet)
	api.HandleFunc("/summoner/{region}/{gameName}/{tagLine}", s.handleSummoner).Methods(http.MethodGet)
	api.HandleFunc("/summoner/{region}/{gameName}/{tagLine}/matches", s.handleMatches).Methods(http.MethodGet)
	api.HandleFunc("/match/{region}/{matchId}", s.handleMatch).Methods(http.MethodGet)
	api.HandleFunc("/live/{platform}/{puuid}", s.handleLive).Methods(http.MethodGet)

	api.HandleFunc("/favorites", s.handleListFavorites).Methods(http.MethodGet)
	api.HandleFunc("/favorites", s.handleClearFavorites).Methods(http.MethodDelete)
	api.HandleFunc("/favorites/{region}/{gameName}/{tagLine}", s.handleIsFavorite).Methods(http.MethodGet)
	api.HandleFunc("/favorites/{region}/{gameName}/{tagLine}", s.handleAddFavorite).Methods(http.MethodPut)
	api.HandleFunc("/favorites/{region}/{gameName}/{tagLine}", s.handleRemoveFavorite).Methods(http.MethodDelete)
	api.HandleFunc("/favorites/{region}/{gameName}/{tagLine}/toggle", s.handleToggleFavorite).Methods(http.MethodPost)

	router.HandleFunc("/ws", s.handleWebsocket)
	router.PathPrefix("/").HandlerFunc(spaHandler(s.s.StaticDir, "index.html"))

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.CORS(handlers.AllowedOrigins([]string{"*"}))(router))
}

func (s *server) GetHTTPServer() (*http.Server, error) {
	if s.srv == nil {
		return nil, errors.New("http serer is not started yet")
	}
	return s.srv, nil
}

func (s *server) Start(ctx context.Context) chan error {
	serverAddr := "0.0.0.0:" + internal.Config().Server.Port
	slog.Info("starting server on port " + serverAddr)
	slog.Info("handling websocket on path : '/ws'")
	s.srv = &http.Server{
		Handler:     s.Router(),
		Addr:        serverAddr,
		ReadTimeout: 15 * time.Second,
		// a summoner page fans out to many upstream calls, each bounded by the upstream timeout
		WriteTimeout: 2*internal.Config().Proxy.UpstreamTimeout + 15*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		defer close(s.stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn(fmt.Sprintf("[server.Start] - shutdown : %s", err))
		}
	}()

	return errCh
}

// Stopped is closed once the server drained its connections after the Start context was cancelled.
func (s *server) Stopped() <-chan struct{} {
	return s.stopped
}
