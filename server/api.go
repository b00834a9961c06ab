package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/phturb/lolstats-backend-go/favorites"
	"github.com/phturb/lolstats-backend-go/proxy"
	"github.com/phturb/lolstats-backend-go/region"
	"github.com/phturb/lolstats-backend-go/riot"
)

// statusOf maps an aggregation failure to the status the client sees.
func statusOf(err error) int {
	var rej *proxy.RejectError
	switch {
	case errors.As(err, &rej):
		return rej.Status
	case errors.Is(err, region.ErrUnknownRegion):
		return http.StatusBadRequest
	case riot.IsTimeout(err):
		return http.StatusGatewayTimeout
	case riot.IsNotFound(err):
		return http.StatusNotFound
	case riot.StatusOf(err) == http.StatusTooManyRequests:
		return http.StatusTooManyRequests
	}
	return http.StatusBadGateway
}

func writeFailure(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	var apiErr *riot.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(apiErr.RetryAfter/time.Second)))
	}
	slog.Warn(fmt.Sprintf("[%s] - %d : %s", op, status, err))
	proxy.WriteError(w, status, err.Error())
}

func (s *server) handleSummoner(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	code, err := region.Parse(v["region"])
	if err != nil {
		writeFailure(w, "handleSummoner", err)
		return
	}
	page, err := s.s.Orchestrator.LoadSummonerPage(r.Context(), code, v["gameName"], v["tagLine"])
	if err != nil {
		writeFailure(w, "handleSummoner", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *server) handleAccount(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	code, err := region.Parse(v["region"])
	if err != nil {
		writeFailure(w, "handleAccount", err)
		return
	}
	a, err := s.s.Orchestrator.AccountByPUUID(r.Context(), code, v["puuid"])
	if err != nil {
		writeFailure(w, "handleAccount", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"gameName": a.GameName,
		"tagLine":  a.TagLine,
	})
}

func (s *server) handleMatches(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	code, err := region.Parse(v["region"])
	if err != nil {
		writeFailure(w, "handleMatches", err)
		return
	}
	start := 0
	if raw := r.URL.Query().Get("start"); raw != "" {
		start, err = strconv.Atoi(raw)
		if err != nil || start < 0 {
			proxy.WriteError(w, http.StatusBadRequest, "start must be a non negative integer")
			return
		}
	}
	mp, err := s.s.Orchestrator.MatchPageByRiotID(r.Context(), code, v["gameName"], v["tagLine"], start)
	if err != nil {
		writeFailure(w, "handleMatches", err)
		return
	}
	writeJSON(w, http.StatusOK, mp)
}

func (s *server) handleMatch(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	code, err := region.Parse(v["region"])
	if err != nil {
		writeFailure(w, "handleMatch", err)
		return
	}
	q := r.URL.Query()
	withTimeline, _ := strconv.ParseBool(q.Get("timeline"))
	mv, err := s.s.Orchestrator.LoadMatch(r.Context(), code, v["matchId"], q.Get("puuid"), withTimeline)
	if err != nil {
		writeFailure(w, "handleMatch", err)
		return
	}
	writeJSON(w, http.StatusOK, mv)
}

func (s *server) handleLive(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	if _, err := region.ParsePlatform(v["platform"]); err != nil {
		writeFailure(w, "handleLive", err)
		return
	}
	writeJSON(w, http.StatusOK, s.s.Orchestrator.LiveGame(r.Context(), v["platform"], v["puuid"]))
}

type favoriteBody struct {
	Label *string `json:"label,omitempty"`
}

// favoriteRequest reads the identity from the path and the optional label from the body.
func favoriteRequest(r *http.Request) (string, string, string, *string, error) {
	v := mux.Vars(r)
	code, err := region.Parse(v["region"])
	if err != nil {
		return "", "", "", nil, err
	}
	var body favoriteBody
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return "", "", "", nil, fmt.Errorf("invalid body: %w", err)
		}
	}
	return string(code), v["gameName"], v["tagLine"], body.Label, nil
}

func (s *server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.s.Favorites.List(r.Context())
	if err != nil {
		slog.Error(fmt.Sprintf("[handleListFavorites] - %s", err))
		proxy.WriteError(w, http.StatusInternalServerError, "unable to list favorites")
		return
	}
	writeJSON(w, http.StatusOK, favs)
}

func (s *server) handleClearFavorites(w http.ResponseWriter, r *http.Request) {
	if err := s.s.Favorites.Clear(r.Context()); err != nil {
		slog.Error(fmt.Sprintf("[handleClearFavorites] - %s", err))
		proxy.WriteError(w, http.StatusInternalServerError, "unable to clear favorites")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleIsFavorite(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	code, err := region.Parse(v["region"])
	if err != nil {
		proxy.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ok, err := s.s.Favorites.IsFavorite(r.Context(), string(code), v["gameName"], v["tagLine"])
	if err != nil {
		writeFavoriteFailure(w, "handleIsFavorite", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"key":      favorites.Key(string(code), v["gameName"], v["tagLine"]),
		"favorite": ok,
	})
}

func (s *server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	code, gameName, tagLine, label, err := favoriteRequest(r)
	if err != nil {
		proxy.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	fav, err := s.s.Favorites.Add(r.Context(), code, gameName, tagLine, label)
	if err != nil {
		writeFavoriteFailure(w, "handleAddFavorite", err)
		return
	}
	writeJSON(w, http.StatusOK, fav)
}

func (s *server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	code, gameName, tagLine, _, err := favoriteRequest(r)
	if err != nil {
		proxy.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.s.Favorites.Remove(r.Context(), code, gameName, tagLine); err != nil {
		writeFavoriteFailure(w, "handleRemoveFavorite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	code, gameName, tagLine, label, err := favoriteRequest(r)
	if err != nil {
		proxy.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	added, err := s.s.Favorites.Toggle(r.Context(), code, gameName, tagLine, label)
	if err != nil {
		writeFavoriteFailure(w, "handleToggleFavorite", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"key":      favorites.Key(code, gameName, tagLine),
		"favorite": added,
	})
}

func writeFavoriteFailure(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, favorites.ErrInvalidFavorite) {
		proxy.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error(fmt.Sprintf("[%s] - %s", op, err))
	proxy.WriteError(w, http.StatusInternalServerError, "favorites store error")
}
