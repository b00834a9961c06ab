package stats

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/phturb/lolstats-backend-go/catalog"
	modellolapi "github.com/phturb/lolstats-backend-go/model/lolapi"
	"github.com/phturb/lolstats-backend-go/proxy"
	"github.com/phturb/lolstats-backend-go/riot"
)

const baseEnd = int64(1_700_000_000_000)

type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gate) pass() {
	g.entered <- struct{}{}
	<-g.release
}

// fakeRiot serves a small, mutable upstream world under /{host}/...
type fakeRiot struct {
	mu             sync.Mutex
	accounts       map[string]modellolapi.Account
	history        []string
	ended          map[string]int64
	failing        map[string]bool
	noTimeline     map[string]bool
	summonerStatus map[string]int
	masteryStatus  int
	masteryOnly    string
	masteryHosts   []string
	liveStatus     int
	matchCalls     map[string]int
	accountGates   map[string]*gate
	idsGate        *gate
}

func newFakeRiot(historySize int) *fakeRiot {
	f := &fakeRiot{
		accounts: map[string]modellolapi.Account{
			"Caps#G2":   {PUUID: "caps-puuid", GameName: "Caps", TagLine: "G2"},
			"Faker#KR1": {PUUID: "faker-puuid", GameName: "Faker", TagLine: "KR1"},
		},
		ended:          map[string]int64{},
		failing:        map[string]bool{},
		noTimeline:     map[string]bool{},
		summonerStatus: map[string]int{},
		matchCalls:     map[string]int{},
		accountGates:   map[string]*gate{},
		liveStatus:     http.StatusNotFound,
	}
	for i := 0; i < historySize; i++ {
		id := fmt.Sprintf("EUW1_%d", 7000-i)
		f.history = append(f.history, id)
		f.ended[id] = baseEnd - int64(i)*3_600_000
	}
	return f
}

func (f *fakeRiot) update(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

func (f *fakeRiot) calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.matchCalls[id]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	b, _ := json.Marshal(v)
	w.Write(b)
}

func writeStatus(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"status":{"message":"%s","status_code":%d}}`, http.StatusText(status), status)
}

func (f *fakeRiot) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/{host}/riot/account/v1/accounts/by-riot-id/{name}/{tag}", f.account)
	r.HandleFunc("/{host}/riot/account/v1/accounts/by-puuid/{puuid}", f.accountByPUUID)
	r.HandleFunc("/{host}/lol/summoner/v4/summoners/by-puuid/{puuid}", f.summoner)
	r.HandleFunc("/{host}/lol/league/v4/entries/by-summoner/{id}", f.ranked)
	r.HandleFunc("/{host}/lol/league/v4/entries/by-puuid/{puuid}", f.ranked)
	r.HandleFunc("/{host}/lol/champion-mastery/v4/champion-masteries/by-puuid/{puuid}/top", f.masteries)
	r.HandleFunc("/{host}/lol/champion-mastery/v4/champion-masteries/by-puuid/{puuid}", f.masteries)
	r.HandleFunc("/{host}/lol/match/v5/matches/by-puuid/{puuid}/ids", f.ids)
	r.HandleFunc("/{host}/lol/match/v5/matches/{id}/timeline", f.timeline)
	r.HandleFunc("/{host}/lol/match/v5/matches/{id}", f.match)
	r.HandleFunc("/{host}/lol/spectator/v5/active-games/by-summoner/{puuid}", f.live)
	return r
}

func (f *fakeRiot) account(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	f.mu.Lock()
	g := f.accountGates[v["name"]]
	a, ok := f.accounts[v["name"]+"#"+v["tag"]]
	f.mu.Unlock()
	if g != nil {
		g.pass()
	}
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	writeJSON(w, a)
}

func (f *fakeRiot) accountByPUUID(w http.ResponseWriter, r *http.Request) {
	puuid := mux.Vars(r)["puuid"]
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.PUUID == puuid {
			writeJSON(w, a)
			return
		}
	}
	writeStatus(w, http.StatusNotFound)
}

func (f *fakeRiot) summoner(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	f.mu.Lock()
	status := f.summonerStatus[v["host"]]
	f.mu.Unlock()
	if status != 0 {
		writeStatus(w, status)
		return
	}
	writeJSON(w, modellolapi.Summoner{ID: "summ-" + v["host"], PUUID: v["puuid"], ProfileIconID: 29, SummonerLevel: 512})
}

func (f *fakeRiot) ranked(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, []modellolapi.LeagueEntry{{QueueType: "RANKED_SOLO_5x5", Tier: "CHALLENGER", Rank: "I", LeaguePoints: 1200, Wins: 200, Losses: 150}})
}

func (f *fakeRiot) masteries(w http.ResponseWriter, r *http.Request) {
	host := mux.Vars(r)["host"]
	f.mu.Lock()
	status := f.masteryStatus
	if f.masteryOnly != "" && f.masteryOnly != host {
		status = http.StatusNotFound
	}
	f.masteryHosts = append(f.masteryHosts, host)
	f.mu.Unlock()
	if status != 0 {
		writeStatus(w, status)
		return
	}
	writeJSON(w, []modellolapi.ChampionMastery{{ChampionID: 103, ChampionLevel: 7, ChampionPoints: 900000}})
}

func (f *fakeRiot) ids(w http.ResponseWriter, r *http.Request) {
	start, _ := strconv.Atoi(r.URL.Query().Get("start"))
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))
	f.mu.Lock()
	g := f.idsGate
	history := append([]string(nil), f.history...)
	f.mu.Unlock()
	if g != nil && start > 0 {
		g.pass()
	}
	if start > len(history) {
		start = len(history)
	}
	end := start + count
	if end > len(history) {
		end = len(history)
	}
	writeJSON(w, history[start:end])
}

func (f *fakeRiot) match(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	f.mu.Lock()
	f.matchCalls[id]++
	failing := f.failing[id]
	ended, ok := f.ended[id]
	f.mu.Unlock()
	if failing {
		writeStatus(w, http.StatusInternalServerError)
		return
	}
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	writeJSON(w, testMatch(id, ended))
}

func (f *fakeRiot) timeline(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	f.mu.Lock()
	missing := f.noTimeline[id]
	f.mu.Unlock()
	if missing {
		writeStatus(w, http.StatusNotFound)
		return
	}
	w.Write([]byte(`{"metadata":{"matchId":"` + id + `"},"info":{"frameInterval":60000,"frames":[
		{"timestamp":0,"participantFrames":{"1":{"participantId":1,"totalGold":500},"6":{"participantId":6,"totalGold":500}},"events":[]},
		{"timestamp":60010,"participantFrames":{"1":{"participantId":1,"totalGold":900},"6":{"participantId":6,"totalGold":700}},"events":[
			{"type":"CHAMPION_KILL","timestamp":65000,"killerId":1,"victimId":6,"assistingParticipantIds":[2]},
			{"type":"BUILDING_KILL","timestamp":90000,"killerId":1,"teamId":200,"buildingType":"TOWER_BUILDING","laneType":"MID_LANE","towerType":"OUTER_TURRET"}
		]}
	]}}`))
}

func (f *fakeRiot) live(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status := f.liveStatus
	f.mu.Unlock()
	if status != http.StatusOK {
		writeStatus(w, status)
		return
	}
	writeJSON(w, modellolapi.ActiveGame{
		GameID:            42,
		GameMode:          "CLASSIC",
		GameQueueConfigID: 420,
		GameLength:        600,
		BannedChampions:   []modellolapi.BannedChampion{{ChampionID: 86, TeamID: 200}, {ChampionID: -1, TeamID: 100}},
		Participants: []modellolapi.CurrentGameParticipant{
			{PUUID: mux.Vars(r)["puuid"], TeamID: 100, ChampionID: 103, Spell1ID: 4, Spell2ID: 14, RiotID: "Caps#G2"},
			{PUUID: "other", TeamID: 200, ChampionID: 86, Spell1ID: 4, Spell2ID: 12, RiotID: "Other#EUW"},
		},
	})
}

func testMatch(id string, ended int64) modellolapi.Match {
	m := modellolapi.Match{Metadata: modellolapi.MatchMetadata{MatchID: id}}
	m.Info.QueueID = 420
	m.Info.GameMode = "CLASSIC"
	m.Info.GameDuration = 1800
	m.Info.GameVersion = "14.3.555"
	m.Info.GameStartTimestamp = ended - 1_800_000
	m.Info.GameEndTimestamp = ended
	for i := 1; i <= 10; i++ {
		p := modellolapi.Participant{
			ParticipantID:  i,
			PUUID:          fmt.Sprintf("p-%d", i),
			RiotIDGameName: fmt.Sprintf("player%d", i),
			ChampionID:     86,
			TeamID:         100,
			Win:            true,
			Kills:          i,
			Summoner1ID:    4,
			Summoner2ID:    14,
			Item0:          3031,
			Item3:          1055,
			GoldEarned:     10000,
		}
		if i == 1 {
			p.PUUID = "caps-puuid"
			p.ChampionID = 103
		}
		if i > 5 {
			p.TeamID = 200
			p.Win = false
		}
		m.Info.Participants = append(m.Info.Participants, p)
	}
	m.Info.Teams = []modellolapi.Team{
		{TeamID: 100, Win: true, Bans: []modellolapi.Ban{{ChampionID: 86}, {ChampionID: -1}}},
		{TeamID: 200, Win: false},
	}
	return m
}

type stubCatalog struct{}

func (stubCatalog) Lookup(context.Context) *catalog.Lookup {
	return catalog.NewLookup("14.3.1", "/champion-data",
		map[int]modellolapi.Champion{
			103: {Key: "103", Name: "Ahri", Image: modellolapi.Image{Full: "Ahri.png"}},
			86:  {Key: "86", Name: "Garen", Image: modellolapi.Image{Full: "Garen.png"}},
		},
		map[int]modellolapi.Item{
			3031: {ID: "3031", Name: "Infinity Edge"},
			1055: {ID: "1055", Name: "Doran's Blade"},
		},
		map[int]modellolapi.SummonerSpell{
			4:  {Key: "4", Name: "Flash", Image: modellolapi.Image{Full: "SummonerFlash.png"}},
			14: {Key: "14", Name: "Ignite", Image: modellolapi.Image{Full: "SummonerDot.png"}},
		})
}

func testOptions() Options {
	return Options{PageSize: 5, IDCount: 20, TopMasteryCount: 3, FeedWindow: 40, Timelines: true}
}

func newTestOrchestrator(t *testing.T, f *fakeRiot, opts Options) *Orchestrator {
	srv := httptest.NewServer(f.router())
	t.Cleanup(srv.Close)
	key := func() string { return "RGAPI-test" }
	fw := proxy.NewRiotForwarder("api.riotgames.com", key,
		proxy.WithTimeout(5*time.Second),
		proxy.WithHostResolver(func(host string) string { return srv.URL + "/" + host }))
	return NewOrchestrator(riot.NewClient(proxy.NewGateway(key), fw), stubCatalog{}, opts)
}
