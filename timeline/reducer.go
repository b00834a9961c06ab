package timeline

import (
	"sort"
	"strconv"
	"strings"

	modellolapi "github.com/phturb/lolstats-backend-go/model/lolapi"
)

const (
	TeamBlue = 100
	TeamRed  = 200

	msPerMinute = 60000
)

type ObjectiveKind string

const (
	ObjectiveDragon    ObjectiveKind = "DRAGON"
	ObjectiveBaron     ObjectiveKind = "BARON"
	ObjectiveHerald    ObjectiveKind = "HERALD"
	ObjectiveOther     ObjectiveKind = "OTHER"
	ObjectiveTower     ObjectiveKind = "TOWER"
	ObjectiveInhibitor ObjectiveKind = "INHIBITOR"
)

// ParticipantRef is the slice of a match participant the feeds need to render a name and a portrait.
type ParticipantRef struct {
	ParticipantID int    `json:"participantId"`
	PUUID         string `json:"puuid"`
	Name          string `json:"name"`
	ChampionID    int    `json:"championId"`
	ChampionName  string `json:"championName"`
	TeamID        int    `json:"teamId"`
}

type KillEvent struct {
	Minute    int64            `json:"minute"`
	Timestamp int64            `json:"timestamp"`
	Killer    *ParticipantRef  `json:"killer"`
	Victim    *ParticipantRef  `json:"victim"`
	Assists   []ParticipantRef `json:"assists"`
}

// ObjectiveEvent.TeamID is the killer team for monsters and the destroyed building's team for structures.
type ObjectiveEvent struct {
	Minute    int64           `json:"minute"`
	Timestamp int64           `json:"timestamp"`
	Kind      ObjectiveKind   `json:"kind"`
	Text      string          `json:"text"`
	Killer    *ParticipantRef `json:"killer,omitempty"`
	TeamID    int             `json:"teamId,omitempty"`
}

type GoldPoint struct {
	Minute int64 `json:"minute"`
	Blue   int   `json:"blue"`
	Red    int   `json:"red"`
	Diff   int   `json:"diff"`
}

type Feeds struct {
	Kills      []KillEvent      `json:"kills"`
	Objectives []ObjectiveEvent `json:"objectives"`
	Gold       []GoldPoint      `json:"gold"`
}

// Empty reports whether no projection produced anything.
func (f Feeds) Empty() bool {
	return len(f.Kills) == 0 && len(f.Objectives) == 0 && len(f.Gold) == 0
}

// Reduce derives the kill feed, objective feed and gold series of a match from its timeline.
// Feeds keep at most window entries (the latest ones), window <= 0 disables truncation.
// A nil or frameless timeline yields empty feeds.
func Reduce(match *modellolapi.Match, tl *modellolapi.Timeline, window int) Feeds {
	feeds := Feeds{
		Kills:      []KillEvent{},
		Objectives: []ObjectiveEvent{},
		Gold:       []GoldPoint{},
	}
	if tl == nil || len(tl.Info.Frames) == 0 {
		return feeds
	}
	roster := newRoster(match)

	for _, frame := range tl.Info.Frames {
		for _, ev := range frame.Events {
			switch e := ev.(type) {
			case modellolapi.ChampionKillEvent:
				feeds.Kills = append(feeds.Kills, roster.kill(e))
			case modellolapi.EliteMonsterKillEvent:
				feeds.Objectives = append(feeds.Objectives, roster.monster(e))
			case modellolapi.BuildingKillEvent:
				if o, ok := roster.building(e); ok {
					feeds.Objectives = append(feeds.Objectives, o)
				}
			}
		}
	}

	sort.SliceStable(feeds.Kills, func(i, j int) bool {
		return feeds.Kills[i].Timestamp < feeds.Kills[j].Timestamp
	})
	sort.SliceStable(feeds.Objectives, func(i, j int) bool {
		return feeds.Objectives[i].Timestamp < feeds.Objectives[j].Timestamp
	})
	feeds.Kills = lastN(feeds.Kills, window)
	feeds.Objectives = lastN(feeds.Objectives, window)
	feeds.Gold = roster.gold(tl.Info.Frames)
	return feeds
}

func lastN[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func minuteOf(ts int64) int64 {
	return ts / msPerMinute
}

type roster map[int]ParticipantRef

func newRoster(match *modellolapi.Match) roster {
	r := make(roster)
	if match == nil {
		return r
	}
	for i, p := range match.Info.Participants {
		id := p.ParticipantID
		if id == 0 {
			id = i + 1
		}
		r[id] = ParticipantRef{
			ParticipantID: id,
			PUUID:         p.PUUID,
			Name:          p.DisplayName(),
			ChampionID:    p.ChampionID,
			ChampionName:  p.ChampionName,
			TeamID:        p.TeamID,
		}
	}
	return r
}

func (r roster) ref(id int) *ParticipantRef {
	p, ok := r[id]
	if !ok {
		return nil
	}
	return &p
}

func (r roster) kill(e modellolapi.ChampionKillEvent) KillEvent {
	assists := make([]ParticipantRef, 0, len(e.AssistingParticipantIDs))
	for _, id := range e.AssistingParticipantIDs {
		if p, ok := r[id]; ok {
			assists = append(assists, p)
		}
	}
	return KillEvent{
		Minute:    minuteOf(e.Timestamp),
		Timestamp: e.Timestamp,
		Killer:    r.ref(e.KillerID),
		Victim:    r.ref(e.VictimID),
		Assists:   assists,
	}
}

var dragonNames = map[string]string{
	"AIR_DRAGON":      "Cloud Drake",
	"FIRE_DRAGON":     "Infernal Drake",
	"EARTH_DRAGON":    "Mountain Drake",
	"WATER_DRAGON":    "Ocean Drake",
	"HEXTECH_DRAGON":  "Hextech Drake",
	"CHEMTECH_DRAGON": "Chemtech Drake",
	"ELDER_DRAGON":    "Elder Dragon",
}

func (r roster) monster(e modellolapi.EliteMonsterKillEvent) ObjectiveEvent {
	o := ObjectiveEvent{
		Minute:    minuteOf(e.Timestamp),
		Timestamp: e.Timestamp,
		Killer:    r.ref(e.KillerID),
		TeamID:    e.KillerTeamID,
	}
	switch e.MonsterType {
	case "DRAGON":
		o.Kind = ObjectiveDragon
		o.Text = dragonNames[e.MonsterSubType]
		if o.Text == "" {
			o.Text = titleCase(e.MonsterSubType)
		}
		if o.Text == "" {
			o.Text = "Dragon"
		}
	case "BARON_NASHOR":
		o.Kind = ObjectiveBaron
		o.Text = "Baron Nashor"
	case "RIFTHERALD":
		o.Kind = ObjectiveHerald
		o.Text = "Rift Herald"
	default:
		o.Kind = ObjectiveOther
		o.Text = titleCase(e.MonsterType)
	}
	if o.TeamID == 0 && o.Killer != nil {
		o.TeamID = o.Killer.TeamID
	}
	return o
}

var laneNames = map[string]string{
	"TOP_LANE": "Top",
	"MID_LANE": "Mid",
	"BOT_LANE": "Bot",
}

var towerNames = map[string]string{
	"OUTER_TURRET": "Outer Tower",
	"INNER_TURRET": "Inner Tower",
	"BASE_TURRET":  "Inhibitor Tower",
	"NEXUS_TURRET": "Nexus Tower",
}

func (r roster) building(e modellolapi.BuildingKillEvent) (ObjectiveEvent, bool) {
	o := ObjectiveEvent{
		Minute:    minuteOf(e.Timestamp),
		Timestamp: e.Timestamp,
		Killer:    r.ref(e.KillerID),
		TeamID:    e.TeamID,
	}
	lane := laneNames[e.LaneType]
	switch e.BuildingType {
	case "TOWER_BUILDING":
		o.Kind = ObjectiveTower
		tower := towerNames[e.TowerType]
		if tower == "" {
			tower = "Tower"
		}
		// nexus towers have no lane
		if e.TowerType == "NEXUS_TURRET" {
			lane = ""
		}
		o.Text = strings.TrimSpace(lane + " " + tower)
	case "INHIBITOR_BUILDING":
		o.Kind = ObjectiveInhibitor
		o.Text = strings.TrimSpace(lane + " Inhibitor")
	default:
		return o, false
	}
	return o, true
}

// gold keeps one point per minute, a later frame of the same minute overwrites the earlier one.
func (r roster) gold(frames []modellolapi.Frame) []GoldPoint {
	byMinute := make(map[int64]GoldPoint, len(frames))
	for _, frame := range frames {
		p := GoldPoint{Minute: minuteOf(frame.Timestamp)}
		for key, pf := range frame.ParticipantFrames {
			id := pf.ParticipantID
			if id == 0 {
				id, _ = strconv.Atoi(key)
			}
			switch r[id].TeamID {
			case TeamBlue:
				p.Blue += pf.TotalGold
			case TeamRed:
				p.Red += pf.TotalGold
			}
		}
		p.Diff = p.Blue - p.Red
		byMinute[p.Minute] = p
	}

	series := make([]GoldPoint, 0, len(byMinute))
	for _, p := range byMinute {
		series = append(series, p)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Minute < series[j].Minute
	})
	return series
}

// titleCase turns "VOID_GRUB" into "Void Grub".
func titleCase(raw string) string {
	words := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == '_' || r == ' ' || r == '-'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
