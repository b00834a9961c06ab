package modellolapi

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Timeline is returned by lol/match/v5/matches/{matchId}/timeline.
type Timeline struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     TimelineInfo  `json:"info"`
}

type TimelineInfo struct {
	FrameInterval int                   `json:"frameInterval"`
	Frames        []Frame               `json:"frames"`
	Participants  []TimelineParticipant `json:"participants"`
}

type TimelineParticipant struct {
	ParticipantID int    `json:"participantId"`
	PUUID         string `json:"puuid"`
}

// Frame is a per minute snapshot. ParticipantFrames is keyed by the participant id ("1".."10").
type Frame struct {
	Timestamp         int64                       `json:"timestamp"`
	ParticipantFrames map[string]ParticipantFrame `json:"participantFrames"`
	Events            Events                      `json:"events"`
}

type ParticipantFrame struct {
	ParticipantID       int `json:"participantId"`
	CurrentGold         int `json:"currentGold"`
	TotalGold           int `json:"totalGold"`
	GoldPerSecond       int `json:"goldPerSecond"`
	Level               int `json:"level"`
	XP                  int `json:"xp"`
	MinionsKilled       int `json:"minionsKilled"`
	JungleMinionsKilled int `json:"jungleMinionsKilled"`
}

type EventType string

const (
	EventChampionKill     EventType = "CHAMPION_KILL"
	EventEliteMonsterKill EventType = "ELITE_MONSTER_KILL"
	EventBuildingKill     EventType = "BUILDING_KILL"
)

// Event is one discrete timeline event. The concrete type is selected by its "type" field.
type Event interface {
	Kind() EventType
	At() int64
}

type EventBase struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
}

func (b EventBase) Kind() EventType {
	return b.Type
}

func (b EventBase) At() int64 {
	return b.Timestamp
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type ChampionKillEvent struct {
	EventBase
	KillerID                int      `json:"killerId"`
	VictimID                int      `json:"victimId"`
	AssistingParticipantIDs []int    `json:"assistingParticipantIds"`
	Bounty                  int      `json:"bounty"`
	KillStreakLength        int      `json:"killStreakLength"`
	Position                Position `json:"position"`
}

type EliteMonsterKillEvent struct {
	EventBase
	KillerID                int    `json:"killerId"`
	KillerTeamID            int    `json:"killerTeamId"`
	MonsterType             string `json:"monsterType"`
	MonsterSubType          string `json:"monsterSubType"`
	AssistingParticipantIDs []int  `json:"assistingParticipantIds"`
}

// BuildingKillEvent.TeamID is the team that owned the destroyed building.
type BuildingKillEvent struct {
	EventBase
	KillerID                int    `json:"killerId"`
	TeamID                  int    `json:"teamId"`
	BuildingType            string `json:"buildingType"`
	LaneType                string `json:"laneType"`
	TowerType               string `json:"towerType"`
	AssistingParticipantIDs []int  `json:"assistingParticipantIds"`
}

// OtherEvent keeps any event type this service does not model, untouched.
type OtherEvent struct {
	EventBase
	Raw json.RawMessage `json:"-"`
}

func (e OtherEvent) MarshalJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	return json.Marshal(e.EventBase)
}

type Events []Event

func (es *Events) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}
	out := make(Events, 0, len(raws))
	for i, raw := range raws {
		e, err := decodeEvent(raw)
		if err != nil {
			return fmt.Errorf("timeline event %d: %w", i, err)
		}
		out = append(out, e)
	}
	*es = out
	return nil
}

func decodeEvent(raw json.RawMessage) (Event, error) {
	var base EventBase
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, err
	}
	switch base.Type {
	case EventChampionKill:
		var e ChampionKillEvent
		err := json.Unmarshal(raw, &e)
		return e, err
	case EventEliteMonsterKill:
		var e EliteMonsterKillEvent
		err := json.Unmarshal(raw, &e)
		return e, err
	case EventBuildingKill:
		var e BuildingKillEvent
		err := json.Unmarshal(raw, &e)
		return e, err
	default:
		raw = append(json.RawMessage(nil), raw...)
		return OtherEvent{EventBase: base, Raw: raw}, nil
	}
}
