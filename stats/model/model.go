package model

import (
	modellolapi "github.com/phturb/lolstats-backend-go/model/lolapi"
	"github.com/phturb/lolstats-backend-go/timeline"
)

// AssetRef is a catalog entry resolved for display. Name and Icon are empty when the id is unknown.
type AssetRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type ParticipantView struct {
	ParticipantID int        `json:"participantId"`
	PUUID         string     `json:"puuid"`
	Name          string     `json:"name"`
	TagLine       string     `json:"tagLine"`
	TeamID        int        `json:"teamId"`
	Position      string     `json:"position"`
	Win           bool       `json:"win"`
	Champion      AssetRef   `json:"champion"`
	ChampionLevel int        `json:"championLevel"`
	Spells        []AssetRef `json:"spells"`
	Items         []AssetRef `json:"items"`
	Kills         int        `json:"kills"`
	Deaths        int        `json:"deaths"`
	Assists       int        `json:"assists"`
	CS            int        `json:"cs"`
	Gold          int        `json:"gold"`
	Damage        int        `json:"damage"`
	VisionScore   int        `json:"visionScore"`
	Highlighted   bool       `json:"highlighted"`
}

type MatchSummary struct {
	MatchID         string            `json:"matchId"`
	QueueID         int               `json:"queueId"`
	QueueName       string            `json:"queueName"`
	GameMode        string            `json:"gameMode"`
	DurationSeconds int               `json:"durationSeconds"`
	EndedAt         int64             `json:"endedAt"`
	Player          *ParticipantView  `json:"player,omitempty"`
	Participants    []ParticipantView `json:"participants"`
	Feeds           *timeline.Feeds   `json:"feeds,omitempty"`
}

type MasteryView struct {
	modellolapi.ChampionMastery
	Champion AssetRef `json:"champion"`
}

// SummonerPage is the first load of a profile. Errors holds the optional slots that degraded to empty.
type SummonerPage struct {
	Region         string                    `json:"region"`
	Account        modellolapi.Account       `json:"account"`
	Summoner       modellolapi.Summoner      `json:"summoner"`
	PlatformUsed   string                    `json:"platformUsed"`
	ProfileIcon    string                    `json:"profileIcon"`
	CatalogVersion string                    `json:"catalogVersion"`
	Ranked         []modellolapi.LeagueEntry `json:"ranked"`
	Masteries      []MasteryView             `json:"masteries"`
	TopMasteries   []MasteryView             `json:"topMasteries"`
	MatchIDs       []string                  `json:"matchIds"`
	Matches        []MatchSummary            `json:"matches"`
	FailedIDs      []string                  `json:"failedIds"`
	Cursor         int                       `json:"cursor"`
	HasMore        bool                      `json:"hasMore"`
	Errors         map[string]string         `json:"errors,omitempty"`
}

// MatchPage is one "load more" batch. NextStart is the offset of the following page.
type MatchPage struct {
	Start     int            `json:"start"`
	NextStart int            `json:"nextStart"`
	MatchIDs  []string       `json:"matchIds"`
	Matches   []MatchSummary `json:"matches"`
	FailedIDs []string       `json:"failedIds"`
	HasMore   bool           `json:"hasMore"`
}

type TeamView struct {
	TeamID       int                        `json:"teamId"`
	Win          bool                       `json:"win"`
	Bans         []AssetRef                 `json:"bans"`
	Objectives   modellolapi.TeamObjectives `json:"objectives"`
	Participants []ParticipantView          `json:"participants"`
	Kills        int                        `json:"kills"`
	Gold         int                        `json:"gold"`
}

type MatchView struct {
	MatchSummary
	Region         string     `json:"region"`
	GameVersion    string     `json:"gameVersion"`
	CatalogVersion string     `json:"catalogVersion"`
	HighlightPUUID string     `json:"highlightPuuid,omitempty"`
	Teams          []TeamView `json:"teams"`
	TimelineError  string     `json:"timelineError,omitempty"`
}

type LiveState string

const (
	LiveLoading   LiveState = "loading"
	LiveInGame    LiveState = "in-game"
	LiveNotInGame LiveState = "not-in-game"
	LiveError     LiveState = "error"
)

type LiveParticipant struct {
	PUUID       string     `json:"puuid"`
	RiotID      string     `json:"riotId"`
	TeamID      int        `json:"teamId"`
	Bot         bool       `json:"bot"`
	Champion    AssetRef   `json:"champion"`
	Spells      []AssetRef `json:"spells"`
	ProfileIcon string     `json:"profileIcon"`
}

// LiveGame keeps "not in a game" apart from a failed lookup, the two are never merged.
type LiveGame struct {
	State     LiveState         `json:"state"`
	Error     string            `json:"error,omitempty"`
	Platform  string            `json:"platform"`
	Region    string            `json:"region"`
	PUUID     string            `json:"puuid"`
	GameID    int64             `json:"gameId,omitempty"`
	GameMode  string            `json:"gameMode,omitempty"`
	QueueName string            `json:"queueName,omitempty"`
	StartTime int64             `json:"startTime,omitempty"`
	Length    int               `json:"length,omitempty"`
	Blue      []LiveParticipant `json:"blue"`
	Red       []LiveParticipant `json:"red"`
	Bans      []AssetRef        `json:"bans"`
}

// SessionState is the snapshot pushed to a websocket viewer after every change.
type SessionState struct {
	Generation    uint64        `json:"generation"`
	Region        string        `json:"region"`
	GameName      string        `json:"gameName"`
	TagLine       string        `json:"tagLine"`
	Loading       bool          `json:"loading"`
	LoadingMore   bool          `json:"loadingMore"`
	Error         string        `json:"error,omitempty"`
	LoadMoreError string        `json:"loadMoreError,omitempty"`
	Page          *SummonerPage `json:"page,omitempty"`
	Match         *MatchView    `json:"match,omitempty"`
	MatchLoading  bool          `json:"matchLoading"`
	MatchError    string        `json:"matchError,omitempty"`
	Live          *LiveGame     `json:"live,omitempty"`
}

func NewDefaultSessionState() SessionState {
	return SessionState{}
}
