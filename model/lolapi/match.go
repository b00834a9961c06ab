package modellolapi

// Match is returned by lol/match/v5/matches/{matchId}.
type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	DataVersion  string   `json:"dataVersion"`
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	GameID             int64         `json:"gameId"`
	GameCreation       int64         `json:"gameCreation"`
	GameDuration       int           `json:"gameDuration"`
	GameStartTimestamp int64         `json:"gameStartTimestamp"`
	GameEndTimestamp   int64         `json:"gameEndTimestamp"`
	GameMode           string        `json:"gameMode"`
	GameType           string        `json:"gameType"`
	GameVersion        string        `json:"gameVersion"`
	MapID              int           `json:"mapId"`
	PlatformID         string        `json:"platformId"`
	QueueID            int           `json:"queueId"`
	Participants       []Participant `json:"participants"`
	Teams              []Team        `json:"teams"`
}

// EndedAt is the end timestamp, or the start timestamp when the end is absent.
func (i MatchInfo) EndedAt() int64 {
	if i.GameEndTimestamp > 0 {
		return i.GameEndTimestamp
	}
	if i.GameStartTimestamp > 0 {
		return i.GameStartTimestamp
	}
	return i.GameCreation
}

type Participant struct {
	ParticipantID               int    `json:"participantId"`
	PUUID                       string `json:"puuid"`
	SummonerName                string `json:"summonerName"`
	RiotIDGameName              string `json:"riotIdGameName"`
	RiotIDTagline               string `json:"riotIdTagline"`
	ChampionID                  int    `json:"championId"`
	ChampionName                string `json:"championName"`
	ChampLevel                  int    `json:"champLevel"`
	TeamID                      int    `json:"teamId"`
	TeamPosition                string `json:"teamPosition"`
	Win                         bool   `json:"win"`
	Kills                       int    `json:"kills"`
	Deaths                      int    `json:"deaths"`
	Assists                     int    `json:"assists"`
	Summoner1ID                 int    `json:"summoner1Id"`
	Summoner2ID                 int    `json:"summoner2Id"`
	Item0                       int    `json:"item0"`
	Item1                       int    `json:"item1"`
	Item2                       int    `json:"item2"`
	Item3                       int    `json:"item3"`
	Item4                       int    `json:"item4"`
	Item5                       int    `json:"item5"`
	Item6                       int    `json:"item6"`
	GoldEarned                  int    `json:"goldEarned"`
	TotalMinionsKilled          int    `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int    `json:"neutralMinionsKilled"`
	TotalDamageDealtToChampions int    `json:"totalDamageDealtToChampions"`
	VisionScore                 int    `json:"visionScore"`
}

// Items returns the equipped item ids in slot order, empty slots (0) removed.
func (p Participant) Items() []int {
	items := make([]int, 0, 7)
	for _, id := range [...]int{p.Item0, p.Item1, p.Item2, p.Item3, p.Item4, p.Item5, p.Item6} {
		if id > 0 {
			items = append(items, id)
		}
	}
	return items
}

// DisplayName prefers the riot id over the legacy summoner name.
func (p Participant) DisplayName() string {
	if p.RiotIDGameName != "" {
		return p.RiotIDGameName
	}
	if p.SummonerName != "" {
		return p.SummonerName
	}
	return "Unknown"
}

type Team struct {
	TeamID     int            `json:"teamId"`
	Win        bool           `json:"win"`
	Bans       []Ban          `json:"bans"`
	Objectives TeamObjectives `json:"objectives"`
}

type Ban struct {
	ChampionID int `json:"championId"`
	PickTurn   int `json:"pickTurn"`
}

type Objective struct {
	First bool `json:"first"`
	Kills int  `json:"kills"`
}

type TeamObjectives struct {
	Baron      Objective `json:"baron"`
	Champion   Objective `json:"champion"`
	Dragon     Objective `json:"dragon"`
	Horde      Objective `json:"horde"`
	Inhibitor  Objective `json:"inhibitor"`
	RiftHerald Objective `json:"riftHerald"`
	Tower      Objective `json:"tower"`
}
