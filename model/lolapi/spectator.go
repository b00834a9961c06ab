package modellolapi

// ActiveGame is returned by lol/spectator/v5/active-games/by-summoner/{puuid}.
type ActiveGame struct {
	GameID            int64                    `json:"gameId"`
	GameType          string                   `json:"gameType"`
	GameStartTime     int64                    `json:"gameStartTime"`
	MapID             int                      `json:"mapId"`
	GameLength        int                      `json:"gameLength"`
	PlatformID        string                   `json:"platformId"`
	GameMode          string                   `json:"gameMode"`
	GameQueueConfigID int                      `json:"gameQueueConfigId"`
	BannedChampions   []BannedChampion         `json:"bannedChampions"`
	Participants      []CurrentGameParticipant `json:"participants"`
}

type BannedChampion struct {
	ChampionID int `json:"championId"`
	TeamID     int `json:"teamId"`
	PickTurn   int `json:"pickTurn"`
}

type CurrentGameParticipant struct {
	ChampionID    int    `json:"championId"`
	PUUID         string `json:"puuid"`
	TeamID        int    `json:"teamId"`
	Spell1ID      int    `json:"spell1Id"`
	Spell2ID      int    `json:"spell2Id"`
	ProfileIconID int    `json:"profileIconId"`
	RiotID        string `json:"riotId"`
	Bot           bool   `json:"bot"`
}
