package modellolapi

// Image is the sprite descriptor shared by every asset catalog entry.
type Image struct {
	Full   string `json:"full"`
	Sprite string `json:"sprite"`
	Group  string `json:"group"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	W      int    `json:"w"`
	H      int    `json:"h"`
}

// Champion is an entry of champion.json, keyed upstream by its name id ("Ahri").
// Key holds the numeric id used inside match payloads.
type Champion struct {
	Version string   `json:"version"`
	ID      string   `json:"id"`
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Blurb   string   `json:"blurb"`
	Partype string   `json:"partype"`
	Tags    []string `json:"tags"`
	Image   Image    `json:"image"`
	Info    struct {
		Attack     int `json:"attack"`
		Defense    int `json:"defense"`
		Magic      int `json:"magic"`
		Difficulty int `json:"difficulty"`
	} `json:"info"`
}

// Item is an entry of item.json, keyed upstream by its numeric id.
type Item struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Plaintext   string `json:"plaintext"`
	Image       Image  `json:"image"`
	Gold        struct {
		Base        int  `json:"base"`
		Total       int  `json:"total"`
		Sell        int  `json:"sell"`
		Purchasable bool `json:"purchasable"`
	} `json:"gold"`
}

// SummonerSpell is an entry of summoner.json, keyed upstream by its name id ("SummonerFlash").
type SummonerSpell struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       Image  `json:"image"`
}

// CatalogDocument is the envelope of every version scoped data file.
type CatalogDocument[T any] struct {
	Type    string       `json:"type"`
	Version string       `json:"version"`
	Data    map[string]T `json:"data"`
}
