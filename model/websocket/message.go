package modelwebsocket

import "errors"

type Action string

const (
	Search    Action = "search"
	LoadMore  Action = "loadMore"
	LoadMatch Action = "loadMatch"
	LiveGame  Action = "liveGame"
	Reset     Action = "reset"
)

var ClientActions = []Action{
	Search,
	LoadMore,
	LoadMatch,
	LiveGame,
	Reset,
}

const (
	UpdateState Action = "updateState"
	Error       Action = "error"
)

var ServerActions = []Action{
	UpdateState,
	Error,
}

func ActionFromString(a string) (Action, error) {
	for _, known := range append(ClientActions, ServerActions...) {
		if string(known) == a {
			return known, nil
		}
	}
	return "", errors.New("unsuported action name")
}

func (s Action) String() string {
	if _, err := ActionFromString(string(s)); err != nil {
		return "unknown"
	}
	return string(s)
}

type Message struct {
	Action  Action `json:"action"`
	Content string `json:"content,omitempty"`
}

// SearchContent is the content of a search action. RiotID ("Name#TAG") is used when GameName is empty.
type SearchContent struct {
	Region   string `json:"region"`
	GameName string `json:"gameName,omitempty"`
	TagLine  string `json:"tagLine,omitempty"`
	RiotID   string `json:"riotId,omitempty"`
}

type LoadMatchContent struct {
	MatchID string `json:"matchId"`
}

type ErrorContent struct {
	Action Action `json:"action"`
	Error  string `json:"error"`
}
