package catalog

import (
	"fmt"
	"strconv"

	modellolapi "github.com/phturb/lolstats-backend-go/model/lolapi"
)

// Lookup resolves numeric ids found in match payloads. Unknown ids resolve to "".
type Lookup struct {
	Version string

	prefix    string
	champions map[int]modellolapi.Champion
	items     map[int]modellolapi.Item
	spells    map[int]modellolapi.SummonerSpell
}

// NewLookup builds a lookup over fixed tables.
func NewLookup(version, prefix string, champions map[int]modellolapi.Champion, items map[int]modellolapi.Item, spells map[int]modellolapi.SummonerSpell) *Lookup {
	return &Lookup{
		Version:   version,
		prefix:    prefix,
		champions: champions,
		items:     items,
		spells:    spells,
	}
}

func (l *Lookup) img(kind, file string) string {
	return fmt.Sprintf("%s/cdn/%s/img/%s/%s", l.prefix, l.Version, kind, file)
}

func (l *Lookup) Champion(key int) (modellolapi.Champion, bool) {
	c, ok := l.champions[key]
	return c, ok
}

func (l *Lookup) ChampionName(key int) string {
	return l.champions[key].Name
}

func (l *Lookup) ChampionIconURL(key int) string {
	c, ok := l.champions[key]
	if !ok || c.Image.Full == "" {
		return ""
	}
	return l.img("champion", c.Image.Full)
}

func (l *Lookup) SpellName(key int) string {
	return l.spells[key].Name
}

func (l *Lookup) SpellIconURL(key int) string {
	s, ok := l.spells[key]
	if !ok || s.Image.Full == "" {
		return ""
	}
	return l.img("spell", s.Image.Full)
}

func (l *Lookup) ItemName(id int) string {
	return l.items[id].Name
}

// ItemTitle is "<name> (<id>)", or a placeholder when the item is unknown.
func (l *Lookup) ItemTitle(id int) string {
	if name := l.ItemName(id); name != "" {
		return fmt.Sprintf("%s (%d)", name, id)
	}
	return fmt.Sprintf("Item %d", id)
}

// ItemIconURL is empty for the empty slot (0).
func (l *Lookup) ItemIconURL(id int) string {
	if id <= 0 {
		return ""
	}
	return l.img("item", strconv.Itoa(id)+".png")
}

func (l *Lookup) ProfileIconURL(iconID int) string {
	if iconID <= 0 {
		return ""
	}
	return l.img("profileicon", strconv.Itoa(iconID)+".png")
}

var queueNames = map[int]string{
	420: "Ranked Solo/Duo",
	440: "Ranked Flex",
	400: "Normal Draft",
	430: "Normal Blind",
	450: "ARAM",
}

// QueueName labels a queue id.
func QueueName(queueID int) string {
	if queueID == 0 {
		return "Unknown queue"
	}
	if n, ok := queueNames[queueID]; ok {
		return n
	}
	return fmt.Sprintf("Queue %d", queueID)
}
