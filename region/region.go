package region

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRegion = errors.New("unknown region")

// Code is a user facing region code.
type Code string

const (
	EUW  Code = "EUW"
	EUNE Code = "EUNE"
	NA   Code = "NA"
	KR   Code = "KR"
	BR   Code = "BR"
	JP   Code = "JP"
	OCE  Code = "OCE"
	TR   Code = "TR"
	RU   Code = "RU"
	LAN  Code = "LAN"
	LAS  Code = "LAS"
)

// Codes lists every supported region in display order.
var Codes = []Code{EUW, EUNE, NA, KR, BR, JP, OCE, TR, RU, LAN, LAS}

// Target holds the two upstream host values for one region.
// Routing serves account and match endpoints, Platform serves summoner and league endpoints.
type Target struct {
	Routing  string `json:"routing"`
	Platform string `json:"platform"`
}

var targets = map[Code]Target{
	EUW:  {Routing: "europe", Platform: "euw1"},
	EUNE: {Routing: "europe", Platform: "eun1"},
	NA:   {Routing: "americas", Platform: "na1"},
	KR:   {Routing: "asia", Platform: "kr"},
	BR:   {Routing: "americas", Platform: "br1"},
	JP:   {Routing: "asia", Platform: "jp1"},
	OCE:  {Routing: "sea", Platform: "oc1"},
	TR:   {Routing: "europe", Platform: "tr1"},
	RU:   {Routing: "europe", Platform: "ru"},
	LAN:  {Routing: "americas", Platform: "la1"},
	LAS:  {Routing: "americas", Platform: "la2"},
}

// fallbackPlatforms covers the split realm case where a player can miss on one platform and hit on the other.
var fallbackPlatforms = map[Code]string{
	EUW:  "eun1",
	EUNE: "euw1",
}

// Parse accepts a region code in any case.
func Parse(s string) (Code, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := targets[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, s)
	}
	return c, nil
}

func Resolve(c Code) (Target, error) {
	t, ok := targets[c]
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", ErrUnknownRegion, c)
	}
	return t, nil
}

// MustResolve is for region codes that come from the enumeration itself.
func MustResolve(c Code) Target {
	t, err := Resolve(c)
	if err != nil {
		panic(err)
	}
	return t
}

// Fallback returns the platform to retry on after a not found, if the region has one.
func Fallback(c Code) (string, bool) {
	p, ok := fallbackPlatforms[c]
	return p, ok
}

// ParsePlatform maps a platform (euw1, kr, ...) back to its region.
func ParsePlatform(platform string) (Code, error) {
	p := strings.ToLower(strings.TrimSpace(platform))
	for _, c := range Codes {
		if targets[c].Platform == p {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: platform %q", ErrUnknownRegion, platform)
}

// FromPlatform is ParsePlatform defaulting to EUW.
func FromPlatform(platform string) Code {
	if c, err := ParsePlatform(platform); err == nil {
		return c
	}
	return EUW
}
