package stats

import (
	"sort"

	"github.com/phturb/lolstats-backend-go/catalog"
	modellolapi "github.com/phturb/lolstats-backend-go/model/lolapi"
	"github.com/phturb/lolstats-backend-go/stats/model"
	"github.com/phturb/lolstats-backend-go/timeline"
)

func championRef(l *catalog.Lookup, id int) model.AssetRef {
	return model.AssetRef{ID: id, Name: l.ChampionName(id), Icon: l.ChampionIconURL(id)}
}

func spellRefs(l *catalog.Lookup, ids ...int) []model.AssetRef {
	refs := make([]model.AssetRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, model.AssetRef{ID: id, Name: l.SpellName(id), Icon: l.SpellIconURL(id)})
	}
	return refs
}

func itemRefs(l *catalog.Lookup, ids []int) []model.AssetRef {
	refs := make([]model.AssetRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, model.AssetRef{ID: id, Name: l.ItemTitle(id), Icon: l.ItemIconURL(id)})
	}
	return refs
}

func participantView(l *catalog.Lookup, p modellolapi.Participant, highlight string) model.ParticipantView {
	champ := championRef(l, p.ChampionID)
	if champ.Name == "" {
		champ.Name = p.ChampionName
	}
	return model.ParticipantView{
		ParticipantID: p.ParticipantID,
		PUUID:         p.PUUID,
		Name:          p.DisplayName(),
		TagLine:       p.RiotIDTagline,
		TeamID:        p.TeamID,
		Position:      p.TeamPosition,
		Win:           p.Win,
		Champion:      champ,
		ChampionLevel: p.ChampLevel,
		Spells:        spellRefs(l, p.Summoner1ID, p.Summoner2ID),
		Items:         itemRefs(l, p.Items()),
		Kills:         p.Kills,
		Deaths:        p.Deaths,
		Assists:       p.Assists,
		CS:            p.TotalMinionsKilled + p.NeutralMinionsKilled,
		Gold:          p.GoldEarned,
		Damage:        p.TotalDamageDealtToChampions,
		VisionScore:   p.VisionScore,
		Highlighted:   highlight != "" && p.PUUID == highlight,
	}
}

func matchSummary(l *catalog.Lookup, m *modellolapi.Match, puuid string) model.MatchSummary {
	s := model.MatchSummary{
		MatchID:         m.Metadata.MatchID,
		QueueID:         m.Info.QueueID,
		QueueName:       catalog.QueueName(m.Info.QueueID),
		GameMode:        m.Info.GameMode,
		DurationSeconds: m.Info.GameDuration,
		EndedAt:         m.Info.EndedAt(),
		Participants:    make([]model.ParticipantView, 0, len(m.Info.Participants)),
	}
	for _, p := range m.Info.Participants {
		pv := participantView(l, p, puuid)
		s.Participants = append(s.Participants, pv)
		if pv.Highlighted {
			player := pv
			s.Player = &player
		}
	}
	return s
}

func teamViews(l *catalog.Lookup, m *modellolapi.Match, participants []model.ParticipantView) []model.TeamView {
	teams := make([]model.TeamView, 0, 2)
	for _, t := range m.Info.Teams {
		tv := model.TeamView{
			TeamID:       t.TeamID,
			Win:          t.Win,
			Bans:         make([]model.AssetRef, 0, len(t.Bans)),
			Objectives:   t.Objectives,
			Participants: []model.ParticipantView{},
		}
		for _, b := range t.Bans {
			if b.ChampionID <= 0 {
				continue
			}
			tv.Bans = append(tv.Bans, championRef(l, b.ChampionID))
		}
		teams = append(teams, tv)
	}
	if len(teams) == 0 {
		teams = append(teams,
			model.TeamView{TeamID: timeline.TeamBlue, Bans: []model.AssetRef{}, Participants: []model.ParticipantView{}},
			model.TeamView{TeamID: timeline.TeamRed, Bans: []model.AssetRef{}, Participants: []model.ParticipantView{}},
		)
	}
	for _, p := range participants {
		for i := range teams {
			if teams[i].TeamID != p.TeamID {
				continue
			}
			teams[i].Participants = append(teams[i].Participants, p)
			teams[i].Kills += p.Kills
			teams[i].Gold += p.Gold
			if p.Win {
				teams[i].Win = true
			}
		}
	}
	return teams
}

func masteryViews(l *catalog.Lookup, ms []modellolapi.ChampionMastery) []model.MasteryView {
	views := make([]model.MasteryView, 0, len(ms))
	for _, m := range ms {
		views = append(views, model.MasteryView{ChampionMastery: m, Champion: championRef(l, m.ChampionID)})
	}
	return views
}

func liveGame(l *catalog.Lookup, g *modellolapi.ActiveGame, lg *model.LiveGame) {
	lg.GameID = g.GameID
	lg.GameMode = g.GameMode
	lg.QueueName = catalog.QueueName(g.GameQueueConfigID)
	lg.StartTime = g.GameStartTime
	lg.Length = g.GameLength
	for _, p := range g.Participants {
		lp := model.LiveParticipant{
			PUUID:       p.PUUID,
			RiotID:      p.RiotID,
			TeamID:      p.TeamID,
			Bot:         p.Bot,
			Champion:    championRef(l, p.ChampionID),
			Spells:      spellRefs(l, p.Spell1ID, p.Spell2ID),
			ProfileIcon: l.ProfileIconURL(p.ProfileIconID),
		}
		if p.TeamID == timeline.TeamRed {
			lg.Red = append(lg.Red, lp)
		} else {
			lg.Blue = append(lg.Blue, lp)
		}
	}
	for _, b := range g.BannedChampions {
		if b.ChampionID <= 0 {
			continue
		}
		lg.Bans = append(lg.Bans, championRef(l, b.ChampionID))
	}
}

// sortByRecency orders matches most recent first, whatever order their fetches completed in.
func sortByRecency(ms []model.MatchSummary) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].EndedAt > ms[j].EndedAt
	})
}
