package lineup

import (
	"github.com/okian/cartola/internal/domain/model"
)

// scoutFocus lists the scouts compared per position.
var scoutFocus = map[string][]string{
	Goalkeeper: {model.ScoutSave, model.ScoutGoalConceded, model.ScoutCleanSheet},
	Fullback:   {model.ScoutTackle, model.ScoutAssist, model.ScoutCleanSheet},
	CenterBack: {model.ScoutTackle, model.ScoutCleanSheet, model.ScoutFoulCommitted},
	Midfielder: {model.ScoutGoal, model.ScoutAssist, model.ScoutTackle, model.ScoutSavedShot},
	Forward:    {model.ScoutGoal, model.ScoutSavedShot, model.ScoutPostShot, model.ScoutAssist},
}

// ScoutFocus returns the scouts compared for position. Coaches have none.
func ScoutFocus(position string) []string {
	return append([]string(nil), scoutFocus[position]...)
}

// ScoutValue is one compared scout.
type ScoutValue struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// Contender is one athlete in an arena comparison.
type Contender struct {
	AthleteID     int          `json:"athlete_id"`
	Nickname      string       `json:"nickname"`
	ClubCrest     string       `json:"club_crest"`
	PhotoURL      string       `json:"photo_url"`
	Price         float64      `json:"price"`
	AveragePoints float64      `json:"average_points"`
	SGProbability int          `json:"sg_probability"`
	Scouts        []ScoutValue `json:"scouts"`
}

// Compare lines up the named athletes of position side by side, in the order
// of nicknames. Unknown nicknames are ignored.
func Compare(athletes []model.ScoredAthlete, position string, nicknames []string, photoFormat string) ([]Contender, error) {
	if !Valid(position) {
		return nil, ErrUnknownPosition
	}
	byNick := make(map[string]model.ScoredAthlete, len(athletes))
	for _, a := range athletes {
		if a.PositionName != position {
			continue
		}
		if _, ok := byNick[a.Nickname]; !ok {
			byNick[a.Nickname] = a
		}
	}

	focus := scoutFocus[position]
	out := make([]Contender, 0, len(nicknames))
	for _, nick := range nicknames {
		a, ok := byNick[nick]
		if !ok {
			continue
		}
		scouts := make([]ScoutValue, 0, len(focus))
		for _, code := range focus {
			scouts = append(scouts, ScoutValue{Code: code, Count: a.Scout.Count(code)})
		}
		out = append(out, Contender{
			AthleteID:     a.ID,
			Nickname:      a.Nickname,
			ClubCrest:     a.ClubCrest,
			PhotoURL:      a.PhotoURL(photoFormat),
			Price:         a.Price,
			AveragePoints: a.AveragePoints,
			SGProbability: a.Metrics.SGProbability,
			Scouts:        scouts,
		})
	}
	return out, nil
}
