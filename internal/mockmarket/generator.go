package mockmarket

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/okian/cartola/internal/domain/model"
)

type clubSeed struct {
	id   int
	name string
	abbr string
}

var clubCatalog = []clubSeed{
	{262, "Flamengo", "FLA"}, {263, "Botafogo", "BOT"}, {264, "Corinthians", "COR"},
	{265, "Bahia", "BAH"}, {266, "Fluminense", "FLU"}, {267, "Vasco", "VAS"},
	{275, "Palmeiras", "PAL"}, {276, "São Paulo", "SAO"}, {277, "Santos", "SAN"},
	{280, "Bragantino", "RBB"}, {282, "Atlético-MG", "CAM"}, {283, "Cruzeiro", "CRU"},
	{284, "Grêmio", "GRE"}, {285, "Internacional", "INT"}, {286, "Juventude", "JUV"},
	{287, "Vitória", "VIT"}, {292, "Sport", "SPT"}, {354, "Ceará", "CEA"},
	{356, "Fortaleza", "FOR"}, {2305, "Mirassol", "MIR"},
}

var positionCatalog = map[string]model.RawPosition{
	"1": {Name: "Goleiro", Abbreviation: "gol"},
	"2": {Name: "Lateral", Abbreviation: "lat"},
	"3": {Name: "Zagueiro", Abbreviation: "zag"},
	"4": {Name: "Meia", Abbreviation: "mei"},
	"5": {Name: "Atacante", Abbreviation: "ata"},
	"6": {Name: "Técnico", Abbreviation: "tec"},
}

// squad is the position id of each generated athlete slot, cycled per club.
var squad = []int{1, 2, 2, 3, 3, 4, 4, 4, 5, 5, 6, 1, 2, 3, 4, 4, 5, 5, 3, 4, 5, 2, 4, 5, 3, 1}

// scoutBias lists the scouts each position tends to accumulate.
var scoutBias = map[int][]string{
	1: {model.ScoutSave, model.ScoutGoalConceded, model.ScoutCleanSheet, model.ScoutPenaltySave},
	2: {model.ScoutTackle, model.ScoutAssist, model.ScoutCleanSheet, model.ScoutFoulCommitted},
	3: {model.ScoutTackle, model.ScoutCleanSheet, model.ScoutFoulCommitted, model.ScoutYellowCard},
	4: {model.ScoutGoal, model.ScoutAssist, model.ScoutTackle, model.ScoutSavedShot, model.ScoutFoulSuffered},
	5: {model.ScoutGoal, model.ScoutSavedShot, model.ScoutPostShot, model.ScoutOffTargetShot, model.ScoutAssist},
}

var nicknameParts = []string{
	"Pedro", "Gabriel", "Lucas", "Matheus", "Rafael", "Bruno", "Thiago", "Vitor",
	"Arthur", "Danilo", "Everton", "Igor", "Luan", "Marcos", "Nathan", "Otávio",
}

// Dataset is one generated set of upstream documents.
type Dataset struct {
	Market  model.RawMarket
	Matches model.RawMatches
	Status  StatusDoc
}

// Generate builds a dataset from cfg. It only reads the generator settings.
func Generate(cfg Config) Dataset {
	rng := rand.New(rand.NewSource(cfg.Seed))

	n := cfg.Clubs
	if n <= 0 || n > len(clubCatalog) {
		n = len(clubCatalog)
	}
	clubs := clubCatalog[:n]

	ds := Dataset{
		Market: model.RawMarket{
			Clubs:     make(map[string]model.RawClub, n),
			Positions: positionCatalog,
		},
		Matches: model.RawMatches{Round: cfg.Round},
		Status:  StatusDoc{MarketStatus: marketClosed, CurrentRound: cfg.Round},
	}
	if cfg.Open {
		ds.Status.MarketStatus = marketOpen
	}

	for _, c := range clubs {
		ds.Market.Clubs[strconv.Itoa(c.id)] = model.RawClub{
			Name:         c.name,
			Abbreviation: c.abbr,
			Crests: map[string]string{
				"60x60": fmt.Sprintf("https://s.sde.globo.com/media/organizations/escudos/%d_60x60.png", c.id),
				"45x45": fmt.Sprintf("https://s.sde.globo.com/media/organizations/escudos/%d_45x45.png", c.id),
				"30x30": fmt.Sprintf("https://s.sde.globo.com/media/organizations/escudos/%d_30x30.png", c.id),
			},
		}
		for i := 0; i < cfg.AthletesPerClub; i++ {
			ds.Market.Athletes = append(ds.Market.Athletes, athlete(rng, c.id, i, cfg.Round))
		}
	}

	order := rng.Perm(len(clubs))
	for i := 0; i+1 < len(order); i += 2 {
		ds.Matches.Matches = append(ds.Matches.Matches, model.RawMatch{
			HomeClubID: clubs[order[i]].id,
			AwayClubID: clubs[order[i+1]].id,
		})
	}
	return ds
}

func athlete(rng *rand.Rand, clubID, slot, round int) model.RawAthlete {
	id := clubID*100 + slot
	pos := squad[slot%len(squad)]

	played := round - 1
	if played < 1 {
		played = 1
	}
	avg := round2(rng.NormFloat64()*2.2 + 3.5)
	if avg < -2 {
		avg = -2
	}
	price := round2(2 + rng.Float64()*18)
	if rng.Intn(40) == 0 {
		price = 0
	}

	raw := model.RawAthlete{
		ID:              id,
		ClubID:          clubID,
		PositionID:      pos,
		StatusID:        status(rng),
		Nickname:        fmt.Sprintf("%s %s", nicknameParts[rng.Intn(len(nicknameParts))], string(rune('A'+slot%26))),
		Price:           price,
		AveragePoints:   avg,
		LastRoundPoints: round2(avg + rng.NormFloat64()*3),
		Photo:           fmt.Sprintf("https://s.sde.globo.com/media/person_role/%d/FORMATO.png", id),
	}
	if pos != 6 && rng.Intn(10) > 0 {
		raw.Scout = make(map[string]float64)
		for _, code := range scoutBias[pos] {
			if c := rng.Intn(played + 1); c > 0 {
				raw.Scout[code] = float64(c)
			}
		}
	}
	return raw
}

func status(rng *rand.Rand) int {
	switch p := rng.Intn(100); {
	case p < 60:
		return int(model.StatusProbable)
	case p < 75:
		return int(model.StatusDoubtful)
	case p < 82:
		return int(model.StatusSuspended)
	case p < 90:
		return int(model.StatusInjured)
	default:
		return int(model.StatusNull)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Payload returns the dataset as a fetched payload, stamped with at.
func (d Dataset) Payload(at time.Time) model.Payload {
	status, _ := json.Marshal(d.Status)
	return model.Payload{
		Market:    d.Market,
		Matches:   d.Matches,
		Status:    status,
		FetchedAt: at,
	}
}
