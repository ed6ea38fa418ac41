package model

import "time"

// RawAthlete mirrors one entry of atletas/mercado "atletas".
type RawAthlete struct {
	ID              int                `json:"atleta_id"`
	ClubID          int                `json:"clube_id"`
	PositionID      int                `json:"posicao_id"`
	StatusID        int                `json:"status_id"`
	Nickname        string             `json:"apelido"`
	Price           float64            `json:"preco_num"`
	AveragePoints   float64            `json:"media_num"`
	LastRoundPoints float64            `json:"pontos_num"`
	Photo           string             `json:"foto"`
	Scout           map[string]float64 `json:"scout"`
}

// RawClub mirrors one value of the "clubes" reference table.
type RawClub struct {
	Name         string            `json:"nome"`
	Abbreviation string            `json:"abreviacao"`
	Crests       map[string]string `json:"escudos"`
}

// RawPosition mirrors one value of the "posicoes" reference table.
type RawPosition struct {
	Name         string `json:"nome"`
	Abbreviation string `json:"abreviacao"`
}

// RawMarket is the atletas/mercado document.
type RawMarket struct {
	Athletes  []RawAthlete           `json:"atletas"`
	Clubs     map[string]RawClub     `json:"clubes"`
	Positions map[string]RawPosition `json:"posicoes"`
}

// RawMatch mirrors one entry of partidas "partidas".
type RawMatch struct {
	HomeClubID int `json:"clube_casa_id"`
	AwayClubID int `json:"clube_visitante_id"`
}

// RawMatches is the partidas document.
type RawMatches struct {
	Round   int        `json:"rodada"`
	Matches []RawMatch `json:"partidas"`
}

// Payload bundles the raw documents of one fetch cycle. Status is kept as
// bytes so that malformed documents survive caching and are judged later.
type Payload struct {
	Market    RawMarket  `json:"market"`
	Matches   RawMatches `json:"matches"`
	Status    []byte     `json:"status"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// ToMatches converts the raw fixture list.
func (m RawMatches) ToMatches() []Match {
	out := make([]Match, 0, len(m.Matches))
	for _, r := range m.Matches {
		out = append(out, Match{HomeClubID: r.HomeClubID, AwayClubID: r.AwayClubID})
	}
	return out
}
