// Package types contains read shapes shared by the HTTP and MCP adapters.
package types

// Entry is one row of a ranking.
type Entry struct {
	Rank         int     `json:"rank"`
	AthleteID    int     `json:"athlete_id"`
	Nickname     string  `json:"nickname"`
	ClubName     string  `json:"club_name"`
	ClubCrest    string  `json:"club_crest,omitempty"`
	PositionName string  `json:"position_name"`
	PhotoURL     string  `json:"photo_url,omitempty"`
	Value        float64 `json:"value"`
}

// ClubEntry is one row of a per-club ranking.
type ClubEntry struct {
	Rank      int     `json:"rank"`
	ClubID    int     `json:"club_id"`
	ClubName  string  `json:"club_name"`
	ClubCrest string  `json:"club_crest,omitempty"`
	Value     float64 `json:"value"`
}
