// Package model contains the domain entities rebuilt on every fetch cycle.
package model

import "strings"

// PhotoFormatToken is the placeholder inside photo URL templates.
const PhotoFormatToken = "FORMATO"

// DefaultPhotoFormat is the resolution used when none is requested.
const DefaultPhotoFormat = "140x140"

// StatusID is the editorial availability tag of an athlete.
type StatusID int

// Known status ids as published by the market API.
const (
	StatusDoubtful  StatusID = 2
	StatusSuspended StatusID = 3
	StatusInjured   StatusID = 5
	StatusNull      StatusID = 6
	StatusProbable  StatusID = 7
)

// String returns the English label of the status.
func (s StatusID) String() string {
	switch s {
	case StatusProbable:
		return "probable"
	case StatusDoubtful:
		return "doubtful"
	case StatusSuspended:
		return "suspended"
	case StatusInjured:
		return "injured"
	case StatusNull:
		return "null"
	default:
		return "unknown"
	}
}

// Position ids.
const (
	PositionGoalkeeper = 1
	PositionFullback   = 2
	PositionCenterBack = 3
	PositionMidfielder = 4
	PositionForward    = 5
	PositionCoach      = 6
)

// Club is reference data keyed by id.
type Club struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	CrestURL     string `json:"crest_url"`
	Abbreviation string `json:"abbreviation"`
}

// Position is reference data keyed by id.
type Position struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
}

// Match is one fixture of the current round.
type Match struct {
	HomeClubID int `json:"home_club_id"`
	AwayClubID int `json:"away_club_id"`
}

// Athlete is an enriched athlete record. Scout is total over KnownScouts.
type Athlete struct {
	ID               int        `json:"id"`
	Nickname         string     `json:"nickname"`
	ClubID           int        `json:"club_id"`
	PositionID       int        `json:"position_id"`
	Status           StatusID   `json:"status_id"`
	AveragePoints    float64    `json:"average_points"`
	LastRoundPoints  float64    `json:"last_round_points"`
	Price            float64    `json:"price"`
	PhotoURLTemplate string     `json:"photo_url_template"`
	Scout            ScoutTally `json:"scout"`

	ClubName         string `json:"club_name"`
	ClubCrest        string `json:"club_crest"`
	ClubAbbreviation string `json:"club_abbreviation"`
	PositionName     string `json:"position_name"`
}

// Record returns the athlete itself; it lets wrappers embedding Athlete
// satisfy interfaces that need the base record.
func (a Athlete) Record() Athlete { return a }

// IsProbable reports whether the athlete is expected to play.
func (a Athlete) IsProbable() bool { return a.Status == StatusProbable }

// PhotoURL resolves the photo template for a concrete resolution.
func (a Athlete) PhotoURL(format string) string {
	if format == "" {
		format = DefaultPhotoFormat
	}
	return strings.ReplaceAll(a.PhotoURLTemplate, PhotoFormatToken, format)
}

// DerivedMetrics are computed per cycle and never persisted.
type DerivedMetrics struct {
	SGProbability     int     `json:"sg_probability"`
	CaptainScore      float64 `json:"captain_score"`
	Trend             float64 `json:"trend"`
	ValorizationScore float64 `json:"valorization_score"`
	RiskScore         float64 `json:"risk_score"`
	GoalChance        int     `json:"goal_chance"`
}

// ScoredAthlete pairs an athlete with the metrics of the current cycle.
type ScoredAthlete struct {
	Athlete
	Metrics DerivedMetrics `json:"metrics"`
}
