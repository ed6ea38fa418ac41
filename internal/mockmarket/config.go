// Package mockmarket serves deterministic synthetic market data shaped like
// the public Cartola FC API, for local development and tests.
package mockmarket

import "time"

// Config holds the generator and server settings.
type Config struct {
	Seed            int64         // Random seed; equal seeds yield equal datasets
	Clubs           int           // Number of clubs, at most len(clubCatalog)
	AthletesPerClub int           // Athletes generated per club
	Round           int           // Current round
	Open            bool          // Market status
	FailRate        float64       // Share of requests answered with 503, 0..1
	Latency         time.Duration // Delay added to every response
}

// DefaultConfig returns the settings used by cmd/mock-cartola.
func DefaultConfig() Config {
	return Config{
		Seed:            42,
		Clubs:           20,
		AthletesPerClub: 26,
		Round:           12,
		Open:            true,
	}
}

// StatusDoc is the mercado/status document.
type StatusDoc struct {
	MarketStatus int `json:"status_mercado"`
	CurrentRound int `json:"rodada_atual"`
}

// Market status codes.
const (
	marketOpen   = 1
	marketClosed = 2
)
