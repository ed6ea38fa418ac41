package mockmarket

import "os"

// ShowHelp prints usage information for the mock market server.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Cartola Mock Market
===================

Serves deterministic synthetic Cartola FC documents on
/atletas/mercado, /partidas and /mercado/status.

Usage:
  go run ./cmd/mock-cartola [options]

Options:
  -addr string
        Listen address (default ":9090")
  -seed int
        Random seed of the generated dataset (default 42)
  -clubs int
        Number of clubs (default 20)
  -athletes int
        Athletes per club (default 26)
  -round int
        Current round (default 12)
  -closed
        Serve a closed market
  -fail-rate float
        Share of requests answered with 503 (default 0)
  -latency duration
        Delay added to every response
  -help
        Show this help message

Example:
  go run ./cmd/mock-cartola -fail-rate 0.2 &
  CARTOLA_UPSTREAM_BASE_URL=http://localhost:9090 go run ./cmd
`)
}
