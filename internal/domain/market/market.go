// Package market interprets the market status payload.
package market

import (
	jsoniter "github.com/json-iterator/go"
)

// StatusOpen is the status_mercado code of an open market.
const StatusOpen = 1

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Status is the interpreted market state.
type Status struct {
	Open  bool `json:"open"`
	Code  int  `json:"code"`
	Round int  `json:"round,omitempty"`
}

// Label is the display form of the state.
func (s Status) Label() string {
	if s.Open {
		return "open"
	}
	return "closed"
}

type rawStatus struct {
	Code  *int `json:"status_mercado"`
	Round int  `json:"rodada_atual"`
}

// Interpret maps status_mercado 1 to Open. Any other code, a missing field or
// a payload that is not a JSON object yields Closed.
func Interpret(raw []byte) Status {
	var rs rawStatus
	if err := json.Unmarshal(raw, &rs); err != nil || rs.Code == nil {
		return Status{}
	}
	return Status{Open: *rs.Code == StatusOpen, Code: *rs.Code, Round: rs.Round}
}
