package scoring

import (
	"github.com/okian/cartola/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

const (
	baseCoeff        = 1.1
	riskCoeff        = 0.2
	optimisticCoeff  = 1.4
	pessimisticCoeff = 0.6
)

// Projection is the simulated outcome of a selection for the next round.
type Projection struct {
	Athletes    int     `json:"athletes"`
	BaseScore   float64 `json:"base_score"`
	RiskTotal   float64 `json:"risk_total"`
	Expected    float64 `json:"expected"`
	Optimistic  float64 `json:"optimistic"`
	Pessimistic float64 `json:"pessimistic"`
}

// ProjectTotals projects from a summed average and a mean risk score.
func ProjectTotals(baseScore, riskTotal float64) Projection {
	expected := baseScore*baseCoeff - riskTotal*riskCoeff
	return Projection{
		BaseScore:   baseScore,
		RiskTotal:   riskTotal,
		Expected:    expected,
		Optimistic:  expected * optimisticCoeff,
		Pessimistic: expected * pessimisticCoeff,
	}
}

// Project sums the averages of selection and uses its mean risk score.
func Project(selection []model.Athlete) (Projection, error) {
	if len(selection) == 0 {
		return Projection{}, ErrInvalidSelection
	}
	var base float64
	risks := make([]float64, len(selection))
	for i, a := range selection {
		base += a.AveragePoints
		risks[i] = RiskScore(a)
	}
	p := ProjectTotals(base, stat.Mean(risks, nil))
	p.Athletes = len(selection)
	return p, nil
}
