package scoring_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/cartola/internal/domain/model"
	scoring "github.com/okian/cartola/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func athleteWith(clubID int, scout map[string]float64) model.Athlete {
	return model.Athlete{
		ID:              1,
		ClubID:          clubID,
		PositionID:      model.PositionForward,
		Status:          model.StatusProbable,
		AveragePoints:   5,
		LastRoundPoints: 8,
		Price:           10,
		Scout:           model.NormalizeScout(scout),
	}
}

func TestSGProbability(t *testing.T) {
	Convey("Given the fixtures of a round", t, func() {
		matches := []model.Match{{HomeClubID: 262, AwayClubID: 263}, {HomeClubID: 275, AwayClubID: 276}}
		homes := scoring.HomeClubs(matches)

		Convey("Then home clubs get 78", func() {
			So(scoring.SGProbability(athleteWith(262, nil), homes), ShouldEqual, 78)
			So(scoring.SGProbability(athleteWith(275, nil), homes), ShouldEqual, 78)
		})

		Convey("And away clubs get 48", func() {
			So(scoring.SGProbability(athleteWith(263, nil), homes), ShouldEqual, 48)
		})

		Convey("And clubs without a fixture get 48", func() {
			So(scoring.SGProbability(athleteWith(999, nil), homes), ShouldEqual, 48)
		})
	})

	Convey("Given an empty fixture list", t, func() {
		homes := scoring.HomeClubs(nil)

		Convey("Then every club gets 48", func() {
			So(scoring.SGProbability(athleteWith(262, nil), homes), ShouldEqual, 48)
		})
	})
}

func TestFormulas(t *testing.T) {
	Convey("Given an athlete with a scout tally", t, func() {
		a := athleteWith(262, map[string]float64{"G": 2, "A": 1, "FC": 3, "CA": 1, "GS": 2})

		Convey("Then captain score weighs average, goals and assists", func() {
			So(scoring.CaptainScore(a), ShouldAlmostEqual, 0.6*5+2*2+1.5*1, 1e-9)
		})

		Convey("And trend is last round minus average", func() {
			So(scoring.Trend(a), ShouldEqual, 3.0)
		})

		Convey("And risk weighs fouls, cards and goals conceded", func() {
			So(scoring.RiskScore(a), ShouldAlmostEqual, 0.5*3+2*1+2*2, 1e-9)
		})

		Convey("And goal chance is ten times the average", func() {
			So(scoring.GoalChance(a), ShouldEqual, 50)
		})
	})

	Convey("Given an athlete who underperformed", t, func() {
		a := athleteWith(262, nil)
		a.AveragePoints = 6.5
		a.LastRoundPoints = -2.3

		Convey("Then trend is negative and exact", func() {
			So(scoring.Trend(a), ShouldEqual, -2.3-6.5)
		})
	})

	Convey("Given an athlete with an empty scout", t, func() {
		a := athleteWith(262, nil)

		Convey("Then risk is zero and captain score is the weighted average", func() {
			So(scoring.RiskScore(a), ShouldEqual, 0.0)
			So(scoring.RiskScore(a), ShouldBeGreaterThanOrEqualTo, 0.0)
			So(scoring.CaptainScore(a), ShouldAlmostEqual, 3.0, 1e-9)
		})
	})

	Convey("Given a very high average", t, func() {
		a := athleteWith(262, nil)
		a.AveragePoints = 15

		Convey("Then goal chance is capped at 92", func() {
			So(scoring.GoalChance(a), ShouldEqual, 92)
		})
	})
}

func TestEngine_Valorization(t *testing.T) {
	Convey("Given an engine seeded with 42", t, func() {
		engine := scoring.NewEngine(scoring.WithRand(rand.New(rand.NewSource(42))))

		Convey("When a probable athlete costs 10", func() {
			a := athleteWith(262, nil)
			v := engine.Valorization(a)

			Convey("Then the estimate stays within the sampling bounds", func() {
				So(v, ShouldBeBetweenOrEqual, 3.7*0.8, 3.7*1.2)
			})

			Convey("And it is within 5% of the min value", func() {
				So(v, ShouldAlmostEqual, 3.7, 3.7*0.05)
			})
		})

		Convey("When the price is zero", func() {
			a := athleteWith(262, nil)
			a.Price = 0

			Convey("Then the sentinel is returned", func() {
				So(engine.Valorization(a), ShouldEqual, scoring.NotApplicable)
			})
		})

		Convey("When the min value exceeds the threshold", func() {
			a := athleteWith(262, nil)
			a.Price = 20

			Convey("Then the sentinel is returned", func() {
				So(engine.Valorization(a), ShouldEqual, -1.0)
			})
		})

		Convey("When the athlete is not probable", func() {
			a := athleteWith(262, nil)
			a.Status = model.StatusDoubtful

			Convey("Then the sentinel is returned regardless of price", func() {
				So(engine.Valorization(a), ShouldEqual, -1.0)
				a.Price = 5
				So(engine.Valorization(a), ShouldEqual, -1.0)
			})
		})
	})

	Convey("Given two engines with the same seed", t, func() {
		first := scoring.NewEngine(scoring.WithSeed(7))
		second := scoring.NewEngine(scoring.WithSeed(7))
		a := athleteWith(262, nil)

		Convey("Then their estimates are identical", func() {
			So(first.Valorization(a), ShouldEqual, second.Valorization(a))
		})
	})

	Convey("Given an engine with many samples", t, func() {
		engine := scoring.NewEngine(scoring.WithSamples(20000))

		Convey("Then the estimate converges to the min value", func() {
			So(engine.Samples(), ShouldEqual, 20000)
			So(engine.Valorization(athleteWith(262, nil)), ShouldAlmostEqual, 3.7, 3.7*0.01)
		})
	})
}

func TestEngine_Derive(t *testing.T) {
	Convey("Given an engine and a round", t, func() {
		engine := scoring.NewEngine()
		matches := []model.Match{{HomeClubID: 262, AwayClubID: 263}}
		athletes := []model.Athlete{athleteWith(262, map[string]float64{"G": 1}), athleteWith(263, nil)}
		athletes[1].ID = 2
		athletes[1].Status = model.StatusInjured

		Convey("When deriving every athlete", func() {
			scored := engine.DeriveAll(athletes, matches)

			Convey("Then metrics are attached in order", func() {
				So(len(scored), ShouldEqual, 2)
				So(scored[0].ID, ShouldEqual, 1)
				So(scored[0].Metrics.SGProbability, ShouldEqual, 78)
				So(scored[0].Metrics.CaptainScore, ShouldAlmostEqual, 5.0, 1e-9)
				So(scored[0].Metrics.ValorizationScore, ShouldBeGreaterThan, 0)
				So(scored[1].Metrics.SGProbability, ShouldEqual, 48)
				So(scored[1].Metrics.ValorizationScore, ShouldEqual, scoring.NotApplicable)
			})
		})
	})
}

func TestProjection(t *testing.T) {
	Convey("Given base and risk totals", t, func() {
		p := scoring.ProjectTotals(20.0, 5.0)

		Convey("Then the three scenarios follow the fixed factors", func() {
			So(p.Expected, ShouldAlmostEqual, 21.0, 1e-9)
			So(p.Optimistic, ShouldAlmostEqual, 29.4, 1e-9)
			So(p.Pessimistic, ShouldAlmostEqual, 12.6, 1e-9)
		})
	})

	Convey("Given a selection of athletes", t, func() {
		a := athleteWith(262, map[string]float64{"CA": 2})
		b := athleteWith(263, nil)
		b.AveragePoints = 15

		Convey("When projecting", func() {
			p, err := scoring.Project([]model.Athlete{a, b})

			Convey("Then base is the summed average and risk the mean risk", func() {
				So(err, ShouldBeNil)
				So(p.Athletes, ShouldEqual, 2)
				So(p.BaseScore, ShouldEqual, 20.0)
				So(p.RiskTotal, ShouldAlmostEqual, 2.0, 1e-9)
				So(p.Expected, ShouldAlmostEqual, 20*1.1-2*0.2, 1e-9)
			})
		})

		Convey("When projecting an empty selection", func() {
			_, err := scoring.Project(nil)

			Convey("Then ErrInvalidSelection is returned", func() {
				So(errors.Is(err, scoring.ErrInvalidSelection), ShouldBeTrue)
			})
		})
	})
}
