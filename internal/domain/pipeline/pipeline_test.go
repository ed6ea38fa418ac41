package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/cartola/internal/domain/model"
	"github.com/okian/cartola/internal/domain/pipeline"
	"github.com/okian/cartola/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func payload() model.Payload {
	return model.Payload{
		Market: model.RawMarket{
			Athletes: []model.RawAthlete{
				{ID: 30, ClubID: 262, PositionID: 5, StatusID: 7, Nickname: "Pedro", Price: 10, AveragePoints: 6, LastRoundPoints: 9, Scout: map[string]float64{"G": 5}},
				{ID: 10, ClubID: 263, PositionID: 1, StatusID: 2, Nickname: "John", Price: 8, AveragePoints: 4, LastRoundPoints: 1},
				{ID: 20, ClubID: 404, PositionID: 4, StatusID: 7, Nickname: "Lost"},
			},
			Clubs: map[string]model.RawClub{
				"262": {Name: "Flamengo", Abbreviation: "FLA"},
				"263": {Name: "Botafogo", Abbreviation: "BOT"},
			},
			Positions: map[string]model.RawPosition{
				"1": {Name: "Goleiro"},
				"4": {Name: "Meia"},
				"5": {Name: "Atacante"},
			},
		},
		Matches:   model.RawMatches{Round: 12, Matches: []model.RawMatch{{HomeClubID: 262, AwayClubID: 263}}},
		Status:    []byte(`{"status_mercado": 1, "rodada_atual": 13}`),
		FetchedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDeriver(t *testing.T) {
	Convey("Given a deriver and a payload", t, func() {
		d := pipeline.NewDeriver(scoring.NewEngine())

		Convey("When deriving a snapshot", func() {
			snap := d.Derive(context.Background(), payload())

			Convey("Then athletes are scored and ordered by id", func() {
				So(len(snap.Athletes), ShouldEqual, 2)
				So(snap.Athletes[0].ID, ShouldEqual, 10)
				So(snap.Athletes[1].ID, ShouldEqual, 30)
				So(snap.Athletes[1].Metrics.SGProbability, ShouldEqual, 78)
				So(snap.Athletes[0].Metrics.SGProbability, ShouldEqual, 48)
				So(snap.Athletes[0].Metrics.ValorizationScore, ShouldEqual, scoring.NotApplicable)
			})

			Convey("And unresolved athletes are counted", func() {
				So(snap.SkippedCount(), ShouldEqual, 1)
				So(snap.Skipped[0].AthleteID, ShouldEqual, 20)
			})

			Convey("And market state and round come from the status document", func() {
				So(snap.Market.Open, ShouldBeTrue)
				So(snap.Round, ShouldEqual, 13)
				So(snap.ID, ShouldNotBeEmpty)
				So(snap.FetchedAt, ShouldEqual, payload().FetchedAt)
			})

			Convey("And lookups by id work", func() {
				a, ok := snap.Athlete(30)
				So(ok, ShouldBeTrue)
				So(a.ClubName, ShouldEqual, "Flamengo")
				_, ok = snap.Athlete(20)
				So(ok, ShouldBeFalse)

				found, missing := snap.Select([]int{30, 99, 10})
				So(len(found), ShouldEqual, 2)
				So(found[0].ID, ShouldEqual, 30)
				So(missing, ShouldResemble, []int{99})
			})

			Convey("And reference data is listed", func() {
				So(len(snap.Clubs), ShouldEqual, 2)
				So(len(snap.Positions), ShouldEqual, 3)
				So(snap.Matches, ShouldResemble, []model.Match{{HomeClubID: 262, AwayClubID: 263}})
			})
		})

		Convey("When the status document is missing", func() {
			p := payload()
			p.Status = nil
			snap := d.Derive(context.Background(), p)

			Convey("Then the market is closed and the round falls back to the fixtures", func() {
				So(snap.Market.Open, ShouldBeFalse)
				So(snap.Round, ShouldEqual, 12)
			})
		})

		Convey("When deriving twice", func() {
			first := d.Derive(context.Background(), payload())
			second := d.Derive(context.Background(), payload())

			Convey("Then each cycle gets its own snapshot", func() {
				So(first.ID, ShouldNotEqual, second.ID)
				So(len(first.Athletes), ShouldEqual, len(second.Athletes))
			})
		})
	})

	Convey("Given an empty snapshot", t, func() {
		snap := pipeline.Empty()

		Convey("Then lookups miss without panicking", func() {
			_, ok := snap.Athlete(1)
			So(ok, ShouldBeFalse)
			So(snap.SkippedCount(), ShouldEqual, 0)
		})
	})
}
