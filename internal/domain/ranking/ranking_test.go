package ranking_test

import (
	"testing"

	"github.com/okian/cartola/internal/domain/model"
	"github.com/okian/cartola/internal/domain/ranking"
	"github.com/okian/cartola/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func scored(id, club, pos int, avg float64, m model.DerivedMetrics) model.ScoredAthlete {
	return model.ScoredAthlete{
		Athlete: model.Athlete{
			ID:               id,
			Nickname:         "n" + string(rune('A'+id)),
			ClubID:           club,
			ClubName:         "club",
			PositionID:       pos,
			AveragePoints:    avg,
			PhotoURLTemplate: "p_FORMATO.png",
		},
		Metrics: m,
	}
}

func entryIDs(entries []types.Entry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.AthleteID)
	}
	return out
}

func TestRanker(t *testing.T) {
	Convey("Given a ranker and scored athletes", t, func() {
		r := ranking.NewRanker(ranking.WithPhotoFormat("220x220"), ranking.WithMaxLimit(10))
		athletes := []model.ScoredAthlete{
			scored(1, 10, model.PositionMidfielder, 6, model.DerivedMetrics{CaptainScore: 9, Trend: 4, ValorizationScore: 3.1, SGProbability: 78, GoalChance: 60}),
			scored(2, 10, model.PositionForward, 7, model.DerivedMetrics{CaptainScore: 8, Trend: 5, ValorizationScore: -1, SGProbability: 78, GoalChance: 70}),
			scored(3, 20, model.PositionForward, 8, model.DerivedMetrics{CaptainScore: 7, Trend: -6, ValorizationScore: 2.0, SGProbability: 48, GoalChance: 80}),
			scored(4, 30, model.PositionGoalkeeper, 5, model.DerivedMetrics{CaptainScore: 20, Trend: -1, ValorizationScore: 3.5, SGProbability: 48, GoalChance: 50}),
			scored(5, 20, model.PositionMidfielder, 3, model.DerivedMetrics{CaptainScore: 7, Trend: 0, ValorizationScore: 1.0, SGProbability: 48, GoalChance: 30}),
		}

		Convey("When building the captain board", func() {
			entries := r.Captain(athletes, 0)

			Convey("Then only midfielders and forwards appear, one per club", func() {
				So(entryIDs(entries), ShouldResemble, []int{1, 3})
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].Value, ShouldEqual, 9.0)
				So(entries[0].PhotoURL, ShouldEqual, "p_220x220.png")
			})
		})

		Convey("When building trend boards", func() {
			Convey("Then rising orders by highest trend per club", func() {
				So(entryIDs(r.Rising(athletes, 0)), ShouldResemble, []int{2, 5, 4})
			})

			Convey("And falling orders by lowest trend and keeps the raw value", func() {
				entries := r.Falling(athletes, 0)
				So(entryIDs(entries), ShouldResemble, []int{3, 4, 1})
				So(entries[0].Value, ShouldEqual, -6.0)
			})
		})

		Convey("When building the valorization board", func() {
			entries := r.Valorization(athletes, 3)

			Convey("Then sentinel scores are excluded", func() {
				So(entryIDs(entries), ShouldResemble, []int{4, 1, 3})
			})
		})

		Convey("When building the goal board", func() {
			entries := r.GoalChance(athletes, 0)

			Convey("Then forwards are ranked by average with their goal chance", func() {
				So(entryIDs(entries), ShouldResemble, []int{3, 2})
				So(entries[0].Value, ShouldEqual, 80.0)
			})
		})

		Convey("When building the SG board", func() {
			clubs := r.SGByClub(athletes, 0)

			Convey("Then one row per club is listed by probability", func() {
				So(len(clubs), ShouldEqual, 3)
				So(clubs[0].ClubID, ShouldEqual, 10)
				So(clubs[0].Value, ShouldEqual, 78.0)
				So(clubs[1].ClubID, ShouldEqual, 20)
				So(clubs[2].Rank, ShouldEqual, 3)
			})
		})

		Convey("When dispatching by name", func() {
			_, ok := r.Board(ranking.BoardCaptain, athletes, 1)
			So(ok, ShouldBeTrue)
			_, ok = r.Board("nope", athletes, 1)
			So(ok, ShouldBeFalse)
		})

		Convey("When limits are out of range", func() {
			So(r.Limit(0), ShouldEqual, ranking.DefaultLimit)
			So(r.Limit(-3), ShouldEqual, ranking.DefaultLimit)
			So(r.Limit(100), ShouldEqual, 10)
			So(len(r.Rising(athletes, 1)), ShouldEqual, 1)
		})

		Convey("When the input is empty", func() {
			So(r.Captain(nil, 0), ShouldBeEmpty)
			So(r.SGByClub(nil, 0), ShouldBeEmpty)
		})
	})
}
