package filter_test

import (
	"testing"

	"github.com/okian/cartola/internal/domain/filter"
	"github.com/okian/cartola/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func roster() []model.Athlete {
	return []model.Athlete{
		{ID: 1, ClubName: "Flamengo", PositionName: "Meia", Status: model.StatusProbable},
		{ID: 2, ClubName: "Flamengo", PositionName: "Goleiro", Status: model.StatusDoubtful},
		{ID: 3, ClubName: "Palmeiras", PositionName: "Atacante", Status: model.StatusProbable},
		{ID: 4, ClubName: "Palmeiras", PositionName: "Meia", Status: model.StatusInjured},
	}
}

func ids[T filter.Subject](items []T) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.Record().ID)
	}
	return out
}

func TestApply(t *testing.T) {
	Convey("Given a roster", t, func() {
		athletes := roster()

		Convey("When no predicate is given", func() {
			out := filter.Apply(athletes)

			Convey("Then the input is returned unchanged", func() {
				So(out, ShouldResemble, athletes)
			})
		})

		Convey("When only empty predicates are given", func() {
			out := filter.Apply(athletes, filter.ByClubNames(), filter.ByStatuses(), filter.ByPositionNames(""))

			Convey("Then they are skipped", func() {
				So(out, ShouldResemble, athletes)
			})
		})

		Convey("When filtering by club", func() {
			out := filter.Apply(athletes, filter.ByClubNames("flamengo"))

			Convey("Then names match case-insensitively", func() {
				So(ids(out), ShouldResemble, []int{1, 2})
			})
		})

		Convey("When combining club and position", func() {
			out := filter.Apply(athletes, filter.ByClubNames("Palmeiras"), filter.ByPositionNames("Meia", "Atacante"))

			Convey("Then both must hold", func() {
				So(ids(out), ShouldResemble, []int{3, 4})
			})
		})

		Convey("When keeping probable athletes only", func() {
			out := filter.Apply(athletes, filter.ProbableOnly())

			Convey("Then doubtful and injured athletes are removed", func() {
				So(ids(out), ShouldResemble, []int{1, 3})
			})
		})

		Convey("When two predicates do not overlap", func() {
			out := filter.Apply(athletes, filter.ByPositionNames("Goleiro"), filter.ByStatuses(model.StatusInjured))

			Convey("Then the result is empty", func() {
				So(out, ShouldBeEmpty)
			})
		})
	})

	Convey("Given scored athletes", t, func() {
		scored := []model.ScoredAthlete{
			{Athlete: model.Athlete{ID: 7, ClubName: "Santos", Status: model.StatusProbable}},
			{Athlete: model.Athlete{ID: 8, ClubName: "Santos", Status: model.StatusNull}},
		}

		Convey("Then predicates apply through the embedded record", func() {
			out := filter.Apply(scored, filter.ProbableOnly())
			So(ids(out), ShouldResemble, []int{7})
		})
	})
}
