package market_test

import (
	"testing"

	"github.com/okian/cartola/internal/domain/market"
	"github.com/smartystreets/goconvey/convey"
)

func TestInterpret(t *testing.T) {
	convey.Convey("Given market status payloads", t, func() {
		convey.Convey("When status_mercado is 1", func() {
			s := market.Interpret([]byte(`{"status_mercado": 1, "rodada_atual": 14}`))

			convey.Convey("Then the market is open", func() {
				convey.So(s.Open, convey.ShouldBeTrue)
				convey.So(s.Round, convey.ShouldEqual, 14)
				convey.So(s.Label(), convey.ShouldEqual, "open")
			})
		})

		convey.Convey("When status_mercado is 0", func() {
			s := market.Interpret([]byte(`{"status_mercado": 0}`))

			convey.Convey("Then the market is closed", func() {
				convey.So(s.Open, convey.ShouldBeFalse)
				convey.So(s.Label(), convey.ShouldEqual, "closed")
			})
		})

		convey.Convey("When status_mercado is another code", func() {
			convey.So(market.Interpret([]byte(`{"status_mercado": 2}`)).Open, convey.ShouldBeFalse)
		})

		convey.Convey("When the field is missing", func() {
			convey.So(market.Interpret([]byte(`{}`)).Open, convey.ShouldBeFalse)
		})

		convey.Convey("When the payload is malformed or not an object", func() {
			convey.So(market.Interpret([]byte(`{"status_mercado":`)).Open, convey.ShouldBeFalse)
			convey.So(market.Interpret([]byte(`[1]`)).Open, convey.ShouldBeFalse)
			convey.So(market.Interpret([]byte(`"open"`)).Open, convey.ShouldBeFalse)
			convey.So(market.Interpret(nil).Open, convey.ShouldBeFalse)
		})

		convey.Convey("When the code has the wrong type", func() {
			convey.So(market.Interpret([]byte(`{"status_mercado": "1"}`)).Open, convey.ShouldBeFalse)
		})
	})
}
