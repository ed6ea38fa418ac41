package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/okian/cartola/internal/adapters/cache"
	"github.com/okian/cartola/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func samplePayload() model.Payload {
	return model.Payload{
		Market: model.RawMarket{
			Athletes: []model.RawAthlete{{ID: 1, Nickname: "Pedro", Scout: map[string]float64{"G": 2}}},
			Clubs:    map[string]model.RawClub{"262": {Name: "Flamengo"}},
		},
		Matches:   model.RawMatches{Round: 3},
		Status:    []byte(`{"status_mercado":1}`),
		FetchedAt: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemoryCache(t *testing.T) {
	convey.Convey("Given a memory cache with a 60s window", t, func() {
		now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
		c := cache.NewMemoryCache(time.Minute, cache.WithClock(func() time.Time { return now }))
		ctx := context.Background()

		convey.Convey("When nothing was stored", func() {
			_, ok, err := c.Get(ctx)

			convey.Convey("Then it misses", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a payload was stored", func() {
			convey.So(c.Set(ctx, samplePayload()), convey.ShouldBeNil)

			convey.Convey("Then it is served inside the window", func() {
				now = now.Add(59 * time.Second)
				p, ok, err := c.Get(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(p.Market.Athletes[0].Nickname, convey.ShouldEqual, "Pedro")
			})

			convey.Convey("And it expires after the window", func() {
				now = now.Add(time.Minute)
				_, ok, _ := c.Get(ctx)
				convey.So(ok, convey.ShouldBeFalse)
			})

			convey.Convey("And invalidation drops it", func() {
				convey.So(c.Invalidate(ctx), convey.ShouldBeNil)
				_, ok, _ := c.Get(ctx)
				convey.So(ok, convey.ShouldBeFalse)
			})
		})
	})
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("CARTOLA_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CARTOLA_TEST_REDIS_URL not set")
	}

	convey.Convey("Given a redis cache", t, func() {
		ctx := context.Background()
		c, err := cache.DialRedis(ctx, url, time.Minute, cache.WithKey("cartola:test:payload"))
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = c.Close() }()
		convey.So(c.Invalidate(ctx), convey.ShouldBeNil)

		convey.Convey("When a payload is stored", func() {
			convey.So(c.Set(ctx, samplePayload()), convey.ShouldBeNil)

			convey.Convey("Then it round-trips", func() {
				p, ok, err := c.Get(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(p.Matches.Round, convey.ShouldEqual, 3)
				convey.So(string(p.Status), convey.ShouldEqual, `{"status_mercado":1}`)
				convey.So(p.FetchedAt.Equal(samplePayload().FetchedAt), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the key is missing", func() {
			_, ok, err := c.Get(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}
