package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felmahq/felma/internal/adapters/repository"
	service "github.com/felmahq/felma/internal/app"
	"github.com/felmahq/felma/internal/domain/model"
	"github.com/felmahq/felma/internal/domain/ranking"
	"github.com/felmahq/felma/internal/domain/types"
	"github.com/felmahq/felma/pkg/logger"
	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithMaxListLimit(25),
			service.WithProfileStore(repository.NewMemoryProfileStore()),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats, err := svc.GetStats(ctx)
				So(err, ShouldBeNil)
				So(stats["started"], ShouldEqual, true)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats, err := svc.GetStats(ctx)
				So(err, ShouldBeNil)
				So(stats["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_CreateItem(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When creating an item without ratings", func() {
			item, err := svc.CreateItem(ctx, types.NewItem{
				Content: "The weekly export takes four hours",
				Org:     "acme",
			})

			Convey("Then it should be stored unrated at the capture stage", func() {
				So(err, ShouldBeNil)
				So(item.ID, ShouldNotEqual, uuid.Nil)
				So(item.Rated, ShouldBeFalse)
				So(item.PriorityRank, ShouldEqual, 0)
				So(item.Stage, ShouldEqual, model.StageCapture)
			})
		})

		Convey("When creating an item with initial ratings", func() {
			item, err := svc.CreateItem(ctx, types.NewItem{
				Content: "Deploy previews for every branch",
				Ratings: &ranking.Ratings{CustomerImpact: 8, TeamEnergy: 8, Frequency: 9, Ease: 9},
			})

			Convey("Then the ranking engine should run before persisting", func() {
				So(err, ShouldBeNil)
				So(item.Rated, ShouldBeTrue)
				So(item.PriorityRank, ShouldEqual, 72)
				So(item.ActionTier, ShouldEqual, ranking.TierMakeItHappen)
				So(item.EscalationFlag, ShouldBeFalse)
			})
		})

		Convey("When creating an item with blank content", func() {
			_, err := svc.CreateItem(ctx, types.NewItem{Content: "   \n\t  "})

			Convey("Then it should be rejected", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, model.ErrBlankContent), ShouldBeTrue)
			})
		})

		Convey("When creating an item with an out-of-range rating", func() {
			_, err := svc.CreateItem(ctx, types.NewItem{
				Content: "Rotate the on-call schedule",
				Ratings: &ranking.Ratings{CustomerImpact: 5, TeamEnergy: 11, Frequency: 5, Ease: 5},
			})

			Convey("Then the error should name the offending field", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ranking.ErrInvalidRating), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "team_energy")
			})
		})

		Convey("When the originator brings a display name", func() {
			_, err := svc.CreateItem(ctx, types.NewItem{
				Content:        "Customers keep asking for CSV export",
				Originator:     "originator-7",
				OriginatorName: "Sam Verde",
				Org:            "acme",
			})
			So(err, ShouldBeNil)

			Convey("Then the profile should be stored for later resolution", func() {
				profile, err := svc.GetProfile(ctx, "originator-7")
				So(err, ShouldBeNil)
				So(profile.Name, ShouldEqual, "Sam Verde")
				So(profile.Org, ShouldEqual, "acme")
			})
		})
	})
}

func TestService_ListItems(t *testing.T) {
	Convey("Given a started service with a small list cap", t, func() {
		svc := service.New(service.WithMaxListLimit(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		for i, ratings := range []ranking.Ratings{
			{CustomerImpact: 1, TeamEnergy: 1, Frequency: 1, Ease: 1},
			{CustomerImpact: 5, TeamEnergy: 5, Frequency: 5, Ease: 5},
			{CustomerImpact: 10, TeamEnergy: 10, Frequency: 10, Ease: 10},
		} {
			r := ratings
			_, err := svc.CreateItem(ctx, types.NewItem{
				Content: []string{"low", "mid", "high"}[i],
				Ratings: &r,
			})
			So(err, ShouldBeNil)
		}

		Convey("When listing without a limit", func() {
			items, err := svc.ListItems(ctx, types.ListQuery{Sort: types.SortRank})

			Convey("Then the configured maximum should apply", func() {
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 2)
				So(items[0].PriorityRank, ShouldEqual, 100)
			})
		})

		Convey("When listing with an oversized limit", func() {
			items, err := svc.ListItems(ctx, types.ListQuery{Sort: types.SortRank, Limit: 5000})

			Convey("Then the limit should be clamped to the maximum", func() {
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 2)
			})
		})

		Convey("When listing with a limit inside the cap", func() {
			items, err := svc.ListItems(ctx, types.ListQuery{Sort: types.SortRank, Limit: 1})

			Convey("Then the requested limit should apply", func() {
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 1)
			})
		})
	})
}

func TestService_RateItem(t *testing.T) {
	Convey("Given a started service with an unrated item", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		item, err := svc.CreateItem(ctx, types.NewItem{Content: "Support exports to CSV"})
		So(err, ShouldBeNil)

		Convey("When rating the item", func() {
			rated, err := svc.RateItem(ctx, item.ID,
				ranking.Ratings{CustomerImpact: 5, TeamEnergy: 9, Frequency: 5, Ease: 3})

			Convey("Then the refreshed item should carry the engine result", func() {
				So(err, ShouldBeNil)
				So(rated.Rated, ShouldBeTrue)
				So(rated.PriorityRank, ShouldEqual, 28)
				So(rated.ActionTier, ShouldEqual, ranking.TierWhenTimeAllows)
				So(rated.EscalationFlag, ShouldBeTrue)
			})
		})

		Convey("When rating with invalid values", func() {
			_, err := svc.RateItem(ctx, item.ID,
				ranking.Ratings{CustomerImpact: 0, TeamEnergy: 5, Frequency: 5, Ease: 5})

			Convey("Then the engine should reject before any write", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ranking.ErrInvalidRating), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "customer_impact")

				unchanged, err := svc.GetItem(ctx, item.ID)
				So(err, ShouldBeNil)
				So(unchanged.Rated, ShouldBeFalse)
			})
		})

		Convey("When rating an unknown item", func() {
			_, err := svc.RateItem(ctx, uuid.New(),
				ranking.Ratings{CustomerImpact: 5, TeamEnergy: 5, Frequency: 5, Ease: 5})

			Convey("Then it should report not found", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, repository.ErrItemNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_AdvanceStage(t *testing.T) {
	Convey("Given a started service with a captured item", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		item, err := svc.CreateItem(ctx, types.NewItem{Content: "Batch invoice reminders"})
		So(err, ShouldBeNil)

		Convey("When advancing to the next stage", func() {
			advanced, err := svc.AdvanceStage(ctx, item.ID, model.StageClarify, "asked finance for details")

			Convey("Then the stage and note should be recorded", func() {
				So(err, ShouldBeNil)
				So(advanced.Stage, ShouldEqual, model.StageClarify)
				So(advanced.StageNotes[model.StageClarify], ShouldEqual, "asked finance for details")
			})
		})

		Convey("When skipping ahead in the workflow", func() {
			_, err := svc.AdvanceStage(ctx, item.ID, model.StageAct, "")

			Convey("Then the advance should be rejected", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, repository.ErrStageOrder), ShouldBeTrue)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When getting stats before starting", func() {
			stats, err := svc.GetStats(ctx)

			Convey("Then it should return basic stats", func() {
				So(err, ShouldBeNil)
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
			})
		})
	})
}
