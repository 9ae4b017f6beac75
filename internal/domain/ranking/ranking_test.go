package ranking_test

import (
	"errors"
	"testing"

	"github.com/felmahq/felma/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompute(t *testing.T) {
	Convey("Given the priority ranking engine", t, func() {
		Convey("When every rating is at the maximum", func() {
			res, err := ranking.Compute(ranking.Ratings{
				CustomerImpact: 10,
				TeamEnergy:     10,
				Frequency:      10,
				Ease:           10,
			})

			Convey("Then the rank is 100 in the top tier without escalation", func() {
				So(err, ShouldBeNil)
				So(res.PriorityRank, ShouldEqual, 100)
				So(res.ActionTier, ShouldEqual, ranking.TierMakeItHappen)
				So(res.EscalationFlag, ShouldBeFalse)
			})
		})

		Convey("When every rating is at the minimum", func() {
			res, err := ranking.Compute(ranking.Ratings{
				CustomerImpact: 1,
				TeamEnergy:     1,
				Frequency:      1,
				Ease:           1,
			})

			Convey("Then the rank is 1 in the bottom tier without escalation", func() {
				So(err, ShouldBeNil)
				So(res.PriorityRank, ShouldEqual, 1)
				So(res.ActionTier, ShouldEqual, ranking.TierParkForLater)
				So(res.EscalationFlag, ShouldBeFalse)
			})
		})

		Convey("When a motivated team is blocked by a hard fix", func() {
			// urgency 0.57*5+0.43*9 = 6.72; feasibility 0.6*5+0.4*3 = 4.2;
			// 6.72*4.2 = 28.224 rounds to 28.
			res, err := ranking.Compute(ranking.Ratings{
				CustomerImpact: 5,
				TeamEnergy:     9,
				Frequency:      5,
				Ease:           3,
			})

			Convey("Then a low rank still raises the escalation flag", func() {
				So(err, ShouldBeNil)
				So(res.PriorityRank, ShouldEqual, 28)
				So(res.ActionTier, ShouldEqual, ranking.TierWhenTimeAllows)
				So(res.EscalationFlag, ShouldBeTrue)
			})
		})

		Convey("When the product lands exactly on a tier boundary", func() {
			// urgency 0.57*8+0.43*8 = 8; feasibility 0.6*9+0.4*9 = 9; rank 72.
			res, err := ranking.Compute(ranking.Ratings{
				CustomerImpact: 8,
				TeamEnergy:     8,
				Frequency:      9,
				Ease:           9,
			})

			Convey("Then the lower edge of the band is inclusive", func() {
				So(err, ShouldBeNil)
				So(res.PriorityRank, ShouldEqual, 72)
				So(res.ActionTier, ShouldEqual, ranking.TierMakeItHappen)
				So(res.EscalationFlag, ShouldBeFalse)
			})
		})

		Convey("When rounding is needed on the final product", func() {
			// urgency 0.57*3+0.43*4 = 3.43; feasibility 0.6*2+0.4*7 = 4.0;
			// 3.43*4.0 = 13.72 rounds to 14. Rounding the factors first
			// would give 3*4 = 12.
			res, err := ranking.Compute(ranking.Ratings{
				CustomerImpact: 3,
				TeamEnergy:     4,
				Frequency:      2,
				Ease:           7,
			})

			Convey("Then only the product is rounded, not the factors", func() {
				So(err, ShouldBeNil)
				So(res.PriorityRank, ShouldEqual, 14)
			})
		})

		Convey("When a rating is above the maximum", func() {
			_, err := ranking.Compute(ranking.Ratings{
				CustomerImpact: 5,
				TeamEnergy:     11,
				Frequency:      5,
				Ease:           5,
			})

			Convey("Then the error names the offending field", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ranking.ErrInvalidRating), ShouldBeTrue)

				var verr *ranking.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Fields, ShouldResemble, []string{ranking.FieldTeamEnergy})
				So(err.Error(), ShouldContainSubstring, "team_energy")
			})
		})

		Convey("When several ratings are invalid at once", func() {
			_, err := ranking.Compute(ranking.Ratings{
				CustomerImpact: 0,
				TeamEnergy:     5,
				Frequency:      -2,
				Ease:           11,
			})

			Convey("Then every offending field is named", func() {
				var verr *ranking.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Fields, ShouldResemble, []string{
					ranking.FieldCustomerImpact,
					ranking.FieldFrequency,
					ranking.FieldEase,
				})
			})
		})

		Convey("When a rating is missing from a decoded request", func() {
			// A zero value is how an absent JSON field arrives; it must be
			// rejected, never defaulted.
			_, err := ranking.Compute(ranking.Ratings{
				CustomerImpact: 5,
				TeamEnergy:     5,
				Frequency:      5,
			})

			Convey("Then the zero value is rejected as out of range", func() {
				var verr *ranking.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Fields, ShouldResemble, []string{ranking.FieldEase})
			})
		})
	})
}

func TestComputeProperties(t *testing.T) {
	Convey("Given every valid rating combination", t, func() {
		Convey("Then ranks stay in [1,100], tiers are total, and calls are pure", func() {
			for ci := 1; ci <= 10; ci++ {
				for te := 1; te <= 10; te++ {
					for fr := 1; fr <= 10; fr++ {
						for ea := 1; ea <= 10; ea++ {
							in := ranking.Ratings{
								CustomerImpact: ci,
								TeamEnergy:     te,
								Frequency:      fr,
								Ease:           ea,
							}
							first, err := ranking.Compute(in)
							So(err, ShouldBeNil)
							So(first.PriorityRank, ShouldBeGreaterThanOrEqualTo, 1)
							So(first.PriorityRank, ShouldBeLessThanOrEqualTo, 100)
							So(first.ActionTier, ShouldEqual, ranking.TierFor(first.PriorityRank))
							So(first.EscalationFlag, ShouldEqual, te >= 9 && ea <= 3)

							second, err := ranking.Compute(in)
							So(err, ShouldBeNil)
							So(second, ShouldResemble, first)
						}
					}
				}
			}
		})
	})

	Convey("Given the escalation rule", t, func() {
		Convey("When only customer impact or frequency vary", func() {
			base := ranking.Ratings{CustomerImpact: 1, TeamEnergy: 9, Frequency: 1, Ease: 3}
			want, err := ranking.Compute(base)
			So(err, ShouldBeNil)
			So(want.EscalationFlag, ShouldBeTrue)

			Convey("Then the flag never changes", func() {
				for v := 1; v <= 10; v++ {
					withImpact := base
					withImpact.CustomerImpact = v
					res, err := ranking.Compute(withImpact)
					So(err, ShouldBeNil)
					So(res.EscalationFlag, ShouldBeTrue)

					withFrequency := base
					withFrequency.Frequency = v
					res, err = ranking.Compute(withFrequency)
					So(err, ShouldBeNil)
					So(res.EscalationFlag, ShouldBeTrue)
				}
			})
		})

		Convey("When team energy or ease cross their thresholds", func() {
			Convey("Then the flag tracks exactly energy>=9 and ease<=3", func() {
				for te := 1; te <= 10; te++ {
					for ea := 1; ea <= 10; ea++ {
						res, err := ranking.Compute(ranking.Ratings{
							CustomerImpact: 5,
							TeamEnergy:     te,
							Frequency:      5,
							Ease:           ea,
						})
						So(err, ShouldBeNil)
						So(res.EscalationFlag, ShouldEqual, te >= 9 && ea <= 3)
					}
				}
			})
		})
	})
}

func TestTierFor(t *testing.T) {
	Convey("Given the tier step function", t, func() {
		Convey("When walking every rank from 1 to 100", func() {
			Convey("Then bands are exhaustive, non-overlapping, and monotonic", func() {
				order := map[ranking.Tier]int{
					ranking.TierMakeItHappen:   4,
					ranking.TierActOnItNow:     3,
					ranking.TierMoveItForward:  2,
					ranking.TierWhenTimeAllows: 1,
					ranking.TierParkForLater:   0,
				}

				prev := -1
				for rank := 1; rank <= 100; rank++ {
					tier := ranking.TierFor(rank)
					level, known := order[tier]
					So(known, ShouldBeTrue)
					So(level, ShouldBeGreaterThanOrEqualTo, prev)
					prev = level
				}
			})
		})

		Convey("When probing the exact boundaries", func() {
			cases := map[int]ranking.Tier{
				100: ranking.TierMakeItHappen,
				70:  ranking.TierMakeItHappen,
				69:  ranking.TierActOnItNow,
				50:  ranking.TierActOnItNow,
				49:  ranking.TierMoveItForward,
				36:  ranking.TierMoveItForward,
				35:  ranking.TierWhenTimeAllows,
				25:  ranking.TierWhenTimeAllows,
				24:  ranking.TierParkForLater,
				1:   ranking.TierParkForLater,
			}

			Convey("Then each lower edge belongs to the higher band", func() {
				for rank, want := range cases {
					So(ranking.TierFor(rank), ShouldEqual, want)
				}
			})
		})
	})

	Convey("Given the tier list", t, func() {
		Convey("Then it holds the five tiers in descending urgency", func() {
			tiers := ranking.Tiers()
			So(tiers, ShouldHaveLength, 5)
			So(tiers[0], ShouldEqual, ranking.TierMakeItHappen)
			So(tiers[4], ShouldEqual, ranking.TierParkForLater)
		})
	})
}

func TestValidationErrorMessage(t *testing.T) {
	Convey("Given a validation failure", t, func() {
		err := ranking.Ratings{CustomerImpact: 11, TeamEnergy: 0, Frequency: 5, Ease: 5}.Validate()

		Convey("Then the message lists the fields and the allowed range", func() {
			So(err, ShouldNotBeNil)
			msg := err.Error()
			So(msg, ShouldContainSubstring, "customer_impact")
			So(msg, ShouldContainSubstring, "team_energy")
			So(msg, ShouldContainSubstring, "between 1 and 10")
			So(msg, ShouldNotContainSubstring, "frequency")
			So(msg, ShouldNotContainSubstring, "ease")
		})
	})
}
